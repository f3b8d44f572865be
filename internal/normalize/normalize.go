// Package normalize maps arbitrary client payloads onto the fixed event shape.
//
// Normalization is total: every input, including nil or an empty object,
// yields a complete models.Payload. Fields outside the fixed shape are dropped.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/PratikDhanave/shop-analytics-service/internal/models"
)

// DefaultDeviceType is used when the client does not report a device.
const DefaultDeviceType = "other"

// Decode parses a request body into an input object. Empty, malformed, or
// non-object bodies yield an empty object.
func Decode(body []byte) map[string]any {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return map[string]any{}
	}
	return raw
}

// Payload normalizes raw into the persisted shape.
func Payload(raw map[string]any) models.Payload {
	path := text(raw["path"])
	if path == "" {
		path = text(raw["url"])
	}

	device := text(raw["deviceType"])
	if device == "" {
		device = DefaultDeviceType
	}

	return models.Payload{
		Type:         text(raw["type"]),
		SessionID:    optional(raw["sessionId"]),
		VisitorID:    optional(raw["visitorId"]),
		IsNewVisitor: truthy(raw["isNewVisitor"]),
		Path:         path,
		Referrer:     text(raw["referrer"]),
		UTMSource:    text(raw["utm_source"]),
		UTMMedium:    text(raw["utm_medium"]),
		UTMCampaign:  text(raw["utm_campaign"]),
		DeviceType:   device,

		ProductID:       optional(raw["productId"]),
		ProductCategory: optional(raw["productCategory"]),
		Grams:           optional(raw["grams"]),
		Country:         optional(raw["country"]),

		Step:      optional(raw["step"]),
		Items:     items(raw["items"]),
		MediaType: optional(raw["mediaType"]),
		Action:    optional(raw["action"]),
		FormID:    optional(raw["formId"]),
		Message:   optional(raw["message"]),
		LCP:       number(raw["lcp"]),
		FCP:       number(raw["fcp"]),
		TTFB:      number(raw["ttfb"]),
	}
}

// truthy follows JSON-client conventions: null, false, 0, NaN and "" are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	default:
		return true
	}
}

// text renders a scalar as a string, or "" when it is falsy or not a scalar.
func text(v any) string {
	if !truthy(v) {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// optional is text with falsy values mapped to nil.
func optional(v any) *string {
	s := text(v)
	if s == "" {
		return nil
	}
	return &s
}

func items(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	return nil
}

// number keeps finite numbers and numeric strings.
func number(v any) *float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
