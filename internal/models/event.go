package models

import (
	"encoding/json"
	"time"
)

// Event is one stored record. Records are inserted once and never updated.
type Event struct {
	ID        int64           `json:"id"`
	CreatedAt time.Time       `json:"createdAt"`
	Payload   json.RawMessage `json:"payload"`
}

// Decode returns the stored payload. A payload that does not decode is
// treated as an empty object.
func (e Event) Decode() Payload {
	var p Payload
	if len(e.Payload) == 0 {
		return p
	}
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return Payload{}
	}
	return p
}

// Payload is the fixed-shape, normalized event body that gets persisted.
// Optional fields are nil when the client did not send them.
type Payload struct {
	Type         string  `json:"type"`
	SessionID    *string `json:"sessionId"`
	VisitorID    *string `json:"visitorId"`
	IsNewVisitor bool    `json:"isNewVisitor"`
	Path         string  `json:"path"`
	Referrer     string  `json:"referrer"`
	UTMSource    string  `json:"utm_source"`
	UTMMedium    string  `json:"utm_medium"`
	UTMCampaign  string  `json:"utm_campaign"`
	DeviceType   string  `json:"deviceType"`

	ProductID       *string `json:"productId"`
	ProductCategory *string `json:"productCategory"`
	Grams           *string `json:"grams"`
	Country         *string `json:"country"`

	// Per-kind detail read by the summary.
	Step      *string  `json:"step"`
	Items     []any    `json:"items"`
	MediaType *string  `json:"mediaType"`
	Action    *string  `json:"action"`
	FormID    *string  `json:"formId"`
	Message   *string  `json:"message"`
	LCP       *float64 `json:"lcp"`
	FCP       *float64 `json:"fcp"`
	TTFB      *float64 `json:"ttfb"`
}

// CollectResponse is returned by POST /collect.
type CollectResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// UsageResponse is returned by GET /admin/db-usage.
type UsageResponse struct {
	OK          bool    `json:"ok"`
	UsedBytes   int64   `json:"usedBytes"`
	UsedMB      float64 `json:"usedMB"`
	UsedPercent float64 `json:"usedPercent"`
}
