// Package export renders stored events as a flat CSV download.
package export

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PratikDhanave/shop-analytics-service/internal/models"
)

const (
	// DefaultDays is the export window when none (or an invalid one) is requested.
	DefaultDays = 30
	// MaxDays caps the window at a century.
	MaxDays = 36500
)

// Columns is the fixed projection, in output order.
var Columns = []string{
	"id", "created_at", "type", "sessionId", "visitorId", "isNewVisitor",
	"path", "referrer", "utm_source", "utm_medium", "utm_campaign",
	"deviceType", "productId", "productCategory", "grams", "country",
}

// CSV renders events, which must already be ordered oldest first. Every field
// is quoted and nulls render as "". No events means an empty document.
func CSV(events []models.Event) string {
	if len(events) == 0 {
		return ""
	}

	lines := make([]string, 0, len(events)+1)
	lines = append(lines, strings.Join(Columns, ","))

	for _, e := range events {
		values := project(e)
		fields := make([]string, len(values))
		for i, v := range values {
			fields[i] = quote(v)
		}
		lines = append(lines, strings.Join(fields, ","))
	}

	return strings.Join(lines, "\n")
}

func project(e models.Event) []*string {
	p := e.Decode()
	return []*string{
		str(strconv.FormatInt(e.ID, 10)),
		str(e.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00")),
		str(p.Type),
		p.SessionID,
		p.VisitorID,
		str(strconv.FormatBool(p.IsNewVisitor)),
		str(p.Path),
		str(p.Referrer),
		str(p.UTMSource),
		str(p.UTMMedium),
		str(p.UTMCampaign),
		str(p.DeviceType),
		p.ProductID,
		p.ProductCategory,
		p.Grams,
		p.Country,
	}
}

func str(s string) *string { return &s }

// quote wraps v in double quotes, doubling embedded quotes. nil is "".
func quote(v *string) string {
	if v == nil {
		return `""`
	}
	return `"` + strings.ReplaceAll(*v, `"`, `""`) + `"`
}

// ParseDays reads the days query value, falling back to DefaultDays and
// clamping to MaxDays.
func ParseDays(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return DefaultDays
	}
	return min(n, MaxDays)
}

// Filename is the attachment name for a days window.
func Filename(days int) string {
	return fmt.Sprintf("events_last_%d_days.csv", days)
}

// WindowLoader is the slice of the event store the export reads from.
type WindowLoader interface {
	EventsSince(ctx context.Context, since time.Time) ([]models.Event, error)
}

// Service loads an export window from the store.
type Service struct {
	events WindowLoader
	now    func() time.Time
}

func NewService(events WindowLoader) *Service {
	return &Service{events: events, now: time.Now}
}

// Export renders the events created during the last days days.
func (s *Service) Export(ctx context.Context, days int) (string, error) {
	if days <= 0 {
		days = DefaultDays
	}
	// Calendar arithmetic; a Duration overflows past ~106k days.
	since := s.now().AddDate(0, 0, -days)

	events, err := s.events.EventsSince(ctx, since)
	if err != nil {
		return "", fmt.Errorf("load export window: %w", err)
	}
	return CSV(events), nil
}
