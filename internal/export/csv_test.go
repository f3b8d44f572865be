package export

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/PratikDhanave/shop-analytics-service/internal/models"
)

func record(id int64, at time.Time, p models.Payload) models.Event {
	b, _ := json.Marshal(p)
	return models.Event{ID: id, CreatedAt: at, Payload: b}
}

func ptr(s string) *string { return &s }

func TestQuote(t *testing.T) {
	tests := []struct {
		name string
		in   *string
		want string
	}{
		{"null", nil, `""`},
		{"empty", ptr(""), `""`},
		{"plain", ptr("/cart"), `"/cart"`},
		{"embedded quotes", ptr(`He said "hi"`), `"He said ""hi"""`},
		{"comma", ptr("a,b"), `"a,b"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := quote(tt.in); got != tt.want {
				t.Fatalf("quote = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCSV_Empty(t *testing.T) {
	if got := CSV(nil); got != "" {
		t.Fatalf("empty export = %q, want empty", got)
	}
}

func TestCSV_Rows(t *testing.T) {
	at := time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC)
	events := []models.Event{
		record(7, at, models.Payload{
			Type:         "pageview",
			SessionID:    ptr("s1"),
			IsNewVisitor: true,
			Path:         "/a",
			Referrer:     `He said "hi"`,
			DeviceType:   "mobile",
			Country:      ptr("DE"),
		}),
		record(8, at.Add(time.Minute), models.Payload{Type: "purchase", DeviceType: "other"}),
	}

	lines := strings.Split(CSV(events), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header + 2", len(lines))
	}

	if lines[0] != strings.Join(Columns, ",") {
		t.Fatalf("header = %s", lines[0])
	}

	wantFirst := `"7","2026-04-02T10:30:00.000Z","pageview","s1","","true","/a","He said ""hi""","","","","mobile","","","","DE"`
	if lines[1] != wantFirst {
		t.Fatalf("row 1:\n got %s\nwant %s", lines[1], wantFirst)
	}
	if !strings.HasPrefix(lines[2], `"8","2026-04-02T10:31:00.000Z","purchase","",""`) {
		t.Fatalf("row 2 = %s", lines[2])
	}
}

type fakeWindow struct {
	since time.Time
	out   []models.Event
	err   error
}

func (f *fakeWindow) EventsSince(ctx context.Context, since time.Time) ([]models.Event, error) {
	f.since = since
	return f.out, f.err
}

func TestService_ExportWindow(t *testing.T) {
	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	loader := &fakeWindow{out: []models.Event{record(1, now, models.Payload{Type: "pageview"})}}
	svc := NewService(loader)
	svc.now = func() time.Time { return now }

	out, err := svc.Export(context.Background(), 7)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !loader.since.Equal(now.Add(-7 * 24 * time.Hour)) {
		t.Fatalf("since = %v", loader.since)
	}
	if !strings.Contains(out, `"pageview"`) {
		t.Fatalf("export = %s", out)
	}

	if _, err := svc.Export(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	if !loader.since.Equal(now.Add(-DefaultDays * 24 * time.Hour)) {
		t.Fatalf("non-positive days should use the default window, since = %v", loader.since)
	}
}

func TestService_ExportHugeWindow(t *testing.T) {
	now := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

	for _, days := range []int{106752, 200000, 1000000} {
		loader := &fakeWindow{}
		svc := NewService(loader)
		svc.now = func() time.Time { return now }

		if _, err := svc.Export(context.Background(), days); err != nil {
			t.Fatalf("days=%d: %v", days, err)
		}
		if !loader.since.Before(now) {
			t.Fatalf("days=%d: since = %v is not before now", days, loader.since)
		}
		if want := now.AddDate(0, 0, -days); !loader.since.Equal(want) {
			t.Fatalf("days=%d: since = %v, want %v", days, loader.since, want)
		}
	}
}

func TestService_ExportError(t *testing.T) {
	svc := NewService(&fakeWindow{err: errors.New("boom")})
	if _, err := svc.Export(context.Background(), 30); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseDaysAndFilename(t *testing.T) {
	tests := map[string]int{
		"": 30, "abc": 30, "0": 30, "-3": 30, "7": 7, " 90 ": 90,
		"36500": 36500, "200000": MaxDays, "99999999999999999999": 30,
	}
	for in, want := range tests {
		if got := ParseDays(in); got != want {
			t.Errorf("ParseDays(%q) = %d, want %d", in, got, want)
		}
	}
	if got := Filename(7); got != "events_last_7_days.csv" {
		t.Errorf("Filename = %s", got)
	}
}

func TestProperty_QuoteRoundTrip(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("unquoting a quoted value restores it", prop.ForAll(
		func(s string) bool {
			q := quote(&s)
			if len(q) < 2 || q[0] != '"' || q[len(q)-1] != '"' {
				return false
			}
			inner := q[1 : len(q)-1]
			if strings.Count(inner, `"`) != 2*strings.Count(s, `"`) {
				return false
			}
			return strings.ReplaceAll(inner, `""`, `"`) == s
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
