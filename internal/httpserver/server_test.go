package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/shop-analytics-service/internal/config"
	"github.com/PratikDhanave/shop-analytics-service/internal/models"
	"github.com/PratikDhanave/shop-analytics-service/internal/store"
)

type noopSweeper struct{}

func (noopSweeper) Trigger() {}

// newTestRouter builds the full router over an in-memory SQLite store and a
// temporary public dir.
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(st.Close)
	if err := st.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("schema: %v", err)
	}

	public := t.TempDir()
	if err := os.WriteFile(filepath.Join(public, "dashboard.html"), []byte("<h1>dashboard</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(public, "app.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Database.Driver = "sqlite"
	cfg.Database.URL = ":memory:"
	cfg.HTTP.PublicDir = public

	return NewRouter(cfg, st, noopSweeper{})
}

func request(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, strings.NewReader(body)))
	return w
}

func TestProbes(t *testing.T) {
	r := newTestRouter(t)

	if w := request(r, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Fatalf("health = %d", w.Code)
	}
	if w := request(r, http.MethodGet, "/ready", ""); w.Code != http.StatusOK {
		t.Fatalf("ready = %d body=%s", w.Code, w.Body.String())
	}
}

func TestPreflightShortCircuits(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{"/collect", "/api/summary", "/nowhere"} {
		w := request(r, http.MethodOptions, path, "")
		if w.Code != http.StatusNoContent {
			t.Fatalf("OPTIONS %s = %d", path, w.Code)
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Fatalf("OPTIONS %s allow-origin = %q", path, got)
		}
	}
}

func TestStaticFiles(t *testing.T) {
	r := newTestRouter(t)

	w := request(r, http.MethodGet, "/dashboard", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "dashboard") {
		t.Fatalf("dashboard = %d %s", w.Code, w.Body.String())
	}

	w = request(r, http.MethodGet, "/app.js", "")
	if w.Code != http.StatusOK || w.Body.String() != "console.log(1)" {
		t.Fatalf("app.js = %d %s", w.Code, w.Body.String())
	}

	if w := request(r, http.MethodGet, "/missing.css", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing = %d", w.Code)
	}
}

func TestCollectThenQuery(t *testing.T) {
	r := newTestRouter(t)

	events := []string{
		`{"type":"pageview","sessionId":"s1","visitorId":"v1","isNewVisitor":true,"url":"/home","referrer":"https://www.google.com/search?q=x","deviceType":"mobile","utm_source":"ads"}`,
		`{"type":"view_product","sessionId":"s1","productId":"p1","productCategory":"tea"}`,
		`{"type":"add_to_cart","sessionId":"s1","productId":"p1"}`,
		`{"type":"purchase","sessionId":"s1","productId":"p1"}`,
	}
	for _, body := range events {
		if w := request(r, http.MethodPost, "/collect", body); w.Code != http.StatusOK {
			t.Fatalf("collect = %d %s", w.Code, w.Body.String())
		}
	}

	w := request(r, http.MethodGet, "/api/events?limit=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("events = %d", w.Code)
	}
	var got []models.Event
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Decode().Type != "purchase" {
		t.Fatalf("events = %+v", got)
	}

	w = request(r, http.MethodGet, "/api/summary", "")
	if w.Code != http.StatusOK {
		t.Fatalf("summary = %d", w.Code)
	}
	var s models.Summary
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatal(err)
	}
	if s.EventsAnalyzed != 4 || s.Pageviews != 1 || s.Purchases != 1 || s.AddToCart != 1 || s.ProductViews != 1 {
		t.Fatalf("summary = %+v", s)
	}
	if s.UniqueSessions != 1 || s.NewVisitors != 1 || s.Devices.Mobile != 1 {
		t.Fatalf("summary = %+v", s)
	}
	if s.CRPageviewToPurchase != 100 || s.CRCartToPurchase != 100 || s.CRProductToCart != 100 {
		t.Fatalf("conversion = %v %v", s.CRPageviewToPurchase, s.CRCartToPurchase)
	}
	if len(s.TopReferrers) != 1 || s.TopReferrers[0].Source != "www.google.com" {
		t.Fatalf("referrers = %+v", s.TopReferrers)
	}
	wantUTM := models.UTMCount{Source: "ads", Medium: "(none)", Campaign: "(none)", Count: 1}
	if len(s.UTMCombos) != 1 || s.UTMCombos[0] != wantUTM {
		t.Fatalf("utm combos = %+v", s.UTMCombos)
	}
	if s.ProductCategories["tea"] != 1 {
		t.Fatalf("categories = %v", s.ProductCategories)
	}

	w = request(r, http.MethodGet, "/admin/export-events?days=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d", w.Code)
	}
	lines := strings.Split(w.Body.String(), "\n")
	if len(lines) != 5 || !strings.HasPrefix(lines[0], "id,created_at,type") {
		t.Fatalf("export = %q", w.Body.String())
	}
	if !strings.Contains(lines[1], `"pageview"`) {
		t.Fatalf("first row = %q", lines[1])
	}

	w = request(r, http.MethodGet, "/admin/db-usage", "")
	var u models.UsageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &u); err != nil {
		t.Fatal(err)
	}
	if !u.OK || u.UsedBytes <= 0 {
		t.Fatalf("usage = %+v", u)
	}
}

func TestPageviewThenPurchaseSummary(t *testing.T) {
	r := newTestRouter(t)

	for _, body := range []string{
		`{"type":"pageview","path":"/a","referrer":"https://google.com/x","utm_source":"ads"}`,
		`{"type":"purchase"}`,
	} {
		if w := request(r, http.MethodPost, "/collect", body); w.Code != http.StatusOK {
			t.Fatalf("collect = %d %s", w.Code, w.Body.String())
		}
	}

	w := request(r, http.MethodGet, "/api/summary", "")
	if w.Code != http.StatusOK {
		t.Fatalf("summary = %d", w.Code)
	}
	var s models.Summary
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatal(err)
	}

	if s.Pageviews != 1 || s.Purchases != 1 || s.CRPageviewToPurchase != 100 {
		t.Fatalf("summary = %+v", s)
	}
	wantRef := []models.ReferrerCount{{Source: "google.com", Count: 1}}
	if len(s.TopReferrers) != 1 || s.TopReferrers[0] != wantRef[0] {
		t.Fatalf("referrers = %+v", s.TopReferrers)
	}
	wantUTM := models.UTMCount{Source: "ads", Medium: "(none)", Campaign: "(none)", Count: 1}
	if len(s.UTMCombos) != 1 || s.UTMCombos[0] != wantUTM {
		t.Fatalf("utm combos = %+v", s.UTMCombos)
	}
	if len(s.TopPages) != 1 || s.TopPages[0] != (models.PageCount{Path: "/a", Count: 1}) {
		t.Fatalf("pages = %+v", s.TopPages)
	}
}

func TestEmptyExport(t *testing.T) {
	r := newTestRouter(t)

	w := request(r, http.MethodGet, "/admin/export-events", "")
	if w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Fatalf("export = %d %q", w.Code, w.Body.String())
	}
}
