// Package summary reduces a window of stored events to the dashboard summary.
//
// Summarize is a single pass over the window followed by derived metrics. It is
// pure: the same events always produce the same summary.
package summary

import (
	"net/url"
	"strings"

	"github.com/DataDog/sketches-go/ddsketch"

	"github.com/PratikDhanave/shop-analytics-service/internal/models"
)

const (
	// Window is how many of the most recent events the summary covers.
	Window = 500

	topN = 5

	directReferrer = "Direct / none"
	noneUTM        = "(none)"
)

// Event kinds with dedicated handling.
const (
	TypePageview     = "pageview"
	TypeTimeOnPage   = "timeonpage"
	TypeViewProduct  = "view_product"
	TypeAddToCart    = "add_to_cart"
	TypePurchase     = "purchase"
	TypeCheckoutStep = "checkout_step"
	TypeCartState    = "cart_state"
	TypeMedia        = "media_interaction"
	TypeForm         = "form_interaction"
	TypeJSError      = "js_error"
	TypePerfMetric   = "perf_metric"
)

const (
	defaultStep       = "checkout"
	defaultMediaType  = "unknown"
	defaultMediaVerb  = "unknown"
	defaultFormID     = "generic"
	defaultFormAction = "submit"
)

var paymentErrorMarkers = []string{"payment", "stripe", "paypal"}

type tally struct {
	out models.Summary

	sessions map[string]struct{}
	visitors map[string]struct{}

	pages     *counter
	referrers *counter
	utm       *counter
	utmParts  map[string][3]string

	carts     map[string]int
	seenViews map[string]struct{}

	categories *counter
	grams      *counter
	media      *counter
	countries  *counter
	forms      *counter

	lcp, fcp, ttfb metric
}

// Summarize computes the summary for events, which should be in chronological
// order so the latest cart snapshot per visitor wins.
func Summarize(events []models.Event) models.Summary {
	t := &tally{
		sessions:   map[string]struct{}{},
		visitors:   map[string]struct{}{},
		pages:      newCounter(),
		referrers:  newCounter(),
		utm:        newCounter(),
		utmParts:   map[string][3]string{},
		carts:      map[string]int{},
		seenViews:  map[string]struct{}{},
		categories: newCounter(),
		grams:      newCounter(),
		media:      newCounter(),
		countries:  newCounter(),
		forms:      newCounter(),
		lcp:        newMetric(),
		fcp:        newMetric(),
		ttfb:       newMetric(),
	}

	for _, e := range events {
		t.observe(e.Decode())
	}

	t.out.EventsAnalyzed = len(events)
	return t.finish()
}

func (t *tally) observe(p models.Payload) {
	s := &t.out

	switch p.Type {
	case TypePageview:
		s.Pageviews++
	case TypeTimeOnPage:
		s.TimeOnPageEvents++
	case TypeViewProduct:
		s.ProductViews++
	case TypeAddToCart:
		s.AddToCart++
	case TypePurchase:
		s.Purchases++
	}

	if p.SessionID != nil {
		t.sessions[*p.SessionID] = struct{}{}
	}
	if p.VisitorID != nil {
		t.visitors[*p.VisitorID] = struct{}{}
	}

	switch p.DeviceType {
	case "desktop":
		s.Devices.Desktop++
	case "mobile":
		s.Devices.Mobile++
	case "tablet":
		s.Devices.Tablet++
	default:
		s.Devices.Other++
	}

	if p.Path != "" {
		t.pages.add(p.Path)
	}

	if p.Country != nil {
		t.countries.add(*p.Country)
	}

	switch p.Type {
	case TypePageview:
		if p.IsNewVisitor {
			s.NewVisitors++
		} else {
			s.ReturningVisitors++
		}
		t.referrers.add(referrerKey(p.Referrer))
		t.addUTM(p)

	case TypeCheckoutStep:
		t.addCheckoutStep(valueOr(p.Step, defaultStep))

	case TypeCartState:
		if p.VisitorID != nil {
			t.carts[*p.VisitorID] = len(p.Items)
		}

	case TypeViewProduct:
		key := strings.Join([]string{
			valueOr(p.SessionID, ""),
			valueOr(p.VisitorID, ""),
			valueOr(p.ProductID, ""),
			p.Path,
		}, "\x1f")
		if _, seen := t.seenViews[key]; seen {
			break
		}
		t.seenViews[key] = struct{}{}
		if p.ProductCategory != nil {
			t.categories.add(*p.ProductCategory)
		}
		if p.Grams != nil {
			t.grams.add(*p.Grams)
		}

	case TypeMedia:
		t.media.add(valueOr(p.MediaType, defaultMediaType) + ":" + valueOr(p.Action, defaultMediaVerb))

	case TypeForm:
		t.forms.add(valueOr(p.FormID, defaultFormID) + ":" + valueOr(p.Action, defaultFormAction))

	case TypeJSError:
		s.JSErrors++
		if isPaymentError(valueOr(p.Message, "")) {
			s.PaymentErrors++
		}

	case TypePerfMetric:
		s.Performance.Samples++
		t.lcp.add(p.LCP)
		t.fcp.add(p.FCP)
		t.ttfb.add(p.TTFB)
	}
}

func (t *tally) addUTM(p models.Payload) {
	parts := [3]string{orNone(p.UTMSource), orNone(p.UTMMedium), orNone(p.UTMCampaign)}
	key := parts[0] + "|" + parts[1] + "|" + parts[2]
	if _, ok := t.utmParts[key]; !ok {
		t.utmParts[key] = parts
	}
	t.utm.add(key)
}

// addCheckoutStep ignores steps outside the known funnel.
func (t *tally) addCheckoutStep(step string) {
	c := &t.out.CheckoutSteps
	switch step {
	case "cart":
		c.Cart++
	case "checkout":
		c.Checkout++
	case "shipping":
		c.Shipping++
	case "payment":
		c.Payment++
	case "thankyou":
		c.Thankyou++
	}
}

func (t *tally) finish() models.Summary {
	s := t.out

	s.UniqueSessions = max(len(t.sessions), 1)
	s.UniqueVisitors = len(t.visitors)

	s.CRProductToCart = rate(s.AddToCart, s.ProductViews)
	s.CRCartToPurchase = rate(s.Purchases, s.AddToCart)
	s.CRPageviewToPurchase = rate(s.Purchases, s.Pageviews)

	s.TopPages = []models.PageCount{}
	for _, e := range t.pages.top(topN) {
		s.TopPages = append(s.TopPages, models.PageCount{Path: e.key, Count: e.count})
	}

	s.TopReferrers = []models.ReferrerCount{}
	for _, e := range t.referrers.top(topN) {
		s.TopReferrers = append(s.TopReferrers, models.ReferrerCount{Source: e.key, Count: e.count})
	}

	s.UTMCombos = []models.UTMCount{}
	for _, e := range t.utm.top(topN) {
		parts := t.utmParts[e.key]
		s.UTMCombos = append(s.UTMCombos, models.UTMCount{
			Source:   parts[0],
			Medium:   parts[1],
			Campaign: parts[2],
			Count:    e.count,
		})
	}

	for _, items := range t.carts {
		if items > 0 {
			s.ActiveCarts++
		}
	}

	s.ProductCategories = t.categories.toMap()
	s.GramsViews = t.grams.toMap()
	s.MediaInteractions = t.media.toMap()
	s.Countries = t.countries.toMap()
	s.FormInteractions = t.forms.toMap()

	s.Performance.AvgLCP, s.Performance.P75LCP = t.lcp.avg(), t.lcp.p75()
	s.Performance.AvgFCP, s.Performance.P75FCP = t.fcp.avg(), t.fcp.p75()
	s.Performance.AvgTTFB, s.Performance.P75TTFB = t.ttfb.avg(), t.ttfb.p75()

	return s
}

// referrerKey groups by hostname for absolute URLs and by the raw value otherwise.
func referrerKey(ref string) string {
	if ref == "" {
		return directReferrer
	}
	u, err := url.Parse(ref)
	if err != nil || !u.IsAbs() || u.Hostname() == "" {
		return ref
	}
	return u.Hostname()
}

func isPaymentError(msg string) bool {
	msg = strings.ToLower(msg)
	for _, marker := range paymentErrorMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// rate is num/den as a percentage, 0 when den is 0.
func rate(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den) * 100
}

func orNone(s string) string {
	if s == "" {
		return noneUTM
	}
	return s
}

func valueOr(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}

// metric accumulates one perf field. The sketch is nil if it could not be built.
type metric struct {
	sum    float64
	count  int
	sketch *ddsketch.DDSketch
}

func newMetric() metric {
	m := metric{}
	if sk, err := ddsketch.NewDefaultDDSketch(0.01); err == nil {
		m.sketch = sk
	}
	return m
}

func (m *metric) add(v *float64) {
	if v == nil {
		return
	}
	m.sum += *v
	m.count++
	if m.sketch != nil {
		_ = m.sketch.Add(*v)
	}
}

func (m *metric) avg() *float64 {
	if m.count == 0 {
		return nil
	}
	v := m.sum / float64(m.count)
	return &v
}

func (m *metric) p75() *float64 {
	if m.count == 0 || m.sketch == nil || m.sketch.IsEmpty() {
		return nil
	}
	v, err := m.sketch.GetValueAtQuantile(0.75)
	if err != nil {
		return nil
	}
	return &v
}
