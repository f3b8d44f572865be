package models

// Summary is the dashboard aggregate computed over the most recent events.
type Summary struct {
	EventsAnalyzed int `json:"eventsAnalyzed"`

	Pageviews        int `json:"pageviews"`
	TimeOnPageEvents int `json:"timeonpageEvents"`
	ProductViews     int `json:"productViews"`
	AddToCart        int `json:"addToCart"`
	Purchases        int `json:"purchases"`

	UniqueSessions    int `json:"uniqueSessions"`
	UniqueVisitors    int `json:"uniqueVisitors"`
	NewVisitors       int `json:"newVisitors"`
	ReturningVisitors int `json:"returningVisitors"`

	CRProductToCart      float64 `json:"crProductToCart"`
	CRCartToPurchase     float64 `json:"crCartToPurchase"`
	CRPageviewToPurchase float64 `json:"crPageviewToPurchase"`

	Devices DeviceCounts `json:"devices"`

	TopPages     []PageCount     `json:"topPages"`
	TopReferrers []ReferrerCount `json:"topReferrers"`
	UTMCombos    []UTMCount      `json:"utmCombos"`

	CheckoutSteps CheckoutSteps `json:"checkoutSteps"`
	ActiveCarts   int           `json:"activeCarts"`

	ProductCategories map[string]int `json:"productCategories"`
	GramsViews        map[string]int `json:"gramsViews"`
	MediaInteractions map[string]int `json:"mediaInteractions"`
	Countries         map[string]int `json:"countries"`
	FormInteractions  map[string]int `json:"formInteractions"`

	JSErrors      int `json:"jsErrors"`
	PaymentErrors int `json:"paymentErrors"`

	Performance Performance `json:"performance"`
}

// DeviceCounts is the device histogram.
type DeviceCounts struct {
	Desktop int `json:"desktop"`
	Mobile  int `json:"mobile"`
	Tablet  int `json:"tablet"`
	Other   int `json:"other"`
}

type PageCount struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

type ReferrerCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

type UTMCount struct {
	Source   string `json:"source"`
	Medium   string `json:"medium"`
	Campaign string `json:"campaign"`
	Count    int    `json:"count"`
}

// CheckoutSteps counts checkout_step events per known step.
type CheckoutSteps struct {
	Cart     int `json:"cart"`
	Checkout int `json:"checkout"`
	Shipping int `json:"shipping"`
	Payment  int `json:"payment"`
	Thankyou int `json:"thankyou"`
}

// Performance summarizes perf_metric samples. Nil fields had no numeric sample.
type Performance struct {
	Samples int      `json:"samples"`
	AvgLCP  *float64 `json:"avgLcp"`
	AvgFCP  *float64 `json:"avgFcp"`
	AvgTTFB *float64 `json:"avgTtfb"`
	P75LCP  *float64 `json:"p75Lcp"`
	P75FCP  *float64 `json:"p75Fcp"`
	P75TTFB *float64 `json:"p75Ttfb"`
}
