package metrics

// Metric names
const (
	MetricNameHTTPRequestsTotal    = "rollwright_http_requests_total"
	MetricNameHTTPRequestDuration  = "rollwright_http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "rollwright_http_requests_in_flight"

	MetricNameRollsTotal           = "rollwright_rolls_total"
	MetricNameDistributionsTotal   = "rollwright_distributions_total"
	MetricNameDistributionDuration = "rollwright_distribution_duration_seconds"
	MetricNameCacheLookups         = "rollwright_distribution_cache_lookups_total"
)

// Help texts
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Number of HTTP requests currently being served"

	HelpTextRollsTotal           = "Total number of expressions rolled"
	HelpTextDistributionsTotal   = "Total number of distributions computed"
	HelpTextDistributionDuration = "Time spent computing a distribution in seconds"
	HelpTextCacheLookups         = "Distribution cache lookups"
)

// Labels
const (
	LabelMethod = "method"
	LabelPath   = "path"
	LabelStatus = "status"
	LabelResult = "result"
	LabelKind   = "kind"
)

// Label values
const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultHit   = "hit"
	ResultMiss  = "miss"

	KindExact       = "exact"
	KindApproximate = "approximate"
)

var (
	HTTPLatencyBuckets = []float64{.001, .005, .01, .05, .1, .5, 1, 2.5, 5}
	// distributions may run into the convolution and sampling budgets
	DistributionBuckets = []float64{.0001, .001, .01, .1, .5, 1, 2, 4, 8}
)
