package types

// Telemetry metric names for CloudWatch.
const (
	MetricRefreshAttempt  = "RefreshAttempt"
	MetricRefreshLatency  = "RefreshLatency"
	MetricVerdict         = "Verdict"
	MetricUpstreamFailure = "UpstreamFailure"

	DimResult  = "Result"
	DimVerdict = "Verdict"
	DimSource  = "Source"

	MetricNamespace = "RainWatch"
)
