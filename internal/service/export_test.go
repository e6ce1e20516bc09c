package service

// Exposed for external tests.
var (
	ParseHistogramResponse   = parseHistogramResponse
	ParseCardinalityResponse = parseCardinalityResponse
)
