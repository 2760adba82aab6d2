package internal

import "expvar"

var (
	requestsTotal   = expvar.NewMap("chathooks_requests_total")
	parseErrors     = expvar.NewMap("chathooks_parse_errors_total")
	publishErrors   = expvar.NewMap("chathooks_publish_errors_total")
	droppedEvents   = expvar.NewMap("chathooks_dropped_events_total")
	publishedLines  = expvar.NewMap("chathooks_published_lines_total")
	shortenerErrors = expvar.NewInt("chathooks_shortener_errors_total")
)

func IncRequest(provider string) {
	requestsTotal.Add(provider, 1)
}

func IncParseError(provider string) {
	parseErrors.Add(provider, 1)
}

func IncPublishError(driver string) {
	publishErrors.Add(driver, 1)
}

// IncDropped counts events that failed closed to zero lines, by reason
// (unknown_service, missing_payload, unknown_key, bad_json).
func IncDropped(reason string) {
	droppedEvents.Add(reason, 1)
}

func IncPublishedLines(topic string, n int64) {
	publishedLines.Add(topic, n)
}

func IncShortenerError() {
	shortenerErrors.Add(1)
}
