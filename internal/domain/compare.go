package domain

import (
	"fmt"
	"time"
)

// CompareRequest is the user input for one comparison: raw keyword text
// and the two calendar dates bounding the range.
type CompareRequest struct {
	Keywords string `form:"keywords" json:"keywords"`
	From     string `form:"from"     json:"from"`
	To       string `form:"to"       json:"to"`
}

// Validate parses the request into a keyword expression and a date range.
// Validation failures are cheap to detect and block the query entirely.
func (r *CompareRequest) Validate() (KeywordExpression, DateRange, error) {
	expr := ParseKeywords(r.Keywords)
	if expr.Empty() {
		return KeywordExpression{}, DateRange{}, fmt.Errorf("%w: %q", ErrEmptyKeywords, r.Keywords)
	}

	from, err := time.Parse(backendDateLayout, r.From)
	if err != nil {
		return KeywordExpression{}, DateRange{}, fmt.Errorf("invalid from date %q: %w", r.From, err)
	}
	to, err := time.Parse(backendDateLayout, r.To)
	if err != nil {
		return KeywordExpression{}, DateRange{}, fmt.Errorf("invalid to date %q: %w", r.To, err)
	}

	rng, err := FromDates(from, to)
	if err != nil {
		return KeywordExpression{}, DateRange{}, err
	}
	return expr, rng, nil
}

// DayCount is one day bucket of the match histogram. Buckets preserve the
// backend's chronological order, so the histogram is a slice, not a map.
type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// ChannelResult holds the derived metrics for one channel. It is
// recomputed on every comparison, never stored.
//
// MatchPercentage is nil when the range holds zero documents ("no data").
// Error is set when the channel's backend queries failed; counts are then
// zero and the sibling channel still reports independently.
type ChannelResult struct {
	Channel         string     `json:"channel"`
	Histogram       []DayCount `json:"histogram"`
	MatchedCount    int64      `json:"matched_count"`
	TotalCount      int64      `json:"total_count"`
	MatchPercentage *float64   `json:"match_percentage"`
	Error           string     `json:"error,omitempty"`
}

// CompareResponse is the full result of one comparison across channels.
type CompareResponse struct {
	Query    string          `json:"query"`
	From     string          `json:"from"`
	To       string          `json:"to"`
	Channels []ChannelResult `json:"channels"`
	TookMs   int64           `json:"took_ms"`
}

// HealthStatus represents the health of the service and its dependencies.
type HealthStatus struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
}
