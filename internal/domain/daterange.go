package domain

import (
	"fmt"
	"time"
)

// backendDateLayout is the ISO-8601 day format Elasticsearch expects in
// range clauses.
const backendDateLayout = "2006-01-02"

// DateRange is a validated half-open interval [start, end) of calendar
// dates. Immutable once constructed.
type DateRange struct {
	start time.Time
	end   time.Time
}

// FromDates builds a DateRange from two dates. The range is inclusive of
// start and exclusive of end when serialized for the backend.
func FromDates(start, end time.Time) (DateRange, error) {
	if start.After(end) {
		return DateRange{}, fmt.Errorf("%w: %s > %s",
			ErrInvalidRange,
			start.Format(backendDateLayout),
			end.Format(backendDateLayout),
		)
	}
	return DateRange{start: start, end: end}, nil
}

// BackendBounds returns the gte and lt bounds as ISO-8601 day strings.
func (r DateRange) BackendBounds() (gte, lt string) {
	return r.start.Format(backendDateLayout), r.end.Format(backendDateLayout)
}

// Start returns the inclusive lower bound.
func (r DateRange) Start() time.Time { return r.start }

// End returns the exclusive upper bound.
func (r DateRange) End() time.Time { return r.end }
