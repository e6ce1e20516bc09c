package elasticsearch

import (
	"github.com/loglens/loglens/internal/domain"
)

// Aggregation names used in query bodies and response parsing. The
// cardinality aggregation is named "aggregations" to stay byte-compatible
// with the query shape the log indexes were provisioned against.
const (
	DailyLogsAggName   = "daily_logs"
	CardinalityAggName = "aggregations"
)

// histogramInterval is the fixed day-bucket width of the match histogram.
const histogramInterval = "1d"

// QueryDescriptor is the backend-agnostic representation of one search
// request: the index to query and the request body.
type QueryDescriptor struct {
	Index string
	Body  map[string]any
}

// QueryBuilder composes Elasticsearch query bodies for a channel. Both
// builders are pure: identical inputs yield structurally identical
// descriptors, and no I/O happens here.
type QueryBuilder struct{}

// NewQueryBuilder creates a new query builder.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{}
}

// BuildSearch constructs the histogram query: a bool filter combining the
// keyword expression and the date range, plus a day-bucketed count
// aggregation on the channel's timestamp field.
func (qb *QueryBuilder) BuildSearch(
	channel domain.ChannelSpec,
	expr domain.KeywordExpression,
	rng domain.DateRange,
) QueryDescriptor {
	return QueryDescriptor{
		Index: channel.Index,
		Body: map[string]any{
			"_source": []string{channel.TimestampField, channel.TextField},
			"query":   qb.buildBoolQuery(channel, expr, rng, true),
			"aggs": map[string]any{
				DailyLogsAggName: map[string]any{
					"date_histogram": map[string]any{
						"field":          channel.TimestampField,
						"fixed_interval": histogramInterval,
					},
				},
			},
		},
	}
}

// BuildCardinality constructs a distinct-document count query over the
// channel's exact-match text sub-field. When includeTextFilter is false
// the keyword clause is omitted, counting all documents in range.
func (qb *QueryBuilder) BuildCardinality(
	channel domain.ChannelSpec,
	expr domain.KeywordExpression,
	rng domain.DateRange,
	includeTextFilter bool,
) QueryDescriptor {
	return QueryDescriptor{
		Index: channel.Index,
		Body: map[string]any{
			"query": qb.buildBoolQuery(channel, expr, rng, includeTextFilter),
			"aggs": map[string]any{
				CardinalityAggName: map[string]any{
					"cardinality": map[string]any{
						"field": channel.TextField + ".keyword",
					},
				},
			},
		},
	}
}

// buildBoolQuery constructs the bool.must clause list: an optional
// query_string match on the text field and a half-open date range filter
// on the timestamp field.
func (qb *QueryBuilder) buildBoolQuery(
	channel domain.ChannelSpec,
	expr domain.KeywordExpression,
	rng domain.DateRange,
	includeTextFilter bool,
) map[string]any {
	gte, lt := rng.BackendBounds()

	must := make([]any, 0, 2)
	if includeTextFilter {
		must = append(must, map[string]any{
			"query_string": map[string]any{
				"query": expr.QueryString(),
			},
		})
	}
	must = append(must, map[string]any{
		"range": map[string]any{
			channel.TimestampField: map[string]any{
				"gte": gte,
				"lt":  lt,
			},
		},
	})

	return map[string]any{
		"bool": map[string]any{
			"must": must,
		},
	}
}
