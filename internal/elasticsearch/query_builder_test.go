package elasticsearch_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/loglens/loglens/internal/domain"
	"github.com/loglens/loglens/internal/elasticsearch"
)

func testChannel() domain.ChannelSpec {
	return domain.ChannelSpec{
		ID:             domain.ChannelCalls,
		Index:          "transcriptions_index",
		TimestampField: "called_at",
		TextField:      "utterance",
	}
}

func testRange(t *testing.T) domain.DateRange {
	t.Helper()
	rng, err := domain.FromDates(
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("FromDates() unexpected error: %v", err)
	}
	return rng
}

func TestQueryBuilder_BuildSearch(t *testing.T) {
	qb := elasticsearch.NewQueryBuilder()
	expr := domain.ParseKeywords("refund, delay")

	desc := qb.BuildSearch(testChannel(), expr, testRange(t))

	if desc.Index != "transcriptions_index" {
		t.Errorf("BuildSearch() index = %q, want %q", desc.Index, "transcriptions_index")
	}

	source, ok := desc.Body["_source"].([]string)
	if !ok || len(source) != 2 {
		t.Fatalf("BuildSearch() '_source' = %v, want two fields", desc.Body["_source"])
	}

	must := mustClauses(t, desc.Body)
	if len(must) != 2 {
		t.Fatalf("BuildSearch() must clauses = %d, want 2", len(must))
	}

	qs, ok := must[0].(map[string]any)["query_string"].(map[string]any)
	if !ok {
		t.Fatal("BuildSearch() first must clause should be query_string")
	}
	if qs["query"] != "refund and delay" {
		t.Errorf("BuildSearch() query_string = %v, want %q", qs["query"], "refund and delay")
	}

	assertRangeClause(t, must[1], "called_at", "2024-01-01", "2024-01-31")

	aggs, ok := desc.Body["aggs"].(map[string]any)
	if !ok {
		t.Fatal("BuildSearch() missing 'aggs'")
	}
	daily, ok := aggs[elasticsearch.DailyLogsAggName].(map[string]any)
	if !ok {
		t.Fatalf("BuildSearch() missing %q aggregation", elasticsearch.DailyLogsAggName)
	}
	histogram, ok := daily["date_histogram"].(map[string]any)
	if !ok {
		t.Fatal("BuildSearch() aggregation should be a date_histogram")
	}
	if histogram["field"] != "called_at" {
		t.Errorf("BuildSearch() histogram field = %v, want called_at", histogram["field"])
	}
	if histogram["fixed_interval"] != "1d" {
		t.Errorf("BuildSearch() fixed_interval = %v, want 1d", histogram["fixed_interval"])
	}
}

func TestQueryBuilder_BuildCardinality(t *testing.T) {
	qb := elasticsearch.NewQueryBuilder()
	expr := domain.ParseKeywords("refund, delay")

	tests := []struct {
		name              string
		includeTextFilter bool
		wantMustClauses   int
	}{
		{"matched documents include text clause", true, 2},
		{"all documents omit text clause", false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := qb.BuildCardinality(testChannel(), expr, testRange(t), tt.includeTextFilter)

			must := mustClauses(t, desc.Body)
			if len(must) != tt.wantMustClauses {
				t.Fatalf("BuildCardinality() must clauses = %d, want %d", len(must), tt.wantMustClauses)
			}

			// The range clause is always last.
			assertRangeClause(t, must[len(must)-1], "called_at", "2024-01-01", "2024-01-31")

			aggs, ok := desc.Body["aggs"].(map[string]any)
			if !ok {
				t.Fatal("BuildCardinality() missing 'aggs'")
			}
			card, ok := aggs[elasticsearch.CardinalityAggName].(map[string]any)
			if !ok {
				t.Fatalf("BuildCardinality() missing %q aggregation", elasticsearch.CardinalityAggName)
			}
			inner, ok := card["cardinality"].(map[string]any)
			if !ok {
				t.Fatal("BuildCardinality() aggregation should be a cardinality")
			}
			if inner["field"] != "utterance.keyword" {
				t.Errorf("BuildCardinality() field = %v, want utterance.keyword", inner["field"])
			}
		})
	}
}

func TestQueryBuilder_Deterministic(t *testing.T) {
	qb := elasticsearch.NewQueryBuilder()
	expr := domain.ParseKeywords("refund, delay")
	channel := testChannel()
	rng := testRange(t)

	first := qb.BuildSearch(channel, expr, rng)
	second := qb.BuildSearch(channel, expr, rng)
	if !reflect.DeepEqual(first, second) {
		t.Error("BuildSearch() should be deterministic for identical inputs")
	}

	firstCard := qb.BuildCardinality(channel, expr, rng, true)
	secondCard := qb.BuildCardinality(channel, expr, rng, true)
	if !reflect.DeepEqual(firstCard, secondCard) {
		t.Error("BuildCardinality() should be deterministic for identical inputs")
	}
}

func mustClauses(t *testing.T, body map[string]any) []any {
	t.Helper()

	query, ok := body["query"].(map[string]any)
	if !ok {
		t.Fatal("body missing 'query'")
	}
	boolQuery, ok := query["bool"].(map[string]any)
	if !ok {
		t.Fatal("query should contain 'bool' clause")
	}
	must, ok := boolQuery["must"].([]any)
	if !ok {
		t.Fatal("bool query should contain 'must' list")
	}
	return must
}

func assertRangeClause(t *testing.T, clause any, field, wantGte, wantLt string) {
	t.Helper()

	rangeClause, ok := clause.(map[string]any)["range"].(map[string]any)
	if !ok {
		t.Fatal("clause should be a range filter")
	}
	bounds, ok := rangeClause[field].(map[string]any)
	if !ok {
		t.Fatalf("range clause missing field %q", field)
	}
	if bounds["gte"] != wantGte {
		t.Errorf("range gte = %v, want %q", bounds["gte"], wantGte)
	}
	if bounds["lt"] != wantLt {
		t.Errorf("range lt = %v, want %q", bounds["lt"], wantLt)
	}
}
