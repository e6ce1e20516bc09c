package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/loglens/loglens/internal/domain"
	"github.com/loglens/loglens/internal/elasticsearch"
	"github.com/loglens/loglens/internal/logger"
	"github.com/loglens/loglens/internal/service"
)

const (
	histogramBody = `{"aggregations":{"daily_logs":{"buckets":[
		{"key_as_string":"2024-01-01","doc_count":3},
		{"key_as_string":"2024-01-02","doc_count":0},
		{"key_as_string":"2024-01-03","doc_count":7}
	]}}}`
	matchedBody = `{"aggregations":{"aggregations":{"value":45}}}`
	totalBody   = `{"aggregations":{"aggregations":{"value":300}}}`
)

// stubClient answers descriptors from canned bodies, keyed by index. It
// classifies each descriptor by structure: the daily_logs aggregation
// marks a histogram query, and a cardinality query with a query_string
// clause counts matched documents rather than all of them. A missing
// entry simulates a backend failure for that index.
type stubClient struct {
	histograms map[string]string
	matched    map[string]string
	totals     map[string]string
	healthErr  error
}

func (c *stubClient) Search(_ context.Context, q elasticsearch.QueryDescriptor) (*esapi.Response, error) {
	var body string
	var ok bool

	aggs, _ := q.Body["aggs"].(map[string]any)
	switch {
	case aggs["daily_logs"] != nil:
		body, ok = c.histograms[q.Index]
	case hasQueryStringClause(q.Body):
		body, ok = c.matched[q.Index]
	default:
		body, ok = c.totals[q.Index]
	}

	if !ok {
		return nil, fmt.Errorf("%w: connection timed out", domain.ErrBackendUnavailable)
	}
	return stubResponse(body), nil
}

func hasQueryStringClause(body map[string]any) bool {
	query, _ := body["query"].(map[string]any)
	boolQuery, _ := query["bool"].(map[string]any)
	must, _ := boolQuery["must"].([]any)
	for _, clause := range must {
		if m, ok := clause.(map[string]any); ok {
			if _, found := m["query_string"]; found {
				return true
			}
		}
	}
	return false
}

func (c *stubClient) HealthCheck(context.Context) error {
	return c.healthErr
}

func stubResponse(body string) *esapi.Response {
	return &esapi.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func testChannels() []domain.ChannelSpec {
	return []domain.ChannelSpec{
		{ID: domain.ChannelCalls, Index: "transcriptions_index", TimestampField: "called_at", TextField: "utterance"},
		{ID: domain.ChannelEmails, Index: "intercoms_index", TimestampField: "created_at", TextField: "body"},
	}
}

func newTestService(client service.SearchClient) *service.CompareService {
	return service.NewCompareService(client, testChannels(), 5*time.Second, "test", logger.NewNop())
}

func validRequest() *domain.CompareRequest {
	return &domain.CompareRequest{Keywords: "refund, delay", From: "2024-01-01", To: "2024-01-31"}
}

func TestCompare_BothChannelsSucceed(t *testing.T) {
	client := &stubClient{
		histograms: map[string]string{
			"transcriptions_index": histogramBody,
			"intercoms_index":      histogramBody,
		},
		matched: map[string]string{
			"transcriptions_index": matchedBody,
			"intercoms_index":      matchedBody,
		},
		totals: map[string]string{
			"transcriptions_index": totalBody,
			"intercoms_index":      totalBody,
		},
	}
	svc := newTestService(client)

	resp, err := svc.Compare(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Compare() unexpected error: %v", err)
	}

	if resp.Query != "refund and delay" {
		t.Errorf("Compare() query = %q, want %q", resp.Query, "refund and delay")
	}
	if resp.From != "2024-01-01" || resp.To != "2024-01-31" {
		t.Errorf("Compare() bounds = (%q, %q), want (2024-01-01, 2024-01-31)", resp.From, resp.To)
	}
	if len(resp.Channels) != 2 {
		t.Fatalf("Compare() channels = %d, want 2", len(resp.Channels))
	}
	if resp.Channels[0].Channel != domain.ChannelCalls || resp.Channels[1].Channel != domain.ChannelEmails {
		t.Errorf("Compare() channel order = [%s, %s], want [calls, emails]",
			resp.Channels[0].Channel, resp.Channels[1].Channel)
	}

	for _, ch := range resp.Channels {
		if ch.Error != "" {
			t.Fatalf("Compare() channel %s unexpected error: %s", ch.Channel, ch.Error)
		}
		if ch.MatchedCount != 45 || ch.TotalCount != 300 {
			t.Errorf("channel %s counts = (%d, %d), want (45, 300)", ch.Channel, ch.MatchedCount, ch.TotalCount)
		}
		if ch.MatchPercentage == nil || *ch.MatchPercentage != 15.0 {
			t.Errorf("channel %s percentage = %v, want 15.0", ch.Channel, ch.MatchPercentage)
		}
		if len(ch.Histogram) != 3 {
			t.Fatalf("channel %s histogram length = %d, want 3", ch.Channel, len(ch.Histogram))
		}
		// Bucket order must match backend chronological order.
		wantDates := []string{"2024-01-01", "2024-01-02", "2024-01-03"}
		wantCounts := []int64{3, 0, 7}
		for i, bucket := range ch.Histogram {
			if bucket.Date != wantDates[i] || bucket.Count != wantCounts[i] {
				t.Errorf("channel %s histogram[%d] = {%s, %d}, want {%s, %d}",
					ch.Channel, i, bucket.Date, bucket.Count, wantDates[i], wantCounts[i])
			}
		}
	}
}

func TestCompare_OneChannelFails(t *testing.T) {
	// Calls backend times out; emails succeeds. The failure must stay
	// confined to the calls result.
	client := &stubClient{
		histograms: map[string]string{
			"intercoms_index": histogramBody,
		},
		matched: map[string]string{
			"intercoms_index": matchedBody,
		},
		totals: map[string]string{
			"intercoms_index": totalBody,
		},
	}
	svc := newTestService(client)

	resp, err := svc.Compare(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Compare() unexpected error: %v", err)
	}

	calls := resp.Channels[0]
	if calls.Error == "" {
		t.Error("Compare() calls channel should carry an error marker")
	}
	if calls.MatchPercentage != nil {
		t.Error("Compare() failed channel should have no percentage")
	}

	emails := resp.Channels[1]
	if emails.Error != "" {
		t.Fatalf("Compare() emails channel unexpected error: %s", emails.Error)
	}
	if emails.MatchedCount != 45 || emails.TotalCount != 300 {
		t.Errorf("Compare() emails counts = (%d, %d), want (45, 300)", emails.MatchedCount, emails.TotalCount)
	}
}

func TestCompare_NoDocumentsInRange(t *testing.T) {
	emptyHistogram := `{"aggregations":{"daily_logs":{"buckets":[]}}}`
	zeroCardinality := `{"aggregations":{"aggregations":{"value":0}}}`

	client := &stubClient{
		histograms: map[string]string{
			"transcriptions_index": emptyHistogram,
			"intercoms_index":      emptyHistogram,
		},
		matched: map[string]string{
			"transcriptions_index": zeroCardinality,
			"intercoms_index":      zeroCardinality,
		},
		totals: map[string]string{
			"transcriptions_index": zeroCardinality,
			"intercoms_index":      zeroCardinality,
		},
	}
	svc := newTestService(client)

	resp, err := svc.Compare(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Compare() unexpected error: %v", err)
	}

	for _, ch := range resp.Channels {
		if ch.Error != "" {
			t.Fatalf("channel %s unexpected error: %s", ch.Channel, ch.Error)
		}
		if len(ch.Histogram) != 0 {
			t.Errorf("channel %s histogram should be empty, got %d buckets", ch.Channel, len(ch.Histogram))
		}
		// Zero total is "no data", not a failure: percentage stays null.
		if ch.MatchPercentage != nil {
			t.Errorf("channel %s percentage = %v, want nil", ch.Channel, *ch.MatchPercentage)
		}
	}
}

func TestCompare_ValidationErrors(t *testing.T) {
	svc := newTestService(&stubClient{})

	tests := []struct {
		name    string
		req     *domain.CompareRequest
		wantErr error
	}{
		{
			name:    "empty keywords",
			req:     &domain.CompareRequest{Keywords: " , ", From: "2024-01-01", To: "2024-01-31"},
			wantErr: domain.ErrEmptyKeywords,
		},
		{
			name:    "inverted range",
			req:     &domain.CompareRequest{Keywords: "refund", From: "2024-02-01", To: "2024-01-01"},
			wantErr: domain.ErrInvalidRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Compare(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Compare() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseHistogramResponse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>gateway error</html>`},
		{"missing aggregation", `{"hits":{"total":{"value":10}}}`},
		{"aggregations without daily_logs", `{"aggregations":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.ParseHistogramResponse(strings.NewReader(tt.body))
			if !errors.Is(err, domain.ErrMalformedResponse) {
				t.Errorf("ParseHistogramResponse() error = %v, want ErrMalformedResponse", err)
			}
		})
	}
}

func TestParseCardinalityResponse(t *testing.T) {
	got, err := service.ParseCardinalityResponse(strings.NewReader(matchedBody))
	if err != nil {
		t.Fatalf("ParseCardinalityResponse() unexpected error: %v", err)
	}
	if got != 45 {
		t.Errorf("ParseCardinalityResponse() = %d, want 45", got)
	}

	if _, err := service.ParseCardinalityResponse(strings.NewReader(`{"aggregations":{}}`)); !errors.Is(err, domain.ErrMalformedResponse) {
		t.Errorf("ParseCardinalityResponse() error = %v, want ErrMalformedResponse", err)
	}
	if _, err := service.ParseCardinalityResponse(strings.NewReader(`{"aggregations":{"aggregations":{}}}`)); !errors.Is(err, domain.ErrMalformedResponse) {
		t.Errorf("ParseCardinalityResponse() error = %v, want ErrMalformedResponse", err)
	}
}

func TestHealthCheck(t *testing.T) {
	svc := newTestService(&stubClient{})
	status := svc.HealthCheck(context.Background())
	if status.Status != "healthy" {
		t.Errorf("HealthCheck() status = %q, want healthy", status.Status)
	}
	if status.Dependencies["elasticsearch"] != "healthy" {
		t.Errorf("HealthCheck() elasticsearch = %q, want healthy", status.Dependencies["elasticsearch"])
	}

	svc = newTestService(&stubClient{healthErr: errors.New("red cluster")})
	status = svc.HealthCheck(context.Background())
	if status.Status != "unhealthy" {
		t.Errorf("HealthCheck() status = %q, want unhealthy", status.Status)
	}
}
