package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/loglens/loglens/internal/domain"
	"github.com/loglens/loglens/internal/elasticsearch"
	"github.com/loglens/loglens/internal/logger"
	"github.com/loglens/loglens/internal/metrics"
)

// SearchClient executes query descriptors against the search backend.
// Transport and auth are the client's concern; the service only shapes
// queries and folds responses.
type SearchClient interface {
	Search(ctx context.Context, q elasticsearch.QueryDescriptor) (*esapi.Response, error)
	HealthCheck(ctx context.Context) error
}

// Query kinds, used as metrics labels and in log fields.
const (
	kindHistogram = "histogram"
	kindMatched   = "matched_cardinality"
	kindTotal     = "total_cardinality"
)

const percentRoundFactor = 100

// CompareService computes per-channel keyword metrics and orchestrates
// the comparison across channels.
type CompareService struct {
	client       SearchClient
	queryBuilder *elasticsearch.QueryBuilder
	channels     []domain.ChannelSpec
	timeout      time.Duration
	version      string
	logger       logger.Logger
}

// NewCompareService creates a new compare service. Channels are reported
// in the order given.
func NewCompareService(
	client SearchClient,
	channels []domain.ChannelSpec,
	timeout time.Duration,
	version string,
	log logger.Logger,
) *CompareService {
	return &CompareService{
		client:       client,
		queryBuilder: elasticsearch.NewQueryBuilder(),
		channels:     channels,
		timeout:      timeout,
		version:      version,
		logger:       log,
	}
}

// Compare validates the request once, then computes every channel's
// metrics from the shared keyword expression and date range. Channels are
// independent: a backend failure on one yields an error-marked result for
// that channel only.
func (s *CompareService) Compare(ctx context.Context, req *domain.CompareRequest) (*domain.CompareResponse, error) {
	startTime := time.Now()

	expr, rng, err := req.Validate()
	if err != nil {
		s.logger.Warn("Invalid compare request",
			logger.Error(err),
		)
		return nil, fmt.Errorf("validation error: %w", err)
	}

	gte, lt := rng.BackendBounds()

	s.logger.Info("Executing comparison",
		logger.String("query", expr.QueryString()),
		logger.String("from", gte),
		logger.String("to", lt),
	)

	results := make([]domain.ChannelResult, len(s.channels))
	var wg sync.WaitGroup
	for i, channel := range s.channels {
		wg.Add(1)
		go func(i int, channel domain.ChannelSpec) {
			defer wg.Done()
			results[i] = s.computeChannel(ctx, channel, expr, rng)
		}(i, channel)
	}
	wg.Wait()

	response := &domain.CompareResponse{
		Query:    expr.QueryString(),
		From:     gte,
		To:       lt,
		Channels: results,
		TookMs:   time.Since(startTime).Milliseconds(),
	}

	s.logger.Info("Comparison completed",
		logger.String("query", response.Query),
		logger.Int("channels", len(response.Channels)),
		logger.Int64("took_ms", response.TookMs),
	)

	return response, nil
}

// computeChannel runs the three queries for one channel and folds them
// into a ChannelResult. The queries are independent and run concurrently,
// bounded by the service search timeout.
func (s *CompareService) computeChannel(
	ctx context.Context,
	channel domain.ChannelSpec,
	expr domain.KeywordExpression,
	rng domain.DateRange,
) domain.ChannelResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		hist               []domain.DayCount
		matched, total     int64
		histErr            error
		matchedErr, totErr error
	)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		hist, histErr = s.HistogramFor(ctx, channel, expr, rng)
	}()
	go func() {
		defer wg.Done()
		matched, matchedErr = s.MatchedCardinality(ctx, channel, expr, rng)
	}()
	go func() {
		defer wg.Done()
		total, totErr = s.TotalCardinality(ctx, channel, expr, rng)
	}()
	wg.Wait()

	if err := firstError(histErr, matchedErr, totErr); err != nil {
		s.logger.Error("Channel computation failed",
			logger.Error(err),
			logger.String("channel", channel.ID),
		)
		return domain.ChannelResult{
			Channel: channel.ID,
			Error:   err.Error(),
		}
	}

	result := domain.ChannelResult{
		Channel:      channel.ID,
		Histogram:    hist,
		MatchedCount: matched,
		TotalCount:   total,
	}

	// Zero documents in range is a defined "no data" outcome, not a
	// failure; the percentage stays null.
	if pct, err := Percentage(matched, total); err == nil {
		result.MatchPercentage = &pct
	}

	return result
}

// HistogramFor executes the histogram query and returns one DayCount per
// backend bucket, preserving the backend's chronological order. A range
// with zero matches returns an empty slice.
func (s *CompareService) HistogramFor(
	ctx context.Context,
	channel domain.ChannelSpec,
	expr domain.KeywordExpression,
	rng domain.DateRange,
) ([]domain.DayCount, error) {
	desc := s.queryBuilder.BuildSearch(channel, expr, rng)

	res, err := s.execute(ctx, channel.ID, kindHistogram, desc)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = res.Body.Close()
	}()

	return parseHistogramResponse(res.Body)
}

// MatchedCardinality returns the approximate distinct count of documents
// matching the keyword expression within range. The backend's cardinality
// aggregation is sketch-based; callers must not assume exactness.
func (s *CompareService) MatchedCardinality(
	ctx context.Context,
	channel domain.ChannelSpec,
	expr domain.KeywordExpression,
	rng domain.DateRange,
) (int64, error) {
	return s.cardinality(ctx, channel, expr, rng, kindMatched, true)
}

// TotalCardinality returns the approximate distinct count of all
// documents within range, regardless of keywords.
func (s *CompareService) TotalCardinality(
	ctx context.Context,
	channel domain.ChannelSpec,
	expr domain.KeywordExpression,
	rng domain.DateRange,
) (int64, error) {
	return s.cardinality(ctx, channel, expr, rng, kindTotal, false)
}

func (s *CompareService) cardinality(
	ctx context.Context,
	channel domain.ChannelSpec,
	expr domain.KeywordExpression,
	rng domain.DateRange,
	kind string,
	includeTextFilter bool,
) (int64, error) {
	desc := s.queryBuilder.BuildCardinality(channel, expr, rng, includeTextFilter)

	res, err := s.execute(ctx, channel.ID, kind, desc)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = res.Body.Close()
	}()

	return parseCardinalityResponse(res.Body)
}

// Percentage derives the share of matching documents, rounded to two
// decimals. Fails with ErrNoDocuments when total is zero rather than
// dividing by it.
func Percentage(matched, total int64) (float64, error) {
	if total == 0 {
		return 0, domain.ErrNoDocuments
	}
	ratio := float64(matched) / float64(total) * 100
	return math.Round(ratio*percentRoundFactor) / percentRoundFactor, nil
}

// execute runs one descriptor against the backend, recording metrics.
func (s *CompareService) execute(
	ctx context.Context,
	channel, kind string,
	desc elasticsearch.QueryDescriptor,
) (*esapi.Response, error) {
	start := time.Now()
	res, err := s.client.Search(ctx, desc)
	metrics.ObserveBackendQuery(channel, kind, err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%s query on %s: %w", kind, desc.Index, err)
	}
	return res, nil
}

// parseHistogramResponse extracts the day buckets from a histogram
// response. A missing aggregation is a malformed response; an empty
// bucket list is not.
func parseHistogramResponse(body io.Reader) ([]domain.DayCount, error) {
	var esResponse struct {
		Aggregations struct {
			DailyLogs *struct {
				Buckets []struct {
					KeyAsString string `json:"key_as_string"`
					DocCount    int64  `json:"doc_count"`
				} `json:"buckets"`
			} `json:"daily_logs"`
		} `json:"aggregations"`
	}

	if err := json.NewDecoder(body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("%w: decode histogram response: %v", domain.ErrMalformedResponse, err)
	}
	if esResponse.Aggregations.DailyLogs == nil {
		return nil, fmt.Errorf("%w: missing %s aggregation", domain.ErrMalformedResponse, elasticsearch.DailyLogsAggName)
	}

	buckets := esResponse.Aggregations.DailyLogs.Buckets
	histogram := make([]domain.DayCount, 0, len(buckets))
	for _, bucket := range buckets {
		histogram = append(histogram, domain.DayCount{
			Date:  bucket.KeyAsString,
			Count: bucket.DocCount,
		})
	}
	return histogram, nil
}

// parseCardinalityResponse extracts the distinct-value estimate from a
// cardinality response.
func parseCardinalityResponse(body io.Reader) (int64, error) {
	var esResponse struct {
		Aggregations struct {
			Cardinality *struct {
				Value *float64 `json:"value"`
			} `json:"aggregations"`
		} `json:"aggregations"`
	}

	if err := json.NewDecoder(body).Decode(&esResponse); err != nil {
		return 0, fmt.Errorf("%w: decode cardinality response: %v", domain.ErrMalformedResponse, err)
	}
	if esResponse.Aggregations.Cardinality == nil || esResponse.Aggregations.Cardinality.Value == nil {
		return 0, fmt.Errorf("%w: missing %s aggregation", domain.ErrMalformedResponse, elasticsearch.CardinalityAggName)
	}

	return int64(*esResponse.Aggregations.Cardinality.Value), nil
}

// firstError returns the first non-nil error.
func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// HealthCheck checks the health of the service and its dependencies.
func (s *CompareService) HealthCheck(ctx context.Context) *domain.HealthStatus {
	status := &domain.HealthStatus{
		Status:       "healthy",
		Timestamp:    time.Now(),
		Version:      s.version,
		Dependencies: make(map[string]string),
	}

	if err := s.client.HealthCheck(ctx); err != nil {
		status.Status = "unhealthy"
		status.Dependencies["elasticsearch"] = "unhealthy: " + err.Error()
	} else {
		status.Dependencies["elasticsearch"] = "healthy"
	}

	return status
}
