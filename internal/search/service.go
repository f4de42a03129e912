package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JustMelih/GameVault/internal/audit"
	"github.com/JustMelih/GameVault/internal/catalog"
	"github.com/JustMelih/GameVault/internal/intent"
	"github.com/JustMelih/GameVault/internal/metrics"
	"github.com/JustMelih/GameVault/internal/observability"
)

var (
	// ErrBlankQuery rejects an empty or whitespace-only query.
	ErrBlankQuery = errors.New("query is required")

	// ErrThrottled rejects a client that exhausted its request budget.
	ErrThrottled = errors.New("too many requests")
)

const hintSearchFailed = "hint search failed"

// Admitter gates requests per client.
type Admitter interface {
	Admit(ctx context.Context, clientKey string) (bool, error)
}

// IntentResolver resolves query text to an intent.
type IntentResolver interface {
	Resolve(ctx context.Context, query string) intent.Resolution
}

// Recorder persists completed searches.
type Recorder interface {
	Record(ctx context.Context, rec audit.Record) error
}

// Options holds result shaping settings.
type Options struct {
	DefaultLimit int
	MaxLimit     int
	HintLimit    int
	FranchiseCap int
}

// DefaultOptions returns the standard result shaping settings.
func DefaultOptions() Options {
	return Options{DefaultLimit: 10, MaxLimit: 20, HintLimit: 5, FranchiseCap: 1}
}

// Request is one search call.
type Request struct {
	Query     string
	Limit     int
	ClientKey string
}

// Item is one returned game.
type Item struct {
	Title string   `json:"title"`
	Why   []string `json:"why"`
}

// Debug exposes how a response was produced.
type Debug struct {
	RawgQuery   string   `json:"rawgQuery"`
	Include     []string `json:"include"`
	Exclude     []string `json:"exclude"`
	Titles      []string `json:"titles"`
	LLMFallback bool     `json:"llmFallback"`
	LLMError    *string  `json:"llmError"`
	RawgError   *string  `json:"rawgError"`
}

// Response is the search result.
type Response struct {
	Items  []Item `json:"items"`
	TookMs int64  `json:"tookMs"`
	Debug  Debug  `json:"debug"`
}

// Service runs the search pipeline.
type Service struct {
	throttle Admitter
	resolver IntentResolver
	catalog  catalog.Searcher
	recorder Recorder
	opts     Options
	now      func() time.Time
	logger   *observability.Logger
	metrics  *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder enables the audit log.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithClock overrides the time source used for recency scoring and timing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithOptions overrides result shaping settings.
func WithOptions(o Options) Option {
	return func(s *Service) { s.opts = o }
}

// NewService creates a Service. throttle may be nil to disable admission
// control.
func NewService(throttle Admitter, resolver IntentResolver, searcher catalog.Searcher, logger *observability.Logger, m *metrics.Metrics, opts ...Option) *Service {
	if logger == nil {
		logger = observability.Nop()
	}
	s := &Service{
		throttle: throttle,
		resolver: resolver,
		catalog:  searcher,
		opts:     DefaultOptions(),
		now:      time.Now,
		logger:   logger.WithComponent("search"),
		metrics:  m,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClampLimit applies the default and maximum result counts.
func (s *Service) ClampLimit(limit int) int {
	if limit <= 0 {
		return s.opts.DefaultLimit
	}
	if limit > s.opts.MaxLimit {
		return s.opts.MaxLimit
	}
	return limit
}

// Search runs the pipeline. It fails only for a blank query, an exhausted
// throttle, or a cancelled context; catalog and extractor failures are
// reported in Debug.
func (s *Service) Search(ctx context.Context, req Request) (*Response, error) {
	start := s.now()
	ctx = observability.ContextWithClient(ctx, req.ClientKey)
	log := s.logger.WithContext(ctx)

	if strings.TrimSpace(req.Query) == "" {
		s.metrics.ObserveSearch(metrics.OutcomeBadRequest, 0)
		return nil, ErrBlankQuery
	}

	if s.throttle != nil {
		ok, err := s.throttle.Admit(ctx, "throttle:"+req.ClientKey)
		if err != nil {
			// Cache outage: fail open rather than reject every client.
			log.Warn().Err(err).Msg("Throttle check failed, admitting request")
		} else if !ok {
			s.metrics.ObserveSearch(metrics.OutcomeThrottled, 0)
			return nil, ErrThrottled
		}
	}

	limit := s.ClampLimit(req.Limit)

	res := s.resolver.Resolve(ctx, req.Query)
	if err := ctx.Err(); err != nil {
		return nil, s.cancelled(err)
	}

	mainQuery, hints := BuildQueries(req.Query, res.Intent, res.UsedFallback())

	debug := Debug{
		RawgQuery:   mainQuery,
		Include:     res.Intent.Include,
		Exclude:     res.Intent.Exclude,
		Titles:      hints,
		LLMFallback: res.UsedFallback(),
	}
	if res.Err != nil {
		msg := res.Err.Error()
		debug.LLMError = &msg
	}

	mainResults, err := s.catalog.Search(ctx, mainQuery, limit)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, s.cancelled(ctxErr)
		}
		log.Error().Str("query", req.Query).Str("rawg_query", mainQuery).Err(err).Msg("Catalog main query failed")
		s.metrics.CatalogFailed(metrics.FailureMain)
		msg := err.Error()
		debug.RawgError = &msg
		mainResults = []catalog.Entry{}
	}

	hintResults, hintErr := s.searchHints(ctx, req.Query, hints)
	if err := ctx.Err(); err != nil {
		return nil, s.cancelled(err)
	}
	if hintErr && debug.RawgError == nil {
		msg := hintSearchFailed
		debug.RawgError = &msg
	}

	merged := Merge(mainResults, hintResults...)

	// The franchise boost is relative to everything the catalog returned,
	// including entries the negative filter removes below.
	rc := NewRankContext(res.Intent.Include, hints, req.Query, merged, s.now())
	ranked := rc.Rank(Exclude(merged, res.Intent.Exclude))
	selected := Select(ranked, limit, s.opts.FranchiseCap)

	items := make([]Item, 0, len(selected))
	for _, e := range selected {
		items = append(items, Item{Title: e.Name, Why: Explain(e, res.Intent.Include)})
	}

	took := s.now().Sub(start)
	resp := &Response{Items: items, TookMs: took.Milliseconds(), Debug: debug}

	log.Info().
		Str("query", req.Query).
		Str("intent_source", res.Source).
		Int("candidates", len(merged)).
		Int("items", len(items)).
		Int64("took_ms", resp.TookMs).
		Msg("Search served")

	s.metrics.ObserveSearch(metrics.OutcomeOK, took)
	s.record(ctx, req, limit, resp)

	return resp, nil
}

// searchHints runs hint queries concurrently. A failing hint contributes
// nothing and does not cancel its siblings.
func (s *Service) searchHints(ctx context.Context, query string, hints []string) ([][]catalog.Entry, bool) {
	if len(hints) == 0 {
		return nil, false
	}

	results := make([][]catalog.Entry, len(hints))
	failed := make([]bool, len(hints))

	var g errgroup.Group
	g.SetLimit(len(hints))
	for i, hint := range hints {
		g.Go(func() error {
			entries, err := s.catalog.Search(ctx, hint, s.opts.HintLimit)
			if err != nil {
				if ctx.Err() == nil {
					s.logger.WithContext(ctx).Warn().
						Str("query", query).
						Str("hint", hint).
						Err(err).
						Msg("Catalog hint search failed, continuing without it")
					s.metrics.CatalogFailed(metrics.FailureHint)
				}
				failed[i] = true
				return nil
			}
			results[i] = entries
			return nil
		})
	}
	_ = g.Wait()

	anyFailed := false
	for _, f := range failed {
		anyFailed = anyFailed || f
	}
	return results, anyFailed
}

func (s *Service) cancelled(err error) error {
	s.metrics.ObserveSearch(metrics.OutcomeCancelled, 0)
	return err
}

func (s *Service) record(ctx context.Context, req Request, limit int, resp *Response) {
	if s.recorder == nil {
		return
	}

	titles := make([]string, 0, len(resp.Items))
	for _, it := range resp.Items {
		titles = append(titles, it.Title)
	}

	err := s.recorder.Record(context.WithoutCancel(ctx), audit.Record{
		Query:       req.Query,
		Limit:       limit,
		ClientKey:   req.ClientKey,
		Include:     resp.Debug.Include,
		Exclude:     resp.Debug.Exclude,
		Titles:      resp.Debug.Titles,
		LLMFallback: resp.Debug.LLMFallback,
		Items:       titles,
		TookMs:      resp.TookMs,
	})
	if err != nil {
		s.logger.WithContext(ctx).Warn().Str("query", req.Query).Err(err).Msg("Audit record failed")
	}
}
