// Package discovery - service.go orchestrates a discovery run: expand the query,
// search every variant with bounded concurrency, mine and title the candidate URLs,
// then merge, deduplicate and truncate.
package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/getlisticled/internal/llm"
	"github.com/jonathan/getlisticled/internal/prompts"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	// SearchMaxTokens bounds the model output of a variant search.
	SearchMaxTokens = 2000
	// EstimateMaxTokens bounds the model output of an estimate call.
	EstimateMaxTokens = 600

	defaultEnrichConcurrency = 4
	defaultEnrichTimeout     = 10 * time.Second
	cacheKeyPrefix           = "listicles:"
)

// Failure reasons recorded on SearchError.
const (
	reasonTimeout   = "timeout"
	reasonCanceled  = "canceled"
	reasonTransport = "transport error"
	reasonStatus    = "unexpected status"
	reasonMalformed = "malformed response"
	reasonUpstream  = "upstream error"
)

// Searcher runs one search call. llm.Client satisfies it.
type Searcher interface {
	Search(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Cache stores merged result sets keyed by normalised query.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// TitleFetcher reads an article's title from the page itself.
type TitleFetcher interface {
	FetchTitle(ctx context.Context, rawURL string) (string, error)
}

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	Templates   []string
	MaxVariants int
	MaxResults  int
	// Denylist replaces DefaultDenylist when non-nil.
	Denylist *Denylist

	// Concurrency is the number of variant searches in flight, 1 to MaxConcurrency.
	Concurrency    int
	Pacer          Pacer
	RequestTimeout time.Duration
	Budget         time.Duration
	// Retries is the number of extra attempts for a retryable variant failure.
	Retries int

	// SearchPrompt and EstimatePrompt override the embedded templates; both use {{.Query}}.
	SearchPrompt   string
	EstimatePrompt string

	Cache    Cache
	CacheTTL time.Duration

	TitleFetcher      TitleFetcher
	EnrichConcurrency int
	EnrichTimeout     time.Duration

	Logger logrus.FieldLogger
	Now    func() time.Time
	NewID  func() string
}

// Service discovers listicles for a query.
type Service struct {
	searcher Searcher
	opts     Options
	deny     Denylist
	log      logrus.FieldLogger
}

type variantOutcome struct {
	resp    *llm.Response
	err     *SearchError
	skipped bool
}

// NewService validates opts, fills in defaults and returns a ready Service.
func NewService(searcher Searcher, opts Options) (*Service, error) {
	if searcher == nil {
		return nil, &ConfigurationError{Setting: "search provider", Message: "no search client configured"}
	}
	if opts.Concurrency < 0 || opts.Concurrency > MaxConcurrency {
		return nil, &ConfigurationError{
			Setting: "concurrency",
			Message: fmt.Sprintf("must be between 1 and %d, got %d", MaxConcurrency, opts.Concurrency),
		}
	}
	if opts.Retries < 0 {
		return nil, &ConfigurationError{Setting: "retries", Message: "must not be negative"}
	}

	if opts.Concurrency == 0 {
		opts.Concurrency = 1
	}
	if opts.MaxVariants <= 0 {
		opts.MaxVariants = DefaultMaxVariants
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	if opts.Pacer == nil {
		opts.Pacer = NewRatePacer(DefaultPacing)
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.Budget <= 0 {
		opts.Budget = DefaultBudget
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.EnrichConcurrency <= 0 {
		opts.EnrichConcurrency = defaultEnrichConcurrency
	}
	if opts.EnrichTimeout <= 0 {
		opts.EnrichTimeout = defaultEnrichTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	deny := DefaultDenylist()
	if opts.Denylist != nil {
		deny = *opts.Denylist
	}

	return &Service{
		searcher: searcher,
		opts:     opts,
		deny:     deny,
		log:      opts.Logger,
	}, nil
}

// Variants returns the query variants a Search for query would issue.
func (s *Service) Variants(query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &InvalidQueryError{Query: query}
	}
	return Expand(query, s.opts.Now().Year(), s.opts.Templates, s.opts.MaxVariants), nil
}

// Search runs the full discovery pipeline for query. Failed variants are logged and
// contribute nothing; only when no variant succeeds is a TotalFailureError returned.
// When the overall budget runs out the results gathered so far are returned.
func (s *Service) Search(ctx context.Context, query string) ([]ListicleResult, error) {
	variants, err := s.Variants(query)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	log := s.log.WithField("query", query)

	key := cacheKeyPrefix + NormalizeQuery(query)
	if cached, ok := s.cached(ctx, key, log); ok {
		log.WithField("results", len(cached)).Debug("serving cached results")
		return cached, nil
	}

	runCtx, cancel := context.WithTimeout(ctx, s.opts.Budget)
	defer cancel()

	start := s.opts.Now()
	outcomes := s.searchVariants(runCtx, variants, log)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results, failures, succeeded, skipped := s.merge(query, variants, outcomes)
	fields := logrus.Fields{
		"variants":  len(variants),
		"succeeded": succeeded,
		"failed":    len(failures),
		"skipped":   skipped,
		"results":   len(results),
		"elapsed":   s.opts.Now().Sub(start).String(),
	}
	if succeeded == 0 {
		log.WithFields(fields).Error("all variant searches failed")
		return nil, &TotalFailureError{Attempted: len(variants), Failures: failures}
	}
	if skipped > 0 {
		log.WithFields(fields).Warn("search budget exhausted, returning partial results")
	} else {
		log.WithFields(fields).Info("search completed")
	}

	s.enrich(runCtx, results, log)

	if len(results) > 0 {
		s.store(ctx, key, results, log)
	}
	return results, nil
}

// searchVariants fans variants out over at most Concurrency workers. Outcomes are
// indexed by variant so merge order never depends on completion order.
func (s *Service) searchVariants(ctx context.Context, variants []string, log logrus.FieldLogger) []variantOutcome {
	outcomes := make([]variantOutcome, len(variants))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for i, variant := range variants {
		g.Go(func() error {
			if err := s.opts.Pacer.Wait(gctx); err != nil {
				outcomes[i].skipped = true
				return nil
			}
			resp, serr := s.searchVariant(gctx, variant, log)
			outcomes[i] = variantOutcome{resp: resp, err: serr}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (s *Service) searchVariant(ctx context.Context, variant string, log logrus.FieldLogger) (*llm.Response, *SearchError) {
	req := llm.Request{
		Query:     variant,
		Prompt:    s.render(s.opts.SearchPrompt, prompts.Search, variant),
		Tier:      llm.TierStandard,
		MaxTokens: SearchMaxTokens,
	}
	vlog := log.WithField("variant", variant)

	for attempt := 0; ; attempt++ {
		reqCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
		resp, err := s.searcher.Search(reqCtx, req)
		cancel()

		if err == nil {
			if resp == nil {
				resp = &llm.Response{}
			}
			vlog.WithFields(logrus.Fields{
				"citations": len(resp.Citations),
				"attempt":   attempt + 1,
			}).Debug("variant search succeeded")
			return resp, nil
		}

		serr := newSearchError(variant, err)
		entry := vlog.WithError(err).WithFields(logrus.Fields{
			"status":  serr.StatusCode,
			"reason":  serr.Reason,
			"attempt": attempt + 1,
		})

		if attempt >= s.opts.Retries || !serr.Retryable() || ctx.Err() != nil {
			entry.Warn("variant search failed")
			return nil, serr
		}
		entry.Info("retrying variant search")
		if err := s.opts.Pacer.Wait(ctx); err != nil {
			return nil, serr
		}
	}
}

// merge flattens successful outcomes in variant order, keeping the first result for
// each case-insensitive URL, and truncates to MaxResults.
func (s *Service) merge(query string, variants []string, outcomes []variantOutcome) (results []ListicleResult, failures []*SearchError, succeeded, skipped int) {
	seen := make(map[string]bool)
	results = []ListicleResult{}

	for i, out := range outcomes {
		switch {
		case out.skipped:
			skipped++
			continue
		case out.err != nil:
			failures = append(failures, out.err)
			continue
		}
		succeeded++

		for _, r := range s.buildResults(query, variants[i], out.resp) {
			key := NormalizeURL(r.URL)
			if seen[key] || len(results) >= s.opts.MaxResults {
				continue
			}
			seen[key] = true
			r.ID = s.opts.NewID()
			results = append(results, r)
		}
	}
	return results, failures, succeeded, skipped
}

// buildResults turns one variant's response into titled results, citations first.
func (s *Service) buildResults(query, variant string, resp *llm.Response) []ListicleResult {
	urls := CandidateURLs(resp.Citations, resp.Content, s.deny)
	results := make([]ListicleResult, 0, len(urls))
	for _, u := range urls {
		domain := Domain(u)
		if domain == "" {
			continue
		}
		title, source := resolveTitle(resp.Content, u, query)
		results = append(results, ListicleResult{
			Title:       title,
			URL:         u,
			Domain:      domain,
			Variant:     variant,
			TitleSource: source,
		})
	}
	return results
}

// enrich replaces guessed titles with the page's own title when a fetcher is configured.
func (s *Service) enrich(ctx context.Context, results []ListicleResult, log logrus.FieldLogger) {
	if s.opts.TitleFetcher == nil {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.EnrichConcurrency)
	for i := range results {
		if !results[i].TitleSource.IsFallback() {
			continue
		}
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(gctx, s.opts.EnrichTimeout)
			defer cancel()

			title, err := s.opts.TitleFetcher.FetchTitle(fetchCtx, results[i].URL)
			if err != nil {
				log.WithError(err).WithField("url", results[i].URL).Debug("title enrichment failed")
				return nil
			}
			if title = strings.TrimSpace(title); title != "" {
				results[i].Title = title
				results[i].TitleSource = TitleFromPage
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Service) cached(ctx context.Context, key string, log logrus.FieldLogger) ([]ListicleResult, bool) {
	if s.opts.Cache == nil {
		return nil, false
	}
	data, found, err := s.opts.Cache.Get(ctx, key)
	if err != nil {
		log.WithError(err).Warn("cache lookup failed")
		return nil, false
	}
	if !found {
		return nil, false
	}

	var results []ListicleResult
	if err := json.Unmarshal(data, &results); err != nil {
		log.WithError(err).Warn("discarding unreadable cache entry")
		return nil, false
	}
	if len(results) == 0 {
		return nil, false
	}
	// ids belong to a single search session
	for i := range results {
		results[i].ID = s.opts.NewID()
	}
	return results, true
}

func (s *Service) store(ctx context.Context, key string, results []ListicleResult, log logrus.FieldLogger) {
	if s.opts.Cache == nil {
		return
	}
	data, err := json.Marshal(results)
	if err != nil {
		log.WithError(err).Warn("failed to encode results for cache")
		return
	}
	if err := s.opts.Cache.Set(ctx, key, data, s.opts.CacheTTL); err != nil {
		log.WithError(err).Warn("cache store failed")
	}
}

func (s *Service) render(override string, fallback func(string) string, query string) string {
	if override == "" {
		return fallback(query)
	}
	return prompts.Format(override, map[string]string{"Query": query})
}

// newSearchError classifies a provider failure for logging and retry decisions.
func newSearchError(variant string, err error) *SearchError {
	serr := &SearchError{Variant: variant, Reason: reasonUpstream, Cause: err}

	var apiErr *llm.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode != 0 {
		serr.StatusCode = apiErr.StatusCode
		serr.Reason = fmt.Sprintf("%s: %s", reasonStatus, http.StatusText(apiErr.StatusCode))
		return serr
	}

	var (
		netErr    net.Error
		urlErr    *url.Error
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		serr.Reason = reasonTimeout
	case errors.Is(err, context.Canceled):
		serr.Reason = reasonCanceled
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		serr.Reason = reasonMalformed
	case errors.As(err, &netErr), errors.As(err, &urlErr):
		serr.Reason = reasonTransport
	}
	return serr
}
