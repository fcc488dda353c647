package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonathan/getlisticled/internal/llm"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	mu    sync.Mutex
	calls []llm.Request
	fn    func(ctx context.Context, req llm.Request) (*llm.Response, error)
}

func (s *stubSearcher) Search(ctx context.Context, req llm.Request) (*llm.Response, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	return s.fn(ctx, req)
}

func (s *stubSearcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func fixedResponse(citations []string, content string) func(context.Context, llm.Request) (*llm.Response, error) {
	return func(context.Context, llm.Request) (*llm.Response, error) {
		return &llm.Response{Citations: citations, Content: content}, nil
	}
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttl  time.Duration
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttl = ttl
	return nil
}

type stubFetcher struct {
	calls atomic.Int32
}

func (f *stubFetcher) FetchTitle(_ context.Context, rawURL string) (string, error) {
	f.calls.Add(1)
	if strings.Contains(rawURL, "broken") {
		return "", errors.New("fetch failed")
	}
	return "Page Title for " + Domain(rawURL), nil
}

func newTestService(t *testing.T, searcher Searcher, opts Options) *Service {
	t.Helper()
	if opts.Pacer == nil {
		opts.Pacer = NoDelay{}
	}
	if opts.Logger == nil {
		logger, _ := test.NewNullLogger()
		opts.Logger = logger
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	}
	svc, err := NewService(searcher, opts)
	require.NoError(t, err)
	return svc
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(nil, Options{})
	assert.True(t, IsConfiguration(err))

	stub := &stubSearcher{fn: fixedResponse(nil, "")}
	_, err = NewService(stub, Options{Concurrency: MaxConcurrency + 1})
	assert.True(t, IsConfiguration(err))

	_, err = NewService(stub, Options{Retries: -1})
	assert.True(t, IsConfiguration(err))

	svc, err := NewService(stub, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, svc.opts.Concurrency)
	assert.Equal(t, DefaultMaxResults, svc.opts.MaxResults)
	assert.Equal(t, DefaultBudget, svc.opts.Budget)
}

func TestSearch_KitchenGadgets(t *testing.T) {
	stub := &stubSearcher{fn: fixedResponse([]string{
		"https://www.goodhousekeeping.com/best-gadgets",
		"https://youtube.com/watch?v=123",
	}, "")}
	svc := newTestService(t, stub, Options{})

	results, err := svc.Search(context.Background(), "kitchen gadgets")
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "goodhousekeeping.com", r.Domain)
	assert.Equal(t, "https://www.goodhousekeeping.com/best-gadgets", r.URL)
	assert.Equal(t, "Best Gadgets", r.Title)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "kitchen gadgets", r.Variant)
	assert.Equal(t, DefaultMaxVariants, stub.callCount())
}

func TestSearch_RequestShape(t *testing.T) {
	stub := &stubSearcher{fn: fixedResponse(nil, "")}
	svc := newTestService(t, stub, Options{Templates: []string{"best {q}"}, SearchPrompt: "find {{.Query}} now"})

	_, err := svc.Search(context.Background(), "  mugs ")
	require.NoError(t, err)

	require.Equal(t, 2, stub.callCount())
	assert.Equal(t, "mugs", stub.calls[0].Query)
	assert.Equal(t, "find mugs now", stub.calls[0].Prompt)
	assert.Equal(t, "find best mugs now", stub.calls[1].Prompt)
	assert.Equal(t, llm.TierStandard, stub.calls[0].Tier)
	assert.Equal(t, SearchMaxTokens, stub.calls[0].MaxTokens)
}

func TestSearch_DefaultPromptMentionsVariant(t *testing.T) {
	stub := &stubSearcher{fn: fixedResponse(nil, "")}
	svc := newTestService(t, stub, Options{Templates: []string{}})

	_, err := svc.Search(context.Background(), "desk lamps")
	require.NoError(t, err)
	assert.Contains(t, stub.calls[0].Prompt, "desk lamps")
}

func TestSearch_DedupAcrossVariantsKeepsFirst(t *testing.T) {
	for _, concurrency := range []int{1, MaxConcurrency} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			stub := &stubSearcher{fn: func(_ context.Context, req llm.Request) (*llm.Response, error) {
				switch req.Query {
				case "mugs":
					// finish last so completion order differs from variant order
					time.Sleep(30 * time.Millisecond)
					return &llm.Response{Citations: []string{"https://a.com/Best-Mugs-List"}}, nil
				case "best mugs":
					return &llm.Response{Citations: []string{"https://A.COM/best-mugs-list", "https://b.com/top-mugs-ranked"}}, nil
				}
				return &llm.Response{}, nil
			}}
			svc := newTestService(t, stub, Options{Templates: []string{"best {q}"}, Concurrency: concurrency})

			results, err := svc.Search(context.Background(), "mugs")
			require.NoError(t, err)
			require.Len(t, results, 2)

			assert.Equal(t, "https://a.com/Best-Mugs-List", results[0].URL)
			assert.Equal(t, "mugs", results[0].Variant)
			assert.Equal(t, "https://b.com/top-mugs-ranked", results[1].URL)
		})
	}
}

func TestSearch_CitationsBeforeContent(t *testing.T) {
	content := "The Best Mugs of the Year - https://c.com/mugs\nhttps://a.com/best-mugs"
	stub := &stubSearcher{fn: fixedResponse([]string{"https://a.com/best-mugs"}, content)}
	svc := newTestService(t, stub, Options{Templates: []string{}})

	results, err := svc.Search(context.Background(), "mugs")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "https://a.com/best-mugs", results[0].URL)
	assert.Equal(t, "https://c.com/mugs", results[1].URL)
	assert.Equal(t, "The Best Mugs of the Year", results[1].Title)
}

func TestSearch_AllFail(t *testing.T) {
	logger, hook := test.NewNullLogger()
	stub := &stubSearcher{fn: func(context.Context, llm.Request) (*llm.Response, error) {
		return nil, &llm.APIError{Provider: llm.ProviderPerplexity, StatusCode: 500, Message: "boom"}
	}}
	svc := newTestService(t, stub, Options{Logger: logger})

	results, err := svc.Search(context.Background(), "kitchen gadgets")
	require.Error(t, err)
	assert.Nil(t, results)

	var total *TotalFailureError
	require.True(t, errors.As(err, &total))
	assert.Equal(t, DefaultMaxVariants, total.Attempted)
	require.Len(t, total.Failures, DefaultMaxVariants)
	assert.Equal(t, 500, total.Failures[0].StatusCode)
	assert.Equal(t, UnavailableMessage, total.UserMessage())

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestSearch_PartialFailure(t *testing.T) {
	stub := &stubSearcher{fn: func(_ context.Context, req llm.Request) (*llm.Response, error) {
		if req.Query == "best mugs" {
			return &llm.Response{Citations: []string{"https://a.com/best-mugs"}}, nil
		}
		return nil, &llm.APIError{Provider: llm.ProviderPerplexity, StatusCode: 502, Message: "bad gateway"}
	}}
	svc := newTestService(t, stub, Options{})

	results, err := svc.Search(context.Background(), "mugs")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "best mugs", results[0].Variant)
}

func TestSearch_SuccessWithNoResults(t *testing.T) {
	stub := &stubSearcher{fn: fixedResponse([]string{"https://youtube.com/watch?v=1"}, "nothing useful")}
	cache := newMemCache()
	svc := newTestService(t, stub, Options{Cache: cache})

	results, err := svc.Search(context.Background(), "mugs")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotNil(t, results)
	assert.Empty(t, cache.data)
}

func TestSearch_InvalidQuery(t *testing.T) {
	stub := &stubSearcher{fn: fixedResponse(nil, "")}
	svc := newTestService(t, stub, Options{})

	for _, q := range []string{"", "   ", "\t\n"} {
		_, err := svc.Search(context.Background(), q)
		assert.True(t, IsInvalidQuery(err))
	}
	assert.Equal(t, 0, stub.callCount())
}

func TestSearch_Truncates(t *testing.T) {
	stub := &stubSearcher{fn: func(_ context.Context, req llm.Request) (*llm.Response, error) {
		slug := strings.ReplaceAll(req.Query, " ", "-")
		var citations []string
		for i := 0; i < 10; i++ {
			citations = append(citations, fmt.Sprintf("https://site%d.com/%s-list", i, slug))
		}
		return &llm.Response{Citations: citations}, nil
	}}
	svc := newTestService(t, stub, Options{})

	results, err := svc.Search(context.Background(), "mugs")
	require.NoError(t, err)
	assert.Len(t, results, DefaultMaxResults)

	seenURL := map[string]bool{}
	seenID := map[string]bool{}
	for _, r := range results {
		key := strings.ToLower(r.URL)
		assert.False(t, seenURL[key])
		assert.False(t, seenID[r.ID])
		assert.False(t, strings.HasPrefix(r.Domain, "www."))
		seenURL[key] = true
		seenID[r.ID] = true
	}
}

func TestSearch_RetryOnRetryableFailure(t *testing.T) {
	var attempts atomic.Int32
	stub := &stubSearcher{fn: func(context.Context, llm.Request) (*llm.Response, error) {
		if attempts.Add(1) == 1 {
			return nil, &llm.APIError{Provider: llm.ProviderPerplexity, StatusCode: 503, Message: "busy"}
		}
		return &llm.Response{Citations: []string{"https://a.com/best-mugs"}}, nil
	}}
	svc := newTestService(t, stub, Options{Templates: []string{}, Retries: 1})

	results, err := svc.Search(context.Background(), "mugs")
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, 2, stub.callCount())
}

func TestSearch_NoRetryOnClientError(t *testing.T) {
	stub := &stubSearcher{fn: func(context.Context, llm.Request) (*llm.Response, error) {
		return nil, &llm.APIError{Provider: llm.ProviderPerplexity, StatusCode: 401, Message: "bad key"}
	}}
	svc := newTestService(t, stub, Options{Templates: []string{}, Retries: 2})

	_, err := svc.Search(context.Background(), "mugs")
	assert.True(t, IsTotalFailure(err))
	assert.Equal(t, 1, stub.callCount())
}

func TestSearch_BudgetReturnsPartialResults(t *testing.T) {
	stub := &stubSearcher{fn: func(ctx context.Context, req llm.Request) (*llm.Response, error) {
		if req.Query == "mugs" {
			return &llm.Response{Citations: []string{"https://a.com/best-mugs"}}, nil
		}
		<-ctx.Done()
		return nil, &llm.APIError{Provider: llm.ProviderPerplexity, Message: "request failed", Cause: ctx.Err()}
	}}
	svc := newTestService(t, stub, Options{Budget: 50 * time.Millisecond})

	start := time.Now()
	results, err := svc.Search(context.Background(), "mugs")
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 2, stub.callCount())
}

func TestSearch_BudgetWithNothingSucceeded(t *testing.T) {
	stub := &stubSearcher{fn: func(ctx context.Context, _ llm.Request) (*llm.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	svc := newTestService(t, stub, Options{Budget: 30 * time.Millisecond})

	_, err := svc.Search(context.Background(), "mugs")
	assert.True(t, IsTotalFailure(err))
}

func TestSearch_RequestTimeoutIsPerVariant(t *testing.T) {
	stub := &stubSearcher{fn: func(ctx context.Context, req llm.Request) (*llm.Response, error) {
		if req.Query == "mugs" {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &llm.Response{Citations: []string{"https://a.com/" + strings.ReplaceAll(req.Query, " ", "-")}}, nil
	}}
	svc := newTestService(t, stub, Options{Templates: []string{"best {q}"}, RequestTimeout: 20 * time.Millisecond})

	results, err := svc.Search(context.Background(), "mugs")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://a.com/best-mugs", results[0].URL)
}

func TestSearch_CallerCancellation(t *testing.T) {
	stub := &stubSearcher{fn: fixedResponse([]string{"https://a.com/best-mugs"}, "")}
	svc := newTestService(t, stub, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Search(ctx, "mugs")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsTotalFailure(err))
}

func TestSearch_Cache(t *testing.T) {
	stub := &stubSearcher{fn: fixedResponse([]string{"https://a.com/best-mugs"}, "")}
	cache := newMemCache()
	svc := newTestService(t, stub, Options{Templates: []string{}, Cache: cache, CacheTTL: time.Hour})

	first, err := svc.Search(context.Background(), "Best  Mugs")
	require.NoError(t, err)
	require.Equal(t, 1, stub.callCount())
	assert.Contains(t, cache.data, "listicles:best mugs")
	assert.Equal(t, time.Hour, cache.ttl)

	second, err := svc.Search(context.Background(), "best mugs")
	require.NoError(t, err)
	assert.Equal(t, 1, stub.callCount())
	assert.Equal(t, publicFields(first), publicFields(second))
}

func TestSearch_CacheHitAssignsFreshIDs(t *testing.T) {
	stub := &stubSearcher{fn: fixedResponse([]string{"https://a.com/best-mugs", "https://b.com/top-cups"}, "")}
	var n atomic.Int32
	svc := newTestService(t, stub, Options{
		Templates: []string{},
		Cache:     newMemCache(),
		CacheTTL:  time.Hour,
		NewID:     func() string { return fmt.Sprintf("id-%d", n.Add(1)) },
	})

	first, err := svc.Search(context.Background(), "mugs")
	require.NoError(t, err)
	second, err := svc.Search(context.Background(), "mugs")
	require.NoError(t, err)

	require.Len(t, second, 2)
	assert.Equal(t, 1, stub.callCount())
	assert.Equal(t, []string{"id-1", "id-2"}, []string{first[0].ID, first[1].ID})
	assert.Equal(t, []string{"id-3", "id-4"}, []string{second[0].ID, second[1].ID})
	assert.Equal(t, first[0].URL, second[0].URL)
}

// publicFields drops the ids and the fields that are not serialized.
func publicFields(results []ListicleResult) []ListicleResult {
	out := make([]ListicleResult, len(results))
	for i, r := range results {
		out[i] = ListicleResult{Title: r.Title, URL: r.URL, Domain: r.Domain}
	}
	return out
}

func TestSearch_EnrichesFallbackTitles(t *testing.T) {
	content := "The Best Mugs of the Year - https://c.com/mugs"
	stub := &stubSearcher{fn: fixedResponse([]string{
		"https://a.com/best-mugs",
		"https://broken.com/best-cups",
	}, content)}
	fetcher := &stubFetcher{}
	svc := newTestService(t, stub, Options{Templates: []string{}, TitleFetcher: fetcher})

	results, err := svc.Search(context.Background(), "mugs")
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "Page Title for a.com", results[0].Title)
	assert.Equal(t, TitleFromPage, results[0].TitleSource)
	assert.Equal(t, "Best Cups", results[1].Title)
	assert.Equal(t, TitleFromSlug, results[1].TitleSource)
	assert.Equal(t, "The Best Mugs of the Year", results[2].Title)
	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestVariants(t *testing.T) {
	svc := newTestService(t, &stubSearcher{fn: fixedResponse(nil, "")}, Options{})

	variants, err := svc.Variants("tents")
	require.NoError(t, err)
	assert.Contains(t, variants, "best tents 2025")

	_, err = svc.Variants(" ")
	assert.True(t, IsInvalidQuery(err))
}
