package discovery

import (
	"context"
	"math"
	"strings"

	"github.com/jonathan/getlisticled/internal/llm"
	"github.com/jonathan/getlisticled/internal/prompts"
	"github.com/sirupsen/logrus"
)

// Estimate scaling. The floor keeps the teaser from looking empty.
const (
	EstimateMultiplier = 3.5
	EstimateMin        = 5
	EstimateMax        = 50
)

// EstimateFromCount scales a filtered citation count into a displayed estimate.
func EstimateFromCount(n int) int {
	est := int(math.Round(float64(n) * EstimateMultiplier))
	if est > EstimateMax {
		est = EstimateMax
	}
	if est < EstimateMin {
		est = EstimateMin
	}
	return est
}

// Estimate runs a single unexpanded search for query and returns a scaled count of
// the article URLs it cites. Results are neither cached nor retried.
func (s *Service) Estimate(ctx context.Context, query string) (int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, &InvalidQueryError{Query: query}
	}
	log := s.log.WithField("query", query)

	reqCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()

	resp, err := s.searcher.Search(reqCtx, llm.Request{
		Query:     query,
		Prompt:    s.render(s.opts.EstimatePrompt, prompts.Estimate, query),
		Tier:      llm.TierLite,
		MaxTokens: EstimateMaxTokens,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		serr := newSearchError(query, err)
		log.WithError(err).WithFields(logrus.Fields{
			"status": serr.StatusCode,
			"reason": serr.Reason,
		}).Warn("estimate search failed")
		return 0, &TotalFailureError{Attempted: 1, Failures: []*SearchError{serr}}
	}
	if resp == nil {
		resp = &llm.Response{}
	}

	found := len(CandidateURLs(resp.Citations, resp.Content, s.deny))
	est := EstimateFromCount(found)
	log.WithFields(logrus.Fields{"found": found, "estimate": est}).Debug("estimate computed")
	return est, nil
}
