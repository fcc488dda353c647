package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func strPtr(s string) *string { return &s }

func TestResponseFromGemini(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text("Best Blenders - "),
				genai.Text("https://a.com/blenders"),
			}},
			CitationMetadata: &genai.CitationMetadata{
				CitationSources: []*genai.CitationSource{
					{URI: strPtr("https://a.com/blenders")},
					{URI: nil},
					{URI: strPtr("")},
				},
			},
		}},
	}

	got, err := responseFromGemini(resp)
	require.NoError(t, err)
	assert.Equal(t, "Best Blenders - https://a.com/blenders", got.Content)
	assert.Equal(t, []string{"https://a.com/blenders"}, got.Citations)
}

func TestResponseFromGemini_NoCandidates(t *testing.T) {
	_, err := responseFromGemini(&genai.GenerateContentResponse{})
	require.Error(t, err)
}

func TestGeminiError(t *testing.T) {
	err := geminiError(&googleapi.Error{Code: 503, Message: "overloaded"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 503, apiErr.StatusCode)
	assert.Equal(t, ProviderGemini, apiErr.Provider)

	err = geminiError(errors.New("boom"))
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 0, apiErr.StatusCode)
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), nil, "")
	require.Error(t, err)
}
