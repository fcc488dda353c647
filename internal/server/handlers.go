package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/getlisticled/internal/discovery"
	"github.com/sirupsen/logrus"
)

// maxBodyBytes bounds request bodies; queries are short phrases.
const maxBodyBytes = 16 << 10

var validate = validator.New(validator.WithRequiredStructEnabled())

// QueryRequest is the request body for /search and /estimate.
type QueryRequest struct {
	Query string `json:"query" validate:"required,max=500"`
}

// Validate validates the QueryRequest using the validator.
func (r *QueryRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ErrValidation{Field: "query", Message: validationMessage(verrs[0])}
		}
		return &ErrValidation{Field: "query", Message: err.Error()}
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

// SearchResponse is the response for /search.
type SearchResponse struct {
	Results []discovery.ListicleResult `json:"results"`
}

// EstimateResponse is the response for /estimate.
type EstimateResponse struct {
	EstimatedCount int `json:"estimatedCount"`
}

// VariantsResponse is the response for /variants.
type VariantsResponse struct {
	Variants []string `json:"variants"`
}

// handleSearch runs a full multi-variant discovery for the posted query.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	results, err := s.finder.Search(r.Context(), req.Query)
	if err != nil {
		s.handleFinderError(w, r, err)
		return
	}
	if results == nil {
		results = []discovery.ListicleResult{}
	}

	s.jsonResponse(w, http.StatusOK, SearchResponse{Results: results})
}

// handleEstimate returns the teaser count for the posted query.
func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	n, err := s.finder.Estimate(r.Context(), req.Query)
	if err != nil {
		s.handleFinderError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, EstimateResponse{EstimatedCount: n})
}

// handleVariants shows how a query would be expanded. No upstream call is made.
func (s *Server) handleVariants(w http.ResponseWriter, r *http.Request) {
	req := QueryRequest{Query: r.URL.Query().Get("q")}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, HTTPStatus(err), UserMessage(err))
		return
	}

	variants, err := s.finder.Variants(req.Query)
	if err != nil {
		s.handleFinderError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, VariantsResponse{Variants: variants})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) decodeQuery(w http.ResponseWriter, r *http.Request) (*QueryRequest, bool) {
	var req QueryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return nil, false
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, HTTPStatus(err), UserMessage(err))
		return nil, false
	}
	req.Query = strings.TrimSpace(req.Query)
	return &req, true
}

// handleFinderError maps a discovery error to a response. Nothing is written when
// the client has already gone away.
func (s *Server) handleFinderError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.log.WithFields(logrus.Fields{
		"path":       r.URL.Path,
		"request_id": RequestID(r.Context()),
	})

	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		log.Debug("client canceled request")
		return
	}

	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
	} else {
		log.WithError(err).Debug("request rejected")
	}
	s.errorResponse(w, status, UserMessage(err))
}
