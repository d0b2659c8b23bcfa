package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/poiesic/payermatch"
	"github.com/poiesic/payermatch/core"
	"github.com/poiesic/payermatch/storage"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) matchTransaction(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	threshold, err := intParam(r.URL.Query(), "threshold", s.matchThreshold, 0, 100)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	result, err := s.service.MatchTransaction(r.Context(), id, float64(threshold))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Transaction with ID %s not found", id))
			return
		}
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newMatchResponse(result))
}

func (s *Server) semanticSearch(w http.ResponseWriter, r *http.Request) {
	query := mux.Vars(r)["query"]
	q := r.URL.Query()
	params := s.searchDefaults

	var err error
	if params.Threshold, err = floatParam(q, "threshold", params.Threshold, 0, 1); err != nil {
		s.writeServiceError(w, err)
		return
	}
	if params.Preprocess, err = boolParam(q, "preprocess", params.Preprocess); err != nil {
		s.writeServiceError(w, err)
		return
	}
	if params.IncludeDescription, err = boolParam(q, "include_description", params.IncludeDescription); err != nil {
		s.writeServiceError(w, err)
		return
	}
	if params.Limit, err = intParam(q, "limit", params.Limit, 1, 100); err != nil {
		s.writeServiceError(w, err)
		return
	}

	result, err := s.service.SemanticSearch(r.Context(), query, params)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newSearchResponse(result))
}

func (s *Server) transactionsWithUsers(w http.ResponseWriter, r *http.Request) {
	threshold, err := intParam(r.URL.Query(), "threshold", s.matchThreshold, 0, 100)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	items, err := s.service.TransactionsWithUsers(r.Context(), float64(threshold))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newTransactionUsersResponse(items))
}

// writeServiceError maps domain errors to status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var pe *paramError
	switch {
	case errors.Is(err, payermatch.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, "Query string cannot be empty")
	case errors.As(err, &pe),
		errors.Is(err, core.ErrInvalidThreshold),
		errors.Is(err, payermatch.ErrInvalidLimit):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
