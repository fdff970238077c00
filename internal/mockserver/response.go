package mockserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
)

var (
	errInvalidRequest = errors.New("invalid request")
	errUnauthorized   = errors.New("unauthorized")
)

// commonResult mirrors the backend's result envelope.
type commonResult struct {
	ReqResult  bool   `json:"req_result"`
	Data       any    `json:"data"`
	ErrMessage string `json:"err_message"`
}

type errorMapping struct {
	StatusCode int
	Message    string
}

// Business failures are reported as 200 with req_result=false, the same
// way the backend does it. Only missing resources, bad input and auth use
// HTTP status codes.
var errorMappings = []struct {
	err     error
	mapping errorMapping
}{
	{ErrNotFound, errorMapping{http.StatusNotFound, "merge request not found"}},
	{ErrCommentNotFound, errorMapping{http.StatusNotFound, "comment not found"}},
	{errInvalidRequest, errorMapping{http.StatusBadRequest, "invalid request"}},
	{errUnauthorized, errorMapping{http.StatusUnauthorized, "unauthorized"}},
	{ErrInvalidMR, errorMapping{http.StatusOK, ErrInvalidMR.Error()}},
	{ErrRefConflict, errorMapping{http.StatusOK, ErrRefConflict.Error()}},
	{ErrIllegal, errorMapping{http.StatusOK, ErrIllegal.Error()}},
}

func mapError(err error) errorMapping {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.mapping
		}
	}
	return errorMapping{http.StatusInternalServerError, "internal server error"}
}

func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Error().Err(err).Msg("failed to encode response")
		}
	}
}

func respondOK(w http.ResponseWriter, data any) {
	respondJSON(w, http.StatusOK, map[string]any{
		"data": commonResult{ReqResult: true, Data: data},
	})
}

func respondError(w http.ResponseWriter, err error) {
	m := mapError(err)
	respondJSON(w, m.StatusCode, map[string]any{
		"data": commonResult{ReqResult: false, ErrMessage: m.Message},
	})
}
