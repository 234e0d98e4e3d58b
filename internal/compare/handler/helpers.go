package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"quotecraft/internal/approval"
	"quotecraft/internal/compare/service"
	"quotecraft/internal/compare/store"
	"quotecraft/internal/erp"
	"quotecraft/internal/ingest"
)

const (
	CodeBadRequest    = "BAD_REQUEST"
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
	CodeTooLarge      = "PAYLOAD_TOO_LARGE"
	CodeInternalError = "INTERNAL_ERROR"
)

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Message string     `json:"message,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errBadRequest marks request-shape problems found by the handlers themselves.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, status int, data any, msg string) {
	writeJSON(w, status, envelope{Success: true, Data: data, Message: msg})
}

// writeError maps err onto a status code; unexpected errors are logged and
// their text is not sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		msg = "internal error"
	}
	writeJSON(w, status, envelope{Error: &errorBody{Code: code, Message: msg}})
}

func classify(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, CodeTooLarge
	case errors.Is(err, store.ErrNotFound), errors.Is(err, erp.ErrPONotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, approval.ErrNotPending):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, errBadRequest),
		errors.Is(err, service.ErrNoInput),
		errors.Is(err, service.ErrSelectionMissingItem),
		errors.Is(err, service.ErrSelectionNegative),
		errors.Is(err, approval.ErrMissingComparisonID),
		errors.Is(err, approval.ErrInvalidDecision),
		errors.Is(err, ingest.ErrInvalidFileType),
		errors.Is(err, ingest.ErrUnsupportedFile),
		errors.Is(err, ingest.ErrNoItems):
		return http.StatusBadRequest, CodeBadRequest
	default:
		return http.StatusInternalServerError, CodeInternalError
	}
}

// decodeJSON reads exactly one JSON value from the body.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return badRequest("empty body")
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return badRequest("empty body")
		}
		return badRequest("invalid JSON: %v", err)
	}
	return nil
}

func atoi(s string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return i
}
