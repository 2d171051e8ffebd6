package v1

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tinoosan/ermay/internal/errs"
	"github.com/tinoosan/ermay/internal/logging"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

// toJSON writes a JSON response with status code.
func toJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeErr(w, http.StatusBadRequest, msg, "bad_request")
}
func notFound(w http.ResponseWriter)              { writeErr(w, http.StatusNotFound, "not_found", "not_found") }
func forbidden(w http.ResponseWriter, msg string) { writeErr(w, http.StatusForbidden, msg, "forbidden") }
func conflict(w http.ResponseWriter, msg, code string) {
	writeErr(w, http.StatusConflict, msg, code)
}

// writeServiceErr maps service errors onto status codes. Anything unknown is
// logged and reported as 500 without leaking the cause.
func writeServiceErr(w http.ResponseWriter, r *http.Request, err error) {
	var ve *errs.ValidationError
	switch {
	case errors.As(err, &ve):
		toJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: ve.Msg, Code: "validation_error", Field: ve.Field})
	case errors.Is(err, errs.ErrPartyKindMismatch):
		writeErr(w, http.StatusUnprocessableEntity, err.Error(), "party_kind_mismatch")
	case errors.Is(err, errs.ErrUnprocessable):
		writeErr(w, http.StatusUnprocessableEntity, err.Error(), "validation_error")
	case errors.Is(err, errs.ErrNotFound):
		notFound(w)
	case errors.Is(err, errs.ErrForbidden):
		forbidden(w, "forbidden")
	case errors.Is(err, errs.ErrPartyInUse):
		conflict(w, err.Error(), "party_in_use")
	case errors.Is(err, errs.ErrConflict):
		conflict(w, err.Error(), "conflict")
	case errors.Is(err, errs.ErrInvalid):
		badRequest(w, "invalid request")
	default:
		logging.FromContext(r.Context()).ErrorContext(r.Context(), "request failed", "err", err)
		writeErr(w, http.StatusInternalServerError, "internal_error", "internal_error")
	}
}
