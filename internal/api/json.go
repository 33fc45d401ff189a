package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tallyhq/tally/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errBody struct {
	Code      apperr.Code `json:"code"`
	Message   string      `json:"message"`
	Retryable bool        `json:"retryable"`
}

type errEnvelope struct {
	Error errBody `json:"error"`
}

// writeError renders err as the {error:{code,message,retryable}} envelope.
// INTERNAL causes are logged but never leaked to the caller.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ae := apperr.From(err)
	if ae.Code == apperr.CodeInternal {
		slog.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
	}
	writeJSON(w, ae.Code.HTTPStatus(), errEnvelope{Error: errBody{
		Code:      ae.Code,
		Message:   ae.Message,
		Retryable: ae.Code.Retryable(),
	}})
}
