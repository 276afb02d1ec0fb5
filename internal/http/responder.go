package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/meetsync/internal/application"
)

var (
	errBadRequestBody   = errors.New("invalid request body")
	errInvalidID        = errors.New("invalid resource id")
	errInvalidDate      = errors.New("invalid date, use YYYY-MM-DD")
	errInvalidTimestamp = errors.New("invalid timestamp, use RFC 3339")
)

// successEnvelope wraps every successful payload.
type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// errorEnvelope wraps every failure payload.
type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

type errorBody struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeData(ctx context.Context, w http.ResponseWriter, status int, data any) {
	if w == nil {
		return
	}
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(successEnvelope{Success: true, Data: data}); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}
	r.writeErrorBody(ctx, w, status, errorBody{Message: message})
}

// handleServiceError maps application errors onto HTTP statuses: not found to
// 404, ownership failures to 403, conflicts and invalid states to 409, field
// validation to 422 and everything else to 500.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var (
		vErr     *application.ValidationError
		conflict *application.ConflictError
		invalid  *application.InvalidStateError
		notFound *application.NotFoundError
	)
	switch {
	case errors.As(err, &notFound):
		r.writeErrorBody(ctx, w, http.StatusNotFound, errorBody{Message: notFound.Error()})
	case errors.Is(err, application.ErrNotFound):
		r.writeErrorBody(ctx, w, http.StatusNotFound, errorBody{Message: "The requested resource was not found"})
	case errors.Is(err, application.ErrForbidden):
		r.writeErrorBody(ctx, w, http.StatusForbidden, errorBody{Message: "You do not have access to this resource"})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeErrorBody(ctx, w, http.StatusConflict, errorBody{Message: "A resource with these details already exists"})
	case errors.As(err, &conflict):
		r.writeErrorBody(ctx, w, http.StatusConflict, errorBody{Message: conflict.Reason})
	case errors.As(err, &invalid):
		r.writeErrorBody(ctx, w, http.StatusConflict, errorBody{Message: invalid.Reason})
	case errors.As(err, &vErr):
		r.writeErrorBody(ctx, w, http.StatusUnprocessableEntity, errorBody{
			Message: "Some fields are invalid",
			Fields:  vErr.FieldErrors,
		})
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err)
		r.writeErrorBody(ctx, w, http.StatusInternalServerError, errorBody{Message: "Internal server error"})
	}
}

func (r responder) writeErrorBody(ctx context.Context, w http.ResponseWriter, status int, body errorBody) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorEnvelope{Success: false, Error: body}); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode error response", "error", err)
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}
