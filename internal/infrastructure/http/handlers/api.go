// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strings"

	"github.com/alchemorsel/kitchen/internal/infrastructure/monitoring"
	"github.com/alchemorsel/kitchen/pkg/errors"
	"go.uber.org/zap"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured
const DefaultMaxBodyBytes int64 = 1 << 20

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// base carries what every handler group needs
type base struct {
	logger       *zap.Logger
	maxBodyBytes int64
}

func newBase(logger *zap.Logger, maxBodyBytes int64) base {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return base{logger: logger, maxBodyBytes: maxBodyBytes}
}

// decodeJSON reads a single JSON object from the request body into dst
func (b base) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) *errors.AppError {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return errors.NewBadRequestError("Content-Type must be application/json")
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, b.maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case stderrors.As(err, &maxErr):
			return errors.NewBadRequestError("Request body too large")
		case stderrors.Is(err, io.EOF):
			return errors.NewBadRequestError("Request body is empty")
		default:
			return errors.NewBadRequestError("Invalid JSON body").WithCause(err)
		}
	}
	if dec.More() {
		return errors.NewBadRequestError("Request body must contain a single JSON object")
	}
	return nil
}

// readBody reads the raw request body up to the configured limit
func (b base) readBody(w http.ResponseWriter, r *http.Request) ([]byte, *errors.AppError) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, b.maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			return nil, errors.NewBadRequestError("Request body too large")
		}
		return nil, errors.NewBadRequestError("Failed to read request body").WithCause(err)
	}
	return payload, nil
}

func (b base) writeData(w http.ResponseWriter, status int, data interface{}, message string) {
	b.writeJSON(w, status, APIResponse{Success: true, Data: data, Message: message})
}

// writeError maps err to its HTTP status. Anything that is not an
// AppError becomes a 500 without leaking its text, and internal details
// stay in the log.
func (b base) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.NewInternalError("An unexpected error occurred").WithCause(err)
	}

	status := appErr.StatusCode()
	log := monitoring.LoggerWithContext(r.Context(), b.logger)
	fields := []zap.Field{
		zap.String("code", string(appErr.Code)),
		zap.String("details", appErr.Details),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", fields...)
	} else {
		log.Debug("Request rejected", fields...)
	}

	message := appErr.Message
	if appErr.Details != "" && appErr.Code != errors.CodeInternal && appErr.Code != errors.CodeDatabaseError {
		message = appErr.Message + ": " + appErr.Details
	}

	b.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   string(appErr.Code),
		Message: message,
	})
}

// writeJSON writes a JSON response
func (b base) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		b.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}
