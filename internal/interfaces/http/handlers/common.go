// Package handlers implements the HTTP endpoints of the analysis API.
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/logging"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/common"
)

// DefaultMaxBodySize bounds request bodies when no limit is configured.
const DefaultMaxBodySize = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeSuccess wraps data in the standard envelope.
func writeSuccess[T any](w http.ResponseWriter, r *http.Request, statusCode int, data T) {
	resp := common.NewSuccessResponse(data)
	resp.RequestID = chimw.GetReqID(r.Context())
	writeJSON(w, statusCode, resp)
}

// writeAppError maps err to its HTTP status through the error-code table.
// Errors without an application code are masked as internal errors.
func writeAppError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error) {
	var ae *errors.AppError
	if !stderrors.As(err, &ae) {
		ae = errors.Wrap(err, errors.ErrCodeInternal, errors.DefaultMessageForCode(errors.ErrCodeInternal))
	}
	status := errors.HTTPStatusForCode(ae.Code)

	fields := []logging.Field{
		logging.String("code", string(ae.Code)),
		logging.String(logging.KeyRequestID, chimw.GetReqID(r.Context())),
		logging.Err(err),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", fields...)
	} else {
		logger.Debug("request rejected", fields...)
	}

	message, detail := ae.Message, ae.Detail
	if ae.Code == errors.ErrCodeInternal {
		message, detail = errors.DefaultMessageForCode(errors.ErrCodeInternal), ""
	}
	resp := common.NewErrorResponse(string(ae.Code), message, detail)
	resp.RequestID = chimw.GetReqID(r.Context())
	writeJSON(w, status, resp)
}

// decodeJSON reads a bounded JSON body into dst, rejecting unknown fields
// and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst interface{}) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge):
			return errors.New(errors.ErrCodeValidation, "request body too large")
		case stderrors.Is(err, io.EOF):
			return errors.New(errors.ErrCodeValidation, "request body is empty")
		default:
			return errors.Wrap(err, errors.ErrCodeValidation, "invalid request body")
		}
	}
	if dec.More() {
		return errors.New(errors.ErrCodeValidation, "request body must contain a single JSON object")
	}
	return nil
}

//Personal.AI order the ending
