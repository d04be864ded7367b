// Package handlers implements the HTTP endpoints of the claims API.
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/medledger/claimguard/pkg/errors"
)

// maxBodyBytes caps request bodies; claim payloads with attachments metadata
// stay far below this.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// writeAppError maps coded application errors onto HTTP responses.  Server
// side errors are masked; the code still reaches the client for correlation.
func writeAppError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	resp := ErrorResponse{Code: string(code)}
	if errors.IsServerError(code) {
		resp.Message = errors.DefaultMessageForCode(code)
	} else {
		resp.Message = err.Error()
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			resp.Message = appErr.Message
			resp.Detail = appErr.Detail
		}
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads a bounded JSON body into dest.
func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeBadRequest, "invalid request body")
	}
	return nil
}
