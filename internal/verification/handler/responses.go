package handler

import (
	"net/http"

	"turia/internal/verification"
	"turia/internal/verification/models"
	"turia/internal/verification/service"
	"turia/pkg/platform/httputil"
)

// VerifyResponse wraps a successful verification.
type VerifyResponse struct {
	Success bool           `json:"success"`
	Data    *models.Result `json:"data"`
}

// ConnectionResponse is the body of POST /api/gst/test.
type ConnectionResponse struct {
	Success bool `json:"success"`
	service.ConnectionStatus
}

// CodeInvalidGSTIN is the error code written for malformed identifiers.
const CodeInvalidGSTIN = "invalid_gstin"

// retryAfterSeconds is advertised when the upstream is unavailable.
const retryAfterSeconds = "30"

// StatusFor maps a verification category to its HTTP status and error code.
func StatusFor(category verification.Category) (int, string) {
	switch category {
	case verification.CategoryMalformedIdentifier:
		return http.StatusBadRequest, CodeInvalidGSTIN
	case verification.CategoryNotFound:
		return http.StatusNotFound, string(category)
	case verification.CategoryCredentialsMissing, verification.CategoryUpstreamUnavailable:
		return http.StatusServiceUnavailable, string(category)
	case verification.CategoryUpstreamRejected:
		return http.StatusUnprocessableEntity, string(category)
	default:
		return http.StatusBadGateway, string(verification.CategoryUnknownFailure)
	}
}

// WriteError writes a classified verification failure. Only the category's
// user-facing message reaches the body.
func WriteError(w http.ResponseWriter, err error) {
	verr := verification.Classify(err)
	status, code := StatusFor(verr.Category)
	if verr.Retryable() {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	httputil.WriteErrorResponse(w, status, code, verr.Message)
}
