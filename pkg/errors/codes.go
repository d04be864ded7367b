package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_005"
	ErrCodeTimeout            ErrorCode = "COMMON_006"
	ErrCodeValidation         ErrorCode = "COMMON_007"
	ErrCodeSerialization      ErrorCode = "COMMON_008"
	ErrCodeDatabaseError      ErrorCode = "COMMON_009"
	ErrCodeCacheError         ErrorCode = "COMMON_010"
	ErrCodeMessagingError     ErrorCode = "COMMON_011"
	ErrCodeStorageError       ErrorCode = "COMMON_012"
)

// Sentinel aliases
const (
	CodeOK      = ErrorCode("OK")
	CodeUnknown = ErrorCode("UNKNOWN")
)

// Claim Module Error Codes
const (
	ErrCodeClaimNotFound          ErrorCode = "CLM_001"
	ErrCodeClaimInvalidAmount     ErrorCode = "CLM_002"
	ErrCodeClaimInvalidType       ErrorCode = "CLM_003"
	ErrCodeClaimIllegalTransition ErrorCode = "CLM_004"
	ErrCodeClaimAlreadyDecided    ErrorCode = "CLM_005"
	ErrCodeClaimNotReviewable     ErrorCode = "CLM_006"
)

// Identity / Registration Module Error Codes
const (
	ErrCodePatientNotFound       ErrorCode = "IDN_001"
	ErrCodePatientAlreadyExists  ErrorCode = "IDN_002"
	ErrCodeIdentityFraudSuspected ErrorCode = "IDN_003"
	ErrCodeIdentityInvalidInput  ErrorCode = "IDN_004"
)

// Scoring / ML Module Error Codes
const (
	ErrCodeModelNotAvailable   ErrorCode = "ML_001"
	ErrCodeInferenceFailed     ErrorCode = "ML_002"
	ErrCodeFeatureExtraction   ErrorCode = "ML_003"
	ErrCodeModelMetadataInvalid ErrorCode = "ML_004"
	ErrCodeInferenceTimeout    ErrorCode = "ML_005"
)

// Fraud Report Module Error Codes
const (
	ErrCodeReportNotFound      ErrorCode = "RPT_001"
	ErrCodeReportStoreFailed   ErrorCode = "RPT_002"
	ErrCodeReportDigestMismatch ErrorCode = "RPT_003"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeMessagingError:     http.StatusInternalServerError,
	ErrCodeStorageError:       http.StatusInternalServerError,

	ErrCodeClaimNotFound:          http.StatusNotFound,
	ErrCodeClaimInvalidAmount:     http.StatusBadRequest,
	ErrCodeClaimInvalidType:       http.StatusBadRequest,
	ErrCodeClaimIllegalTransition: http.StatusConflict,
	ErrCodeClaimAlreadyDecided:    http.StatusConflict,
	ErrCodeClaimNotReviewable:     http.StatusConflict,

	ErrCodePatientNotFound:        http.StatusNotFound,
	ErrCodePatientAlreadyExists:   http.StatusConflict,
	ErrCodeIdentityFraudSuspected: http.StatusConflict,
	ErrCodeIdentityInvalidInput:   http.StatusBadRequest,

	ErrCodeModelNotAvailable:    http.StatusServiceUnavailable,
	ErrCodeInferenceFailed:      http.StatusInternalServerError,
	ErrCodeFeatureExtraction:    http.StatusInternalServerError,
	ErrCodeModelMetadataInvalid: http.StatusInternalServerError,
	ErrCodeInferenceTimeout:     http.StatusGatewayTimeout,

	ErrCodeReportNotFound:       http.StatusNotFound,
	ErrCodeReportStoreFailed:    http.StatusInternalServerError,
	ErrCodeReportDigestMismatch: http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeMessagingError:     "message publish failed",
	ErrCodeStorageError:       "object storage error",

	ErrCodeClaimNotFound:          "claim not found",
	ErrCodeClaimInvalidAmount:     "claim amount must be positive",
	ErrCodeClaimInvalidType:       "unsupported claim type",
	ErrCodeClaimIllegalTransition: "illegal claim status transition",
	ErrCodeClaimAlreadyDecided:    "claim has already been decided",
	ErrCodeClaimNotReviewable:     "claim is not awaiting review",

	ErrCodePatientNotFound:        "patient not found",
	ErrCodePatientAlreadyExists:   "patient already registered",
	ErrCodeIdentityFraudSuspected: "identity matches an existing patient",
	ErrCodeIdentityInvalidInput:   "invalid identity input",

	ErrCodeModelNotAvailable:    "scoring model not available",
	ErrCodeInferenceFailed:      "model inference failed",
	ErrCodeFeatureExtraction:    "feature extraction failed",
	ErrCodeModelMetadataInvalid: "model metadata invalid",
	ErrCodeInferenceTimeout:     "model inference timed out",

	ErrCodeReportNotFound:       "fraud report not found",
	ErrCodeReportStoreFailed:    "failed to store fraud report",
	ErrCodeReportDigestMismatch: "fraud report integrity digest mismatch",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
