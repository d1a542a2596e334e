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
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeFeatureDisabled    ErrorCode = "COMMON_015"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
	ErrCodeMessageQueue       ErrorCode = "COMMON_017"
)

// Aliases for backward compatibility
const (
	CodeInternal       = ErrCodeInternal
	CodeInvalidParam   = ErrCodeBadRequest
	CodeUnauthorized   = ErrCodeUnauthorized
	CodeForbidden      = ErrCodeForbidden
	CodeNotFound       = ErrCodeNotFound
	CodeConflict       = ErrCodeConflict
	CodeRateLimit      = ErrCodeTooManyRequests
	CodeNotImplemented = ErrCodeNotImplemented
	CodeOK             = ErrorCode("OK")
	CodeUnknown        = ErrorCode("UNKNOWN")
)

// Grammar Module Error Codes
const (
	ErrCodeParseInput         ErrorCode = "GRAM_001"
	ErrCodeEmptySentence      ErrorCode = "GRAM_002"
	ErrCodeParserUnavailable  ErrorCode = "GRAM_003"
	ErrCodeInvariantViolation ErrorCode = "GRAM_004"
	ErrCodeUnknownHandler     ErrorCode = "GRAM_005"
	ErrCodeMergeConflict      ErrorCode = "GRAM_006"
	ErrCodeSentenceNotFound   ErrorCode = "GRAM_007"
)

// Infrastructure Error Codes (mapped from old names)
const (
	CodeCacheError        = ErrCodeCacheError
	CodeMessageQueueError = ErrCodeMessageQueue
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeFeatureDisabled:    http.StatusForbidden,
	ErrCodeNotImplemented:     http.StatusNotImplemented,
	ErrCodeMessageQueue:       http.StatusInternalServerError,

	ErrCodeParseInput:         http.StatusUnprocessableEntity,
	ErrCodeEmptySentence:      http.StatusUnprocessableEntity,
	ErrCodeParserUnavailable:  http.StatusBadGateway,
	ErrCodeInvariantViolation: http.StatusInternalServerError,
	ErrCodeUnknownHandler:     http.StatusNotFound,
	ErrCodeMergeConflict:      http.StatusInternalServerError,
	ErrCodeSentenceNotFound:   http.StatusNotFound,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeFeatureDisabled:    "feature disabled",
	ErrCodeNotImplemented:     "not implemented",
	ErrCodeMessageQueue:       "message queue error",

	ErrCodeParseInput:         "malformed dependency parse",
	ErrCodeEmptySentence:      "sentence is empty",
	ErrCodeParserUnavailable:  "dependency parser unavailable",
	ErrCodeInvariantViolation: "grammar map invariant violated",
	ErrCodeUnknownHandler:     "unknown grammatical handler",
	ErrCodeMergeConflict:      "conflicting slot claims",
	ErrCodeSentenceNotFound:   "sentence not found in treebank",
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

//Personal.AI order the ending
