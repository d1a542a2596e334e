package errors

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "COMMON_001", ErrCodeInternal.String())
}

func TestHTTPStatusForCode(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrCodeInternal, 500},
		{ErrCodeBadRequest, 400},
		{ErrCodeNotFound, 404},
		{ErrCodeConflict, 409},
		{ErrCodeValidation, 422},
		{ErrorCode("UNKNOWN"), 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, HTTPStatusForCode(tt.code))
	}
}

func TestDefaultMessageForCode(t *testing.T) {
	assert.Equal(t, "internal server error", DefaultMessageForCode(ErrCodeInternal))
	assert.Equal(t, "unknown error", DefaultMessageForCode(ErrorCode("UNKNOWN")))
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(ErrCodeBadRequest))
	assert.False(t, IsClientError(ErrCodeInternal))
}

func TestIsServerError(t *testing.T) {
	assert.True(t, IsServerError(ErrCodeInternal))
	assert.False(t, IsServerError(ErrCodeBadRequest))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "COMMON", ModuleForCode(ErrCodeInternal))
	assert.Equal(t, "GRAM", ModuleForCode(ErrCodeParseInput))
	assert.Equal(t, "GRAM", ModuleForCode(ErrCodeInvariantViolation))
	assert.Equal(t, "UNKNOWN", ModuleForCode(ErrorCode("")))
}

func TestGrammarCodes_HTTPStatus(t *testing.T) {
	assert.Equal(t, 422, HTTPStatusForCode(ErrCodeParseInput))
	assert.Equal(t, 422, HTTPStatusForCode(ErrCodeEmptySentence))
	assert.Equal(t, 502, HTTPStatusForCode(ErrCodeParserUnavailable))
	assert.Equal(t, 404, HTTPStatusForCode(ErrCodeUnknownHandler))
	assert.Equal(t, 500, HTTPStatusForCode(ErrCodeInvariantViolation))
}

func TestErrorCodeFormat_Convention(t *testing.T) {
	re := regexp.MustCompile(`^[A-Z]+_\d{3}$`)
	for code := range ErrorCodeHTTPStatus {
		assert.Regexp(t, re, string(code))
	}
}

func TestErrorCodeMappings_Completeness(t *testing.T) {
	for code := range ErrorCodeHTTPStatus {
		_, hasMessage := ErrorCodeMessage[code]
		assert.True(t, hasMessage, "missing message for %s", code)
	}
	for code := range ErrorCodeMessage {
		_, hasStatus := ErrorCodeHTTPStatus[code]
		assert.True(t, hasStatus, "missing status for %s", code)
	}
}

//Personal.AI order the ending
