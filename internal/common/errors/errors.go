// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidCategory ErrorCode = "INVALID_CATEGORY"

	ErrCodeMetadataRequestFailed ErrorCode = "METADATA_REQUEST_FAILED"
	ErrCodeMetadataTimeout       ErrorCode = "METADATA_TIMEOUT"
	ErrCodeMetadataRateLimited   ErrorCode = "METADATA_RATE_LIMITED"
	ErrCodeDiscoveryUnavailable  ErrorCode = "DISCOVERY_UNAVAILABLE"

	ErrCodeDetailsLookupFailed       ErrorCode = "DETAILS_LOOKUP_FAILED"
	ErrCodeCertificationLookupFailed ErrorCode = "CERTIFICATION_LOOKUP_FAILED"
	ErrCodeProvidersLookupFailed     ErrorCode = "PROVIDERS_LOOKUP_FAILED"

	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewInvalidInputError creates a non-retryable job input error.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid job input", details, false, nil)
}

// NewInvalidCategoryError creates a non-retryable error for an unknown content category.
func NewInvalidCategoryError(category string) *StandardError {
	return newError(ErrCodeInvalidCategory, "Unknown content category",
		fmt.Sprintf("category: %s", category), false, nil)
}

// NewMetadataRequestFailedError wraps a transport or non-2xx failure from the metadata service.
func NewMetadataRequestFailedError(endpoint string, err error) *StandardError {
	return newError(ErrCodeMetadataRequestFailed, "Metadata service request failed",
		fmt.Sprintf("endpoint: %s, error: %v", endpoint, err), true, err)
}

// NewMetadataTimeoutError marks a metadata call that exceeded its per-call timeout.
func NewMetadataTimeoutError(endpoint string, err error) *StandardError {
	return newError(ErrCodeMetadataTimeout, "Metadata service timeout",
		fmt.Sprintf("endpoint: %s", endpoint), true, err)
}

// NewMetadataRateLimitedError marks a 429 from the metadata service.
func NewMetadataRateLimitedError(endpoint string, err error) *StandardError {
	return newError(ErrCodeMetadataRateLimited, "Metadata service rate limit reached",
		fmt.Sprintf("endpoint: %s", endpoint), true, err)
}

// NewDiscoveryUnavailableError reports that no discover page could be fetched in any attempt.
func NewDiscoveryUnavailableError(category string, attempts int) *StandardError {
	return newError(ErrCodeDiscoveryUnavailable, "Discovery unavailable",
		fmt.Sprintf("category: %s, attempts: %d", category, attempts), true, nil)
}

// NewLookupFailedError builds the degradation error for one enrichment lookup.
func NewLookupFailedError(lookup string, id int, err error) *StandardError {
	code := ErrCodeInternal
	switch lookup {
	case "details":
		code = ErrCodeDetailsLookupFailed
	case "certification":
		code = ErrCodeCertificationLookupFailed
	case "providers":
		code = ErrCodeProvidersLookupFailed
	}
	return newError(code, fmt.Sprintf("Enrichment lookup '%s' failed", lookup),
		fmt.Sprintf("id: %d, error: %v", id, err), true, err)
}

// NewCacheUnavailableError wraps a redis failure. Cache failures never abort a lookup.
func NewCacheUnavailableError(err error) *StandardError {
	return newError(ErrCodeCacheUnavailable, "Cache unavailable", err.Error(), true, err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:              "INVALID_INPUT",
	ErrCodeInvalidCategory:           "INVALID_CATEGORY",
	ErrCodeMetadataRequestFailed:     "METADATA_REQUEST_FAILED",
	ErrCodeMetadataTimeout:           "METADATA_TIMEOUT",
	ErrCodeMetadataRateLimited:       "METADATA_RATE_LIMITED",
	ErrCodeDiscoveryUnavailable:      "DISCOVERY_UNAVAILABLE",
	ErrCodeDetailsLookupFailed:       "DETAILS_LOOKUP_FAILED",
	ErrCodeCertificationLookupFailed: "CERTIFICATION_LOOKUP_FAILED",
	ErrCodeProvidersLookupFailed:     "PROVIDERS_LOOKUP_FAILED",
	ErrCodeCacheUnavailable:          "CACHE_UNAVAILABLE",
}

// GetRetryCount returns the recommended job retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeMetadataRequestFailed,
		ErrCodeDiscoveryUnavailable,
		ErrCodeCacheUnavailable:
		return 3

	case ErrCodeMetadataTimeout,
		ErrCodeMetadataRateLimited:
		return 2

	case ErrCodeDetailsLookupFailed,
		ErrCodeCertificationLookupFailed,
		ErrCodeProvidersLookupFailed:
		return 1

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "METADATA") || strings.HasPrefix(codeStr, "DISCOVERY"):
		return "UPSTREAM"
	case strings.HasSuffix(codeStr, "LOOKUP_FAILED"):
		return "ENRICHMENT"
	case strings.HasPrefix(codeStr, "CACHE"):
		return "CACHE"
	case strings.HasPrefix(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
