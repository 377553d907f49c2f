package errors

import (
	"errors"
	"fmt"
)

// Common error types for categorization and handling

var (
	// ErrInvalidInput indicates invalid user input (empty question, missing dataset, malformed upload)
	ErrInvalidInput = errors.New("invalid input")

	// ErrAuthentication indicates the LLM service rejected the API key
	ErrAuthentication = errors.New("llm authentication failed")

	// ErrRateLimited indicates the LLM service rate-limited the request
	ErrRateLimited = errors.New("llm rate limited")

	// ErrLLMUnavailable indicates the LLM service could not be reached or returned a server error
	ErrLLMUnavailable = errors.New("llm service unavailable")

	// ErrNoCodeBlock indicates the LLM response contained no usable fenced code block
	ErrNoCodeBlock = errors.New("no code block found in response")

	// ErrExecution indicates generated code failed during sandbox execution
	ErrExecution = errors.New("code execution failed")

	// ErrAttemptsExhausted indicates the repair loop ran out of attempts
	ErrAttemptsExhausted = errors.New("repair attempts exhausted")
)

// WrapError wraps an error with context message
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with formatted context message
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsInvalidInput checks if error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsServiceError checks if error came from the LLM service boundary
// (authentication, rate limiting, or transport). Service errors abort the
// pipeline and are never fed into the repair loop.
func IsServiceError(err error) bool {
	return errors.Is(err, ErrAuthentication) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrLLMUnavailable)
}

// IsRecoverable checks if error can be retried within the repair loop
// (extraction and execution failures).
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrNoCodeBlock) || errors.Is(err, ErrExecution)
}

// IsExhausted checks if error is a repair budget exhaustion
func IsExhausted(err error) bool {
	return errors.Is(err, ErrAttemptsExhausted)
}
