package errors

import "testing"

func TestWrapError(t *testing.T) {
	wrapped := WrapError(ErrInvalidInput, "question is empty")
	if wrapped.Error() != "question is empty: invalid input" {
		t.Errorf("WrapError() = %q", wrapped.Error())
	}
	if !IsInvalidInput(wrapped) {
		t.Error("wrapped error lost its sentinel")
	}

	if WrapError(nil, "context") != nil {
		t.Error("WrapError(nil) should be nil")
	}
	if WrapErrorf(nil, "context %d", 1) != nil {
		t.Error("WrapErrorf(nil) should be nil")
	}
}

func TestCategoryHelpers(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		service     bool
		recoverable bool
		exhausted   bool
	}{
		{"authentication", WrapError(ErrAuthentication, "401"), true, false, false},
		{"rate limited", ErrRateLimited, true, false, false},
		{"unavailable", WrapErrorf(ErrLLMUnavailable, "status %d", 503), true, false, false},
		{"no code block", ErrNoCodeBlock, false, true, false},
		{"execution", WrapError(ErrExecution, "undefined name"), false, true, false},
		{"exhausted", WrapError(ErrAttemptsExhausted, "after 4 attempts"), false, false, true},
		{"invalid input", ErrInvalidInput, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsServiceError(tt.err); got != tt.service {
				t.Errorf("IsServiceError() = %v, want %v", got, tt.service)
			}
			if got := IsRecoverable(tt.err); got != tt.recoverable {
				t.Errorf("IsRecoverable() = %v, want %v", got, tt.recoverable)
			}
			if got := IsExhausted(tt.err); got != tt.exhausted {
				t.Errorf("IsExhausted() = %v, want %v", got, tt.exhausted)
			}
		})
	}
}
