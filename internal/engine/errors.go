// Package engine implements the travel-itinerary workflow graph: the state
// machine that coordinates validation, research, formatting, review, and
// confirmation around a language model and a set of external tools.
//
// This file contains error taxonomy and retry classification.
package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ParseError indicates the language model returned output that does not
// conform to the requested schema. The core does not retry it: the step fails
// and the error propagates to the caller.
type ParseError struct {
	Schema string
	Raw    string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("model output does not conform to %s schema: %v", e.Schema, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsParseError checks whether err is (or wraps) a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// ToolError indicates a tool invocation failed after any configured retries.
// The dispatcher appends the error text as the tool result so the model can
// react; ToolError itself is only fatal when the dispatcher cannot proceed.
type ToolError struct {
	Tool string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// StepError wraps a failure with the step it occurred in.
type StepError struct {
	Step StepID
	Op   string // "llm_call", "tool_dispatch", "checkpoint", ...
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %s: %v", e.Step, e.Op, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// WrapStepError attaches step context to an error.
func WrapStepError(err error, step StepID, op string) error {
	if err == nil {
		return nil
	}
	return &StepError{Step: step, Op: op, Err: err}
}

// ErrClarifyExhausted terminates a session whose Validate step has exceeded
// the configured clarification bound without producing a valid request.
var ErrClarifyExhausted = errors.New("unable to proceed: clarification rounds exhausted")

// RetryClass indicates whether an error should be retried.
type RetryClass string

const (
	RetryClassRetryable    RetryClass = "retryable"
	RetryClassNonRetryable RetryClass = "non_retryable"
)

// ClassifyLLMError classifies an error from a provider call. Rate limits,
// server errors, and transport failures are transient; schema, auth, and
// request errors are not.
func ClassifyLLMError(err error) RetryClass {
	if err == nil {
		return RetryClassNonRetryable
	}
	if IsParseError(err) {
		return RetryClassNonRetryable
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") {
		return RetryClassRetryable
	}
	if strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "bad gateway") ||
		strings.Contains(errStr, "service unavailable") {
		return RetryClassRetryable
	}
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "temporary failure") {
		return RetryClassRetryable
	}

	return RetryClassNonRetryable
}

// ClassifyToolError classifies an error from a tool execution. Tools marked
// non-retryable are never retried regardless of the error.
func ClassifyToolError(err error, toolRetryable bool) RetryClass {
	if err == nil || !toolRetryable {
		return RetryClassNonRetryable
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "deadlock") {
		return RetryClassRetryable
	}

	return RetryClassNonRetryable
}

// RetryExhaustedError indicates all retry attempts were consumed.
type RetryExhaustedError struct {
	Err         error
	Attempts    int
	MaxAttempts int
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d/%d attempts: %v", e.Attempts, e.MaxAttempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }

// IsRetryExhausted checks if an error is a RetryExhaustedError.
func IsRetryExhausted(err error) bool {
	var re *RetryExhaustedError
	return errors.As(err, &re)
}
