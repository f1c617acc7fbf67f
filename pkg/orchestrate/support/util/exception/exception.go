// Package exception provides custom error types and error handling utilities for the
// Darkroom orchestration engine. It standardizes errors that occur during batch
// orchestration, allowing them to be categorized based on retry and skip policies.
package exception

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"
)

// errorRegistry is a registry that maps error names referenced in configuration to
// concrete Go error instances. It holds error instances (singletons) for comparison
// using errors.Is.
var errorRegistry = make(map[string]error)

// registryMutex protects access to errorRegistry.
var registryMutex sync.RWMutex

// RegisterErrorType registers an error type in the registry.
// Registered error types are referenced by the IsErrorOfType function and are used
// for error classification.
//
// name: A unique identifier for the error type.
// prototype: An instance of the error to be registered. Used for comparison with errors.Is.
//
// If prototype is nil or name is empty, this function will panic.
func RegisterErrorType(name string, prototype error) {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	if name == "" {
		panic("Error type name cannot be empty")
	}
	if prototype == nil {
		panic(fmt.Sprintf("Cannot register nil prototype for name: %s", name))
	}

	errorRegistry[name] = prototype
}

// IsErrorTypeRegistered checks if the specified error type name is registered in the registry.
func IsErrorTypeRegistered(name string) bool {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	_, ok := errorRegistry[name]
	return ok
}

// BatchError is a custom error type that occurs during batch orchestration.
// It holds the module where the error occurred, a message, the wrapped original error,
// and flags indicating whether it is retryable or skippable.
type BatchError struct {
	// Module indicates the module where the error occurred (e.g., "submitter", "poller", "scheduler").
	Module string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped original error.
	OriginalErr error
	// isRetryable indicates whether this error is retryable.
	isRetryable bool
	// isSkippable indicates whether this error is skippable.
	isSkippable bool
	// StackTrace is the stack trace at the time of the error (for debugging).
	StackTrace string
}

// NewBatchError creates a new BatchError instance.
// module: The module where the error occurred.
// message: The error message.
// originalErr: The original error to wrap.
// isSkippable: Whether this error is skippable.
// isRetryable: Whether this error is retryable.
func NewBatchError(module, message string, originalErr error, isSkippable, isRetryable bool) *BatchError {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	stackTrace := string(buf[:n])

	return &BatchError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		isRetryable: isRetryable,
		isSkippable: isSkippable,
		StackTrace:  stackTrace,
	}
}

// NewBatchErrorf creates a new BatchError instance using a format string.
// Optional flags and an error are extracted from the end of the variadic arguments 'a'
// in the order: [isSkippable bool], [isRetryable bool], [originalErr error].
// The remaining arguments are used for fmt.Sprintf.
//
// Examples:
// NewBatchErrorf("poller", "Failed to poll task: %s", "task-123", true, true, io.EOF)
// -> message: "Failed to poll task: task-123", isSkippable: true, isRetryable: true, originalErr: io.EOF
func NewBatchErrorf(module, format string, a ...interface{}) *BatchError {
	var originalErr error
	isRetryable := false
	isSkippable := false
	args := a

	// Check arguments from the end and extract error, isRetryable, isSkippable in order
	if len(args) > 0 {
		if err, ok := args[len(args)-1].(error); ok {
			originalErr = err
			args = args[:len(args)-1]
		}
	}

	if len(args) > 0 {
		if b, ok := args[len(args)-1].(bool); ok {
			isRetryable = b
			args = args[:len(args)-1]
		}
	}

	if len(args) > 0 {
		if b, ok := args[len(args)-1].(bool); ok {
			isSkippable = b
			args = args[:len(args)-1]
		}
	}

	message := fmt.Sprintf(format, args...)

	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	stackTrace := string(buf[:n])

	return &BatchError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		isRetryable: isRetryable,
		isSkippable: isSkippable,
		StackTrace:  stackTrace,
	}
}

// Error implements the error interface.
// It returns the error's module, message, and the string representation of the original error.
func (e *BatchError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap returns the original error for errors.Unwrap.
func (e *BatchError) Unwrap() error {
	return e.OriginalErr
}

// IsRetryable returns whether this error is retryable.
func (e *BatchError) IsRetryable() bool {
	return e.isRetryable
}

// IsSkippable returns whether this error is skippable.
func (e *BatchError) IsSkippable() bool {
	return e.isSkippable
}

// IsBatchError determines if the given error is of type BatchError.
func IsBatchError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*BatchError)
	return ok
}

// IsTemporary determines if an error is temporary (e.g., network error, temporary
// connection issue). If it's a BatchError, its IsRetryable flag takes precedence.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	if be, ok := err.(*BatchError); ok {
		return be.IsRetryable()
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "EOF")
}

// IsFatal determines if an error is fatal (cannot be retried or skipped).
// If it's a BatchError, its flags take precedence.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if be, ok := err.(*BatchError); ok {
		return !be.IsRetryable() && !be.IsSkippable()
	}
	errStr := err.Error()
	return strings.Contains(errStr, "invalid argument") ||
		strings.Contains(errStr, "permission denied") ||
		strings.Contains(errStr, "data corruption")
}

// IsErrorOfType checks if an error matches a specified type name (string).
// errorTypeName can be a Go error type name (e.g., "*net.OpError", "io.EOF") or a
// substring of an error message (e.g., "connection refused").
// It checks in order: registered sentinel errors (errors.Is), substring of error
// message, and type name comparison using reflection.
func IsErrorOfType(err error, errorTypeName string) bool {
	if err == nil {
		return false
	}

	registryMutex.RLock()
	targetError, ok := errorRegistry[errorTypeName]
	registryMutex.RUnlock()

	if ok {
		if errors.Is(err, targetError) {
			return true
		}
	}

	currentErr := err
	for currentErr != nil {
		if strings.Contains(currentErr.Error(), errorTypeName) {
			return true
		}

		errType := reflect.TypeOf(currentErr)
		if errType != nil {
			if errType.String() == errorTypeName || (errType.Kind() == reflect.Ptr && errType.Elem().String() == errorTypeName) {
				return true
			}
		}

		currentErr = errors.Unwrap(currentErr)
	}

	return false
}

// Orchestration error taxonomy. Each failure mode a job can encounter maps to one
// sentinel so callers can branch with errors.Is regardless of how the error was wrapped.
var (
	// ErrSubmission indicates a transport failure while submitting a batch.
	// The batch failed before the remote worker ever saw it; no items are attributed.
	ErrSubmission = errors.New("SubmissionError")
	// ErrExecution indicates the remote worker reported the task as failed.
	ErrExecution = errors.New("ExecutionError")
	// ErrTaskNotFound indicates the remote worker no longer knows the task.
	// The task may have been cleaned up after success; this is not an automatic failure.
	ErrTaskNotFound = errors.New("NotFoundError")
	// ErrTimeout indicates the job-level poll attempt ceiling was exhausted.
	ErrTimeout = errors.New("TimeoutError")
	// ErrOptimisticLock indicates a concurrent update was detected by a version check.
	ErrOptimisticLock = errors.New("OptimisticLockingFailureError")
)

// NewSubmissionError creates a BatchError for a batch submission transport failure.
func NewSubmissionError(module, message string, originalErr error) *BatchError {
	var errToWrap error
	if originalErr != nil {
		errToWrap = errors.Join(ErrSubmission, originalErr)
	} else {
		errToWrap = ErrSubmission
	}
	// Submission failures are terminal for the batch; the caller may resubmit the items as a new job.
	return NewBatchError(module, message, errToWrap, false, false)
}

// NewExecutionError creates a BatchError for a remote task that reported failure.
func NewExecutionError(module, message string, originalErr error) *BatchError {
	var errToWrap error
	if originalErr != nil {
		errToWrap = errors.Join(ErrExecution, originalErr)
	} else {
		errToWrap = ErrExecution
	}
	return NewBatchError(module, message, errToWrap, false, false)
}

// NewTimeoutError creates a BatchError for a job whose poll attempt ceiling is exhausted.
func NewTimeoutError(module, message string) *BatchError {
	return NewBatchError(module, message, ErrTimeout, false, false)
}

// NewOptimisticLockingFailureException creates a BatchError for a failed version check.
// Retryable: the caller may re-read the record and reapply its update.
func NewOptimisticLockingFailureException(module, message string, originalErr error) *BatchError {
	var errToWrap error
	if originalErr != nil {
		errToWrap = errors.Join(ErrOptimisticLock, originalErr)
	} else {
		errToWrap = ErrOptimisticLock
	}
	return NewBatchError(module, message, errToWrap, false, true)
}

// IsSubmissionError determines if an error originated from a batch submission failure.
func IsSubmissionError(err error) bool {
	return err != nil && errors.Is(err, ErrSubmission)
}

// IsExecutionError determines if an error originated from a remote execution failure.
func IsExecutionError(err error) bool {
	return err != nil && errors.Is(err, ErrExecution)
}

// IsTimeoutError determines if an error indicates poll attempt exhaustion.
func IsTimeoutError(err error) bool {
	return err != nil && errors.Is(err, ErrTimeout)
}

// IsOptimisticLockError determines if an error indicates a concurrent update conflict.
func IsOptimisticLockError(err error) bool {
	return err != nil && errors.Is(err, ErrOptimisticLock)
}

func init() {
	// Register sentinel errors so that errors.Is can detect them by constant name.
	RegisterErrorType("SubmissionError", ErrSubmission)
	RegisterErrorType("ExecutionError", ErrExecution)
	RegisterErrorType("NotFoundError", ErrTaskNotFound)
	RegisterErrorType("TimeoutError", ErrTimeout)
	RegisterErrorType("OptimisticLockingFailureError", ErrOptimisticLock)

	// Common network-related error names
	RegisterErrorType("io.EOF", errors.New("io.EOF"))
	RegisterErrorType("net.OpError", errors.New("net.OpError"))
	RegisterErrorType("context.DeadlineExceeded", context.DeadlineExceeded)
	RegisterErrorType("context.Canceled", context.Canceled)
}

// ExtractErrorMessage extracts the error message string from an error.
// For BatchError, it returns the cleaner Message field.
// Otherwise, it returns the standard Error() string.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if be, ok := err.(*BatchError); ok {
		return be.Message
	}
	return err.Error()
}
