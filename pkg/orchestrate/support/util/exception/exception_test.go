package exception

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchError_ErrorStringIncludesModuleAndCause(t *testing.T) {
	underlying := errors.New("connection reset")
	err := NewBatchError("submitter", "failed to submit batch 2", underlying, false, true)

	assert.Equal(t, "[submitter] failed to submit batch 2: connection reset", err.Error())
	assert.True(t, err.IsRetryable())
	assert.False(t, err.IsSkippable())
	assert.ErrorIs(t, err, underlying)
}

func TestBatchError_WithoutCause(t *testing.T) {
	err := NewBatchError("scheduler", "no items supplied", nil, false, false)

	assert.Equal(t, "[scheduler] no items supplied", err.Error())
	assert.Nil(t, errors.Unwrap(err))
}

func TestNewBatchErrorf_ExtractsTrailingFlagsAndError(t *testing.T) {
	err := NewBatchErrorf("poller", "failed to poll task: %s", "task-123", true, true, io.EOF)

	assert.Equal(t, "failed to poll task: task-123", err.Message)
	assert.True(t, err.IsSkippable())
	assert.True(t, err.IsRetryable())
	assert.ErrorIs(t, err, io.EOF)
}

func TestNewBatchErrorf_PlainFormatArgs(t *testing.T) {
	err := NewBatchErrorf("poller", "batch %d of %d still processing", 2, 5)

	assert.Equal(t, "batch 2 of 5 still processing", err.Message)
	assert.False(t, err.IsSkippable())
	assert.False(t, err.IsRetryable())
	assert.Nil(t, err.OriginalErr)
}

func TestSentinelClassification(t *testing.T) {
	submission := NewSubmissionError("submitter", "submit failed", errors.New("dial tcp: refused"))
	execution := NewExecutionError("poller", "task reported failure", nil)
	timeout := NewTimeoutError("scheduler", "poll budget exhausted")
	lock := NewOptimisticLockingFailureException("repository", "stale version", nil)

	assert.True(t, IsSubmissionError(submission))
	assert.False(t, IsSubmissionError(execution))

	assert.True(t, IsExecutionError(execution))
	assert.False(t, IsExecutionError(timeout))

	assert.True(t, IsTimeoutError(timeout))
	assert.True(t, IsOptimisticLockError(lock))
	assert.True(t, lock.IsRetryable())
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	inner := NewSubmissionError("submitter", "submit failed", nil)
	wrapped := fmt.Errorf("batch 3: %w", inner)

	assert.True(t, IsSubmissionError(wrapped))
	assert.True(t, IsErrorOfType(wrapped, "SubmissionError"))
}

func TestIsTemporary(t *testing.T) {
	assert.True(t, IsTemporary(NewBatchError("remote", "503 from worker", nil, false, true)))
	assert.False(t, IsTemporary(NewBatchError("remote", "400 from worker", nil, false, false)))
	assert.True(t, IsTemporary(errors.New("dial tcp: connection refused")))
	assert.False(t, IsTemporary(nil))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(NewBatchError("remote", "bad request", nil, false, false)))
	assert.False(t, IsFatal(NewBatchError("remote", "retry me", nil, false, true)))
	assert.True(t, IsFatal(errors.New("invalid argument: batch size")))
	assert.False(t, IsFatal(nil))
}

func TestIsErrorOfType_RegistryAndSubstring(t *testing.T) {
	require.True(t, IsErrorTypeRegistered("NotFoundError"))

	err := fmt.Errorf("poll: %w", ErrTaskNotFound)
	assert.True(t, IsErrorOfType(err, "NotFoundError"))

	// Substring match on the message.
	assert.True(t, IsErrorOfType(errors.New("upstream said: task vanished"), "vanished"))
	assert.False(t, IsErrorOfType(nil, "NotFoundError"))
}

func TestExtractErrorMessage(t *testing.T) {
	be := NewBatchError("poller", "task lookup failed", errors.New("404"), false, false)
	assert.Equal(t, "task lookup failed", ExtractErrorMessage(be))
	assert.Equal(t, "plain failure", ExtractErrorMessage(errors.New("plain failure")))
	assert.Equal(t, "", ExtractErrorMessage(nil))
}

func TestRegisterErrorType_PanicsOnBadArguments(t *testing.T) {
	assert.Panics(t, func() { RegisterErrorType("", errors.New("x")) })
	assert.Panics(t, func() { RegisterErrorType("nilProto", nil) })
}
