package taskmgr

import (
	"errors"
	"fmt"

	"github.com/postfiat-dev/pft-go/pkg/memo"
)

// ErrNoTask is returned when the task identifier is absent from the
// reduced state.
var ErrNoTask = errors.New("no task found")

// ErrGenesisSent is returned when the genesis handshake with the node
// was already observed, it's sent at most once per counterparty.
var ErrGenesisSent = errors.New("genesis handshake already sent")

// InvalidTransitionError reports a task action whose lifecycle
// precondition failed. No transaction is submitted in that case.
type InvalidTransitionError struct {
	TaskID string
	// Current is the kind of the task's most recent event.
	Current memo.Kind
	// Observed lists the distinct event kinds seen for the task, in
	// first-observation order.
	Observed []memo.Kind
}

// Error implements the error interface.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("wrong state for task %s: %s", e.TaskID, e.Current)
}

// SubmissionError reports a transaction the ledger rejected or timed
// out. Submissions are never retried automatically, retrying a payment
// risks a duplicate spend.
type SubmissionError struct {
	EngineResult string
	Message      string
	Err          error
}

// Error implements the error interface.
func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("submission failed: %v", e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("submission rejected: %s (%s)", e.EngineResult, e.Message)
	}
	return fmt.Sprintf("submission rejected: %s", e.EngineResult)
}

// Unwrap supports errors.Is against the transport cause.
func (e *SubmissionError) Unwrap() error {
	return e.Err
}
