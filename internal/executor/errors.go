package executor

import "fmt"

// PreconditionError reports that a command was rejected before
// submission because the guest is not running (or its state could not
// be determined). Submit is never called when this is returned.
type PreconditionError struct {
	Node    string
	GuestID string
	State   GuestState
	Cause   error
}

func (e *PreconditionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cannot check guest %s on node %s: %v", e.GuestID, e.Node, e.Cause)
	}
	return fmt.Sprintf("guest %s on node %s is not running (state: %s)", e.GuestID, e.Node, e.State)
}

func (e *PreconditionError) Unwrap() error {
	return e.Cause
}

// SubmissionError reports that the command could not be started inside
// the guest. Polling never begins when this is returned.
type SubmissionError struct {
	Node    string
	GuestID string
	Cause   error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("failed to submit command to guest %s on node %s: %v", e.GuestID, e.Node, e.Cause)
}

func (e *SubmissionError) Unwrap() error {
	return e.Cause
}

// PollError reports that a completion check itself failed. The
// executor fails fast on the first poll fault rather than retrying
// until the timeout, so callers can tell infrastructure faults from
// commands that genuinely ran long.
type PollError struct {
	Node    string
	GuestID string
	Handle  JobHandle
	Cause   error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("failed to poll command status for guest %s on node %s: %v", e.GuestID, e.Node, e.Cause)
}

func (e *PollError) Unwrap() error {
	return e.Cause
}
