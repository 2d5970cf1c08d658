package executor

import "context"

// GuestState is a point-in-time guest power state, fetched immediately
// before submission and never cached across calls.
type GuestState string

const (
	StateRunning   GuestState = "running"
	StateStopped   GuestState = "stopped"
	StateSuspended GuestState = "suspended"
	StateUnknown   GuestState = "unknown"
)

// JobHandle identifies a submitted command for polling: the guest
// agent PID for VMs, the task UPID for containers. A handle is owned
// by exactly one execution for its lifetime.
type JobHandle string

// PollStatus is the result of one completion check. ExitCode and the
// output fields are meaningful only once Finished is true.
type PollStatus struct {
	Finished  bool
	ExitCode  int
	Output    string
	ErrOutput string
}

// Backend submits guest commands and observes their completion.
// Implementations must be safe for concurrent use; the executor shares
// one backend across all executions.
type Backend interface {
	// Kind labels executions in logs and metrics ("vm" or "container").
	Kind() string

	// GuestStatus returns the guest's current power state.
	GuestStatus(ctx context.Context, node, guestID string) (GuestState, error)

	// Submit starts the command inside the guest and returns the
	// handle to poll it with.
	Submit(ctx context.Context, node, guestID, command string) (JobHandle, error)

	// Poll checks whether a submitted command has finished.
	Poll(ctx context.Context, node, guestID string, handle JobHandle) (*PollStatus, error)
}

// toGuestState normalizes the status strings the API reports. QEMU
// reports paused guests, containers report suspended ones.
func toGuestState(status string) GuestState {
	switch status {
	case "running":
		return StateRunning
	case "stopped":
		return StateStopped
	case "suspended", "paused":
		return StateSuspended
	default:
		return StateUnknown
	}
}
