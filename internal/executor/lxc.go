package executor

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/tombee/pvemcp/internal/proxmox"
)

// taskLogLimit bounds how much of a finished exec task's log is
// fetched as command output.
const taskLogLimit = 500

var exitCodeRe = regexp.MustCompile(`exit code (\d+)`)

// LXCBackend runs commands in containers through the exec endpoint.
// The handle is the task UPID, polled through the node task status
// endpoint; output comes from the task log once the task stops.
type LXCBackend struct {
	client *proxmox.Client
}

// NewLXCBackend creates a container command backend.
func NewLXCBackend(client *proxmox.Client) *LXCBackend {
	return &LXCBackend{client: client}
}

// Kind implements Backend.
func (b *LXCBackend) Kind() string {
	return "container"
}

// GuestStatus implements Backend.
func (b *LXCBackend) GuestStatus(ctx context.Context, node, guestID string) (GuestState, error) {
	vmid, err := parseGuestID(guestID)
	if err != nil {
		return StateUnknown, err
	}

	status, err := b.client.ContainerStatus(ctx, node, vmid)
	if err != nil {
		return StateUnknown, err
	}
	return toGuestState(status.Status), nil
}

// Submit implements Backend.
func (b *LXCBackend) Submit(ctx context.Context, node, guestID, command string) (JobHandle, error) {
	vmid, err := parseGuestID(guestID)
	if err != nil {
		return "", err
	}

	upid, err := b.client.ContainerExec(ctx, node, vmid, command)
	if err != nil {
		return "", err
	}
	return JobHandle(upid), nil
}

// Poll implements Backend.
func (b *LXCBackend) Poll(ctx context.Context, node, guestID string, handle JobHandle) (*PollStatus, error) {
	task, err := b.client.TaskStatus(ctx, node, string(handle))
	if err != nil {
		return nil, err
	}

	if !task.Finished() {
		return &PollStatus{}, nil
	}

	status := &PollStatus{Finished: true}
	if !task.OK() {
		status.ExitCode = exitCodeFromStatus(task.ExitStatus)
		status.ErrOutput = task.ExitStatus
	}

	// The task log carries the command's output. Losing it degrades
	// the result but doesn't invalidate the completion.
	lines, err := b.client.TaskLog(ctx, node, string(handle), 0, taskLogLimit)
	if err == nil {
		status.Output = joinTaskLog(lines)
	}

	return status, nil
}

// exitCodeFromStatus digs the numeric exit code out of messages like
// "command 'sh -c ...' failed: exit code 127". Failures without one
// report exit code 1.
func exitCodeFromStatus(exitStatus string) int {
	if m := exitCodeRe.FindStringSubmatch(exitStatus); m != nil {
		if code, err := strconv.Atoi(m[1]); err == nil {
			return code
		}
	}
	return 1
}

// joinTaskLog flattens task log rows into output text, dropping the
// TASK OK / TASK ERROR trailer the task worker appends.
func joinTaskLog(lines []proxmox.TaskLogLine) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		if line.T == "TASK OK" || strings.HasPrefix(line.T, "TASK ERROR") {
			continue
		}
		parts = append(parts, line.T)
	}
	return strings.Join(parts, "\n")
}
