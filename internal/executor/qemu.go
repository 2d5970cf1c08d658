package executor

import (
	"context"
	"strconv"

	"github.com/tombee/pvemcp/internal/proxmox"
	pvemcperrors "github.com/tombee/pvemcp/pkg/errors"
)

// QEMUBackend runs commands in VMs through the QEMU guest agent. The
// handle is the guest-side PID returned by agent/exec, polled through
// agent/exec-status.
type QEMUBackend struct {
	client *proxmox.Client
}

// NewQEMUBackend creates a VM command backend.
func NewQEMUBackend(client *proxmox.Client) *QEMUBackend {
	return &QEMUBackend{client: client}
}

// Kind implements Backend.
func (b *QEMUBackend) Kind() string {
	return "vm"
}

// GuestStatus implements Backend.
func (b *QEMUBackend) GuestStatus(ctx context.Context, node, guestID string) (GuestState, error) {
	vmid, err := parseGuestID(guestID)
	if err != nil {
		return StateUnknown, err
	}

	status, err := b.client.VMStatus(ctx, node, vmid)
	if err != nil {
		return StateUnknown, err
	}
	return toGuestState(status.Status), nil
}

// Submit implements Backend.
func (b *QEMUBackend) Submit(ctx context.Context, node, guestID, command string) (JobHandle, error) {
	vmid, err := parseGuestID(guestID)
	if err != nil {
		return "", err
	}

	pid, err := b.client.AgentExec(ctx, node, vmid, command)
	if err != nil {
		return "", err
	}
	return JobHandle(strconv.Itoa(pid)), nil
}

// Poll implements Backend.
func (b *QEMUBackend) Poll(ctx context.Context, node, guestID string, handle JobHandle) (*PollStatus, error) {
	vmid, err := parseGuestID(guestID)
	if err != nil {
		return nil, err
	}
	pid, err := strconv.Atoi(string(handle))
	if err != nil {
		return nil, &pvemcperrors.ValidationError{Field: "handle", Message: "agent exec handle must be a PID"}
	}

	status, err := b.client.AgentExecStatus(ctx, node, vmid, pid)
	if err != nil {
		return nil, err
	}

	if !bool(status.Exited) {
		return &PollStatus{}, nil
	}
	return &PollStatus{
		Finished:  true,
		ExitCode:  status.ExitCode,
		Output:    status.OutData,
		ErrOutput: status.ErrData,
	}, nil
}

func parseGuestID(guestID string) (int, error) {
	vmid, err := strconv.Atoi(guestID)
	if err != nil || vmid <= 0 {
		return 0, &pvemcperrors.ValidationError{
			Field:      "vmid",
			Message:    "guest ID must be a positive integer",
			Suggestion: "use the numeric VMID shown by get_vms or get_containers",
		}
	}
	return vmid, nil
}
