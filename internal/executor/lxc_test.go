package executor

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/tombee/pvemcp/internal/proxmox"
)

const testUPID = "UPID:pve1:0003C8A2:001F9B3C:68ABC123:vzexec:201:root@pam:"

func TestLXCBackend_Kind(t *testing.T) {
	backend := NewLXCBackend(nil)
	if got := backend.Kind(); got != "container" {
		t.Errorf("Kind() = %q, want %q", got, "container")
	}
}

func TestLXCBackend_GuestStatus(t *testing.T) {
	client := newBackendClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/nodes/pve1/lxc/201/status/current" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"data":{"status":"running","vmid":"201","name":"db-01"}}`)
	}))

	state, err := NewLXCBackend(client).GuestStatus(context.Background(), "pve1", "201")
	if err != nil {
		t.Fatalf("GuestStatus() error = %v", err)
	}
	if state != StateRunning {
		t.Errorf("GuestStatus() = %q, want %q", state, StateRunning)
	}
}

func TestLXCBackend_Submit(t *testing.T) {
	client := newBackendClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/nodes/pve1/lxc/201/exec" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.PostFormValue("command"); got != "apt-get update" {
			t.Errorf("command = %q, want %q", got, "apt-get update")
		}
		fmt.Fprintf(w, `{"data":%q}`, testUPID)
	}))

	handle, err := NewLXCBackend(client).Submit(context.Background(), "pve1", "201", "apt-get update")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if string(handle) != testUPID {
		t.Errorf("handle = %q, want the task UPID", handle)
	}
}

func TestLXCBackend_Poll_StillRunning(t *testing.T) {
	client := newBackendClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/nodes/pve1/tasks/" + testUPID + "/status":
			fmt.Fprintf(w, `{"data":{"upid":%q,"status":"running","type":"vzexec"}}`, testUPID)
		default:
			t.Errorf("unexpected path %s (the log must not be fetched for a running task)", r.URL.Path)
			http.NotFound(w, r)
		}
	}))

	status, err := NewLXCBackend(client).Poll(context.Background(), "pve1", "201", JobHandle(testUPID))
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if status.Finished {
		t.Errorf("status = %+v, want unfinished", status)
	}
}

func TestLXCBackend_Poll_CompletedOK(t *testing.T) {
	client := newBackendClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/nodes/pve1/tasks/" + testUPID + "/status":
			fmt.Fprintf(w, `{"data":{"upid":%q,"status":"stopped","exitstatus":"OK"}}`, testUPID)
		case "/nodes/pve1/tasks/" + testUPID + "/log":
			if got := r.URL.Query().Get("limit"); got != "500" {
				t.Errorf("limit = %q, want %q", got, "500")
			}
			fmt.Fprint(w, `{"data":[{"n":1,"t":"Linux db-01 6.8.12"},{"n":2,"t":" 14:02:11 up 3 days"},{"n":3,"t":"TASK OK"}]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))

	status, err := NewLXCBackend(client).Poll(context.Background(), "pve1", "201", JobHandle(testUPID))
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if !status.Finished {
		t.Fatal("status not finished")
	}
	if status.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", status.ExitCode)
	}
	if status.ErrOutput != "" {
		t.Errorf("ErrOutput = %q, want empty", status.ErrOutput)
	}
	want := "Linux db-01 6.8.12\n 14:02:11 up 3 days"
	if status.Output != want {
		t.Errorf("Output = %q, want %q", status.Output, want)
	}
}

func TestLXCBackend_Poll_CompletedFailure(t *testing.T) {
	exitStatus := "command 'sh -c missing' failed: exit code 127"

	client := newBackendClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/nodes/pve1/tasks/" + testUPID + "/status":
			fmt.Fprintf(w, `{"data":{"upid":%q,"status":"stopped","exitstatus":%q}}`, testUPID, exitStatus)
		case "/nodes/pve1/tasks/" + testUPID + "/log":
			fmt.Fprintf(w, `{"data":[{"n":1,"t":"sh: missing: not found"},{"n":2,"t":"TASK ERROR: %s"}]}`, exitStatus)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))

	status, err := NewLXCBackend(client).Poll(context.Background(), "pve1", "201", JobHandle(testUPID))
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if !status.Finished {
		t.Fatal("status not finished")
	}
	if status.ExitCode != 127 {
		t.Errorf("ExitCode = %d, want 127", status.ExitCode)
	}
	if status.ErrOutput != exitStatus {
		t.Errorf("ErrOutput = %q, want %q", status.ErrOutput, exitStatus)
	}
	if status.Output != "sh: missing: not found" {
		t.Errorf("Output = %q", status.Output)
	}
}

func TestLXCBackend_Poll_LogFetchFailureDegrades(t *testing.T) {
	client := newBackendClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/nodes/pve1/tasks/" + testUPID + "/status":
			fmt.Fprintf(w, `{"data":{"upid":%q,"status":"stopped","exitstatus":"OK"}}`, testUPID)
		case "/nodes/pve1/tasks/" + testUPID + "/log":
			http.Error(w, `{"message":"log unavailable"}`, http.StatusInternalServerError)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))

	status, err := NewLXCBackend(client).Poll(context.Background(), "pve1", "201", JobHandle(testUPID))
	if err != nil {
		t.Fatalf("Poll() error = %v, want completion despite the lost log", err)
	}
	if !status.Finished || status.ExitCode != 0 {
		t.Errorf("status = %+v, want clean completion", status)
	}
	if status.Output != "" {
		t.Errorf("Output = %q, want empty", status.Output)
	}
}

func TestExitCodeFromStatus(t *testing.T) {
	tests := []struct {
		name       string
		exitStatus string
		want       int
	}{
		{
			name:       "exit code in message",
			exitStatus: "command 'sh -c missing' failed: exit code 127",
			want:       127,
		},
		{
			name:       "single digit",
			exitStatus: "command 'false' failed: exit code 1",
			want:       1,
		},
		{
			name:       "no exit code in message",
			exitStatus: "unable to fork worker - out of memory",
			want:       1,
		},
		{
			name:       "signal termination",
			exitStatus: "command 'sleep 3600' failed: got signal 9",
			want:       1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFromStatus(tt.exitStatus); got != tt.want {
				t.Errorf("exitCodeFromStatus(%q) = %d, want %d", tt.exitStatus, got, tt.want)
			}
		})
	}
}

func TestJoinTaskLog(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{
			name:  "drops the OK trailer",
			lines: []string{"line one", "line two", "TASK OK"},
			want:  "line one\nline two",
		},
		{
			name:  "drops the error trailer",
			lines: []string{"sh: missing: not found", "TASK ERROR: command failed: exit code 127"},
			want:  "sh: missing: not found",
		},
		{
			name:  "empty log",
			lines: nil,
			want:  "",
		},
		{
			name:  "trailer only",
			lines: []string{"TASK OK"},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logLines := make([]proxmox.TaskLogLine, len(tt.lines))
			for i, text := range tt.lines {
				logLines[i] = proxmox.TaskLogLine{N: i + 1, T: text}
			}
			if got := joinTaskLog(logLines); got != tt.want {
				t.Errorf("joinTaskLog() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestExecutor_LXCRoundTrip walks the container pipeline over HTTP:
// status check, exec submission, one running poll, then task
// completion with log retrieval.
func TestExecutor_LXCRoundTrip(t *testing.T) {
	var mu sync.Mutex
	taskPolls := 0

	client := newBackendClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/nodes/pve1/lxc/201/status/current":
			fmt.Fprint(w, `{"data":{"status":"running","vmid":"201","name":"db-01"}}`)
		case "/nodes/pve1/lxc/201/exec":
			fmt.Fprintf(w, `{"data":%q}`, testUPID)
		case "/nodes/pve1/tasks/" + testUPID + "/status":
			mu.Lock()
			taskPolls++
			done := taskPolls > 1
			mu.Unlock()
			if done {
				fmt.Fprintf(w, `{"data":{"upid":%q,"status":"stopped","exitstatus":"OK"}}`, testUPID)
			} else {
				fmt.Fprintf(w, `{"data":{"upid":%q,"status":"running"}}`, testUPID)
			}
		case "/nodes/pve1/tasks/" + testUPID + "/log":
			fmt.Fprint(w, `{"data":[{"n":1,"t":"Reading package lists..."},{"n":2,"t":"TASK OK"}]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))

	exec := New(NewLXCBackend(client),
		WithTimeout(5*time.Second),
		WithPollInterval(2*time.Millisecond),
	)

	result, err := exec.Execute(context.Background(), "pve1", "201", "apt-get update")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.Success {
		t.Errorf("result = %+v, want success", result)
	}
	if result.Output != "Reading package lists..." {
		t.Errorf("Output = %q", result.Output)
	}
	if taskPolls != 2 {
		t.Errorf("task polls = %d, want 2", taskPolls)
	}
}
