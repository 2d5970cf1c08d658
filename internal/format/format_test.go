package format

import (
	"strings"
	"testing"
)

func TestBytes(t *testing.T) {
	tests := []struct {
		name string
		n    int64
		want string
	}{
		{name: "zero", n: 0, want: "0.00 B"},
		{name: "bytes", n: 512, want: "512.00 B"},
		{name: "kilobytes", n: 2048, want: "2.00 KB"},
		{name: "megabytes", n: 8 * 1024 * 1024, want: "8.00 MB"},
		{name: "gigabytes", n: 16106127360, want: "15.00 GB"},
		{name: "fractional gigabytes", n: 1610612736, want: "1.50 GB"},
		{name: "terabytes", n: 2199023255552, want: "2.00 TB"},
		{name: "petabytes", n: 1125899906842624, want: "1.00 PB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Bytes(tt.n); got != tt.want {
				t.Errorf("Bytes(%d) = %q, want %q", tt.n, got, tt.want)
			}
		})
	}
}

func TestUptime(t *testing.T) {
	tests := []struct {
		name    string
		seconds int64
		want    string
	}{
		{name: "zero", seconds: 0, want: "0m"},
		{name: "negative", seconds: -5, want: "0m"},
		{name: "under a minute", seconds: 42, want: "0m"},
		{name: "minutes only", seconds: 300, want: "5m"},
		{name: "hours and minutes", seconds: 3*3600 + 15*60, want: "3h 15m"},
		{name: "days hours minutes", seconds: 2*86400 + 5*3600 + 30*60, want: "2d 5h 30m"},
		{name: "exact day", seconds: 86400, want: "1d"},
		{name: "day and minutes without hours", seconds: 86400 + 600, want: "1d 10m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Uptime(tt.seconds); got != tt.want {
				t.Errorf("Uptime(%d) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestCommandOutput(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		got := CommandOutput(true, "uptime", " 14:02:11 up 3 days\n", "")
		want := "✅ Command: uptime\n\nOutput:\n14:02:11 up 3 days"
		if got != want {
			t.Errorf("CommandOutput() = %q, want %q", got, want)
		}
	})

	t.Run("failure with error tail", func(t *testing.T) {
		got := CommandOutput(false, "cat /missing", "", "cat: /missing: No such file or directory\n")
		if !strings.HasPrefix(got, "❌ Command: cat /missing") {
			t.Errorf("missing failure mark: %q", got)
		}
		if !strings.Contains(got, "Output:\n(no output)") {
			t.Errorf("missing output placeholder: %q", got)
		}
		if !strings.HasSuffix(got, "Error:\ncat: /missing: No such file or directory") {
			t.Errorf("missing error tail: %q", got)
		}
	})

	t.Run("empty output", func(t *testing.T) {
		got := CommandOutput(true, "true", "", "")
		if !strings.Contains(got, "(no output)") {
			t.Errorf("missing placeholder: %q", got)
		}
		if strings.Contains(got, "Error:") {
			t.Errorf("unexpected error section: %q", got)
		}
	})
}

func TestTitleWord(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "start", want: "Start"},
		{in: "shutdown", want: "Shutdown"},
		{in: "", want: ""},
		{in: "Reboot", want: "Reboot"},
	}

	for _, tt := range tests {
		if got := titleWord(tt.in); got != tt.want {
			t.Errorf("titleWord(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIntOrNA(t *testing.T) {
	if got := intOrNA(0); got != "N/A" {
		t.Errorf("intOrNA(0) = %q, want N/A", got)
	}
	if got := intOrNA(4); got != "4" {
		t.Errorf("intOrNA(4) = %q, want 4", got)
	}
}
