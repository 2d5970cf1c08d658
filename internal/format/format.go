// Package format renders Proxmox resources and operation results as
// the emoji-and-bullet text blocks the tool surface returns. Every
// function is a pure function of its inputs.
package format

import (
	"fmt"
	"strconv"
	"strings"
)

// Resource and action markers. Single-codepoint forms keep the
// rendered text stable across terminals.
const (
	iconNode      = "🖥"
	iconVM        = "🗃"
	iconContainer = "📦"
	iconStorage   = "💾"
	iconCluster   = "⚙"
	iconSnapshot  = "📸"

	iconOK      = "✅"
	iconError   = "❌"
	iconInfo    = "ℹ"
	iconStart   = "▶"
	iconStop    = "⏹"
	iconRestart = "🔄"
	iconLock    = "🔒"
	iconUnlock  = "🔓"
	iconCreate  = "➕"
	iconDelete  = "🗑"
)

// Bytes renders a byte count as a human-readable size with a 1024
// divisor: "512.00 B", "1.50 GB".
func Bytes(n int64) string {
	value := float64(n)
	for _, unit := range []string{"B", "KB", "MB", "GB", "TB"} {
		if value < 1024 {
			return fmt.Sprintf("%.2f %s", value, unit)
		}
		value /= 1024
	}
	return fmt.Sprintf("%.2f PB", value)
}

// Uptime renders seconds as "3d 2h 5m", dropping zero components.
func Uptime(seconds int64) string {
	if seconds <= 0 {
		return "0m"
	}

	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if len(parts) == 0 {
		return "0m"
	}
	return strings.Join(parts, " ")
}

// CommandOutput renders a guest command result: a success or failure
// mark, the command, its output, and the error tail when present.
func CommandOutput(success bool, command, output, errOutput string) string {
	mark := iconOK
	if !success {
		mark = iconError
	}

	body := strings.TrimSpace(output)
	if body == "" {
		body = "(no output)"
	}

	lines := []string{
		fmt.Sprintf("%s Command: %s", mark, command),
		"",
		"Output:",
		body,
	}
	if errOutput != "" {
		lines = append(lines, "", "Error:", strings.TrimSpace(errOutput))
	}
	return strings.Join(lines, "\n")
}

func percent(used, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(used) / float64(total) * 100
}

// usageLine renders the shared "used / total (percent)" bullet.
func usageLine(label string, used, total int64) string {
	return fmt.Sprintf("  • %s: %s / %s (%.1f%%)", label, Bytes(used), Bytes(total), percent(used, total))
}

func intOrNA(n int) string {
	if n <= 0 {
		return "N/A"
	}
	return strconv.Itoa(n)
}

func stringOrNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func statusOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// titleWord uppercases the first letter of a lowercase operation name.
func titleWord(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
