package tracing

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// toolCalls tracks MCP tool invocations by tool name and outcome
	toolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pvemcp_tool_calls_total",
			Help: "Total MCP tool calls by tool name and status (ok, error, denied, rate_limited)",
		},
		[]string{"tool", "status"},
	)

	// apiRequests tracks Proxmox API requests by method and path kind
	apiRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pvemcp_api_requests_total",
			Help: "Total Proxmox API requests by HTTP method, path kind, and status code",
		},
		[]string{"method", "path_kind", "status"},
	)

	// commandExecutions tracks guest command executions by guest kind and outcome
	commandExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pvemcp_command_executions_total",
			Help: "Total guest command executions by guest kind (vm, container) and outcome (completed, failed, timeout, error)",
		},
		[]string{"kind", "outcome"},
	)

	// commandDuration tracks wall time of guest command executions
	commandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pvemcp_command_duration_seconds",
			Help:    "Guest command execution duration in seconds, including polling",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"kind"},
	)
)

// RecordToolCall increments the tool call counter.
func RecordToolCall(tool, status string) {
	toolCalls.WithLabelValues(tool, status).Inc()
}

// RecordAPIRequest increments the API request counter.
// A status of 0 means no response was received (transport failure).
func RecordAPIRequest(method, pathKind string, status int) {
	apiRequests.WithLabelValues(method, pathKind, strconv.Itoa(status)).Inc()
}

// RecordCommandExecution increments the command execution counter and
// observes its duration.
func RecordCommandExecution(kind, outcome string, seconds float64) {
	commandExecutions.WithLabelValues(kind, outcome).Inc()
	commandDuration.WithLabelValues(kind).Observe(seconds)
}
