// Package metrics defines the Prometheus metrics exported by the console
// server. All metrics are registered with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "memberctl"

// Outcome labels for ConsoleCommandsTotal.
const (
	OutcomeOK       = "ok"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

// ConsoleCommandsTotal counts console lines by command and outcome.
// Labels:
//   - command: the command word ("role", "user") or "unknown"
//   - outcome: "ok", "failed" (hard error) or "rejected" (bad request)
var ConsoleCommandsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "console_commands_total",
		Help:      "Total number of console commands, by command and outcome.",
	},
	[]string{"command", "outcome"},
)

// ConsoleCommandDuration measures how long a console command takes to run.
var ConsoleCommandDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "console_command_duration_seconds",
		Help:      "Duration of console command execution.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"command"},
)
