// Package http provides the HTTP handlers of the membership console.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/atinyakov/memberctl/internal/command"
	"github.com/atinyakov/memberctl/internal/metrics"
	"github.com/atinyakov/memberctl/internal/middleware"
	"go.uber.org/zap"
)

// CommandRunner runs one console line and reports the command name it selected.
type CommandRunner interface {
	Run(ctx context.Context, line string) (name, output string, err error)
}

// ConsoleHandler serves console lines over HTTP.
type ConsoleHandler struct {
	Runner CommandRunner
	Log    *zap.Logger
}

// ConsoleRequest is the JSON body of POST /api/console.
type ConsoleRequest struct {
	// Command is a console line such as "user --list".
	Command string `json:"command"`
}

// ConsoleResponse carries the command output and, for hard failures, the error.
type ConsoleResponse struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

// Run handles POST /api/console.
// It responds 200 with the output, 422 when the command failed hard
// (the partial output is still returned) and 400 for malformed bodies
// or unknown commands.
func (h *ConsoleHandler) Run(w http.ResponseWriter, r *http.Request) {
	log := h.Log
	if log == nil {
		log = zap.NewNop()
	}

	var req ConsoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.ConsoleCommandsTotal.WithLabelValues("unknown", metrics.OutcomeRejected).Inc()
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	start := time.Now()
	name, out, err := h.Runner.Run(r.Context(), req.Command)
	if errors.Is(err, command.ErrUnknownCommand) || errors.Is(err, command.ErrEmptyLine) {
		metrics.ConsoleCommandsTotal.WithLabelValues("unknown", metrics.OutcomeRejected).Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	metrics.ConsoleCommandDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	operator := middleware.OperatorFromContext(r.Context())
	resp := ConsoleResponse{Output: out}
	status := http.StatusOK
	outcome := metrics.OutcomeOK
	if err != nil {
		resp.Error = err.Error()
		status = http.StatusUnprocessableEntity
		outcome = metrics.OutcomeFailed
		log.Warn("console command failed",
			zap.String("operator", operator),
			zap.String("command", name),
			zap.Error(err),
		)
	} else {
		log.Info("console command", zap.String("operator", operator), zap.String("command", name))
	}
	metrics.ConsoleCommandsTotal.WithLabelValues(name, outcome).Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
