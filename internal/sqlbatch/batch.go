// Package sqlbatch splits multi-statement SQL scripts on GO separator lines
// and executes the resulting batches in order against one connection.
package sqlbatch

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// separator is the batch terminator line, compared case-insensitively.
const separator = "GO"

// Execer is the subset of *sql.DB, *sql.Conn and *sql.Tx used to run batches.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Batch is one GO-delimited unit of a script, executed as a single statement.
type Batch struct {
	// Index is the zero-based position of the batch in the script.
	Index int
	// SQL is the statement text, each source line terminated by "\n".
	SQL string
}

// BatchError reports a failed batch together with the script it came from.
type BatchError struct {
	// Script is the full script text that was being executed.
	Script string
	// Index is the position of the failing batch.
	Index int
	// Executed is the number of batches that succeeded before the failure.
	Executed int
	// Err is the underlying driver error.
	Err error
}

// Error includes the whole script so operators can see what was attempted.
func (e *BatchError) Error() string {
	var b strings.Builder
	b.WriteString("an error occurred executing the following sql:\n")
	b.WriteString(e.Script)
	b.WriteString("\n")
	fmt.Fprintf(&b, "the error was %v", e.Err)
	return b.String()
}

// Unwrap returns the driver error.
func (e *BatchError) Unwrap() error {
	return e.Err
}

// Split breaks script into batches. A trailing GO is implied so the last
// batch is never lost; blank batches are dropped.
func Split(script string) []Batch {
	script += "\n" + separator

	lines := strings.FieldsFunc(script, func(r rune) bool {
		return r == '\n' || r == '\r'
	})

	var (
		batches []Batch
		pending strings.Builder
	)
	for _, line := range lines {
		if strings.ToUpper(strings.TrimSpace(line)) != separator {
			pending.WriteString(line)
			pending.WriteString("\n")
			continue
		}
		if strings.TrimSpace(pending.String()) != "" {
			batches = append(batches, Batch{Index: len(batches), SQL: pending.String()})
		}
		pending.Reset()
	}
	return batches
}

// Execute runs batches strictly in order and stops at the first failure.
// Nothing is wrapped in a transaction: batches that already ran stay applied.
// It returns how many batches succeeded along with the driver error, if any.
func Execute(ctx context.Context, e Execer, batches []Batch) (int, error) {
	for i, b := range batches {
		if _, err := e.ExecContext(ctx, b.SQL); err != nil {
			return i, err
		}
	}
	return len(batches), nil
}

// ExecuteBatchNonQuery splits script and executes every batch against e.
// On failure the returned *BatchError carries the script and the position
// of the failing batch.
func ExecuteBatchNonQuery(ctx context.Context, e Execer, script string) error {
	executed, err := Execute(ctx, e, Split(script))
	if err != nil {
		return &BatchError{
			Script:   script,
			Index:    executed,
			Executed: executed,
			Err:      err,
		}
	}
	return nil
}
