// Package process runs external commands: the scanning engine and this
// executable re-invoked as an out-of-process checker.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"
)

// MaxOutputSize caps captured stdout and stderr per command.
const MaxOutputSize = 10 * 1024 * 1024

// Command describes one process invocation.
type Command struct {
	// Forward, when set, also receives the combined output as it is produced.
	Forward io.Writer
	Name    string
	Dir     string
	Args    []string
	// Env is appended to the inherited environment.
	Env []string
}

// Result describes a finished process.
type Result struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	Duration  time.Duration
	Truncated bool
}

// Runner runs commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	logger *slog.Logger
}

// NewExecRunner creates a runner.
func NewExecRunner(logger *slog.Logger) *ExecRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecRunner{logger: logger}
}

// Run starts the command and waits for it.
// A non-zero exit is reported through Result.ExitCode, not as an error.
// Errors mean the process could not be started or was killed by ctx.
func (r *ExecRunner) Run(ctx context.Context, c Command) (*Result, error) {
	//nolint:gosec // G204: commands come from system config or our own executable; no shell
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(cmd.Environ(), c.Env...)
	}

	stdout := NewBoundedBuffer(MaxOutputSize)
	stderr := NewBoundedBuffer(MaxOutputSize)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if c.Forward != nil {
		cmd.Stdout = io.MultiWriter(stdout, c.Forward)
		cmd.Stderr = io.MultiWriter(stderr, c.Forward)
	}

	start := time.Now()
	err := cmd.Run()
	result := &Result{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Duration:  time.Since(start),
		Truncated: stdout.Truncated || stderr.Truncated,
	}

	r.logger.Debug("executed command",
		"command", c.Name,
		"args", c.Args,
		"duration", result.Duration,
		"error", err)

	if result.Truncated {
		r.logger.Warn("command output truncated", "command", c.Name)
	}

	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("%s interrupted: %w", c.Name, ctxErr)
	}
	return result, fmt.Errorf("failed to run %s: %w", c.Name, err)
}

// BoundedBuffer is a bytes.Buffer wrapper that limits the size of written data.
type BoundedBuffer struct {
	buffer    bytes.Buffer
	limit     int
	Truncated bool
}

// NewBoundedBuffer creates a new BoundedBuffer with the specified limit.
func NewBoundedBuffer(limit int) *BoundedBuffer {
	return &BoundedBuffer{
		limit: limit,
	}
}

// Write implements io.Writer.
func (b *BoundedBuffer) Write(p []byte) (n int, err error) {
	if b.buffer.Len() >= b.limit {
		b.Truncated = true
		return len(p), nil // Pretend we wrote it all to satisfy io.Writer contract
	}

	remaining := b.limit - b.buffer.Len()
	if len(p) > remaining {
		b.Truncated = true
		n, err = b.buffer.Write(p[:remaining])
		if err != nil {
			return n, err
		}
		return len(p), nil
	}

	return b.buffer.Write(p)
}

// String returns the buffer contents as a string.
func (b *BoundedBuffer) String() string {
	return b.buffer.String()
}
