package blueprint

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	forgeerr "github.com/dotcommander/stackforge/pkg/forge/errors"
)

// CommandResult captures one external process invocation
type CommandResult struct {
	ExitCode int           `json:"exit_code"`
	Stdout   string        `json:"stdout,omitempty"`
	Stderr   string        `json:"stderr,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Runner invokes external processes with a per-command timeout and a
// spawn rate limit, so a burst of INSTALL_PACKAGES actions cannot
// hammer the package registry.
type Runner struct {
	limiter   *rate.Limiter
	timeout   time.Duration
	maxOutput int
	logger    *slog.Logger
}

// RunnerOption configures the Runner
type RunnerOption func(*Runner)

// WithTimeout sets the per-command timeout
func WithTimeout(timeout time.Duration) RunnerOption {
	return func(r *Runner) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithRateLimit caps process spawns per minute with the given burst
func WithRateLimit(perMinute, burst int) RunnerOption {
	return func(r *Runner) {
		if perMinute > 0 && burst > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst)
		}
	}
}

// WithMaxOutput caps captured bytes per stream
func WithMaxOutput(maxBytes int) RunnerOption {
	return func(r *Runner) {
		if maxBytes > 0 {
			r.maxOutput = maxBytes
		}
	}
}

// WithLogger sets the runner's logger
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a Runner with sensible defaults
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		limiter:   rate.NewLimiter(rate.Limit(1), 5),
		timeout:   10 * time.Minute,
		maxOutput: 1 << 20,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes a command in workDir, draining stdout and stderr
// concurrently. A non-zero exit returns the result alongside an
// ErrCommandFailed so callers keep the captured output.
func (r *Runner) Run(ctx context.Context, workDir, name string, args ...string) (*CommandResult, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for command slot: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, name, args...)
	cmd.Dir = workDir

	// The command runs in its own process group and cancellation kills
	// the whole group: shells and package managers spawn children that
	// inherit the pipes, and killing only the direct child would leave
	// them holding the write ends open.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 5 * time.Second

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("opening stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("opening stderr pipe: %w", err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: starting %s: %v", forgeerr.ErrCommandFailed, name, err)
	}

	// Capture up to maxOutput per stream, then keep draining to keep
	// the pipe from filling and blocking the writer.
	capture := func(dst *bytes.Buffer, src io.Reader) func() error {
		return func() error {
			if _, err := io.Copy(dst, io.LimitReader(src, int64(r.maxOutput))); err != nil {
				return err
			}
			_, err := io.Copy(io.Discard, src)
			return err
		}
	}

	var outBuf, errBuf bytes.Buffer
	var g errgroup.Group
	g.Go(capture(&outBuf, stdout))
	g.Go(capture(&errBuf, stderr))

	copyErr := g.Wait()
	waitErr := cmd.Wait()

	result := &CommandResult{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   outBuf.String(),
		Stderr:   errBuf.String(),
		Duration: time.Since(start),
	}

	if waitErr != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return result, fmt.Errorf("%w: %s timed out after %s", forgeerr.ErrCommandFailed, name, r.timeout)
		}
		return result, fmt.Errorf("%w: %s exited %d: %s", forgeerr.ErrCommandFailed, name, result.ExitCode, firstLine(result.Stderr))
	}
	if copyErr != nil {
		return result, fmt.Errorf("capturing output of %s: %w", name, copyErr)
	}

	r.logger.Debug("command completed", "command", name, "duration", result.Duration)
	return result, nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
