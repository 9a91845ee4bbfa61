package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Runner abstracts bridge invocation so dispatch can be exercised without a
// Python toolchain and alternative transports can share one implementation.
type Runner interface {
	Invoke(ctx context.Context, function string, args []string) (Envelope, error)
}

// Config configures the Python bridge runner.
type Config struct {
	Bin      string        // interpreter binary, e.g. "python3"
	Script   string        // path to the bridge script
	Timeout  time.Duration // per-invocation wall clock; 0 disables
	CacheDir string        // FastF1 cache directory; empty keeps the script default
	Logger   zerolog.Logger
}

// Python runs one fresh bridge process per invocation and decodes whatever
// it prints on stdout. Invocations are independent, so concurrent calls are
// safe.
type Python struct {
	cfg   Config
	log   zerolog.Logger
	procs *procTable
}

// NewPython returns a runner for the configured interpreter and script.
func NewPython(cfg Config) *Python {
	return &Python{
		cfg:   cfg,
		log:   cfg.Logger.With().Str("component", "bridge").Logger(),
		procs: newProcTable(),
	}
}

// ProcessError reports a bridge process that exited abnormally, before it
// could print a result envelope.
type ProcessError struct {
	Function string
	ExitCode int
	Stderr   string
	TimedOut bool
	Timeout  time.Duration
}

func (e *ProcessError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("bridge %s timed out after %s", e.Function, e.Timeout)
	}
	msg := fmt.Sprintf("bridge %s exited with code %d", e.Function, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Invoke spawns the bridge for one function call. The argument order is the
// caller's responsibility; the runner passes it through untouched.
func (p *Python) Invoke(ctx context.Context, function string, args []string) (Envelope, error) {
	id := uuid.NewString()
	log := p.log.With().Str("invocation", id).Str("function", function).Logger()

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	argv := make([]string, 0, len(args)+2)
	argv = append(argv, p.cfg.Script, function)
	argv = append(argv, args...)

	cmd := exec.CommandContext(ctx, p.cfg.Bin, argv...)
	// Bounds the pipe drain after a kill so a timed-out call returns even
	// when the script spawned children that inherited stdout.
	cmd.WaitDelay = 5 * time.Second
	if p.cfg.CacheDir != "" {
		cmd.Env = append(os.Environ(), "F1_CACHE_DIR="+p.cfg.CacheDir)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Envelope{}, fmt.Errorf("start bridge %s: %w", p.cfg.Bin, err)
	}
	p.procs.add(id, cmd)
	err := cmd.Wait()
	p.procs.remove(id)
	elapsed := time.Since(start)

	if err != nil {
		perr := &ProcessError{
			Function: function,
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
		}
		var exit *exec.ExitError
		if errors.As(err, &exit) {
			perr.ExitCode = exit.ExitCode()
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			perr.TimedOut = true
			perr.Timeout = p.cfg.Timeout
		}
		log.Error().
			Dur("elapsed", elapsed).
			Int("exit_code", perr.ExitCode).
			Bool("timed_out", perr.TimedOut).
			Str("stderr", snippet(stderr.Bytes())).
			Msg("bridge process failed")
		return Envelope{}, perr
	}

	env, err := DecodeEnvelope(stdout.Bytes())
	if err != nil {
		log.Error().Dur("elapsed", elapsed).Int("stdout_bytes", stdout.Len()).Msg("bridge printed unparseable output")
		return Envelope{}, err
	}

	log.Debug().
		Dur("elapsed", elapsed).
		Int("stdout_bytes", stdout.Len()).
		Int("stderr_bytes", stderr.Len()).
		Bool("ok", env.OK).
		Msg("bridge call finished")
	return env, nil
}

// Close force-terminates any bridge processes still running. Call it only
// once the transports have stopped accepting work.
func (p *Python) Close() error {
	if n := p.procs.killAll(); n > 0 {
		p.log.Warn().Int("count", n).Msg("terminated in-flight bridge processes")
	}
	return nil
}
