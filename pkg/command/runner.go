// pkg/command/runner.go

// Package command executes argument vectors either directly or wrapped for a
// remote endpoint, capturing output and surfacing every nonzero exit as a
// typed failure. It is the only place external processes are spawned.
package command

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"

	cerr "github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
	"github.com/morselabs/wpsnap/pkg/snap_err"
	"github.com/morselabs/wpsnap/pkg/telemetry"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Target decides how an argument vector reaches its endpoint. A local
// target returns the vector unchanged; a remote target wraps it for SSH.
type Target interface {
	WrapCommand(argv []string) []string
	String() string
}

// Local is the target for commands that run on the orchestrating host
// itself, such as rsync, which handles remote endpoints internally.
type Local struct{}

func (Local) WrapCommand(argv []string) []string { return argv }
func (Local) String() string                     { return "localhost" }

// Result holds the outcome of one executed command.
type Result struct {
	Argv     []string
	ExitCode int
	Stdout   string
	Stderr   string
}

// Executor is the execution surface consumed by the transfer engine, the
// maintenance controller and the database layer. Tests inject fakes.
type Executor interface {
	Run(ctx context.Context, t Target, argv []string) (*Result, error)
	RunWithInput(ctx context.Context, t Target, argv []string, stdin io.Reader) (*Result, error)
	RunToWriter(ctx context.Context, t Target, argv []string, stdout io.Writer) (*Result, error)
	RunPiped(ctx context.Context, producer Target, producerArgv []string, consumer Target, consumerArgv []string) error
}

// Runner executes commands as child processes.
type Runner struct{}

var _ Executor = (*Runner)(nil)

// NewRunner builds a Runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Run executes argv at the target, capturing stdout and stderr fully. A
// nonzero exit returns the partial Result alongside a CommandError.
func (r *Runner) Run(ctx context.Context, t Target, argv []string) (*Result, error) {
	return r.run(ctx, t, argv, nil, nil)
}

// RunWithInput executes argv with stdin wired to the given reader.
func (r *Runner) RunWithInput(ctx context.Context, t Target, argv []string, stdin io.Reader) (*Result, error) {
	return r.run(ctx, t, argv, stdin, nil)
}

// RunToWriter executes argv streaming stdout into w instead of capturing
// it. Used for database dumps, where stdout can be arbitrarily large.
func (r *Runner) RunToWriter(ctx context.Context, t Target, argv []string, stdout io.Writer) (*Result, error) {
	return r.run(ctx, t, argv, nil, stdout)
}

func (r *Runner) run(ctx context.Context, t Target, argv []string, stdin io.Reader, stdout io.Writer) (*Result, error) {
	logger := otelzap.Ctx(ctx)
	wrapped := t.WrapCommand(argv)

	logger.Debug("Executing command",
		zap.String("target", t.String()),
		zap.String("argv", telemetry.TruncateArgs(wrapped)))

	cmd := exec.CommandContext(ctx, wrapped[0], wrapped[1:]...)

	var outBuf, errBuf bytes.Buffer
	if stdout != nil {
		cmd.Stdout = stdout
	} else {
		cmd.Stdout = &outBuf
	}
	cmd.Stderr = &errBuf
	cmd.Stdin = stdin

	err := cmd.Run()

	res := &Result{
		Argv:     wrapped,
		ExitCode: exitCode(err),
		Stdout:   outBuf.String(),
		Stderr:   snap_err.TruncateStderr(stderrOf(err, &errBuf)),
	}

	if err != nil {
		cmdErr := snap_err.NewCommandError(snap_err.RoleSingle, wrapped, res.ExitCode, res.Stderr)
		logger.Debug("Command failed",
			zap.String("target", t.String()),
			zap.Int("exit_code", res.ExitCode),
			zap.String("stderr", res.Stderr))
		return res, cmdErr
	}
	return res, nil
}

// RunPiped starts the producer, then the consumer with its stdin wired
// directly to the producer's stdout. The OS pipe provides backpressure; no
// buffering happens here. Both exit statuses are collected independently
// and both failures are reported when both occur.
func (r *Runner) RunPiped(ctx context.Context, producer Target, producerArgv []string, consumer Target, consumerArgv []string) error {
	logger := otelzap.Ctx(ctx)

	prodWrapped := producer.WrapCommand(producerArgv)
	consWrapped := consumer.WrapCommand(consumerArgv)

	logger.Debug("Executing piped commands",
		zap.String("producer", telemetry.TruncateArgs(prodWrapped)),
		zap.String("consumer", telemetry.TruncateArgs(consWrapped)))

	prod := exec.CommandContext(ctx, prodWrapped[0], prodWrapped[1:]...)
	cons := exec.CommandContext(ctx, consWrapped[0], consWrapped[1:]...)

	var prodErrBuf, consErrBuf bytes.Buffer
	prod.Stderr = &prodErrBuf
	cons.Stderr = &consErrBuf

	pr, pw, err := os.Pipe()
	if err != nil {
		return cerr.Wrap(err, "creating pipe")
	}
	prod.Stdout = pw
	cons.Stdin = pr

	if err := prod.Start(); err != nil {
		pr.Close()
		pw.Close()
		return snap_err.NewCommandError(snap_err.RoleProducer, prodWrapped, -1, err.Error())
	}
	if err := cons.Start(); err != nil {
		pr.Close()
		pw.Close()
		_ = prod.Process.Kill()
		_ = prod.Wait()
		return snap_err.NewCommandError(snap_err.RoleConsumer, consWrapped, -1, err.Error())
	}

	// Both children hold their own duplicates of the pipe ends now; the
	// parent copies must close. An open parent write end starves the
	// consumer of EOF, and an open parent read end keeps an early-exiting
	// consumer from delivering EPIPE to the producer, which would then
	// block forever on a full pipe.
	pw.Close()
	pr.Close()

	prodWaitErr := prod.Wait()
	consWaitErr := cons.Wait()

	var combined error
	if prodWaitErr != nil {
		combined = multierror.Append(combined, snap_err.NewCommandError(
			snap_err.RoleProducer, prodWrapped, exitCode(prodWaitErr), stderrOf(prodWaitErr, &prodErrBuf)))
	}
	if consWaitErr != nil {
		combined = multierror.Append(combined, snap_err.NewCommandError(
			snap_err.RoleConsumer, consWrapped, exitCode(consWaitErr), stderrOf(consWaitErr, &consErrBuf)))
	}
	return combined
}

// exitCode extracts the child's exit status, or -1 when the process never
// ran (binary missing, context cancelled before start).
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}

// stderrOf prefers captured stderr; when the process never produced any
// (e.g. the binary was not found locally), the spawn error text stands in
// so callers still get a diagnosable message.
func stderrOf(err error, buf *bytes.Buffer) string {
	if buf.Len() > 0 {
		return buf.String()
	}
	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return err.Error()
		}
	}
	return ""
}
