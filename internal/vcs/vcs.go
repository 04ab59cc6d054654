// Package vcs runs the version-control commands that sync the data
// directory with a remote. The store never depends on their outcome.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"
	"go.uber.org/zap"
)

var (
	ErrNoCommands   = errors.New("no commands configured")
	ErrEmptyCommand = errors.New("empty command line")
)

// Result is the outcome of a sync operation.
type Result struct {
	Succeeded bool   `json:"succeeded"`
	Output    string `json:"output"`
}

// Runner executes a single command.
type Runner interface {
	Run(ctx context.Context, argv []string) Result
}

// ExecRunner runs commands as child processes. Dir is evaluated on every
// call so the commands follow the store's current data directory.
type ExecRunner struct {
	Dir func() string
}

// Run executes argv and returns its combined stdout and stderr.
func (r ExecRunner) Run(ctx context.Context, argv []string) Result {
	if len(argv) == 0 {
		return Result{Output: ErrEmptyCommand.Error()}
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if r.Dir != nil {
		cmd.Dir = r.Dir()
	}

	out, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{Output: string(out)}
		}

		return Result{Output: string(out) + err.Error()}
	}

	return Result{Succeeded: true, Output: string(out)}
}

// Commands lists the command lines for each operation. Each line is split
// like a shell would split it (quotes and escapes, no expansion).
type Commands struct {
	Status []string
	Pull   []string
	Push   []string
}

// Syncer runs the configured commands for status, pull and push.
type Syncer struct {
	runner Runner
	cmds   Commands
	log    *zap.Logger
}

// NewSyncer returns a Syncer. A nil logger disables logging.
func NewSyncer(runner Runner, cmds Commands, log *zap.Logger) *Syncer {
	if log == nil {
		log = zap.NewNop()
	}

	return &Syncer{runner: runner, cmds: cmds, log: log}
}

// Status reports the working tree state.
func (s *Syncer) Status(ctx context.Context) Result {
	return s.run(ctx, "status", s.cmds.Status)
}

// Pull fetches and merges remote changes.
func (s *Syncer) Pull(ctx context.Context) Result {
	return s.run(ctx, "pull", s.cmds.Pull)
}

// Push records local changes and publishes them.
func (s *Syncer) Push(ctx context.Context) Result {
	return s.run(ctx, "push", s.cmds.Push)
}

// run executes lines in order and stops at the first failure. The output
// of every executed command is concatenated, each prefixed with its line.
func (s *Syncer) run(ctx context.Context, op string, lines []string) Result {
	if len(lines) == 0 {
		return Result{Output: fmt.Sprintf("%s: %v", op, ErrNoCommands)}
	}

	var out strings.Builder

	for _, line := range lines {
		argv, err := shellwords.Parse(line)
		if err == nil && len(argv) == 0 {
			err = ErrEmptyCommand
		}

		if err != nil {
			s.log.Warn("invalid sync command", zap.String("op", op), zap.String("line", line), zap.Error(err))
			fmt.Fprintf(&out, "%s: %q: %v\n", op, line, err)

			return Result{Output: out.String()}
		}

		res := s.runner.Run(ctx, argv)

		fmt.Fprintf(&out, "$ %s\n%s", line, res.Output)

		if res.Output != "" && !strings.HasSuffix(res.Output, "\n") {
			out.WriteByte('\n')
		}

		if !res.Succeeded {
			s.log.Warn("sync command failed", zap.String("op", op), zap.String("line", line))

			return Result{Output: out.String()}
		}

		s.log.Debug("sync command succeeded", zap.String("op", op), zap.String("line", line))
	}

	return Result{Succeeded: true, Output: out.String()}
}
