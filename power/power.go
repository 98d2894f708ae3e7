// Package power turns the box off.
package power

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"

	"golang.org/x/sys/unix"
)

var ErrNoCommand = errors.New("no shutdown command configured")

// Runner executes name with args and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Switch runs the system's shutdown command, e.g. "sudo shutdown -h now".
type Switch struct {
	Command []string
	Run     Runner
	// Sync flushes file system buffers before the command is run
	Sync func()
	log  *slog.Logger
}

func NewSwitch(command []string, log *slog.Logger) *Switch {
	return &Switch{
		Command: command,
		Run:     execRunner,
		Sync:    unix.Sync,
		log:     log,
	}
}

func (s *Switch) PowerOff(ctx context.Context) error {
	if len(s.Command) == 0 {
		return ErrNoCommand
	}
	if s.Sync != nil {
		s.Sync()
	}

	s.log.Info("SHUTDOWN", "command", s.Command)
	out, err := s.Run(ctx, s.Command[0], s.Command[1:]...)
	if len(out) > 0 {
		s.log.Debug("shutdown command output", "output", string(out))
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", s.Command[0], err)
	}
	return nil
}
