package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/signalnine/pccbench/internal/docker"
	"go.uber.org/zap"
)

// Process is one external codec invocation.
type Process struct {
	Argv []string
	Dir  string
}

// Executor runs a process to completion and reports its exit code. An error
// means the process could not be run at all.
type Executor interface {
	Run(ctx context.Context, p Process) (int, error)
}

// LocalExecutor runs processes on the host with output discarded.
type LocalExecutor struct{}

func (LocalExecutor) Run(ctx context.Context, p Process) (int, error) {
	if len(p.Argv) == 0 {
		return 0, fmt.Errorf("empty command")
	}
	cmd := exec.CommandContext(ctx, p.Argv[0], p.Argv[1:]...)
	cmd.Dir = p.Dir
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 0, fmt.Errorf("running %s: %w", p.Argv[0], err)
}

// DockerExecutor runs processes inside a container image with the given host
// paths bind-mounted at the same locations.
type DockerExecutor struct {
	Image       string
	BindPaths   []string
	UserID      string
	CPULimit    float64
	MemoryLimit int64
	Logger      *zap.Logger
}

func (d *DockerExecutor) Run(ctx context.Context, p Process) (int, error) {
	var tail bytes.Buffer
	res, err := docker.RunContainer(ctx, &docker.RunOpts{
		Image:       d.Image,
		Command:     p.Argv,
		WorkDir:     p.Dir,
		BindPaths:   d.BindPaths,
		UserID:      d.UserID,
		CPULimit:    d.CPULimit,
		MemoryLimit: d.MemoryLimit,
		LogTail:     &tail,
	})
	if err != nil {
		return 0, fmt.Errorf("running %s in %s: %w", p.Argv[0], d.Image, err)
	}
	if res.ExitCode != 0 && d.Logger != nil {
		d.Logger.Debug("container output",
			zap.String("image", d.Image),
			zap.Int("exit_code", res.ExitCode),
			zap.String("tail", tail.String()))
	}
	return res.ExitCode, nil
}
