package docker

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/mount"
	"github.com/moby/moby/client"
)

// RunOpts describes one codec process run inside a container. Bind mounts
// keep host paths identical inside the container so the argument vector
// built for a local run works unchanged.
type RunOpts struct {
	Image       string
	Command     []string
	WorkDir     string
	BindPaths   []string
	UserID      string
	CPULimit    float64
	MemoryLimit int64
	// LogTail, when set, receives the last lines of container output.
	LogTail io.Writer
}

type RunResult struct {
	ExitCode int
	Duration time.Duration
}

// RunContainer creates, starts and waits for a container, then removes it.
// There is no timeout; cancelling ctx is the only way to stop a hung codec.
func RunContainer(ctx context.Context, opts *RunOpts) (*RunResult, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}
	defer cli.Close()

	mounts := make([]mount.Mount, 0, len(opts.BindPaths))
	for _, p := range opts.BindPaths {
		mounts = append(mounts, mount.Mount{
			Type:   mount.TypeBind,
			Source: p,
			Target: p,
		})
	}

	initTrue := true
	hostCfg := &container.HostConfig{
		Mounts: mounts,
		Init:   &initTrue,
	}
	if opts.CPULimit > 0 {
		hostCfg.NanoCPUs = int64(opts.CPULimit * 1e9)
	}
	if opts.MemoryLimit > 0 {
		hostCfg.Memory = opts.MemoryLimit
	}

	containerCfg := &container.Config{
		Image:      opts.Image,
		Cmd:        opts.Command,
		WorkingDir: opts.WorkDir,
		Labels:     map[string]string{"pccbench": "true"},
	}
	if opts.UserID != "" {
		containerCfg.User = opts.UserID
	}

	createResp, err := cli.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config:     containerCfg,
		HostConfig: hostCfg,
	})
	if err != nil {
		return nil, fmt.Errorf("creating container: %w", err)
	}
	containerID := createResp.ID
	defer func() {
		cli.ContainerRemove(context.Background(), containerID, client.ContainerRemoveOptions{Force: true})
	}()

	start := time.Now()
	if _, err := cli.ContainerStart(ctx, containerID, client.ContainerStartOptions{}); err != nil {
		return nil, fmt.Errorf("starting container: %w", err)
	}

	waitResult := cli.ContainerWait(ctx, containerID, client.ContainerWaitOptions{
		Condition: container.WaitConditionNotRunning,
	})
	for {
		select {
		case err := <-waitResult.Error:
			if err != nil {
				return nil, fmt.Errorf("waiting for container: %w", err)
			}
		case status := <-waitResult.Result:
			duration := time.Since(start)
			if opts.LogTail != nil {
				logReader, _ := cli.ContainerLogs(context.Background(), containerID, client.ContainerLogsOptions{ShowStdout: true, ShowStderr: true, Tail: "50"})
				if logReader != nil {
					io.Copy(opts.LogTail, logReader)
					logReader.Close()
				}
			}
			return &RunResult{
				ExitCode: int(status.StatusCode),
				Duration: duration,
			}, nil
		}
	}
}
