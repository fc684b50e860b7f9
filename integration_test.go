//go:build integration

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/signalnine/pccbench/internal/codec"
	"github.com/signalnine/pccbench/internal/config"
	"github.com/signalnine/pccbench/internal/report"
	"github.com/signalnine/pccbench/internal/result"
	"github.com/signalnine/pccbench/internal/runner"
)

const fixturePLY = "ply\nformat ascii 1.0\nelement vertex 3\n" +
	"property float x\nproperty float y\nproperty float z\nend_header\n" +
	"0 0 0\n1 0 0\n0 1 0\n"

// createWorkspace lays out a dataset, a copying codec script, a fake pc_error
// and a Draco config that runs the codec inside alpine.
func createWorkspace(t *testing.T) config.Directories {
	t.Helper()
	root := t.TempDir()
	dirs := config.Directories{
		Datasets:     filepath.Join(root, "datasets"),
		Experiments:  filepath.Join(root, "experiments"),
		PCError:      filepath.Join(root, "pcerror"),
		CodecConfigs: filepath.Join(root, "cfg"),
	}
	workDir := filepath.Join(root, "codec")
	files := map[string]string{
		filepath.Join(dirs.Datasets, "ds", "one.ply"): fixturePLY,
		filepath.Join(dirs.Datasets, "ds", "two.ply"): fixturePLY,
		filepath.Join(workDir, "copy.sh"):             "#!/bin/sh\ncp \"$2\" \"$4\"\n",
		filepath.Join(dirs.PCError, "test", "pc_error"): "#!/bin/sh\n" +
			"echo '   mseF      (p2point): 0'\n" +
			"echo '   mseF,PSNR (p2point): inf'\n",
		filepath.Join(dirs.CodecConfigs, "Draco.yml"): fmt.Sprintf(
			"encoder: %[1]s/copy.sh\ndecoder: %[1]s/copy.sh\npcc_directory: %[1]s\n"+
				"bin_extension: .drc\nimage: alpine:latest\nbinds: [%[1]s]\ncpus: 1\nmemory: 268435456\n"+
				"params:\n  - {id: r01, qp: 8, qt: 10, qn: 10, qg: 8, cl: 10}\n", workDir),
	}
	for path, content := range files {
		os.MkdirAll(filepath.Dir(path), 0o755)
		if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return dirs
}

func TestDockerCodecIntegration(t *testing.T) {
	if os.Getenv("PCCBENCH_DOCKER_TESTS") == "" {
		t.Skip("set PCCBENCH_DOCKER_TESTS=1 to run integration tests")
	}

	dirs := createWorkspace(t)
	c, err := codec.New("Draco", dirs.CodecConfigs)
	if err != nil {
		t.Fatalf("codec.New: %v", err)
	}

	r, err := runner.New(runner.Options{
		Codec:         c,
		Dataset:       config.Dataset{Name: "ds", Resolution: 10, Extension: ".ply"},
		Dirs:          dirs,
		PCErrorBinary: config.DefaultPCErrorBinary,
		Workers:       2,
		Executor: &runner.DockerExecutor{
			Image:       c.Config().Image,
			BindPaths:   append([]string{dirs.Datasets, dirs.Experiments}, c.Config().Binds...),
			UserID:      fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid()),
			CPULimit:    c.Config().CPUs,
			MemoryLimit: c.Config().Memory,
		},
	})
	if err != nil {
		t.Fatalf("runner.New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	sum, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Trials != 2 {
		t.Errorf("trials: got %d, want 2", sum.Trials)
	}

	rateDir := r.RateDirs()[0]
	recs, err := result.ListRecords(result.RecordDir(rateDir))
	if err != nil || len(recs) != 2 {
		t.Fatalf("records: got %d (%v), want 2", len(recs), err)
	}

	tab, err := report.Aggregate(rateDir, false)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if _, err := report.Save(tab, rateDir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(rateDir, "Draco_ds_r01_statistics.csv")); err != nil {
		t.Errorf("statistics file not created: %v", err)
	}
}
