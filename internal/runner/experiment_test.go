package runner_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/signalnine/pccbench/internal/codec"
	"github.com/signalnine/pccbench/internal/config"
	"github.com/signalnine/pccbench/internal/evaluate"
	"github.com/signalnine/pccbench/internal/metrics"
	"github.com/signalnine/pccbench/internal/result"
	"github.com/signalnine/pccbench/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dracoYAML = `encoder: draco_encoder
decoder: draco_decoder
pcc_directory: %s
bin_extension: .drc
params:
  - {id: r01, qp: 8, qt: 10, qn: 10, qg: 8, cl: 10}
  - {id: r02, qp: 10, qt: 10, qn: 10, qg: 8, cl: 10}
`

const pcErrorScript = `#!/bin/sh
echo "   mseF      (p2point): 0.5"
echo "   mseF,PSNR (p2point): 70.1"
`

// copyExecutor stands in for a codec with draco's argv layout by copying the
// -i file to the -o file. Inputs whose base name appears in fail make it exit 1.
type copyExecutor struct {
	mu    sync.Mutex
	calls [][]string
	fail  map[string]bool
}

func (e *copyExecutor) Run(_ context.Context, p runner.Process) (int, error) {
	e.mu.Lock()
	e.calls = append(e.calls, p.Argv)
	e.mu.Unlock()

	in, out := p.Argv[2], p.Argv[4]
	if e.fail[filepath.Base(in)] {
		return 1, nil
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return 2, nil
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return 2, nil
	}
	return 0, nil
}

type env struct {
	dirs  config.Directories
	codec codec.Codec
}

func writePLY(t *testing.T, path string, points int) {
	t.Helper()
	var b strings.Builder
	b.WriteString("ply\nformat ascii 1.0\nelement vertex " + strconv.Itoa(points) + "\n")
	b.WriteString("property float x\nproperty float y\nproperty float z\nend_header\n")
	for i := 0; i < points; i++ {
		b.WriteString("1 2 3\n")
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

// setup lays out a dataset "ds" with the given files, a draco config and a
// fake distortion tool under a fresh temp dir.
func setup(t *testing.T, files ...string) *env {
	t.Helper()
	root := t.TempDir()
	dirs := config.Directories{
		Datasets:     filepath.Join(root, "datasets"),
		Experiments:  filepath.Join(root, "experiments"),
		PCError:      filepath.Join(root, "pcerror"),
		CodecConfigs: filepath.Join(root, "cfg"),
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dirs.Datasets, "ds"), 0o755))
	for _, f := range files {
		writePLY(t, filepath.Join(dirs.Datasets, "ds", f), 100)
	}
	require.NoError(t, os.MkdirAll(dirs.CodecConfigs, 0o755))
	yml := strings.Replace(dracoYAML, "%s", root, 1)
	require.NoError(t, os.WriteFile(filepath.Join(dirs.CodecConfigs, "Draco.yml"), []byte(yml), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dirs.PCError, "test"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dirs.PCError, "test", "pc_error"), []byte(pcErrorScript), 0o755))

	c, err := codec.New("Draco", dirs.CodecConfigs)
	require.NoError(t, err)
	return &env{dirs: dirs, codec: c}
}

func (e *env) runner(t *testing.T, ex runner.Executor, mod func(*runner.Options)) *runner.Runner {
	t.Helper()
	opts := runner.Options{
		Codec:         e.codec,
		Dataset:       config.Dataset{Name: "ds", Resolution: 10, Extension: ".ply"},
		Dirs:          e.dirs,
		PCErrorBinary: config.DefaultPCErrorBinary,
		Workers:       2,
		Executor:      ex,
	}
	if mod != nil {
		mod(&opts)
	}
	r, err := runner.New(opts)
	require.NoError(t, err)
	return r
}

func TestRunWritesOneRecordPerTrial(t *testing.T) {
	e := setup(t, "a.ply", "b.ply", "notes.txt")
	ex := &copyExecutor{}
	r := e.runner(t, ex, nil)

	sum, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Files)
	assert.Equal(t, 0, sum.Failed)
	assert.Equal(t, int64(4), sum.Trials)
	assert.Len(t, ex.calls, 8)

	dirs := r.RateDirs()
	require.Len(t, dirs, 2)
	assert.Equal(t, filepath.Join(e.dirs.Experiments, "Draco", "ds", "r01"), dirs[0])
	for _, dir := range dirs {
		recs, err := result.ListRecords(result.RecordDir(dir))
		require.NoError(t, err)
		require.Len(t, recs, 2)
		for _, path := range recs {
			rec, err := result.ReadRecord(path)
			require.NoError(t, err)
			assert.Empty(t, rec.Missing(metrics.RequiredKeys(false)), path)
			assert.Equal(t, "Draco", rec[metrics.KeyCodec])
			assert.Equal(t, "0.5", rec["mseF      (p2point): "])
			assert.Equal(t, metrics.NaN, rec["h.        (p2plane): "])
		}
	}
}

func TestRunSequentialOrder(t *testing.T) {
	e := setup(t, "b.ply", "a.ply")
	ex := &copyExecutor{}
	r := e.runner(t, ex, func(o *runner.Options) { o.Sequential = true })

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, ex.calls, 8)

	var order []string
	for i := 0; i < len(ex.calls); i += 2 {
		enc := ex.calls[i]
		order = append(order, filepath.Base(enc[2])+"@"+enc[6])
	}
	// Files in name order, rate points in configuration order within a file.
	assert.Equal(t, []string{"a.ply@8", "a.ply@10", "b.ply@8", "b.ply@10"}, order)
}

func TestRunMissingDatasetCreatesNothing(t *testing.T) {
	e := setup(t)
	r := e.runner(t, &copyExecutor{}, func(o *runner.Options) { o.Dataset.Name = "nope" })

	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, runner.ErrDatasetNotFound)
	_, statErr := os.Stat(e.dirs.Experiments)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunEmptyDataset(t *testing.T) {
	e := setup(t, "readme.md")
	r := e.runner(t, &copyExecutor{}, nil)
	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, runner.ErrEmptyDataset)
}

func TestRunMissingDistortionTool(t *testing.T) {
	e := setup(t, "a.ply")
	ex := &copyExecutor{}
	r := e.runner(t, ex, func(o *runner.Options) { o.PCErrorBinary = "./test/absent" })
	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, evaluate.ErrDistortionToolNotFound)
	assert.Empty(t, ex.calls)
}

func TestRunCodecFailure(t *testing.T) {
	e := setup(t, "bad.ply", "good.ply")
	ex := &copyExecutor{fail: map[string]bool{"bad.ply": true}}
	r := e.runner(t, ex, nil)

	sum, err := r.Run(context.Background())
	require.ErrorIs(t, err, runner.ErrCodecFailed)
	assert.Contains(t, err.Error(), "bad.ply at rate point r01")
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, int64(2), sum.Trials)

	recs, err := result.ListRecords(result.RecordDir(r.RateDirs()[1]))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "good.ply.json", filepath.Base(recs[0]))
}

func TestRunAllowCodecFailure(t *testing.T) {
	e := setup(t, "bad.ply")
	ex := &copyExecutor{fail: map[string]bool{"bad.ply": true}}
	r := e.runner(t, ex, func(o *runner.Options) { o.AllowCodecFailure = true })

	// The encoder wrote nothing, so evaluation is what fails.
	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, runner.ErrCodecFailed)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunTrialReplacesStaleOutputs(t *testing.T) {
	e := setup(t, "a.ply")
	r := e.runner(t, &copyExecutor{}, nil)
	orig := filepath.Join(e.dirs.Datasets, "ds", "a.ply")
	rp := e.codec.Config().Params[0]

	_, err := r.RunTrial(context.Background(), orig, rp)
	require.NoError(t, err)

	// A second run whose encoder fails must not reuse the first bitstream.
	r = e.runner(t, &copyExecutor{fail: map[string]bool{"a.ply": true}}, func(o *runner.Options) { o.AllowCodecFailure = true })
	_, err = r.RunTrial(context.Background(), orig, rp)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRerunFailureDropsEarlierRecord(t *testing.T) {
	e := setup(t, "a.ply", "b.ply")
	_, err := e.runner(t, &copyExecutor{}, nil).Run(context.Background())
	require.NoError(t, err)

	r := e.runner(t, &copyExecutor{fail: map[string]bool{"a.ply": true}}, nil)
	_, err = r.Run(context.Background())
	require.ErrorIs(t, err, runner.ErrCodecFailed)

	recs, err := result.ListRecords(result.RecordDir(r.RateDirs()[0]))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "b.ply.json", filepath.Base(recs[0]))
}

func TestNewRejectsResolutionOverflow(t *testing.T) {
	e := setup(t, "a.ply")
	for _, res := range []int{0, config.MaxResolution + 1} {
		_, err := runner.New(runner.Options{
			Codec:   e.codec,
			Dataset: config.Dataset{Name: "ds", Resolution: res, Extension: ".ply"},
			Dirs:    e.dirs,
		})
		assert.Error(t, err, "resolution %d", res)
	}
}

func TestListDataset(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "ds")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub.ply"), 0o755))
	for _, f := range []string{"c.ply", "A.PLY", "b.pcd", "x.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), nil, 0o644))
	}

	got, err := runner.ListDataset(root, "ds", ".ply")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "A.PLY"), filepath.Join(dir, "c.ply")}, got)

	got, err = runner.ListDataset(root, "ds", ".pcd")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "b.pcd")}, got)

	_, err = runner.ListDataset(root, "missing", ".ply")
	assert.ErrorIs(t, err, runner.ErrDatasetNotFound)
	_, statErr := os.Stat(filepath.Join(root, "missing"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLocalExecutor(t *testing.T) {
	var ex runner.LocalExecutor
	dir := t.TempDir()

	code, err := ex.Run(context.Background(), runner.Process{Argv: []string{"sh", "-c", "pwd > where; exit 3"}, Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, 3, code)
	where, err := os.ReadFile(filepath.Join(dir, "where"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), filepath.Base(strings.TrimSpace(string(where))))

	_, err = ex.Run(context.Background(), runner.Process{Argv: []string{filepath.Join(dir, "no-such-codec")}})
	assert.Error(t, err)

	_, err = ex.Run(context.Background(), runner.Process{})
	assert.Error(t, err)
}
