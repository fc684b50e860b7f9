package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/signalnine/pccbench/internal/codec"
	"github.com/signalnine/pccbench/internal/config"
	"github.com/signalnine/pccbench/internal/evaluate"
	"github.com/signalnine/pccbench/internal/result"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type Options struct {
	Codec   codec.Codec
	Dataset config.Dataset
	Dirs    config.Directories
	// PCErrorBinary is the distortion tool, relative to Dirs.PCError.
	PCErrorBinary string
	// Workers bounds the number of files processed at once.
	Workers int
	// Sequential processes files one at a time in listing order.
	Sequential bool
	// AllowCodecFailure keeps going after a nonzero codec exit and leaves
	// the failure to surface through the evaluation of its outputs.
	AllowCodecFailure bool
	Executor          Executor
	Logger            *zap.Logger
}

// Runner runs every rate point of one codec over one dataset.
type Runner struct {
	codec             codec.Codec
	dataset           config.Dataset
	datasetRoot       string
	experimentRoot    string
	evaluator         *evaluate.Evaluator
	exec              Executor
	workers           int
	sequential        bool
	allowCodecFailure bool
	log               *zap.Logger
}

// New resolves the configured directories to absolute paths, since codecs
// run in their own working directory.
func New(opts Options) (*Runner, error) {
	if r := opts.Dataset.Resolution; r < 1 || r > config.MaxResolution {
		return nil, fmt.Errorf("dataset %s: resolution %d out of range 1..%d", opts.Dataset.Name, r, config.MaxResolution)
	}
	datasetRoot, err := filepath.Abs(opts.Dirs.Datasets)
	if err != nil {
		return nil, fmt.Errorf("resolving dataset dir: %w", err)
	}
	experimentRoot, err := filepath.Abs(opts.Dirs.Experiments)
	if err != nil {
		return nil, fmt.Errorf("resolving experiment dir: %w", err)
	}
	ex := opts.Executor
	if ex == nil {
		ex = LocalExecutor{}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		codec:          opts.Codec,
		dataset:        opts.Dataset,
		datasetRoot:    datasetRoot,
		experimentRoot: experimentRoot,
		evaluator: &evaluate.Evaluator{
			Dir:        opts.Dirs.PCError,
			Binary:     opts.PCErrorBinary,
			Resolution: opts.Dataset.Resolution,
			Color:      opts.Dataset.Color,
		},
		exec:              ex,
		workers:           opts.Workers,
		sequential:        opts.Sequential,
		allowCodecFailure: opts.AllowCodecFailure,
		log:               log.With(zap.String("codec", opts.Codec.Name()), zap.String("dataset", opts.Dataset.Name)),
	}, nil
}

// Summary reports what a Run did.
type Summary struct {
	Files    int
	Failed   int
	Trials   int64
	Duration time.Duration
}

// Run validates the dataset and processes every file. A missing or empty
// dataset, or a missing distortion tool, fails before anything is written. Per-file failures do not stop
// other files; they are returned combined once all files are done.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	files, err := ListDataset(r.datasetRoot, r.dataset.Name, r.dataset.Extension)
	if err != nil {
		return nil, err
	}
	if err := r.evaluator.CheckTool(); err != nil {
		return nil, err
	}
	// Container executors bind-mount the experiment root, which must exist.
	if err := os.MkdirAll(r.experimentRoot, 0o755); err != nil {
		return nil, fmt.Errorf("creating experiment dir: %w", err)
	}
	r.log.Info("starting experiments",
		zap.Int("files", len(files)),
		zap.Int("rate_points", len(r.codec.Config().Params)),
		zap.Int("workers", r.workers),
		zap.Bool("sequential", r.sequential))

	start := time.Now()
	var done, trials atomic.Int64
	jobs := make([]Job, len(files))
	for i, f := range files {
		f := f
		jobs[i] = func(ctx context.Context) error {
			n, err := r.ProcessFile(ctx, f)
			trials.Add(int64(n))
			r.log.Info("file done",
				zap.String("file", filepath.Base(f)),
				zap.String("progress", fmt.Sprintf("%d/%d", done.Add(1), len(files))),
				zap.Bool("ok", err == nil))
			return err
		}
	}

	var errs []error
	if r.sequential {
		errs = RunSequential(ctx, jobs)
	} else {
		errs = RunPool(ctx, r.workers, jobs)
	}
	for _, err := range errs {
		r.log.Error("file failed", zap.Error(err))
	}

	return &Summary{
		Files:    len(files),
		Failed:   len(errs),
		Trials:   trials.Load(),
		Duration: time.Since(start),
	}, multierr.Combine(errs...)
}

// ProcessFile runs the configured rate points in order on one file and
// returns how many completed. The first failing rate point ends the file.
func (r *Runner) ProcessFile(ctx context.Context, orig string) (int, error) {
	for i, rp := range r.codec.Config().Params {
		if _, err := r.RunTrial(ctx, orig, rp); err != nil {
			return i, fmt.Errorf("%s at rate point %s: %w", filepath.Base(orig), rp.ID, err)
		}
	}
	return len(r.codec.Config().Params), nil
}

// RateDirs lists the rate point directories this runner writes to, in
// configuration order.
func (r *Runner) RateDirs() []string {
	params := r.codec.Config().Params
	dirs := make([]string, len(params))
	for i, rp := range params {
		dirs[i] = result.RateDir(r.experimentRoot, r.codec.Name(), r.dataset.Name, rp.ID)
	}
	return dirs
}
