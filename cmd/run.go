package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/signalnine/pccbench/internal/codec"
	"github.com/signalnine/pccbench/internal/config"
	"github.com/signalnine/pccbench/internal/report"
	"github.com/signalnine/pccbench/internal/runner"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	flagWorkers           int
	flagSequential        bool
	flagResolution        int
	flagColor             bool
	flagAllowCodecFailure bool
	flagNoStats           bool
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <codec> <dataset>",
		Short: "Run every rate point of a codec over a dataset",
		Args:  cobra.ExactArgs(2),
		RunE:  runExperiments,
	}
	cmd.Flags().IntVar(&flagWorkers, "workers", 0, "files processed at once (default from config)")
	cmd.Flags().BoolVar(&flagSequential, "sequential", false, "process files one at a time in name order")
	cmd.Flags().IntVar(&flagResolution, "resolution", 0, "override the dataset voxel resolution in bits")
	cmd.Flags().BoolVar(&flagColor, "color", false, "override the dataset color flag")
	cmd.Flags().BoolVar(&flagAllowCodecFailure, "allow-codec-failure", false, "continue past nonzero codec exits")
	cmd.Flags().BoolVar(&flagNoStats, "no-stats", false, "skip statistics after the run")
	return cmd
}

func runExperiments(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	c, err := codec.New(args[0], cfg.Directories.CodecConfigs)
	if err != nil {
		return err
	}
	ds := datasetFor(cmd, cfg, args[1])
	workers := cfg.Workers
	if flagWorkers > 0 {
		workers = flagWorkers
	}
	ex, err := executorFor(c, cfg, log)
	if err != nil {
		return err
	}

	r, err := runner.New(runner.Options{
		Codec:             c,
		Dataset:           ds,
		Dirs:              cfg.Directories,
		PCErrorBinary:     cfg.PCErrorBinary,
		Workers:           workers,
		Sequential:        flagSequential,
		AllowCodecFailure: flagAllowCodecFailure,
		Executor:          ex,
		Logger:            log,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sum, runErr := r.Run(ctx)
	if sum == nil {
		return runErr
	}
	fmt.Printf("Processed %d files of %s with %s: %d trials, %d failed files (%s)\n",
		sum.Files, ds.Name, c.Name(), sum.Trials, sum.Failed, sum.Duration.Round(time.Millisecond))

	if !flagNoStats {
		if err := writeStatistics(r.RateDirs(), ds.Color, "table", log); err != nil {
			return multierr.Append(runErr, err)
		}
	}
	return runErr
}

// datasetFor looks up the dataset entry and applies command line overrides.
func datasetFor(cmd *cobra.Command, cfg *config.Config, name string) config.Dataset {
	ds := cfg.Dataset(name)
	if cmd.Flags().Changed("resolution") && flagResolution > 0 {
		ds.Resolution = flagResolution
	}
	if cmd.Flags().Changed("color") {
		ds.Color = flagColor
	}
	return ds
}

// executorFor runs codecs on the host unless the codec config names a
// container image.
func executorFor(c codec.Codec, cfg *config.Config, log *zap.Logger) (runner.Executor, error) {
	image := c.Config().Image
	if image == "" {
		return runner.LocalExecutor{}, nil
	}
	// pcc_directory names a path inside the image and is not mounted.
	dirs := append([]string{cfg.Directories.Datasets, cfg.Directories.Experiments}, c.Config().Binds...)
	binds, err := bindPaths(dirs...)
	if err != nil {
		return nil, err
	}
	log.Info("running codec in container", zap.String("image", image), zap.Strings("binds", binds))
	return &runner.DockerExecutor{
		Image:       image,
		BindPaths:   binds,
		UserID:      fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid()),
		CPULimit:    c.Config().CPUs,
		MemoryLimit: c.Config().Memory,
		Logger:      log,
	}, nil
}

func bindPaths(dirs ...string) ([]string, error) {
	seen := make(map[string]bool)
	var binds []string
	for _, d := range dirs {
		if d == "" {
			continue
		}
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", d, err)
		}
		if !seen[abs] {
			seen[abs] = true
			binds = append(binds, abs)
		}
	}
	return binds, nil
}

// writeStatistics aggregates each rate point directory, saves its CSV and
// prints it. Directories without records are skipped with a warning.
func writeStatistics(rateDirs []string, color bool, format string, log *zap.Logger) error {
	for _, dir := range rateDirs {
		tab, err := report.Aggregate(dir, color)
		if errors.Is(err, report.ErrNoRecords) {
			log.Warn("no records to aggregate", zap.String("dir", dir))
			continue
		}
		if err != nil {
			return err
		}
		path, err := report.Save(tab, dir)
		if err != nil {
			return err
		}
		log.Info("statistics written", zap.String("path", path))
		fmt.Println()
		if err := report.Render(tab, format, os.Stdout); err != nil {
			return err
		}
	}
	return nil
}
