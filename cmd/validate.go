package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/signalnine/pccbench/internal/codec"
	"github.com/signalnine/pccbench/internal/evaluate"
	"github.com/signalnine/pccbench/internal/result"
	"github.com/signalnine/pccbench/internal/runner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <codec> <dataset>",
		Short: "Check configuration and print the commands a run would execute",
		Long: "Load the codec configuration, list the dataset and build the encode, decode and " +
			"pc_error commands of every rate point for the first file. Nothing is executed or written.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			c, err := codec.New(args[0], cfg.Directories.CodecConfigs)
			if err != nil {
				return err
			}
			ds := cfg.Dataset(args[1])
			datasetRoot, err := filepath.Abs(cfg.Directories.Datasets)
			if err != nil {
				return err
			}
			experimentRoot, err := filepath.Abs(cfg.Directories.Experiments)
			if err != nil {
				return err
			}
			files, err := runner.ListDataset(datasetRoot, ds.Name, ds.Extension)
			if err != nil {
				return err
			}

			eval := &evaluate.Evaluator{
				Dir:        cfg.Directories.PCError,
				Binary:     cfg.PCErrorBinary,
				Resolution: ds.Resolution,
				Color:      ds.Color,
			}
			if err := eval.CheckTool(); err != nil {
				log.Warn("run would fail", zap.Error(err))
			}

			first := files[0]
			fmt.Printf("%s on %s: %d files, %d rate points, working dir %s\n",
				c.Name(), ds.Name, len(files), len(c.Config().Params), c.Config().WorkDir)
			for _, rp := range c.Config().Params {
				paths := result.TrialPaths(experimentRoot, c.Name(), ds.Name, rp.ID, first, c.Config().BinExtension)
				enc, err := c.EncodeCommand(codec.Request{RatePoint: rp, Input: first, Output: paths.Encoded, Color: ds.Color})
				if err != nil {
					return fmt.Errorf("rate point %s: %w", rp.ID, err)
				}
				dec, err := c.DecodeCommand(codec.Request{RatePoint: rp, Input: paths.Encoded, Output: paths.Decoded, Color: ds.Color})
				if err != nil {
					return fmt.Errorf("rate point %s: %w", rp.ID, err)
				}
				fmt.Printf("\n[%s]\n", rp.ID)
				fmt.Printf("  encode:  %s\n", strings.Join(enc, " "))
				fmt.Printf("  decode:  %s\n", strings.Join(dec, " "))
				fmt.Printf("  measure: %s\n", strings.Join(eval.Command(first, paths.Decoded), " "))
				fmt.Printf("  record:  %s\n", paths.Record)
			}
			return nil
		},
	}
}
