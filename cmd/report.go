package cmd

import (
	"fmt"

	"github.com/signalnine/pccbench/internal/result"
	"github.com/spf13/cobra"
)

var (
	flagFormat        string
	flagReportCodec   string
	flagReportDataset string
	flagReportColor   bool
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [rate-dir...]",
		Short: "Aggregate stored records into statistics",
		Long: "Reduce the records of each rate point directory into summary statistics, " +
			"write <codec>_<dataset>_<rate>_statistics.csv next to them and print the result. " +
			"Without arguments, --codec and --dataset select every rate point of that pair.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			dirs, err := rateDirsFor(cfg.Directories.Experiments, flagReportCodec, flagReportDataset, args)
			if err != nil {
				return err
			}
			color := flagReportColor
			if !cmd.Flags().Changed("color") && flagReportDataset != "" {
				color = cfg.Dataset(flagReportDataset).Color
			}
			return writeStatistics(dirs, color, flagFormat, log)
		},
	}
	cmd.Flags().StringVar(&flagFormat, "format", "table", "output format (table, markdown, json, csv)")
	cmd.Flags().StringVar(&flagReportCodec, "codec", "", "codec whose rate points to report")
	cmd.Flags().StringVar(&flagReportDataset, "dataset", "", "dataset whose rate points to report")
	cmd.Flags().BoolVar(&flagReportColor, "color", false, "include color distortion columns")
	return cmd
}

func rateDirsFor(experimentRoot, codecName, dataset string, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if codecName == "" || dataset == "" {
		return nil, fmt.Errorf("either rate point directories or both --codec and --dataset are required")
	}
	return result.ListRateDirs(experimentRoot, codecName, dataset)
}
