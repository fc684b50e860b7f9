package cmd

import (
	"github.com/signalnine/pccbench/internal/config"
	"github.com/signalnine/pccbench/internal/logutil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile  string
	logLevel string
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "pccbench",
		Short:        "Benchmark harness for point cloud compression codecs",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "pccbench.yaml", "config file path")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(newRunCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newValidateCmd())
	return root
}

// setup loads the harness config and builds the logger shared by all
// commands.
func setup() (*config.Config, *zap.Logger, error) {
	log, err := logutil.New(logLevel)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	log.Debug("config loaded",
		zap.String("path", cfgFile),
		zap.String("datasets", cfg.Directories.Datasets),
		zap.String("experiments", cfg.Directories.Experiments),
		zap.String("codec_configs", cfg.Directories.CodecConfigs))
	return cfg, log, nil
}
