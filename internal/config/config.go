package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Directories   Directories `yaml:"directories"`
	PCErrorBinary string      `yaml:"pcerror_binary"`
	Workers       int         `yaml:"workers"`
	Datasets      []Dataset   `yaml:"datasets"`
}

// Directories replaces fixed filesystem locations. Relative paths resolve
// against the working directory of the process.
type Directories struct {
	Datasets     string `yaml:"datasets"`
	Experiments  string `yaml:"experiments"`
	PCError      string `yaml:"pcerror"`
	CodecConfigs string `yaml:"codec_configs"`
}

type Dataset struct {
	Name       string `yaml:"name"`
	Resolution int    `yaml:"resolution"`
	Color      bool   `yaml:"color"`
	Extension  string `yaml:"extension"`
}

const (
	DefaultResolution    = 10
	// MaxResolution keeps the pc_error peak value 2^R-1 within an int64.
	MaxResolution        = 62
	DefaultExtension     = ".ply"
	DefaultPCErrorBinary = "./test/pc_error"
)

// Environment variables that override the directories section.
const (
	EnvDatasetDir     = "PCCBENCH_DATASET_DIR"
	EnvExperimentDir  = "PCCBENCH_EXPERIMENT_DIR"
	EnvPCErrorDir     = "PCCBENCH_PCERROR_DIR"
	EnvCodecConfigDir = "PCCBENCH_CODEC_CONFIG_DIR"
)

func Default() *Config {
	return &Config{
		Directories: Directories{
			Datasets:     "datasets",
			Experiments:  "experiments",
			PCError:      "pcerror",
			CodecConfigs: "cfg",
		},
		PCErrorBinary: DefaultPCErrorBinary,
		Workers:       runtime.NumCPU(),
	}
}

// Load reads the harness config at path. A missing file yields the defaults
// so that a bare checkout can run with environment overrides only.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	for env, dst := range map[string]*string{
		EnvDatasetDir:     &cfg.Directories.Datasets,
		EnvExperimentDir:  &cfg.Directories.Experiments,
		EnvPCErrorDir:     &cfg.Directories.PCError,
		EnvCodecConfigDir: &cfg.Directories.CodecConfigs,
	} {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
}

func validate(cfg *Config) error {
	d := &cfg.Directories
	if d.Datasets == "" {
		return fmt.Errorf("directories.datasets is required")
	}
	if d.Experiments == "" {
		return fmt.Errorf("directories.experiments is required")
	}
	if d.CodecConfigs == "" {
		return fmt.Errorf("directories.codec_configs is required")
	}
	if cfg.PCErrorBinary == "" {
		cfg.PCErrorBinary = DefaultPCErrorBinary
	}
	if cfg.Workers < 1 {
		cfg.Workers = runtime.NumCPU()
	}
	seen := make(map[string]bool)
	for i := range cfg.Datasets {
		ds := &cfg.Datasets[i]
		if ds.Name == "" {
			return fmt.Errorf("dataset %d: name is required", i)
		}
		if seen[ds.Name] {
			return fmt.Errorf("dataset %q defined twice", ds.Name)
		}
		seen[ds.Name] = true
		if ds.Resolution < 0 || ds.Resolution > MaxResolution {
			return fmt.Errorf("dataset %q: resolution must be between 0 and %d", ds.Name, MaxResolution)
		}
		if ds.Resolution == 0 {
			ds.Resolution = DefaultResolution
		}
		if ds.Extension == "" {
			ds.Extension = DefaultExtension
		}
	}
	return nil
}

// Dataset returns the named dataset entry. Datasets that are not listed get
// the default resolution and extension with color disabled.
func (c *Config) Dataset(name string) Dataset {
	for _, ds := range c.Datasets {
		if ds.Name == name {
			return ds
		}
	}
	return Dataset{Name: name, Resolution: DefaultResolution, Extension: DefaultExtension}
}
