package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var ErrCodecConfigNotFound = errors.New("codec config not found")

// CodecConfig is the per-codec configuration, loaded once from
// <codec_configs>/<Codec>.yml and read-only afterwards.
type CodecConfig struct {
	Encoder      string `yaml:"encoder"`
	Decoder      string `yaml:"decoder"`
	Coder        string `yaml:"coder"`
	WorkDir      string `yaml:"pcc_directory"`
	BinExtension string `yaml:"bin_extension"`
	// Image, when set, runs the encoder and decoder inside this container image.
	Image string `yaml:"image"`
	// Binds are extra host paths mounted into the image alongside the
	// dataset and experiment directories.
	Binds []string `yaml:"binds"`
	// CPUs and Memory (bytes) cap each codec container; zero means no limit.
	CPUs   float64        `yaml:"cpus"`
	Memory int64          `yaml:"memory"`
	Params []RatePoint    `yaml:"params"`
	Extra  map[string]any `yaml:",inline"`
}

// RatePoint is one named parameter set on a codec's rate-distortion curve.
type RatePoint struct {
	ID      string
	Options map[string]any
}

func (r *RatePoint) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	id, ok := raw["id"]
	if !ok {
		return fmt.Errorf("line %d: rate point has no id", node.Line)
	}
	r.ID = fmt.Sprint(id)
	delete(raw, "id")
	r.Options = raw
	return nil
}

// Option returns the rate point option rendered as a command-line value.
func (r RatePoint) Option(key string) (string, error) {
	v, ok := r.Options[key]
	if !ok {
		return "", fmt.Errorf("rate point %q: missing option %q", r.ID, key)
	}
	return fmt.Sprint(v), nil
}

// Setting returns a codec-level key that is not one of the common fields.
func (c *CodecConfig) Setting(key string) (string, error) {
	v, ok := c.Extra[key]
	if !ok {
		return "", fmt.Errorf("codec config: missing %q", key)
	}
	return fmt.Sprint(v), nil
}

func CodecConfigPath(dir, codec string) string {
	return filepath.Join(dir, codec+".yml")
}

func LoadCodec(dir, codec string) (*CodecConfig, error) {
	path := CodecConfigPath(dir, codec)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrCodecConfigNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading codec config %s: %w", path, err)
	}
	var cfg CodecConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing codec config %s: %w", path, err)
	}
	if err := validateCodec(&cfg); err != nil {
		return nil, fmt.Errorf("invalid codec config %s: %w", path, err)
	}
	return &cfg, nil
}

func validateCodec(cfg *CodecConfig) error {
	if cfg.Encoder == "" && cfg.Coder == "" {
		return fmt.Errorf("encoder or coder is required")
	}
	if cfg.Decoder == "" && cfg.Coder == "" {
		return fmt.Errorf("decoder or coder is required")
	}
	if cfg.CPUs < 0 || cfg.Memory < 0 {
		return fmt.Errorf("cpus and memory must not be negative")
	}
	if len(cfg.Params) == 0 {
		return fmt.Errorf("no rate points defined in params")
	}
	seen := make(map[string]bool)
	for i, rp := range cfg.Params {
		if rp.ID == "" {
			return fmt.Errorf("rate point %d: id is required", i)
		}
		if seen[rp.ID] {
			return fmt.Errorf("rate point %q defined twice", rp.ID)
		}
		seen[rp.ID] = true
	}
	return nil
}
