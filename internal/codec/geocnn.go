package codec

import "github.com/signalnine/pccbench/internal/config"

func init() {
	Register("GeoCNNv2", func(cfg *config.CodecConfig) Codec { return &GeoCNNv2{base{"GeoCNNv2", cfg}} })
}

// GeoCNNv2 drives the learned octree codec's compress/decompress scripts.
// Codec settings: opt_metrics, python (default python3). Rate point
// options: checkpoint_dir, model_config, resolution, octree_level.
type GeoCNNv2 struct{ base }

func (g *GeoCNNv2) EncodeCommand(req Request) ([]string, error) {
	a := newArgv(g.cfg, req.RatePoint)
	return a.add(a.settingOr("python", "python3")).
		exe("encoder", g.cfg.Encoder).
		add("--input_files="+req.Input, "--output_files="+req.Output).
		setting("--opt_metrics=", "opt_metrics").
		opt("--checkpoint_dir=", "checkpoint_dir").
		opt("--model_config=", "model_config").
		opt("--resolution=", "resolution").
		opt("--octree_level=", "octree_level").
		build()
}

func (g *GeoCNNv2) DecodeCommand(req Request) ([]string, error) {
	a := newArgv(g.cfg, req.RatePoint)
	return a.add(a.settingOr("python", "python3")).
		exe("decoder", g.cfg.Decoder).
		add("--input_files="+req.Input, "--output_files="+req.Output).
		opt("--checkpoint_dir=", "checkpoint_dir").
		opt("--model_config=", "model_config").
		build()
}
