package codec

import "github.com/signalnine/pccbench/internal/config"

func init() {
	Register("PCGCv1", func(cfg *config.CodecConfig) Codec { return &PCGCv1{base{"PCGCv1", cfg}} })
}

// PCGCv1 drives the learned PCGC coder script, which handles both
// directions. Rate point options: modelname, ckpt_dir, mode, scale,
// cube_size, min_num, rho.
type PCGCv1 struct{ base }

func (p *PCGCv1) EncodeCommand(req Request) ([]string, error) {
	a := newArgv(p.cfg, req.RatePoint)
	return a.add(a.settingOr("python", "python3")).
		exe("coder", p.cfg.Coder).
		add("compress", req.Input, req.Output).
		opt("--modelname=", "modelname").
		opt("--ckpt_dir=", "ckpt_dir").
		opt("--mode=", "mode").
		opt("--scale=", "scale").
		opt("--cube_size=", "cube_size").
		opt("--min_num=", "min_num").
		opt("--rho=", "rho").
		build()
}

func (p *PCGCv1) DecodeCommand(req Request) ([]string, error) {
	a := newArgv(p.cfg, req.RatePoint)
	return a.add(a.settingOr("python", "python3")).
		exe("coder", p.cfg.Coder).
		add("decompress", req.Input, req.Output).
		opt("--modelname=", "modelname").
		opt("--ckpt_dir=", "ckpt_dir").
		opt("--mode=", "mode").
		build()
}
