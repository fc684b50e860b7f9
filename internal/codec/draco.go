package codec

import "github.com/signalnine/pccbench/internal/config"

func init() {
	Register("Draco", func(cfg *config.CodecConfig) Codec { return &Draco{base{"Draco", cfg}} })
}

// Draco drives draco_encoder / draco_decoder in point cloud mode.
// Rate point options: qp, qt, qn, qg, cl.
type Draco struct{ base }

func (d *Draco) EncodeCommand(req Request) ([]string, error) {
	return newArgv(d.cfg, req.RatePoint).
		exe("encoder", d.cfg.Encoder).
		add("-i", req.Input, "-o", req.Output).
		flag("-qp", "qp").
		flag("-qt", "qt").
		flag("-qn", "qn").
		flag("-qg", "qg").
		flag("-cl", "cl").
		add("-point_cloud").
		build()
}

func (d *Draco) DecodeCommand(req Request) ([]string, error) {
	return newArgv(d.cfg, req.RatePoint).
		exe("decoder", d.cfg.Decoder).
		add("-i", req.Input, "-o", req.Output).
		build()
}
