package codec

import "github.com/signalnine/pccbench/internal/config"

func init() {
	Register("GPCC", func(cfg *config.CodecConfig) Codec { return &GPCC{base{"GPCC", cfg}} })
}

// GPCC drives the MPEG G-PCC reference software (tmc3).
// Rate point options: positionQuantizationScale, mergeDuplicatedPoints.
type GPCC struct{ base }

func (g *GPCC) EncodeCommand(req Request) ([]string, error) {
	a := newArgv(g.cfg, req.RatePoint).
		exe("encoder", g.cfg.Encoder).
		add("--uncompressedDataPath="+req.Input, "--compressedStreamPath="+req.Output).
		opt("--positionQuantizationScale=", "positionQuantizationScale").
		opt("--mergeDuplicatedPoints=", "mergeDuplicatedPoints").
		add("--mode=0")
	if req.Color {
		a.add("--attribute=color")
	}
	return a.build()
}

func (g *GPCC) DecodeCommand(req Request) ([]string, error) {
	return newArgv(g.cfg, req.RatePoint).
		exe("decoder", g.cfg.Decoder).
		add("--compressedStreamPath="+req.Input,
			"--reconstructedDataPath="+req.Output,
			"--mode=1",
			"--outputBinaryPly=1").
		build()
}
