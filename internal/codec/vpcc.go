package codec

import "github.com/signalnine/pccbench/internal/config"

func init() {
	Register("VPCC", func(cfg *config.CodecConfig) Codec { return &VPCC{base{"VPCC", cfg}} })
}

// VPCC drives the MPEG V-PCC reference software (tmc2) for single frames.
// Codec settings: cfg_folder, cfg_common, cfg_condition, vid_encoder,
// vid_decoder, cfg_inverse_color_space_conversion. Rate points carry no
// options; the rate is fixed by the condition config.
type VPCC struct{ base }

func (v *VPCC) EncodeCommand(req Request) ([]string, error) {
	return newArgv(v.cfg, req.RatePoint).
		exe("encoder", v.cfg.Encoder).
		add("--uncompressedDataPath="+req.Input, "--compressedStreamPath="+req.Output).
		setting("--configurationFolder=./", "cfg_folder").
		setting("--config=./", "cfg_common").
		setting("--config=./", "cfg_condition").
		setting("--videoEncoderOccupancyPath=./", "vid_encoder").
		setting("--videoEncoderGeometryPath=./", "vid_encoder").
		setting("--videoEncoderAttributePath=./", "vid_encoder").
		add("--frameCount=1", "--computeMetrics=0", "--computeChecksum=0").
		build()
}

func (v *VPCC) DecodeCommand(req Request) ([]string, error) {
	return newArgv(v.cfg, req.RatePoint).
		exe("decoder", v.cfg.Decoder).
		add("--compressedStreamPath="+req.Input, "--reconstructedDataPath="+req.Output).
		setting("--videoDecoderOccupancyPath=", "vid_decoder").
		setting("--videoDecoderGeometryPath=", "vid_decoder").
		setting("--videoDecoderAttributePath=", "vid_decoder").
		setting("--inverseColorSpaceConversionConfig=", "cfg_inverse_color_space_conversion").
		add("--computeMetrics=0", "--computeChecksum=0").
		build()
}
