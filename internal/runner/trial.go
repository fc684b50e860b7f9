package runner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/signalnine/pccbench/internal/codec"
	"github.com/signalnine/pccbench/internal/config"
	"github.com/signalnine/pccbench/internal/evaluate"
	"github.com/signalnine/pccbench/internal/result"
	"go.uber.org/zap"
)

var ErrCodecFailed = errors.New("codec exited with nonzero status")

// RunTrial encodes and decodes one file at one rate point, evaluates the
// reconstruction and persists the merged record, replacing any earlier one.
func (r *Runner) RunTrial(ctx context.Context, orig string, rp config.RatePoint) (result.Record, error) {
	cfg := r.codec.Config()
	paths := result.TrialPaths(r.experimentRoot, r.codec.Name(), r.dataset.Name, rp.ID, orig, cfg.BinExtension)
	if err := paths.Ensure(); err != nil {
		return nil, err
	}
	// Outputs and the record of an earlier run must not stand in for a
	// failed trial.
	for _, stale := range []string{paths.Encoded, paths.Decoded, paths.Record} {
		if err := os.Remove(stale); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("removing stale output: %w", err)
		}
	}

	req := codec.Request{RatePoint: rp, Input: orig, Output: paths.Encoded, Color: r.dataset.Color}
	encArgv, err := r.codec.EncodeCommand(req)
	if err != nil {
		return nil, fmt.Errorf("building encode command: %w", err)
	}
	encSecs, err := r.runCodec(ctx, "encode", encArgv)
	if err != nil {
		return nil, err
	}

	req = codec.Request{RatePoint: rp, Input: paths.Encoded, Output: paths.Decoded, Color: r.dataset.Color}
	decArgv, err := r.codec.DecodeCommand(req)
	if err != nil {
		return nil, fmt.Errorf("building decode command: %w", err)
	}
	decSecs, err := r.runCodec(ctx, "decode", decArgv)
	if err != nil {
		return nil, err
	}

	timing := &result.InferenceTiming{
		Codec:      r.codec.Name(),
		Original:   orig,
		Encoded:    paths.Encoded,
		Decoded:    paths.Decoded,
		EncodeSecs: encSecs,
		DecodeSecs: decSecs,
	}
	distortion, err := r.evaluator.GeometryDistortion(ctx, orig, paths.Decoded)
	if err != nil {
		return nil, fmt.Errorf("evaluating distortion: %w", err)
	}
	rate, err := evaluate.Bpp(orig, paths.Encoded, paths.Decoded)
	if err != nil {
		return nil, fmt.Errorf("evaluating bpp: %w", err)
	}

	rec := result.Merge(timing.Fields(), distortion, rate.Fields())
	if err := result.WriteRecord(paths.Record, rec); err != nil {
		return nil, err
	}
	r.log.Debug("trial done",
		zap.String("file", orig),
		zap.String("rate", rp.ID),
		zap.Float64("encode_s", encSecs),
		zap.Float64("decode_s", decSecs),
		zap.Float64("bpp", rate.BppAfter))
	return rec, nil
}

// runCodec runs one codec step and returns its wall-clock duration in
// seconds.
func (r *Runner) runCodec(ctx context.Context, step string, argv []string) (float64, error) {
	start := time.Now()
	code, err := r.exec.Run(ctx, Process{Argv: argv, Dir: r.codec.Config().WorkDir})
	secs := time.Since(start).Seconds()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", step, err)
	}
	if code != 0 {
		if !r.allowCodecFailure {
			return 0, fmt.Errorf("%s: %w (exit %d)", step, ErrCodecFailed, code)
		}
		r.log.Warn("codec exited with nonzero status",
			zap.String("step", step),
			zap.Int("exit_code", code))
	}
	return secs, nil
}
