// Package evaluate computes distortion and rate metrics for one
// encode/decode trial.
package evaluate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/signalnine/pccbench/internal/metrics"
)

var ErrDistortionToolNotFound = errors.New("distortion tool not found")

// Evaluator runs the MPEG pc_error tool for one dataset setting.
type Evaluator struct {
	// Dir is the working directory pc_error runs in.
	Dir string
	// Binary is the pc_error executable, relative to Dir unless absolute.
	Binary     string
	Resolution int
	Color      bool
}

// Command returns the pc_error argument vector comparing orig against dec.
func (e *Evaluator) Command(orig, dec string) []string {
	cmd := []string{
		e.Binary,
		"--fileA=" + orig,
		"--fileB=" + dec,
		"--resolution=" + strconv.FormatInt(int64(1)<<e.Resolution-1, 10),
		"--hausdorff=1",
	}
	if e.Color {
		cmd = append(cmd, "--color=1")
	}
	return cmd
}

// ToolPath locates the pc_error binary; a relative Binary is taken relative
// to Dir.
func (e *Evaluator) ToolPath() string {
	if filepath.IsAbs(e.Binary) {
		return e.Binary
	}
	return filepath.Join(e.Dir, e.Binary)
}

// CheckTool reports ErrDistortionToolNotFound when the binary is missing.
func (e *Evaluator) CheckTool() error {
	if _, err := os.Stat(e.ToolPath()); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDistortionToolNotFound, e.ToolPath(), err)
	}
	return nil
}

// GeometryDistortion runs pc_error and extracts the geometry labels, plus
// the color labels when color is enabled. Labels missing from the output are
// recorded as NaN. A nonzero exit status is not an error; the output is
// parsed as-is.
func (e *Evaluator) GeometryDistortion(ctx context.Context, orig, dec string) (map[string]string, error) {
	if err := e.CheckTool(); err != nil {
		return nil, err
	}

	argv := e.Command(orig, dec)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = e.Dir
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("running pc_error: %w", err)
		}
	}

	lines := metrics.SplitLines(stdout.String())
	return metrics.Extract(metrics.DistortionLabels(e.Color), lines), nil
}
