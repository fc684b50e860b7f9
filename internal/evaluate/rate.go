package evaluate

import (
	"errors"
	"fmt"
	"os"

	"github.com/signalnine/pccbench/internal/metrics"
	"github.com/signalnine/pccbench/internal/pointcloud"
)

var (
	ErrZeroPoints     = errors.New("point cloud has no points")
	ErrEmptyBitstream = errors.New("encoded bitstream is empty")
)

// RateMetrics holds file sizes in kilobytes (1 KB = 1000 bytes) and the
// derived compression ratio and bits per point.
type RateMetrics struct {
	OrigSizeKB       float64
	EncSizeKB        float64
	DecSizeKB        float64
	CompressionRatio float64
	PointCount       int
	BppBefore        float64
	BppAfter         float64
}

// Bpp reads the point count of orig and the sizes of all three files.
func Bpp(orig, enc, dec string) (*RateMetrics, error) {
	var sizes [3]int64
	for i, path := range []string{orig, enc, dec} {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("reading size: %w", err)
		}
		sizes[i] = info.Size()
	}
	points, err := pointcloud.Count(orig)
	if err != nil {
		return nil, fmt.Errorf("counting points: %w", err)
	}
	m, err := ComputeRate(sizes[0], sizes[1], sizes[2], points)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", orig, err)
	}
	return m, nil
}

func ComputeRate(origBytes, encBytes, decBytes int64, points int) (*RateMetrics, error) {
	if points <= 0 {
		return nil, ErrZeroPoints
	}
	if encBytes <= 0 {
		return nil, ErrEmptyBitstream
	}
	m := &RateMetrics{
		OrigSizeKB: float64(origBytes) / 1000,
		EncSizeKB:  float64(encBytes) / 1000,
		DecSizeKB:  float64(decBytes) / 1000,
		PointCount: points,
	}
	m.CompressionRatio = m.OrigSizeKB / m.EncSizeKB
	m.BppBefore = m.OrigSizeKB * 8000 / float64(points)
	m.BppAfter = m.EncSizeKB * 8000 / float64(points)
	return m, nil
}

// Fields returns the metrics keyed as they appear in a result record.
func (m *RateMetrics) Fields() map[string]any {
	return map[string]any{
		metrics.KeyOrigSizeKB:       m.OrigSizeKB,
		metrics.KeyPointCount:       m.PointCount,
		metrics.KeyEncSizeKB:        m.EncSizeKB,
		metrics.KeyDecSizeKB:        m.DecSizeKB,
		metrics.KeyCompressionRatio: m.CompressionRatio,
		metrics.KeyBppBefore:        m.BppBefore,
		metrics.KeyBppAfter:         m.BppAfter,
	}
}
