package metrics

// Labels printed by the MPEG pc_error tool.
var geometryLabels = []string{
	"mseF      (p2point): ",
	"mseF,PSNR (p2point): ",
	"mseF      (p2plane): ",
	"mseF,PSNR (p2plane): ",
	"h.        (p2point): ",
	"h.,PSNR   (p2point): ",
	"h.        (p2plane): ",
	"h.,PSNR   (p2plane): ",
}

var colorLabels = []string{
	"c[0],    F         : ",
	"c[1],    F         : ",
	"c[2],    F         : ",
	"c[0],PSNRF         : ",
	"c[1],PSNRF         : ",
	"c[2],PSNRF         : ",
	"h.c[0],    F         : ",
	"h.c[1],    F         : ",
	"h.c[2],    F         : ",
	"h.c[0],PSNRF         : ",
	"h.c[1],PSNRF         : ",
	"h.c[2],PSNRF         : ",
}

// Record keys for timing and rate metrics.
const (
	KeyCodec      = "PCC Algorithm"
	KeyOriginal   = "Original PC"
	KeyEncoded    = "Encoded bitstream"
	KeyDecoded    = "Decoded PC"
	KeyEncodeTime = "Encode time in sec"
	KeyDecodeTime = "Decode time in sec"

	KeyOrigSizeKB       = "Orig PC size in KB"
	KeyPointCount       = "Orig num points"
	KeyEncSizeKB        = "Enc PC size in KB"
	KeyDecSizeKB        = "Dec PC size in KB"
	KeyCompressionRatio = "Compression Ratio"
	KeyBppBefore        = "Bits per point bpp before cps"
	KeyBppAfter         = "Bits per point bpp after cps"
)

// DistortionLabels returns the pc_error labels to extract: 8 geometry
// labels, followed by 12 color labels when color is enabled.
func DistortionLabels(color bool) []string {
	labels := append([]string(nil), geometryLabels...)
	if color {
		labels = append(labels, colorLabels...)
	}
	return labels
}

// Columns is the statistics column order.
func Columns(color bool) []string {
	cols := []string{KeyOriginal, KeyEncoded, KeyDecoded, KeyEncodeTime, KeyDecodeTime}
	cols = append(cols, DistortionLabels(color)...)
	return append(cols,
		KeyOrigSizeKB,
		KeyPointCount,
		KeyEncSizeKB,
		KeyDecSizeKB,
		KeyCompressionRatio,
		KeyBppBefore,
		KeyBppAfter,
	)
}

// RequiredKeys lists every key a persisted record carries.
func RequiredKeys(color bool) []string {
	return append([]string{KeyCodec}, Columns(color)...)
}
