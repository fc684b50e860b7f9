package result

import (
	"github.com/signalnine/pccbench/internal/metrics"
)

// Record is one persisted trial result: a flat mapping from metric key to a
// string or number.
type Record map[string]any

// InferenceTiming is produced once per trial by timing the encoder and
// decoder processes.
type InferenceTiming struct {
	Codec      string
	Original   string
	Encoded    string
	Decoded    string
	EncodeSecs float64
	DecodeSecs float64
}

func (t *InferenceTiming) Fields() map[string]any {
	return map[string]any{
		metrics.KeyCodec:      t.Codec,
		metrics.KeyOriginal:   t.Original,
		metrics.KeyEncoded:    t.Encoded,
		metrics.KeyDecoded:    t.Decoded,
		metrics.KeyEncodeTime: t.EncodeSecs,
		metrics.KeyDecodeTime: t.DecodeSecs,
	}
}

// Merge combines timing, distortion and rate fields into one record. Later
// groups win on key collisions.
func Merge(timing map[string]any, distortion map[string]string, rate map[string]any) Record {
	rec := make(Record, len(timing)+len(distortion)+len(rate))
	for k, v := range timing {
		rec[k] = v
	}
	for k, v := range distortion {
		rec[k] = v
	}
	for k, v := range rate {
		rec[k] = v
	}
	return rec
}

// Missing returns the keys absent from rec, in the order given.
func (r Record) Missing(keys []string) []string {
	var missing []string
	for _, k := range keys {
		if _, ok := r[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}
