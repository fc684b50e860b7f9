// Package metrics extracts labeled values from the text output of the
// distortion tool and holds the fixed metric schema shared by records and
// statistics.
package metrics

import (
	"strings"
)

// NaN is recorded for any label the tool output does not contain.
const NaN = "NaN"

// FindValues returns one value per label, in label order. The value of a
// label is the raw remainder of the first line containing it; labels are
// matched as literal text.
func FindValues(labels, lines []string) []string {
	values := make([]string, len(labels))
	for i, label := range labels {
		values[i] = NaN
		for _, line := range lines {
			if idx := strings.Index(line, label); idx >= 0 {
				values[i] = line[idx+len(label):]
				break
			}
		}
	}
	return values
}

// Extract pairs each label with its value from FindValues.
func Extract(labels, lines []string) map[string]string {
	values := FindValues(labels, lines)
	out := make(map[string]string, len(labels))
	for i, label := range labels {
		out[label] = values[i]
	}
	return out
}

// SplitLines splits tool output into lines, dropping line terminators. Lines
// may be arbitrarily long.
func SplitLines(output string) []string {
	if output == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(output, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
