// Package report reduces the records of one rate point directory into a
// statistics table and renders it.
package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/signalnine/pccbench/internal/metrics"
	"github.com/signalnine/pccbench/internal/result"
)

var ErrNoRecords = errors.New("no result records")

// Summary row labels, in output order.
const (
	RowAverage = "Average"
	RowStdDev  = "Standard Deviation"
	RowMin     = "Minimum"
	RowMax     = "Maximum"
)

var summaryLabels = []string{RowAverage, RowStdDev, RowMin, RowMax}

// Identity names the configuration a rate point directory belongs to,
// taken from its ancestry: <codec>/<dataset>/<rate>.
type Identity struct {
	Codec   string `json:"codec"`
	Dataset string `json:"dataset"`
	Rate    string `json:"rate"`
}

func IdentityOf(rateDir string) Identity {
	rateDir = rateDirOf(rateDir)
	datasetDir := filepath.Dir(rateDir)
	return Identity{
		Codec:   filepath.Base(filepath.Dir(datasetDir)),
		Dataset: filepath.Base(datasetDir),
		Rate:    filepath.Base(rateDir),
	}
}

// rateDirOf maps a record directory to the rate point directory holding it,
// so both <rate> and <rate>/eval name the same configuration.
func rateDirOf(dir string) string {
	dir = filepath.Clean(dir)
	if filepath.Base(dir) == filepath.Base(result.RecordDir("")) {
		return filepath.Dir(dir)
	}
	return dir
}

// FileName is the name of the statistics CSV for id.
func (id Identity) FileName() string {
	return fmt.Sprintf("%s_%s_%s_statistics.csv", id.Codec, id.Dataset, id.Rate)
}

// Table holds one row per record in file name order, then the four summary
// rows. Cells are already formatted; a missing value is "NaN".
type Table struct {
	Identity
	Columns []string   `json:"columns"`
	Files   []string   `json:"files"`
	Rows    [][]string `json:"rows"`
	// Summary is keyed by summary label, each row aligned with Columns.
	Summary map[string][]string `json:"summary"`
}

// Aggregate reads every record of rateDir and builds its statistics table
// over the fixed column schema. rateDir may also be its eval directory.
func Aggregate(rateDir string, color bool) (*Table, error) {
	rateDir = rateDirOf(rateDir)
	recordDir := result.RecordDir(rateDir)
	if info, err := os.Stat(recordDir); err != nil || !info.IsDir() {
		recordDir = rateDir
	}
	paths, err := result.ListRecords(recordDir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoRecords, recordDir)
	}

	recs := make([]result.Record, 0, len(paths))
	files := make([]string, 0, len(paths))
	for _, p := range paths {
		rec, err := result.ReadRecord(p)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
		files = append(files, filepath.Base(p))
	}
	return Build(IdentityOf(rateDir), metrics.Columns(color), files, recs), nil
}

// Build lays out recs over columns and computes the summary rows.
func Build(id Identity, columns, files []string, recs []result.Record) *Table {
	t := &Table{
		Identity: id,
		Columns:  columns,
		Files:    files,
		Rows:     make([][]string, len(recs)),
		Summary:  make(map[string][]string, len(summaryLabels)),
	}
	for _, label := range summaryLabels {
		t.Summary[label] = make([]string, len(columns))
	}
	for i, rec := range recs {
		row := make([]string, len(columns))
		for j, col := range columns {
			row[j] = formatCell(rec[col])
		}
		t.Rows[i] = row
	}
	for j, col := range columns {
		values := make([]any, len(recs))
		for i, rec := range recs {
			values[i] = rec[col]
		}
		s := Summarize(values)
		t.Summary[RowAverage][j] = s.Average
		t.Summary[RowStdDev][j] = s.StdDev
		t.Summary[RowMin][j] = s.Min
		t.Summary[RowMax][j] = s.Max
	}
	return t
}

// Stats are the formatted summary cells of one column.
type Stats struct {
	Average string
	StdDev  string
	Min     string
	Max     string
}

var nanStats = Stats{metrics.NaN, metrics.NaN, metrics.NaN, metrics.NaN}

// Summarize reduces one column. Missing and NaN values are skipped, so a
// column with one NaN trial still averages over the others instead of
// becoming NaN itself; only a column with no numbers left reports NaN. Any
// other value that is not a number makes the whole column non-numeric.
func Summarize(values []any) Stats {
	var nums []float64
	for _, v := range values {
		f, ok, numeric := toFloat(v)
		if !numeric {
			return nanStats
		}
		if ok {
			nums = append(nums, f)
		}
	}
	if len(nums) == 0 {
		return nanStats
	}

	var sum float64
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, f := range nums {
		sum += f
		lo = math.Min(lo, f)
		hi = math.Max(hi, f)
	}
	mean := sum / float64(len(nums))
	var sq float64
	for _, f := range nums {
		sq += (f - mean) * (f - mean)
	}
	return Stats{
		Average: formatFloat(mean),
		StdDev:  formatFloat(math.Sqrt(sq / float64(len(nums)))),
		Min:     formatFloat(lo),
		Max:     formatFloat(hi),
	}
}

// toFloat reports the value of v, whether it counts towards the summary, and
// whether v is compatible with a numeric column at all.
func toFloat(v any) (f float64, ok, numeric bool) {
	switch x := v.(type) {
	case nil:
		return 0, false, true
	case float64:
		f = x
	case int:
		f = float64(x)
	case string:
		var err error
		f, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false, false
		}
	default:
		return 0, false, false
	}
	if math.IsNaN(f) {
		return 0, false, true
	}
	return f, true, true
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return metrics.NaN
	case string:
		return x
	case float64:
		return formatFloat(x)
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return metrics.NaN
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Save writes the CSV into the rate point directory under its identity
// file name and returns the path. An eval directory saves into its parent.
func Save(t *Table, rateDir string) (string, error) {
	path := filepath.Join(rateDirOf(rateDir), t.FileName())
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating statistics file: %w", err)
	}
	if err := WriteCSV(t, f); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing statistics file: %w", err)
	}
	return path, nil
}

// WriteCSV writes the header, the raw rows with a blank first cell, and the
// summary rows labeled in the first cell.
func WriteCSV(t *Table, w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Write(append([]string{""}, t.Columns...))
	for _, row := range t.Rows {
		cw.Write(append([]string{""}, row...))
	}
	for _, label := range summaryLabels {
		cw.Write(append([]string{label}, t.Summary[label]...))
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing statistics: %w", err)
	}
	return nil
}

// Render prints t as table, markdown, json or csv. Table and markdown show
// the summary per metric; json and csv carry everything.
func Render(t *Table, format string, w io.Writer) error {
	switch format {
	case "csv":
		return WriteCSV(t, w)
	case "json":
		return writeJSON(t, w)
	case "markdown":
		return writeMarkdown(t, w)
	case "table", "":
		return writeTable(t, w)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeTable(t *Table, w io.Writer) error {
	fmt.Fprintf(w, "%s / %s / %s (%d records)\n", t.Codec, t.Dataset, t.Rate, len(t.Rows))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tAVERAGE\tSTDDEV\tMIN\tMAX")
	fmt.Fprintln(tw, strings.Repeat("-", 80))
	for j, col := range t.Columns {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", metricName(col),
			t.Summary[RowAverage][j], t.Summary[RowStdDev][j], t.Summary[RowMin][j], t.Summary[RowMax][j])
	}
	return tw.Flush()
}

func writeMarkdown(t *Table, w io.Writer) error {
	fmt.Fprintf(w, "### %s / %s / %s (%d records)\n\n", t.Codec, t.Dataset, t.Rate, len(t.Rows))
	fmt.Fprintln(w, "| Metric | Average | Std Dev | Min | Max |")
	fmt.Fprintln(w, "|---|---|---|---|---|")
	for j, col := range t.Columns {
		fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n", metricName(col),
			t.Summary[RowAverage][j], t.Summary[RowStdDev][j], t.Summary[RowMin][j], t.Summary[RowMax][j])
	}
	return nil
}

// metricName drops the padding and trailing colon of pc_error labels.
func metricName(col string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(col), ":"))
}

func writeJSON(t *Table, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}
