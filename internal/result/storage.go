package result

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	encDir  = "enc"
	decDir  = "dec"
	evalDir = "eval"

	decodedExt = ".ply"
	recordExt  = ".json"
)

// Paths are the derived locations of one trial under the experiment root:
// <root>/<codec>/<dataset>/<rate>/{enc,dec,eval}/<file><ext>.
type Paths struct {
	Encoded string
	Decoded string
	Record  string
}

// TrialPaths derives the trial paths from the original file name. It does
// not touch the filesystem.
func TrialPaths(experimentRoot, codec, dataset, rate, original, binExt string) Paths {
	dir := RateDir(experimentRoot, codec, dataset, rate)
	name := filepath.Base(original)
	return Paths{
		Encoded: filepath.Join(dir, encDir, name+binExt),
		Decoded: filepath.Join(dir, decDir, name+decodedExt),
		Record:  filepath.Join(dir, evalDir, name+recordExt),
	}
}

func RateDir(experimentRoot, codec, dataset, rate string) string {
	return filepath.Join(experimentRoot, codec, dataset, rate)
}

// RecordDir is where the records of a rate point directory live.
func RecordDir(rateDir string) string {
	return filepath.Join(rateDir, evalDir)
}

// Ensure creates the parent directories of every trial path.
func (p Paths) Ensure() error {
	for _, path := range []string{p.Encoded, p.Decoded, p.Record} {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating trial dir: %w", err)
		}
	}
	return nil
}

// WriteRecord persists rec at path, replacing any earlier record.
func WriteRecord(path string, rec Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating record dir: %w", err)
	}
	data, err := json.MarshalIndent(rec, "", "    ")
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing record: %w", err)
	}
	return nil
}

func ReadRecord(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing record %s: %w", path, err)
	}
	return rec, nil
}

// ListRecords returns the record files directly under dir, sorted by name.
func ListRecords(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), recordExt) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// ListRateDirs returns the rate point directories of one codec and dataset
// under the experiment root, sorted by name.
func ListRateDirs(experimentRoot, codec, dataset string) ([]string, error) {
	dir := filepath.Join(experimentRoot, codec, dataset)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing rate points: %w", err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}
