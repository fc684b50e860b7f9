package runner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrEmptyDataset    = errors.New("dataset has no point cloud files")
)

// ListDataset returns the point cloud files with extension ext directly
// under root/name, sorted by name. It never creates anything.
func ListDataset(root, name, ext string) ([]string, error) {
	dir := filepath.Join(root, name)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing dataset %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no %s files in %s", ErrEmptyDataset, ext, dir)
	}
	sort.Strings(files)
	return files, nil
}
