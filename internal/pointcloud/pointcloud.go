// Package pointcloud reads the number of points stored in a point cloud file.
// Only the header is needed for PLY; PCD files are decoded with pcgol.
package pointcloud

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/seqsense/pcgol/pc"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported point cloud format")
	ErrInvalidHeader     = errors.New("invalid point cloud header")
)

// Count returns the number of points in the file at path, dispatching on the
// file extension.
func Count(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ply":
		n, err := CountPLY(f)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}
		return n, nil
	case ".pcd":
		n, err := CountPCD(f)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// CountPLY reads the vertex element count from a PLY header. The body,
// ascii or binary, is not read.
func CountPLY(r io.Reader) (int, error) {
	br := bufio.NewReader(r)
	magic, err := br.ReadString('\n')
	if err != nil || strings.TrimSpace(magic) != "ply" {
		return 0, fmt.Errorf("%w: missing ply magic", ErrInvalidHeader)
	}
	count := -1
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return 0, fmt.Errorf("%w: missing end_header", ErrInvalidHeader)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "end_header":
			if count < 0 {
				return 0, fmt.Errorf("%w: no vertex element", ErrInvalidHeader)
			}
			return count, nil
		case "element":
			if len(fields) == 3 && fields[1] == "vertex" {
				n, err := strconv.Atoi(fields[2])
				if err != nil || n < 0 {
					return 0, fmt.Errorf("%w: bad vertex count %q", ErrInvalidHeader, fields[2])
				}
				count = n
			}
		}
	}
}

func CountPCD(r io.Reader) (int, error) {
	cloud, err := pc.Unmarshal(r)
	if err != nil {
		return 0, fmt.Errorf("decoding pcd: %w", err)
	}
	return cloud.Points, nil
}
