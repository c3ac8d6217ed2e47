// Package sources resolves asset references to raw bytes and supplies
// archive passwords.
package sources

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/assetkit-dev/assetkit/internal/application/ports"
)

// DefaultMaxBytes bounds what a source reads for one asset.
const DefaultMaxBytes = 256 << 20

// LocalSource reads an archive file or an unpacked asset directory.
type LocalSource struct {
	// MaxBytes bounds the archive size or the directory total (0 = default)
	MaxBytes int64
}

var _ ports.AssetSource = (*LocalSource)(nil)

// NewLocalSource creates a local source.
func NewLocalSource(maxBytes int64) *LocalSource {
	return &LocalSource{MaxBytes: maxBytes}
}

// Name returns "local"
func (s *LocalSource) Name() string { return "local" }

// Accepts reports whether ref names an existing file or directory.
func (s *LocalSource) Accepts(ref string) bool {
	_, err := os.Stat(ref)
	return err == nil
}

// Fetch reads ref. Directories yield their top-level regular files; hidden
// files are skipped.
func (s *LocalSource) Fetch(ctx context.Context, ref string) (*ports.RawAsset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(ref)
	if err != nil {
		return nil, err
	}
	limit := s.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}

	if !info.IsDir() {
		data, err := readBounded(ref, limit)
		if err != nil {
			return nil, err
		}
		return &ports.RawAsset{Origin: ref, Archive: data}, nil
	}

	entries, err := os.ReadDir(ref)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	files := make(map[string][]byte)
	var total int64
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		data, err := readBounded(filepath.Join(ref, e.Name()), limit-total)
		if err != nil {
			return nil, err
		}
		total += int64(len(data))
		files[e.Name()] = data
	}
	return &ports.RawAsset{Origin: ref, Files: files}, nil
}

func readBounded(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s exceeds the %d byte limit", path, limit)
	}
	return data, nil
}
