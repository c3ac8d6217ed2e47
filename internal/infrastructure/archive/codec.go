// Package archive reads and writes asset archives: a zip of exactly one
// model, one preview image and one metadata document, optionally sealed in
// a password envelope.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/assetkit-dev/assetkit/internal/application/ports"
)

// Default size limits.
const (
	DefaultMaxArchiveBytes      = 256 << 20
	DefaultMaxUncompressedBytes = 1 << 30
)

// ErrTooLarge is returned when an archive exceeds a configured limit.
var ErrTooLarge = errors.New("archive exceeds size limit")

// ZipCodec extracts and builds zip archives. Only top-level entries are
// considered; nested paths and directories are skipped.
type ZipCodec struct {
	// MaxArchiveBytes bounds the compressed input (0 = default)
	MaxArchiveBytes int64
	// MaxUncompressedBytes bounds the sum of extracted entries (0 = default)
	MaxUncompressedBytes int64
}

var _ ports.ArchiveCodec = (*ZipCodec)(nil)

// NewZipCodec creates a codec with the given limits.
func NewZipCodec(maxArchive, maxUncompressed int64) *ZipCodec {
	return &ZipCodec{MaxArchiveBytes: maxArchive, MaxUncompressedBytes: maxUncompressed}
}

func (c *ZipCodec) limits() (int64, int64) {
	archive, uncompressed := c.MaxArchiveBytes, c.MaxUncompressedBytes
	if archive <= 0 {
		archive = DefaultMaxArchiveBytes
	}
	if uncompressed <= 0 {
		uncompressed = DefaultMaxUncompressedBytes
	}
	return archive, uncompressed
}

// Extract returns the top-level files of a zip archive keyed by name.
func (c *ZipCodec) Extract(data []byte) (map[string][]byte, error) {
	maxArchive, maxUncompressed := c.limits()
	if int64(len(data)) > maxArchive {
		return nil, fmt.Errorf("%w: %d bytes compressed, limit %d", ErrTooLarge, len(data), maxArchive)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	files := make(map[string][]byte)
	var total int64
	for _, f := range zr.File {
		if !topLevel(f.Name) || f.FileInfo().IsDir() {
			continue
		}
		if _, dup := files[f.Name]; dup {
			return nil, fmt.Errorf("duplicate entry %q", f.Name)
		}
		remaining := maxUncompressed - total
		content, err := readEntry(f, remaining)
		if err != nil {
			return nil, err
		}
		total += int64(len(content))
		files[f.Name] = content
	}
	if len(files) == 0 {
		return nil, errors.New("archive has no top-level files")
	}
	return files, nil
}

func readEntry(f *zip.File, remaining int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	// Declared sizes can lie; the read itself is bounded.
	content, err := io.ReadAll(io.LimitReader(rc, remaining+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if int64(len(content)) > remaining {
		return nil, fmt.Errorf("%w: uncompressed content exceeds limit at %s", ErrTooLarge, f.Name)
	}
	return content, nil
}

func topLevel(name string) bool {
	name = strings.TrimPrefix(name, "./")
	if name == "" || strings.ContainsAny(name, `/\`) {
		return false
	}
	return !strings.HasPrefix(path.Base(name), ".")
}

// Build writes files into a deflated zip with entries in name order.
func (c *ZipCodec) Build(files map[string][]byte) ([]byte, error) {
	if len(files) == 0 {
		return nil, errors.New("no files to archive")
	}
	names := make([]string, 0, len(files))
	for name := range files {
		if !topLevel(name) {
			return nil, fmt.Errorf("entry %q must be a top-level file", name)
		}
		names = append(names, name)
	}
	slices.Sort(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("add %s: %w", name, err)
		}
		if _, err := w.Write(files[name]); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish zip: %w", err)
	}
	return buf.Bytes(), nil
}
