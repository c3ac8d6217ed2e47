package output

import (
	"encoding/json"
	"io"

	"github.com/assetkit-dev/assetkit/internal/application/dto"
)

// JSONFormatter formats reports as JSON.
type JSONFormatter struct {
	writer io.Writer
	indent bool
}

// NewJSONFormatter creates a new JSON formatter.
// If indent is true, the output will be pretty-printed with indentation.
func NewJSONFormatter(w io.Writer, indent bool) *JSONFormatter {
	return &JSONFormatter{
		writer: w,
		indent: indent,
	}
}

// FormatRun writes a run report.
func (f *JSONFormatter) FormatRun(r *dto.RunAssetResponse) error { return f.write(r) }

// FormatCheck writes a check report.
func (f *JSONFormatter) FormatCheck(r *dto.CheckScriptsResponse) error { return f.write(r) }

// FormatInspect writes an inspect report.
func (f *JSONFormatter) FormatInspect(r *dto.InspectAssetResponse) error { return f.write(r) }

// FormatPack writes a pack report.
func (f *JSONFormatter) FormatPack(r *dto.PackAssetResponse) error { return f.write(r) }

func (f *JSONFormatter) write(v any) error {
	var data []byte
	var err error

	if f.indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	if _, err := f.writer.Write(data); err != nil {
		return err
	}
	_, err = f.writer.Write([]byte("\n"))
	return err
}
