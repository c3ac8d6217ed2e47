package output

import (
	"io"

	"github.com/goccy/go-yaml"

	"github.com/assetkit-dev/assetkit/internal/application/dto"
)

// YAMLFormatter formats reports as YAML.
type YAMLFormatter struct {
	writer io.Writer
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(w io.Writer) *YAMLFormatter {
	return &YAMLFormatter{writer: w}
}

// FormatRun writes a run report.
func (f *YAMLFormatter) FormatRun(r *dto.RunAssetResponse) error { return f.write(r) }

// FormatCheck writes a check report.
func (f *YAMLFormatter) FormatCheck(r *dto.CheckScriptsResponse) error { return f.write(r) }

// FormatInspect writes an inspect report.
func (f *YAMLFormatter) FormatInspect(r *dto.InspectAssetResponse) error { return f.write(r) }

// FormatPack writes a pack report.
func (f *YAMLFormatter) FormatPack(r *dto.PackAssetResponse) error { return f.write(r) }

func (f *YAMLFormatter) write(v any) error {
	encoder := yaml.NewEncoder(f.writer, yaml.Indent(2))
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}
