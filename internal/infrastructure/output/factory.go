// Package output provides formatters for assetkit reports.
package output

import (
	"errors"
	"fmt"
	"io"

	"github.com/assetkit-dev/assetkit/internal/application/dto"
)

// ErrUnsupportedReport is returned when a format cannot render a report kind.
var ErrUnsupportedReport = errors.New("format does not support this report")

// Formatter renders the reports of every command.
type Formatter interface {
	FormatRun(report *dto.RunAssetResponse) error
	FormatCheck(report *dto.CheckScriptsResponse) error
	FormatInspect(report *dto.InspectAssetResponse) error
	FormatPack(report *dto.PackAssetResponse) error
}

// Options tune formatter output.
type Options struct {
	// Indent pretty-prints JSON
	Indent bool
	// Color enables ANSI colors in tables
	Color bool
	// SourcePath is the asset reference, used for SARIF locations
	SourcePath string
	// ToolVersion is reported by SARIF
	ToolVersion string
}

// FormatterFactory creates formatters by name.
type FormatterFactory struct{}

// NewFormatterFactory creates a new formatter factory.
func NewFormatterFactory() *FormatterFactory {
	return &FormatterFactory{}
}

// Create returns a formatter for the given format name.
func (f *FormatterFactory) Create(format string, writer io.Writer, options Options) (Formatter, error) {
	switch format {
	case "table":
		t := NewTableFormatter(writer)
		t.EnableColor = options.Color
		return t, nil
	case "json":
		return NewJSONFormatter(writer, options.Indent), nil
	case "yaml":
		return NewYAMLFormatter(writer), nil
	case "junit":
		return NewJUnitFormatter(writer), nil
	case "sarif":
		return NewSARIFFormatter(writer, options.SourcePath, options.ToolVersion), nil
	default:
		return nil, fmt.Errorf(
			"unknown format: %s (supported: %v)",
			format, f.SupportedFormats(),
		)
	}
}

// SupportedFormats returns list of available format names.
func (f *FormatterFactory) SupportedFormats() []string {
	return []string{"table", "json", "yaml", "junit", "sarif"}
}
