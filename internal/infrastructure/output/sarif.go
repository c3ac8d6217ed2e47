package output

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v3/pkg/report/v210/sarif"

	"github.com/assetkit-dev/assetkit/internal/application/dto"
)

// SARIFFormatter formats run and check reports as SARIF 2.1.0 JSON.
// Each script maps to a rule and its outcome to a result located at the asset.
type SARIFFormatter struct {
	writer      io.Writer
	sourcePath  string
	toolVersion string
}

// NewSARIFFormatter creates a new SARIF formatter.
// sourcePath is the asset reference used for result locations; the asset
// origin is used when it is empty.
func NewSARIFFormatter(writer io.Writer, sourcePath, toolVersion string) *SARIFFormatter {
	return &SARIFFormatter{
		writer:      writer,
		sourcePath:  sourcePath,
		toolVersion: toolVersion,
	}
}

// FormatCheck writes a check report.
func (f *SARIFFormatter) FormatCheck(r *dto.CheckScriptsResponse) error {
	return f.write(newSARIFMapper(r.Asset, f.pathFor(r.Asset), r.Metadata, checkFindings(r)))
}

// FormatRun writes a run report.
func (f *SARIFFormatter) FormatRun(r *dto.RunAssetResponse) error {
	return f.write(newSARIFMapper(r.Asset, f.pathFor(r.Asset), r.Metadata, runFindings(r)))
}

// FormatInspect is not supported by SARIF.
func (f *SARIFFormatter) FormatInspect(*dto.InspectAssetResponse) error {
	return fmt.Errorf("sarif: inspect: %w", ErrUnsupportedReport)
}

// FormatPack is not supported by SARIF.
func (f *SARIFFormatter) FormatPack(*dto.PackAssetResponse) error {
	return fmt.Errorf("sarif: pack: %w", ErrUnsupportedReport)
}

func (f *SARIFFormatter) pathFor(a dto.AssetSummary) string {
	if f.sourcePath != "" {
		return f.sourcePath
	}
	return a.Origin
}

func (f *SARIFFormatter) write(mapper *sarifMapper) error {
	// 1. Create SARIF report
	report := sarif.NewReport()

	// 2. Create run with tool info
	run := sarif.NewRunWithInformationURI("AssetKit", "https://assetkit.dev")
	if f.toolVersion != "" {
		run.Tool.Driver.Version = ptrString(f.toolVersion)
	}
	run.Tool.Driver.Organization = ptrString("AssetKit")

	// 3. Map findings to run
	mapper.mapToRun(run)
	report.AddRun(run)

	// 4. Write
	if err := report.Write(f.writer); err != nil {
		return fmt.Errorf("failed to write SARIF output: %w", err)
	}
	_, err := f.writer.Write([]byte("\n"))
	return err
}

func ptrString(s string) *string {
	return &s
}
