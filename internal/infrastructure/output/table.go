package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/assetkit-dev/assetkit/internal/application/dto"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// TableFormatter formats reports as human-readable text.
type TableFormatter struct {
	writer      io.Writer
	EnableColor bool
}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{
		writer:      w,
		EnableColor: true, // Default to true, caller can disable
	}
}

// colorize returns the string wrapped in ANSI color codes if enabled.
func (f *TableFormatter) colorize(text, code string) string {
	if !f.EnableColor {
		return text
	}
	return code + text + colorReset
}

func (f *TableFormatter) rule() string {
	return f.colorize(strings.Repeat("─", 80), colorGray)
}

// FormatRun writes a run report.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) FormatRun(r *dto.RunAssetResponse) error {
	f.formatHeader(r.Asset, r.Metadata)
	fmt.Fprintf(f.writer, "Frames: %d\n", r.Frames)
	if !r.Allowed {
		fmt.Fprintf(f.writer, "Execution: %s\n", f.colorize("not allowed", colorYellow))
	}
	fmt.Fprintln(f.writer)

	if len(r.Scripts) == 0 {
		fmt.Fprintln(f.writer, "No scripts.")
	} else {
		fmt.Fprintln(f.writer, f.colorize("Scripts:", colorBold))
		fmt.Fprintln(f.writer, f.rule())
		for _, s := range r.Scripts {
			f.formatScriptRun(s)
		}
	}

	if len(r.Events) > 0 {
		fmt.Fprintln(f.writer, f.colorize("Events:", colorBold))
		for _, ev := range r.Events {
			fmt.Fprintf(f.writer, "  frame %d: %s (%d started)\n", ev.Frame, f.colorize(ev.Name, colorCyan), ev.Started)
		}
		fmt.Fprintln(f.writer)
	}

	f.formatTraits(r.Traits)
	f.formatWarnings(r.Diagnostics)

	// Summary
	counts := map[dto.ScriptStatus]int{}
	for _, s := range r.Scripts {
		counts[s.Status]++
	}
	fmt.Fprintln(f.writer, f.colorize("Summary:", colorBold))
	fmt.Fprintln(f.writer, f.rule())
	fmt.Fprintf(f.writer, "Scripts:    %d total\n", len(r.Scripts))
	for _, st := range []dto.ScriptStatus{dto.ScriptDone, dto.ScriptFailed, dto.ScriptStopped, dto.ScriptRunning, dto.ScriptNotRun} {
		symbol, color := statusInfo(st)
		fmt.Fprintf(f.writer, "  %s %-9s %d\n", f.colorize(symbol, color), string(st)+":", counts[st])
	}
	fmt.Fprintln(f.writer, f.rule())
	return nil
}

//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) formatScriptRun(s dto.ScriptRun) {
	symbol, color := statusInfo(s.Status)
	fmt.Fprintf(f.writer, "%s %s: %s\n", f.colorize(symbol, color), f.colorize(s.Name, color), triggerLabel(s.Trigger, s.Event))
	fmt.Fprintf(f.writer, "  Status: %s (runs: %d)\n", f.colorize(strings.ToUpper(string(s.Status)), color), s.Runs)
	if s.Message != "" {
		fmt.Fprintf(f.writer, "  Message: %s\n", s.Message)
	}
	if len(s.Output) > 0 {
		fmt.Fprintln(f.writer, "  Output:")
		for _, line := range s.Output {
			fmt.Fprintf(f.writer, "    %s\n", line)
		}
	}
	if len(s.Errors) > 0 {
		fmt.Fprintf(f.writer, "  %s:\n", f.colorize("Errors", colorRed))
		for _, line := range s.Errors {
			fmt.Fprintf(f.writer, "    %s\n", f.colorize(line, colorYellow))
		}
	}
	fmt.Fprintln(f.writer)
}

// FormatCheck writes a check report.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) FormatCheck(r *dto.CheckScriptsResponse) error {
	f.formatHeader(r.Asset, r.Metadata)
	fmt.Fprintln(f.writer)

	if len(r.Scripts) == 0 {
		fmt.Fprintln(f.writer, "No scripts.")
	} else {
		fmt.Fprintln(f.writer, f.colorize("Scripts:", colorBold))
		fmt.Fprintln(f.writer, f.rule())
		for _, s := range r.Scripts {
			symbol, color := "✓", colorGreen
			if !s.Valid {
				symbol, color = "✗", colorRed
			}
			label := triggerLabel(s.Trigger, s.Event)
			if !s.Enabled {
				label += f.colorize(" (disabled)", colorGray)
			}
			fmt.Fprintf(f.writer, "%s %s: %s\n", f.colorize(symbol, color), f.colorize(s.Name, color), label)
			if s.Error != "" {
				fmt.Fprintf(f.writer, "  %s: %s\n", f.colorize("Error", colorRed), s.Error)
			}
		}
		fmt.Fprintln(f.writer)
	}

	f.formatWarnings(r.Diagnostics)

	failures := r.Failures()
	fmt.Fprintln(f.writer, f.colorize("Summary:", colorBold))
	fmt.Fprintln(f.writer, f.rule())
	fmt.Fprintf(f.writer, "Scripts:    %d total\n", len(r.Scripts))
	fmt.Fprintf(f.writer, "  %s Valid:   %d\n", f.colorize("✓", colorGreen), len(r.Scripts)-failures)
	fmt.Fprintf(f.writer, "  %s Invalid: %d\n", f.colorize("✗", colorRed), failures)
	fmt.Fprintln(f.writer, f.rule())
	return nil
}

// FormatInspect writes an inspect report.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) FormatInspect(r *dto.InspectAssetResponse) error {
	f.formatHeader(r.Asset, r.Metadata)
	a := r.Asset
	if a.Description != "" {
		fmt.Fprintf(f.writer, "Description: %s\n", a.Description)
	}
	if a.Author != "" {
		fmt.Fprintf(f.writer, "Author: %s\n", a.Author)
	}
	if len(a.Tags) > 0 {
		fmt.Fprintf(f.writer, "Tags: %s\n", strings.Join(a.Tags, ", "))
	}
	fmt.Fprintf(f.writer, "Model: %s (%d bytes)\n", a.ModelFile, a.ModelBytes)
	fmt.Fprintf(f.writer, "Preview: %s (%d bytes)\n", a.PreviewFile, a.PreviewBytes)
	fmt.Fprintln(f.writer)

	f.formatTraits(r.Traits)

	if len(r.Scripts) > 0 {
		fmt.Fprintln(f.writer, f.colorize("Scripts:", colorBold))
		for _, s := range r.Scripts {
			state := ""
			if !s.Enabled {
				state = f.colorize(" (disabled)", colorGray)
			}
			fmt.Fprintf(f.writer, "  - %s: %s, %d lines%s\n", f.colorize(s.Name, colorCyan), triggerLabel(s.Trigger, s.Event), s.Lines, state)
		}
		fmt.Fprintln(f.writer)
	}

	if len(r.Properties) > 0 {
		fmt.Fprintln(f.writer, f.colorize("Properties:", colorBold))
		keys := make([]string, 0, len(r.Properties))
		for k := range r.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(f.writer, "  - %s: %v\n", f.colorize(k, colorBlue), r.Properties[k])
		}
		fmt.Fprintln(f.writer)
	}
	return nil
}

// FormatPack writes a pack report.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) FormatPack(r *dto.PackAssetResponse) error {
	fmt.Fprintf(f.writer, "%s %s (%d bytes)\n", f.colorize("✓", colorGreen), f.colorize(r.OutputPath, colorBold), r.Bytes)
	fmt.Fprintf(f.writer, "  Files: %s\n", strings.Join(r.Files, ", "))
	if r.Sealed {
		fmt.Fprintf(f.writer, "  Encrypted: yes\n")
		fmt.Fprintf(f.writer, "  Content hash: %s\n", r.ContentHash)
	}
	return nil
}

//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) formatHeader(a dto.AssetSummary, meta dto.ResponseMetadata) {
	fmt.Fprintln(f.writer, f.rule())
	title := a.Name
	if a.Version != "" {
		title += " (v" + a.Version + ")"
	}
	fmt.Fprintf(f.writer, "Asset: %s\n", f.colorize(title, colorBold))
	fmt.Fprintf(f.writer, "GUID: %s\n", a.GUID)
	fmt.Fprintf(f.writer, "Type: %s\n", a.Type)
	fmt.Fprintf(f.writer, "Origin: %s\n", a.Origin)
	if meta.Duration > 0 {
		fmt.Fprintf(f.writer, "Duration: %s\n", meta.Duration.Round(time.Millisecond))
	}
}

//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) formatTraits(traits []dto.TraitView) {
	if len(traits) == 0 {
		return
	}
	fmt.Fprintln(f.writer, f.colorize("Traits:", colorBold))
	for _, t := range traits {
		fmt.Fprintf(f.writer, "  - %s (%s): %v\n", f.colorize(t.Name, colorBlue), t.Type, t.Value)
	}
	fmt.Fprintln(f.writer)
}

//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) formatWarnings(d dto.Diagnostics) {
	if len(d.Warnings) == 0 {
		return
	}
	fmt.Fprintln(f.writer, f.colorize("Warnings:", colorYellow))
	for _, w := range d.Warnings {
		fmt.Fprintf(f.writer, "  ⚠ %s\n", w)
	}
	fmt.Fprintln(f.writer)
}

func triggerLabel(trigger, event string) string {
	if event == "" {
		return trigger
	}
	return trigger + " [" + event + "]"
}

// statusInfo returns a symbol and color for the given status.
func statusInfo(status dto.ScriptStatus) (string, string) {
	switch status {
	case dto.ScriptDone:
		return "✓", colorGreen
	case dto.ScriptFailed:
		return "✗", colorRed
	case dto.ScriptStopped:
		return "⚠", colorYellow
	case dto.ScriptRunning:
		return "↻", colorCyan
	case dto.ScriptNotRun:
		return "⊘", colorGray
	default:
		return "?", colorReset
	}
}
