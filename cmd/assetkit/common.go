package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/assetkit-dev/assetkit/internal/infrastructure/output"
	"github.com/assetkit-dev/assetkit/internal/version"
)

// CommonOptions contains flags shared across report commands.
type CommonOptions struct {
	// Output
	Format  string
	OutFile string

	// Execution
	Timeout time.Duration

	NoColor bool

	formats []string
}

// DefaultCommonOptions returns sensible defaults.
func DefaultCommonOptions(formats ...string) CommonOptions {
	return CommonOptions{
		Timeout: 2 * time.Minute,
		Format:  "table",
		formats: formats,
	}
}

// RegisterFlags adds common flags to a cobra command.
func (opts *CommonOptions) RegisterFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", opts.Timeout,
		"Global timeout for the command (0 to disable)")
	cmd.Flags().StringVar(&opts.Format, "format", opts.Format,
		"Output format: "+strings.Join(opts.formats, ", "))
	cmd.Flags().StringVarP(&opts.OutFile, "output", "o", "",
		"Output file path (default: stdout)")
	cmd.Flags().BoolVar(&opts.NoColor, "no-color", false,
		"Disable colors in table output")
}

// ApplyToContext applies timeout to context.
// Returns new context and cancel function.
func (opts *CommonOptions) ApplyToContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if opts.Timeout > 0 {
		return context.WithTimeout(ctx, opts.Timeout)
	}
	// No timeout - return no-op cancel
	return ctx, func() {}
}

// ValidateFlags validates common options.
func (opts *CommonOptions) ValidateFlags() error {
	if !slices.Contains(opts.formats, opts.Format) {
		return fmt.Errorf("invalid format: %s (valid: %s)", opts.Format, strings.Join(opts.formats, ", "))
	}
	return nil
}

// Formatter opens the output destination and creates the formatter.
// The returned close function must be called once the report is written.
func (opts *CommonOptions) Formatter(source string) (output.Formatter, func(), error) {
	var w io.Writer = os.Stdout
	closeFn := func() {}
	color := !opts.NoColor && isTerminal(os.Stdout)

	if opts.OutFile != "" {
		//nolint:gosec // G304: User-controlled output file path is intentional
		file, err := os.Create(opts.OutFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create output file: %w", err)
		}
		w = file
		color = false
		closeFn = func() {
			_ = file.Close() // Best-effort cleanup
		}
	}

	f, err := output.NewFormatterFactory().Create(opts.Format, w, output.Options{
		Indent:      true,
		Color:       color,
		SourcePath:  source,
		ToolVersion: version.Get().String(),
	})
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return f, closeFn, nil
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
