package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/assetkit-dev/assetkit/internal/application/dto"
	"github.com/assetkit-dev/assetkit/internal/domain/values"
)

// watchDebounce collapses the burst of events an editor save produces.
const watchDebounce = 200 * time.Millisecond

type runOptions struct {
	CommonOptions

	Frames          int
	FPS             int
	Events          []string
	Mode            string
	HostContext     string
	Filter          string
	Exclude         []string
	Password        string
	Watch           bool
	RestartRunning  bool
	NoUpdateScripts bool
}

var runOpts = runOptions{CommonOptions: DefaultCommonOptions("table", "json", "yaml", "junit", "sarif")}

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <asset>",
	Short: "Load an asset and run its scripts",
	Long: `Load an asset from a directory, archive or CDN GUID, run its OnLoad scripts,
drive a number of host frames and report what every script did.

Events:
  --event click          Fire "click" right after OnLoad
  --event click@3        Fire "click" after the third frame

Filtering:
  --filter "trigger == 'OnUpdate'"   Only dispatch matching scripts
  --exclude spin,idle                 Never dispatch these scripts`,
	Args: cobra.ExactArgs(1),
	RunE: withContainer(func(cc *CommandContext, _ *cobra.Command, args []string) error {
		return runRunAction(cc, args[0], &runOpts)
	}),
}

func init() {
	rootCmd.AddCommand(runCmd)

	runOpts.RegisterFlags(runCmd)
	runCmd.Flags().IntVar(&runOpts.Frames, "frames", 1, "Number of host updates to run after OnLoad")
	runCmd.Flags().IntVar(&runOpts.FPS, "fps", 0, "Frames per second (0 runs frames back to back)")
	runCmd.Flags().StringArrayVar(&runOpts.Events, "event", nil, "Custom event to fire, as name[@frame] (repeatable)")
	runCmd.Flags().StringVar(&runOpts.Mode, "mode", "", "Execution mode: editor-only, runtime-only, both (default from system config)")
	runCmd.Flags().StringVar(&runOpts.HostContext, "context", "", "Host context: editor, runtime (default from system config)")
	runCmd.Flags().StringVar(&runOpts.Filter, "filter", "", "Filter expression over script fields (e.g. \"trigger == 'OnLoad'\")")
	runCmd.Flags().StringSliceVar(&runOpts.Exclude, "exclude", nil, "Script names or ids to skip (comma-separated)")
	runCmd.Flags().StringVar(&runOpts.Password, "password", "", "Password for an encrypted archive")
	runCmd.Flags().BoolVar(&runOpts.Watch, "watch", false, "Re-run whenever the asset path changes")
	runCmd.Flags().BoolVar(&runOpts.RestartRunning, "restart-running", false, "Restart a script whose trigger fires while it still runs")
	runCmd.Flags().BoolVar(&runOpts.NoUpdateScripts, "no-update-scripts", false, "Do not dispatch OnUpdate scripts")
}

// runRunAction implements the core logic for the run command
func runRunAction(cc *CommandContext, ref string, opts *runOptions) error {
	if err := opts.ValidateFlags(); err != nil {
		return err
	}
	req, err := buildRunRequest(cc, ref, opts)
	if err != nil {
		return err
	}

	if !opts.Watch {
		return runOnce(cc.Context, cc, req, opts)
	}

	ctx, stop := signal.NotifyContext(cc.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchAsset(ctx, cc, ref, func() {
		cc.Container.Loader().Evict(ref)
		req.Metadata.RequestID = uuid.NewString()
		if err := runOnce(ctx, cc, req, opts); err != nil {
			cc.Logger.Error("run failed", "error", err)
		}
	})
}

func buildRunRequest(cc *CommandContext, ref string, opts *runOptions) (dto.RunAssetRequest, error) {
	sys := cc.Container.SystemConfig()

	mode, err := sys.ExecutionMode()
	if opts.Mode != "" {
		mode, err = values.ParseExecutionMode(opts.Mode)
	}
	if err != nil {
		return dto.RunAssetRequest{}, err
	}
	hostCtx, err := sys.HostContext()
	if opts.HostContext != "" {
		hostCtx, err = values.ParseHostContext(opts.HostContext)
	}
	if err != nil {
		return dto.RunAssetRequest{}, err
	}

	events, err := parseEvents(opts.Events)
	if err != nil {
		return dto.RunAssetRequest{}, err
	}
	if opts.Frames < 0 {
		return dto.RunAssetRequest{}, errors.New("--frames must not be negative")
	}

	var interval time.Duration
	if opts.FPS > 0 {
		interval = time.Second / time.Duration(opts.FPS)
	}

	return dto.RunAssetRequest{
		Asset:    dto.LoadAssetRequest{Ref: ref, Password: opts.Password},
		Metadata: dto.RequestMetadata{RequestID: uuid.NewString()},
		Filters: dto.FilterOptions{
			FilterExpression: opts.Filter,
			ExcludeScripts:   opts.Exclude,
		},
		Execution: dto.ExecutionOptions{
			Mode:           mode,
			Context:        hostCtx,
			Budget:         sys.Budget(),
			HardLimit:      sys.HardLimit(),
			RestartRunning: opts.RestartRunning || sys.Execution.RestartRunning,
			UpdateScripts:  sys.Execution.UpdateScripts && !opts.NoUpdateScripts,
		},
		Events:   events,
		Frames:   opts.Frames,
		Interval: interval,
	}, nil
}

func runOnce(ctx context.Context, cc *CommandContext, req dto.RunAssetRequest, opts *runOptions) error {
	ctx, cancel := opts.ApplyToContext(ctx)
	defer cancel()

	resp, err := cc.Container.RunAssetUseCase().Execute(ctx, req)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	formatter, closeOut, err := opts.Formatter(req.Asset.Ref)
	if err != nil {
		return err
	}
	defer closeOut()
	if err := formatter.FormatRun(resp); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	// Return non-zero exit code if any script failed
	if failed := resp.Failed(); failed > 0 {
		return fmt.Errorf("run failed: %d of %d scripts failed", failed, len(resp.Scripts))
	}
	return nil
}

// parseEvents parses name[@frame] event flags.
func parseEvents(raw []string) ([]dto.EventRequest, error) {
	events := make([]dto.EventRequest, 0, len(raw))
	for _, spec := range raw {
		name, frame := spec, 0
		if i := strings.LastIndex(spec, "@"); i >= 0 {
			n, err := strconv.Atoi(spec[i+1:])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid event %q: frame must be a non-negative integer", spec)
			}
			name, frame = spec[:i], n
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("invalid event %q: empty name", spec)
		}
		events = append(events, dto.EventRequest{Name: name, Frame: frame})
	}
	return events, nil
}

// watchAsset calls rerun once and again after every change to the asset
// path, until ctx is done.
func watchAsset(ctx context.Context, cc *CommandContext, ref string, rerun func()) error {
	info, err := os.Stat(ref)
	if err != nil {
		return fmt.Errorf("--watch needs a local asset path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close() // Best-effort cleanup
	}()

	// Editors replace files on save, so a single file is watched via its directory.
	dir, only := ref, ""
	if !info.IsDir() {
		dir, only = filepath.Dir(ref), filepath.Clean(ref)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	rerun()
	cc.Logger.Info("watching for changes", "path", ref)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if only != "" && filepath.Clean(event.Name) != only {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			cc.Logger.Debug("asset changed", "file", event.Name, "op", event.Op.String())
			pending = time.After(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cc.Logger.Warn("watch error", "error", err)
		case <-pending:
			pending = nil
			rerun()
		}
	}
}
