package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/assetkit-dev/assetkit/internal/application/dto"
	apperrors "github.com/assetkit-dev/assetkit/internal/application/errors"
	"github.com/assetkit-dev/assetkit/internal/application/ports"
	"github.com/assetkit-dev/assetkit/internal/domain/entities"
	"github.com/assetkit-dev/assetkit/internal/domain/services"
	"github.com/assetkit-dev/assetkit/internal/domain/values"
	"github.com/assetkit-dev/assetkit/internal/host"
	"github.com/assetkit-dev/assetkit/internal/scripting/engine"
	"github.com/assetkit-dev/assetkit/internal/scripting/hostenv"
)

// RunAssetUseCase loads an asset, attaches it to a host wrapper, drives a
// number of frames and reports what every script did.
type RunAssetUseCase struct {
	assets   ports.AssetProvider
	services *hostenv.Services
	redactor ports.ValueRedactor
	logger   *slog.Logger
}

// NewRunAssetUseCase creates a new run asset use case.
func NewRunAssetUseCase(assets ports.AssetProvider, svc *hostenv.Services, logger *slog.Logger) *RunAssetUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	uc := &RunAssetUseCase{
		assets:   assets,
		services: svc,
		logger:   logger,
	}
	if svc != nil {
		uc.redactor, _ = svc.Redactor.(ports.ValueRedactor)
	}
	return uc
}

// Execute runs the complete workflow. The wrapper is destroyed before it
// returns, which also destroys the asset.
func (uc *RunAssetUseCase) Execute(ctx context.Context, req dto.RunAssetRequest) (*dto.RunAssetResponse, error) {
	startTime := time.Now()

	// 1. Filters
	filter, err := BuildScriptFilter(req.Filters)
	if err != nil {
		return nil, err
	}

	// 2. Load
	uc.logger.Info("loading asset", "ref", req.Asset.Ref)
	asset, err := uc.assets.Load(ctx, req.Asset)
	if err != nil {
		return nil, err
	}

	// 3. Attach
	runs := newRunRecorder(asset.Scripts())
	w := host.New(uc.services, host.Options{
		Mode:          req.Execution.Mode,
		Context:       req.Execution.Context,
		UpdateScripts: req.Execution.UpdateScripts,
		Engine: engine.Config{
			Budget:         req.Execution.Budget,
			HardLimit:      req.Execution.HardLimit,
			Filter:         filter,
			RestartRunning: req.Execution.RestartRunning,
		},
		Observer: runs.complete,
	})
	defer func() {
		if err := w.Destroy(); err != nil {
			uc.logger.Warn("failed to destroy asset", "error", err)
		}
	}()
	if err := w.Attach(ctx, asset); err != nil {
		return nil, fmt.Errorf("attach asset: %w", err)
	}

	resp := &dto.RunAssetResponse{
		Asset:   summarize(asset, req.Asset.Ref),
		Allowed: w.ExecutionAllowed(),
	}
	if !resp.Allowed {
		resp.Diagnostics.Warnings = append(resp.Diagnostics.Warnings,
			fmt.Sprintf("scripts do not run in %s context with mode %s", req.Execution.Context, req.Execution.Mode))
	}

	// 4. Drive frames and fire events
	fire := func(frame int) error {
		for _, ev := range req.Events {
			if ev.Frame != frame {
				continue
			}
			started, err := w.TriggerEvent(ctx, ev.Name, ev.Data)
			if err != nil {
				return err
			}
			resp.Events = append(resp.Events, dto.EventDispatch{Name: ev.Name, Frame: frame, Started: started})
		}
		return nil
	}
	if err := fire(0); err != nil {
		return nil, err
	}
	for frame := 1; frame <= req.Frames; frame++ {
		if req.Interval > 0 {
			if err := w.Run(ctx, 1, req.Interval); err != nil {
				return nil, err
			}
		} else {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			w.Update(ctx)
		}
		if err := fire(frame); err != nil {
			return nil, err
		}
	}
	for _, ev := range req.Events {
		if ev.Frame > req.Frames {
			resp.Diagnostics.Warnings = append(resp.Diagnostics.Warnings,
				fmt.Sprintf("event %q scheduled after the last frame was not fired", ev.Name))
		}
	}

	// 5. Snapshot before teardown
	eng := w.Engine()
	resp.Frames = w.Frames()
	resp.Scripts = runs.report(eng)
	resp.Traits = traitViews(asset.Traits(), uc.redactor)
	resp.Metadata = dto.ResponseMetadata{
		RequestID:   req.Metadata.RequestID,
		ProcessedAt: time.Now(),
		Duration:    time.Since(startTime),
	}

	uc.logger.Info("asset run complete",
		"asset", asset.GUID().String(),
		"frames", resp.Frames,
		"failed", resp.Failed(),
	)
	return resp, nil
}

// BuildScriptFilter compiles the filter options into a script filter.
func BuildScriptFilter(opts dto.FilterOptions) (*services.ScriptFilter, error) {
	filter := services.NewScriptFilter().WithExcludedScripts(opts.ExcludeScripts)
	if opts.FilterExpression == "" {
		return filter, nil
	}
	program, err := services.CompileScriptFilter(opts.FilterExpression)
	if err != nil {
		return nil, &apperrors.ValidationError{
			Field:   "filter",
			Message: err.Error(),
		}
	}
	return filter.WithFilterExpression(program), nil
}

// runRecorder folds completions into per-script results.
type runRecorder struct {
	order   []values.ScriptID
	results map[values.ScriptID]*dto.ScriptRun
}

func newRunRecorder(scripts []*entities.Script) *runRecorder {
	r := &runRecorder{results: make(map[values.ScriptID]*dto.ScriptRun, len(scripts))}
	for _, s := range scripts {
		r.order = append(r.order, s.ID)
		r.results[s.ID] = &dto.ScriptRun{
			ID:      s.ID.String(),
			Name:    s.Name,
			Trigger: s.Trigger.String(),
			Event:   s.CustomEvent,
			Status:  dto.ScriptNotRun,
		}
	}
	return r
}

func (r *runRecorder) complete(c engine.Completion) {
	run, ok := r.results[c.ScriptID]
	if !ok {
		return
	}
	run.Runs++
	run.Message = c.Message
	switch {
	case c.Success:
		run.Status = dto.ScriptDone
	case c.Stopped:
		run.Status = dto.ScriptStopped
	default:
		run.Status = dto.ScriptFailed
	}
}

func (r *runRecorder) report(eng *engine.Engine) []dto.ScriptRun {
	out := make([]dto.ScriptRun, 0, len(r.order))
	for _, id := range r.order {
		run := *r.results[id]
		if eng != nil {
			if eng.IsRunning(id) {
				run.Status = dto.ScriptRunning
			}
			run.Output = eng.Output(id)
			run.Errors = eng.Errors(id)
		}
		out = append(out, run)
	}
	return out
}
