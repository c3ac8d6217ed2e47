package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/assetkit-dev/assetkit/internal/application/dto"
	apperrors "github.com/assetkit-dev/assetkit/internal/application/errors"
	"github.com/assetkit-dev/assetkit/internal/application/ports"
	"github.com/assetkit-dev/assetkit/internal/scripting/bridge"
	"github.com/assetkit-dev/assetkit/internal/scripting/hostenv"
	"github.com/assetkit-dev/assetkit/internal/scripting/session"
)

var compileLine = regexp.MustCompile(`line:(\d+)`)

// CheckScriptsUseCase compiles every script of an asset without running it.
type CheckScriptsUseCase struct {
	assets   ports.AssetProvider
	services *hostenv.Services
	logger   *slog.Logger
}

// NewCheckScriptsUseCase creates a new check scripts use case.
func NewCheckScriptsUseCase(assets ports.AssetProvider, svc *hostenv.Services, logger *slog.Logger) *CheckScriptsUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckScriptsUseCase{
		assets:   assets,
		services: svc,
		logger:   logger,
	}
}

// Execute loads the asset and compiles each script in its own sandbox.
// Disabled scripts are compiled too.
func (uc *CheckScriptsUseCase) Execute(ctx context.Context, req dto.CheckScriptsRequest) (*dto.CheckScriptsResponse, error) {
	startTime := time.Now()

	asset, err := uc.assets.Load(ctx, req.Asset)
	if err != nil {
		return nil, err
	}
	b, err := bridge.New(asset, uc.services)
	if err != nil {
		return nil, fmt.Errorf("create bridge: %w", err)
	}

	resp := &dto.CheckScriptsResponse{Asset: summarize(asset, req.Asset.Ref)}
	for _, s := range asset.Scripts() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		check := dto.ScriptCheck{
			ID:      s.ID.String(),
			Name:    s.Name,
			Trigger: s.Trigger.String(),
			Event:   s.CustomEvent,
			Enabled: s.Enabled,
			Valid:   true,
		}
		if err := s.Validate(); err != nil {
			check.Valid, check.Error = false, err.Error()
			resp.Scripts = append(resp.Scripts, check)
			continue
		}

		sess, err := session.New(s, b, uc.services, session.Options{})
		if err != nil {
			return nil, fmt.Errorf("create session for %s: %w", s.Label(), err)
		}
		if err := sess.Compile(); err != nil {
			check.Valid = false
			var scriptErr *apperrors.ScriptError
			if errors.As(err, &scriptErr) {
				check.Error = scriptErr.Message
				check.Line = errorLine(scriptErr.Message)
			} else {
				check.Error = err.Error()
			}
			uc.logger.Debug("script failed to compile", "script", s.ID.String(), "error", check.Error)
		}
		sess.Close()
		resp.Scripts = append(resp.Scripts, check)
	}

	if len(asset.Scripts()) == 0 {
		resp.Diagnostics.Warnings = append(resp.Diagnostics.Warnings, "asset has no scripts")
	}
	resp.Metadata = dto.ResponseMetadata{
		RequestID:   req.Metadata.RequestID,
		ProcessedAt: time.Now(),
		Duration:    time.Since(startTime),
	}
	uc.logger.Info("scripts checked", "asset", asset.GUID().String(), "scripts", len(resp.Scripts), "failures", resp.Failures())
	return resp, nil
}

func errorLine(msg string) int {
	m := compileLine.FindStringSubmatch(msg)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
