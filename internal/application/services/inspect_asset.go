package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/assetkit-dev/assetkit/internal/application/dto"
	"github.com/assetkit-dev/assetkit/internal/application/ports"
)

// InspectAssetUseCase describes an asset: metadata, traits and scripts.
type InspectAssetUseCase struct {
	assets   ports.AssetProvider
	redactor ports.ValueRedactor
	logger   *slog.Logger
}

// NewInspectAssetUseCase creates a new inspect use case. Properties and
// trait values are passed through redactor when it is not nil.
func NewInspectAssetUseCase(assets ports.AssetProvider, redactor ports.ValueRedactor, logger *slog.Logger) *InspectAssetUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &InspectAssetUseCase{assets: assets, redactor: redactor, logger: logger}
}

// Execute loads the asset and reports its initial state.
func (uc *InspectAssetUseCase) Execute(ctx context.Context, req dto.InspectAssetRequest) (*dto.InspectAssetResponse, error) {
	startTime := time.Now()

	asset, err := uc.assets.Load(ctx, req.Asset)
	if err != nil {
		return nil, err
	}

	return &dto.InspectAssetResponse{
		Asset:      summarize(asset, req.Asset.Ref),
		Traits:     traitViews(asset.Traits(), uc.redactor),
		Scripts:    scriptViews(asset.Scripts()),
		Properties: redactProperties(uc.redactor, asset.Metadata().Properties),
		Metadata: dto.ResponseMetadata{
			RequestID:   req.Metadata.RequestID,
			ProcessedAt: time.Now(),
			Duration:    time.Since(startTime),
		},
	}, nil
}
