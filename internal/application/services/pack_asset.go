package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/assetkit-dev/assetkit/internal/application/dto"
	"github.com/assetkit-dev/assetkit/internal/application/ports"
)

// PackAssetUseCase builds an asset archive from an unpacked directory,
// optionally sealing it with a password.
type PackAssetUseCase struct {
	source   ports.AssetSource
	codec    ports.ArchiveCodec
	envelope ports.Envelope
	locator  ports.ComponentLocator
	parser   ports.MetadataParser
	logger   *slog.Logger
}

// NewPackAssetUseCase creates a new pack use case. source must resolve directories.
func NewPackAssetUseCase(
	source ports.AssetSource,
	codec ports.ArchiveCodec,
	envelope ports.Envelope,
	locator ports.ComponentLocator,
	parser ports.MetadataParser,
	logger *slog.Logger,
) *PackAssetUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &PackAssetUseCase{
		source:   source,
		codec:    codec,
		envelope: envelope,
		locator:  locator,
		parser:   parser,
		logger:   logger,
	}
}

// Execute validates the directory as an asset, then writes the archive.
func (uc *PackAssetUseCase) Execute(ctx context.Context, req dto.PackAssetRequest) (*dto.PackAssetResponse, error) {
	startTime := time.Now()

	if req.OutputPath == "" {
		return nil, errors.New("output path is required")
	}
	raw, err := uc.source.Fetch(ctx, req.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("read asset directory: %w", err)
	}
	if len(raw.Files) == 0 {
		return nil, fmt.Errorf("%s is not an asset directory", req.SourceDir)
	}

	// The directory must hold exactly what the loader expects.
	set, err := uc.locator.Locate(raw.Files)
	if err != nil {
		return nil, err
	}
	meta, err := uc.parser.Parse(set.Metadata.Data)
	if err != nil {
		return nil, err
	}
	files := map[string][]byte{
		set.Model.FileName:    set.Model.Data,
		set.Preview.FileName:  set.Preview.Data,
		set.Metadata.FileName: set.Metadata.Data,
	}

	data, err := uc.codec.Build(files)
	if err != nil {
		return nil, fmt.Errorf("build archive: %w", err)
	}
	sealed := req.Password != ""
	if sealed {
		if data, err = uc.envelope.Seal(data, req.Password); err != nil {
			return nil, fmt.Errorf("seal archive: %w", err)
		}
	}

	if dir := filepath.Dir(req.OutputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(req.OutputPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("write archive: %w", err)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)

	resp := &dto.PackAssetResponse{
		OutputPath: req.OutputPath,
		Files:      names,
		Bytes:      len(data),
		Sealed:     sealed,
		Metadata: dto.ResponseMetadata{
			ProcessedAt: time.Now(),
			Duration:    time.Since(startTime),
		},
	}
	if sealed {
		resp.ContentHash = ContentHash(data)
	}
	uc.logger.Info("asset packed", "guid", meta.GUID.String(), "output", req.OutputPath, "sealed", sealed)
	return resp, nil
}
