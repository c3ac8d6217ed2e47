package output

import (
	"time"

	"github.com/assetkit-dev/assetkit/internal/application/dto"
)

var testAsset = dto.AssetSummary{
	GUID:         "0f8fad5b-d9cb-469f-a165-70867728950e",
	Name:         "Lamp",
	Type:         "Prop",
	Version:      "1.0.0",
	Origin:       "lamp.akpkg",
	ModelFile:    "model.glb",
	ModelBytes:   128,
	PreviewFile:  "preview.png",
	PreviewBytes: 64,
}

func testMetadata() dto.ResponseMetadata {
	return dto.ResponseMetadata{
		RequestID:   "req-1",
		ProcessedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:    1500 * time.Millisecond,
	}
}

func testCheckReport() *dto.CheckScriptsResponse {
	return &dto.CheckScriptsResponse{
		Asset: testAsset,
		Scripts: []dto.ScriptCheck{
			{ID: "s1", Name: "spin", Trigger: "OnLoad", Enabled: true, Valid: true},
			{ID: "s2", Name: "broken", Trigger: "OnEvent", Event: "click", Enabled: true, Error: "unexpected symbol", Line: 3},
		},
		Metadata: testMetadata(),
	}
}

func testRunReport() *dto.RunAssetResponse {
	return &dto.RunAssetResponse{
		Asset:   testAsset,
		Frames:  10,
		Allowed: true,
		Events:  []dto.EventDispatch{{Name: "click", Frame: 2, Started: 1}},
		Scripts: []dto.ScriptRun{
			{ID: "s1", Name: "spin", Trigger: "OnLoad", Status: dto.ScriptDone, Runs: 1, Output: []string{"hello"}},
			{ID: "s2", Name: "boom", Trigger: "OnUpdate", Status: dto.ScriptFailed, Runs: 1, Message: "attempt to index nil", Errors: []string{"attempt to index nil"}},
			{ID: "s3", Name: "idle", Trigger: "OnEvent", Event: "never", Status: dto.ScriptNotRun},
			{ID: "s4", Name: "halt", Trigger: "OnUpdate", Status: dto.ScriptStopped, Runs: 1, Message: "stopped"},
		},
		Traits:   []dto.TraitView{{Name: "Color", Type: "string", Value: "red"}},
		Metadata: testMetadata(),
		Diagnostics: dto.Diagnostics{
			Warnings: []string{"event \"late\" scheduled after the last frame was not fired"},
		},
	}
}
