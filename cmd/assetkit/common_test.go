package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetkit-dev/assetkit/internal/application/dto"
)

func TestCommonOptions_ValidateFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{"table", "table", false},
		{"sarif", "sarif", false},
		{"unknown", "xml", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts := DefaultCommonOptions("table", "json", "sarif")
			opts.Format = tt.format
			err := opts.ValidateFlags()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid format")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCommonOptions_ApplyToContext(t *testing.T) {
	t.Parallel()

	t.Run("with timeout", func(t *testing.T) {
		t.Parallel()
		opts := CommonOptions{Timeout: time.Minute}
		ctx, cancel := opts.ApplyToContext(context.Background())
		defer cancel()
		_, ok := ctx.Deadline()
		assert.True(t, ok)
	})

	t.Run("without timeout", func(t *testing.T) {
		t.Parallel()
		opts := CommonOptions{}
		ctx, cancel := opts.ApplyToContext(context.Background())
		defer cancel()
		_, ok := ctx.Deadline()
		assert.False(t, ok)
	})
}

func TestCommonOptions_FormatterWritesFile(t *testing.T) {
	t.Parallel()
	out := filepath.Join(t.TempDir(), "report.json")
	opts := DefaultCommonOptions("json")
	opts.Format = "json"
	opts.OutFile = out

	f, closeOut, err := opts.Formatter("asset")
	require.NoError(t, err)
	require.NoError(t, f.FormatPack(&dto.PackAssetResponse{OutputPath: "lamp.akz", Files: []string{"model.glb"}}))
	closeOut()

	assert.FileExists(t, out)
}

func Test_parseEvents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     []string
		want    []dto.EventRequest
		wantErr bool
	}{
		{"none", nil, []dto.EventRequest{}, false},
		{"name only", []string{"click"}, []dto.EventRequest{{Name: "click"}}, false},
		{"with frame", []string{"click@3"}, []dto.EventRequest{{Name: "click", Frame: 3}}, false},
		{"last at wins", []string{"a@b@2"}, []dto.EventRequest{{Name: "a@b", Frame: 2}}, false},
		{"bad frame", []string{"click@x"}, nil, true},
		{"negative frame", []string{"click@-1"}, nil, true},
		{"empty name", []string{"@2"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseEvents(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
