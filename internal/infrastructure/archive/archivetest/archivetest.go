// Package archivetest builds asset files and archives for tests.
package archivetest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/assetkit-dev/assetkit/internal/domain/entities"
	"github.com/assetkit-dev/assetkit/internal/domain/values"
)

// PNG is the smallest byte sequence recognized as a PNG image.
var PNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

// GLB is a binary glTF header.
var GLB = []byte("glTF\x02\x00\x00\x00\x0c\x00\x00\x00")

// Metadata returns a valid metadata record with the given scripts.
func Metadata(name, typ string, scripts ...*entities.Script) *entities.Metadata {
	return &entities.Metadata{
		GUID:    values.NewAssetGUID(),
		Name:    name,
		Type:    typ,
		Version: "1.0.0",
		Scripts: scripts,
	}
}

// Files returns the three core files of an asset directory.
func Files(t testing.TB, meta *entities.Metadata) map[string][]byte {
	t.Helper()
	doc, err := json.Marshal(meta)
	require.NoError(t, err)
	return map[string][]byte{
		"model.glb":     GLB,
		"preview.png":   PNG,
		"metadata.json": doc,
	}
}
