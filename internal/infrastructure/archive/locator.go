package archive

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/h2non/filetype"

	"github.com/assetkit-dev/assetkit/internal/application/ports"
	"github.com/assetkit-dev/assetkit/internal/domain/entities"
)

// Accepted extensions per component.
var (
	ModelExtensions    = []string{".glb", ".gltf", ".fbx", ".obj"}
	PreviewExtensions  = []string{".jpg", ".jpeg", ".png"}
	MetadataExtensions = []string{".json", ".txt"}
)

// Locator picks the three core files by extension and verifies that the
// preview really is an image.
type Locator struct{}

var _ ports.ComponentLocator = Locator{}

// Locate requires exactly one file of each kind. Other files are ignored.
func (Locator) Locate(files map[string][]byte) (*ports.ComponentSet, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)

	pick := func(kind entities.ComponentKind, exts []string) (*entities.Component, error) {
		var found []string
		for _, name := range names {
			if slices.Contains(exts, strings.ToLower(filepath.Ext(name))) {
				found = append(found, name)
			}
		}
		switch len(found) {
		case 0:
			return nil, &entities.MissingComponentError{Kind: kind}
		case 1:
			return entities.NewComponent(kind, found[0], files[found[0]]), nil
		default:
			return nil, fmt.Errorf("expected one %s file, found %d: %s", kind, len(found), strings.Join(found, ", "))
		}
	}

	model, err := pick(entities.ComponentModel, ModelExtensions)
	if err != nil {
		return nil, err
	}
	preview, err := pick(entities.ComponentPreview, PreviewExtensions)
	if err != nil {
		return nil, err
	}
	metadata, err := pick(entities.ComponentMetadata, MetadataExtensions)
	if err != nil {
		return nil, err
	}

	for _, c := range []*entities.Component{model, preview, metadata} {
		if len(c.Data) == 0 {
			return nil, fmt.Errorf("%s file %s is empty", c.Kind, c.FileName)
		}
	}
	if err := checkPreview(preview); err != nil {
		return nil, err
	}
	return &ports.ComponentSet{Model: model, Preview: preview, Metadata: metadata}, nil
}

func checkPreview(c *entities.Component) error {
	kind, err := filetype.Match(c.Data)
	if err != nil {
		return fmt.Errorf("preview %s: %w", c.FileName, err)
	}
	if kind == filetype.Unknown || !filetype.IsImage(c.Data) {
		return errors.New("preview " + c.FileName + " is not an image")
	}
	switch kind.Extension {
	case "jpg", "png":
		return nil
	default:
		return fmt.Errorf("preview %s is %s, want jpeg or png", c.FileName, kind.MIME.Value)
	}
}
