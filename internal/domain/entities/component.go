package entities

import (
	"path/filepath"
	"strings"
)

// ComponentKind names one of the three core elements of an asset.
type ComponentKind string

const (
	// ComponentModel is the 3D model file
	ComponentModel ComponentKind = "model"
	// ComponentPreview is the preview image
	ComponentPreview ComponentKind = "preview"
	// ComponentMetadata is the metadata document
	ComponentMetadata ComponentKind = "metadata"
)

// Component is a file extracted from an asset archive.
// The model component stands in for the host's visual representation.
type Component struct {
	Kind     ComponentKind
	FileName string
	Data     []byte
}

// NewComponent creates a component from a file name and its contents.
func NewComponent(kind ComponentKind, fileName string, data []byte) *Component {
	return &Component{Kind: kind, FileName: fileName, Data: data}
}

// Format returns the lower-case extension without the dot, e.g. "glb".
func (c *Component) Format() string {
	if c == nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(c.FileName)), ".")
}

// Size returns the payload size in bytes.
func (c *Component) Size() int {
	if c == nil {
		return 0
	}
	return len(c.Data)
}

// Release drops the payload.
func (c *Component) Release() {
	if c != nil {
		c.Data = nil
	}
}
