package entities

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAssetDestroyed is returned by operations on an asset that was already torn down.
var ErrAssetDestroyed = errors.New("asset already destroyed")

// ErrAssetNotInitialized is returned when an asset is used before its type hook ran.
var ErrAssetNotInitialized = errors.New("asset not initialized")

// MissingComponentError indicates one of the three core elements is absent.
type MissingComponentError struct {
	Kind ComponentKind
}

func (e *MissingComponentError) Error() string {
	return fmt.Sprintf("asset is missing its %s component", e.Kind)
}

// UnknownAssetTypeError indicates metadata named a type with no registered factory.
type UnknownAssetTypeError struct {
	Type  string
	Known []string
}

func (e *UnknownAssetTypeError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unknown asset type %q", e.Type)
	}
	return fmt.Sprintf("unknown asset type %q (registered: %s)", e.Type, strings.Join(e.Known, ", "))
}

// DuplicateScriptError indicates a script id is already attached to the asset.
type DuplicateScriptError struct {
	ID string
}

func (e *DuplicateScriptError) Error() string {
	return fmt.Sprintf("script %s already attached", e.ID)
}
