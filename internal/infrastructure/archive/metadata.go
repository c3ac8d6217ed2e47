package archive

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	apperrors "github.com/assetkit-dev/assetkit/internal/application/errors"
	"github.com/assetkit-dev/assetkit/internal/application/ports"
	"github.com/assetkit-dev/assetkit/internal/domain/entities"
)

//go:embed schema/metadata.schema.json
var metadataSchema []byte

const schemaURL = "metadata.schema.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(schemaURL, bytes.NewReader(metadataSchema)); err != nil {
			compileErr = fmt.Errorf("failed to add metadata schema: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile(schemaURL)
	})
	return compiled, compileErr
}

// MetadataParser decodes metadata documents, validating them against the
// embedded JSON Schema before the domain checks run.
type MetadataParser struct{}

var _ ports.MetadataParser = MetadataParser{}

// Parse decodes and validates a metadata document.
func (MetadataParser) Parse(data []byte) (*entities.Metadata, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &apperrors.ValidationError{Field: "metadata", Message: "invalid JSON: " + err.Error()}
	}
	s, err := schema()
	if err != nil {
		return nil, err
	}
	if err := s.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return nil, schemaError(verr)
		}
		return nil, fmt.Errorf("metadata validation failed: %w", err)
	}

	var meta entities.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, &apperrors.ValidationError{Field: "metadata", Message: err.Error()}
	}
	if err := meta.Validate(); err != nil {
		return nil, &apperrors.ValidationError{Field: "metadata", Message: err.Error()}
	}
	return &meta, nil
}

func schemaError(err *jsonschema.ValidationError) error {
	var details []string
	var collect func(*jsonschema.ValidationError)
	collect = func(e *jsonschema.ValidationError) {
		if e.Message != "" && len(e.Causes) == 0 {
			location := e.InstanceLocation
			if location == "" {
				location = "(root)"
			}
			details = append(details, fmt.Sprintf("%s: %s", location, e.Message))
		}
		for _, cause := range e.Causes {
			collect(cause)
		}
	}
	collect(err)
	if len(details) == 0 {
		details = []string{err.Message}
	}
	return &apperrors.ValidationError{
		Field:   "metadata",
		Message: strings.Join(details, "; "),
		Details: details,
	}
}
