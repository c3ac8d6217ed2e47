package services

import (
	"strings"

	"github.com/assetkit-dev/assetkit/internal/application/dto"
	"github.com/assetkit-dev/assetkit/internal/application/ports"
	"github.com/assetkit-dev/assetkit/internal/domain/entities"
	"github.com/assetkit-dev/assetkit/internal/domain/traits"
)

func summarize(a *entities.Asset, origin string) dto.AssetSummary {
	m := a.Metadata()
	s := dto.AssetSummary{
		GUID:        a.GUID().String(),
		Name:        a.Name(),
		Type:        a.TypeName(),
		Version:     m.Version,
		Author:      m.Author,
		Description: m.Description,
		Tags:        m.Tags,
		Origin:      origin,
	}
	if c := a.Model(); c != nil {
		s.ModelFile, s.ModelBytes = c.FileName, c.Size()
	}
	if c := a.Preview(); c != nil {
		s.PreviewFile, s.PreviewBytes = c.FileName, c.Size()
	}
	return s
}

func traitViews(set *traits.Set, r ports.ValueRedactor) []dto.TraitView {
	all := set.All()
	out := make([]dto.TraitView, 0, len(all))
	for _, t := range all {
		out = append(out, dto.TraitView{
			Name:  t.Name(),
			Type:  t.ValueType().String(),
			Value: redactValue(r, t.Value()),
		})
	}
	return out
}

func redactValue(r ports.ValueRedactor, v any) any {
	if r == nil {
		return v
	}
	return r.RedactValue(v)
}

func redactProperties(r ports.ValueRedactor, props map[string]any) map[string]any {
	if r == nil || props == nil {
		return props
	}
	if m, ok := r.RedactValue(props).(map[string]any); ok {
		return m
	}
	return props
}

func scriptViews(scripts []*entities.Script) []dto.ScriptView {
	out := make([]dto.ScriptView, 0, len(scripts))
	for _, s := range scripts {
		out = append(out, dto.ScriptView{
			ID:      s.ID.String(),
			Name:    s.Name,
			Trigger: s.Trigger.String(),
			Event:   s.CustomEvent,
			Enabled: s.Enabled,
			Lines:   strings.Count(s.Content, "\n") + 1,
		})
	}
	return out
}
