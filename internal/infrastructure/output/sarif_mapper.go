package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/owenrumney/go-sarif/v3/pkg/report/v210/sarif"

	"github.com/assetkit-dev/assetkit/internal/application/dto"
)

// sarifFinding is one script outcome, independent of the report kind.
type sarifFinding struct {
	id      string
	name    string
	trigger string
	event   string
	message string
	level   string
	kind    string
	line    int
	props   map[string]any
}

func checkFindings(r *dto.CheckScriptsResponse) []sarifFinding {
	out := make([]sarifFinding, 0, len(r.Scripts))
	for _, s := range r.Scripts {
		f := sarifFinding{
			id:      s.ID,
			name:    s.Name,
			trigger: s.Trigger,
			event:   s.Event,
			level:   "note",
			kind:    "pass",
			message: fmt.Sprintf("Script %s compiles", s.Name),
			props:   map[string]any{"enabled": s.Enabled},
		}
		if !s.Valid {
			f.level = "error"
			f.kind = "fail"
			f.message = s.Error
			f.line = s.Line
		}
		out = append(out, f)
	}
	return out
}

func runFindings(r *dto.RunAssetResponse) []sarifFinding {
	out := make([]sarifFinding, 0, len(r.Scripts))
	for _, s := range r.Scripts {
		f := sarifFinding{
			id:      s.ID,
			name:    s.Name,
			trigger: s.Trigger,
			event:   s.Event,
			message: s.Message,
			props:   map[string]any{"runs": s.Runs, "status": string(s.Status)},
		}
		if len(s.Errors) > 0 {
			f.props["errors"] = s.Errors
		}
		switch s.Status {
		case dto.ScriptDone:
			f.level, f.kind = "note", "pass"
		case dto.ScriptFailed:
			f.level, f.kind = "error", "fail"
		case dto.ScriptStopped:
			f.level, f.kind = "warning", "fail"
		case dto.ScriptNotRun:
			f.level, f.kind = "none", "notApplicable"
		default:
			f.level, f.kind = "none", "informational"
		}
		if f.message == "" {
			f.message = fmt.Sprintf("Script %s is %s", s.Name, strings.ReplaceAll(string(s.Status), "_", " "))
		}
		out = append(out, f)
	}
	return out
}

type sarifMapper struct {
	asset    dto.AssetSummary
	path     string
	meta     dto.ResponseMetadata
	findings []sarifFinding
	cwd      string
}

func newSARIFMapper(asset dto.AssetSummary, path string, meta dto.ResponseMetadata, findings []sarifFinding) *sarifMapper {
	cwd, _ := os.Getwd() // Best effort, ignore error
	return &sarifMapper{
		asset:    asset,
		path:     path,
		meta:     meta,
		findings: findings,
		cwd:      cwd,
	}
}

// mapToRun populates the SARIF run with rules, results, artifacts, and invocations.
func (m *sarifMapper) mapToRun(run *sarif.Run) {
	m.addRules(run)
	m.addResults(run)
	m.addArtifact(run)
	m.addInvocation(run)
}

// addRules converts scripts to SARIF rules.
func (m *sarifMapper) addRules(run *sarif.Run) {
	for _, f := range m.findings {
		rule := sarif.NewReportingDescriptor().WithID(f.id)
		rule.WithName(f.name)

		short := f.name
		rule.WithShortDescription(&sarif.MultiformatMessageString{
			Text: &short,
		})
		full := fmt.Sprintf("%s script %s", f.trigger, f.name)
		if f.event != "" {
			full += " handling " + f.event
		}
		rule.WithFullDescription(&sarif.MultiformatMessageString{
			Text: &full,
		})
		rule.WithDefaultConfiguration(&sarif.ReportingConfiguration{
			Level: "error",
		})

		props := sarif.NewPropertyBag()
		props.WithTags([]string{f.trigger})
		if f.event != "" {
			props.Add("event", f.event)
		}
		rule.WithProperties(props)

		run.Tool.Driver.AddRule(rule)
	}
}

// addResults converts script outcomes to SARIF results.
func (m *sarifMapper) addResults(run *sarif.Run) {
	for _, f := range m.findings {
		result := sarif.NewRuleResult(f.id)
		result.Level = f.level
		result.Kind = f.kind
		result.Message = sarif.NewTextMessage(f.message)

		if loc := m.location(f.line); loc != nil {
			result.Locations = []*sarif.Location{loc}
		}

		props := sarif.NewPropertyBag()
		props.Add("asset", m.asset.GUID)
		for k, v := range f.props {
			props.Add(k, v)
		}
		result.WithProperties(props)

		run.AddResult(result)
	}
}

func (m *sarifMapper) location(line int) *sarif.Location {
	if m.path == "" {
		return nil
	}
	pLoc := sarif.NewPhysicalLocation().
		WithArtifactLocation(sarif.NewArtifactLocation().WithURI(m.normalizeURI(m.path)))
	if line > 0 {
		pLoc.WithRegion(sarif.NewRegion().WithStartLine(line))
	}
	return sarif.NewLocation().WithPhysicalLocation(pLoc)
}

// normalizeURI converts a file path to a SARIF-compliant URI.
func (m *sarifMapper) normalizeURI(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path) // Fallback to original
	}

	// Try to make relative to CWD
	if m.cwd != "" {
		if rel, err := filepath.Rel(m.cwd, abs); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return "file://" + filepath.ToSlash(abs)
}

func (m *sarifMapper) addArtifact(run *sarif.Run) {
	if m.path == "" {
		return
	}
	artifact := sarif.NewArtifact().
		WithLocation(sarif.NewArtifactLocation().WithURI(m.normalizeURI(m.path)))

	props := sarif.NewPropertyBag()
	props.Add("guid", m.asset.GUID)
	props.Add("name", m.asset.Name)
	props.Add("type", m.asset.Type)
	artifact.WithProperties(props)

	run.AddArtifact(artifact)
}

// addInvocation adds execution metadata to the run.
func (m *sarifMapper) addInvocation(run *sarif.Run) {
	invocation := sarif.NewInvocation()

	failed := false
	for _, f := range m.findings {
		if f.kind == "fail" {
			failed = true
			break
		}
	}
	invocation.ExecutionSuccessful = ptrBool(!failed)

	if !m.meta.ProcessedAt.IsZero() {
		end := m.meta.ProcessedAt.UTC()
		start := end.Add(-m.meta.Duration)
		startTime := start.Format("2006-01-02T15:04:05.000Z")
		endTime := end.Format("2006-01-02T15:04:05.000Z")
		invocation.StartTimeUtc = &startTime
		invocation.EndTimeUtc = &endTime
	}

	if hostname, err := os.Hostname(); err == nil {
		invocation.Machine = &hostname
	}
	if m.cwd != "" {
		cwd := "file://" + filepath.ToSlash(m.cwd)
		invocation.WorkingDirectory = sarif.NewArtifactLocation().WithURI(cwd)
	}

	props := sarif.NewPropertyBag()
	props.Add("assetGuid", m.asset.GUID)
	props.Add("assetName", m.asset.Name)
	if m.meta.RequestID != "" {
		props.Add("requestId", m.meta.RequestID)
	}
	invocation.WithProperties(props)

	run.AddInvocation(invocation)
}

func ptrBool(b bool) *bool {
	return &b
}
