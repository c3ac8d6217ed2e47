package output

import (
	"bytes"
	"errors"
	"testing"

	"github.com/owenrumney/go-sarif/v3/pkg/report/v210/sarif"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetkit-dev/assetkit/internal/application/dto"
)

func TestSARIFFormatter_FormatCheck(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, NewSARIFFormatter(&buf, "lamp.akpkg", "1.2.3").FormatCheck(testCheckReport()))

	report, err := sarif.FromBytes(buf.Bytes())
	require.NoError(t, err)
	require.NoError(t, report.Validate())
	require.Len(t, report.Runs, 1)

	run := report.Runs[0]
	require.NotNil(t, run.Tool.Driver.Version)
	assert.Equal(t, "1.2.3", *run.Tool.Driver.Version)
	assert.Len(t, run.Tool.Driver.Rules, 2)
	require.Len(t, run.Results, 2)

	pass, fail := run.Results[0], run.Results[1]
	assert.Equal(t, "pass", pass.Kind)
	assert.Equal(t, "note", pass.Level)
	assert.Equal(t, "fail", fail.Kind)
	assert.Equal(t, "error", fail.Level)
	require.NotNil(t, fail.Message.Text)
	assert.Equal(t, "unexpected symbol", *fail.Message.Text)

	require.Len(t, fail.Locations, 1)
	loc := fail.Locations[0].PhysicalLocation
	require.NotNil(t, loc)
	assert.Equal(t, "lamp.akpkg", *loc.ArtifactLocation.URI)
	require.NotNil(t, loc.Region)
	assert.Equal(t, 3, *loc.Region.StartLine)

	require.Len(t, run.Invocations, 1)
	require.NotNil(t, run.Invocations[0].ExecutionSuccessful)
	assert.False(t, *run.Invocations[0].ExecutionSuccessful)
}

func TestSARIFFormatter_FormatRun(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, NewSARIFFormatter(&buf, "", "").FormatRun(testRunReport()))

	report, err := sarif.FromBytes(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, report.Runs, 1)
	results := report.Runs[0].Results
	require.Len(t, results, 4)

	kinds := make([]string, 0, len(results))
	for _, r := range results {
		kinds = append(kinds, r.Kind)
	}
	assert.Equal(t, []string{"pass", "fail", "notApplicable", "fail"}, kinds)
	assert.Equal(t, "warning", results[3].Level)
}

func TestSARIFFormatter_Unsupported(t *testing.T) {
	t.Parallel()
	f := NewSARIFFormatter(&bytes.Buffer{}, "", "")
	assert.True(t, errors.Is(f.FormatInspect(&dto.InspectAssetResponse{}), ErrUnsupportedReport))
	assert.True(t, errors.Is(f.FormatPack(&dto.PackAssetResponse{}), ErrUnsupportedReport))
}

func TestSARIFMapper_NormalizeURI(t *testing.T) {
	t.Parallel()
	m := &sarifMapper{cwd: "/work"}
	assert.Equal(t, "https://cdn.example/assets/x", m.normalizeURI("https://cdn.example/assets/x"))
	assert.Equal(t, "assets/lamp.akpkg", m.normalizeURI("/work/assets/lamp.akpkg"))
	assert.Equal(t, "file:///other/lamp.akpkg", m.normalizeURI("/other/lamp.akpkg"))
}
