package output

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetkit-dev/assetkit/internal/application/dto"
)

func decodeJUnit(t *testing.T, data []byte) JUnitTestSuites {
	t.Helper()
	var suites JUnitTestSuites
	require.NoError(t, xml.Unmarshal(data, &suites))
	require.Len(t, suites.TestSuites, 1)
	return suites
}

func TestJUnitFormatter_FormatCheck(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, NewJUnitFormatter(&buf).FormatCheck(testCheckReport()))
	assert.True(t, strings.HasPrefix(buf.String(), xml.Header))

	suites := decodeJUnit(t, buf.Bytes())
	assert.Equal(t, 2, suites.Tests)
	assert.Equal(t, 1, suites.Failures)

	suite := suites.TestSuites[0]
	assert.Equal(t, "Lamp", suite.Name)
	require.Len(t, suite.TestCases, 2)
	assert.Nil(t, suite.TestCases[0].Failure)
	require.NotNil(t, suite.TestCases[1].Failure)
	assert.Equal(t, "line 3: unexpected symbol", suite.TestCases[1].Failure.Content)
	assert.Equal(t, "Lamp.OnEvent", suite.TestCases[1].ClassName)
}

func TestJUnitFormatter_FormatRun(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, NewJUnitFormatter(&buf).FormatRun(testRunReport()))

	suite := decodeJUnit(t, buf.Bytes()).TestSuites[0]
	assert.Equal(t, 4, suite.Tests)
	assert.Equal(t, 1, suite.Failures)
	assert.Equal(t, 1, suite.Errors)
	assert.Equal(t, 1, suite.Skipped)
	assert.InDelta(t, 1.5, suite.Time, 0.001)
	require.NotNil(t, suite.TestCases[1].Failure)
	assert.Equal(t, "attempt to index nil", suite.TestCases[1].Failure.Message)
	assert.NotNil(t, suite.TestCases[2].Skipped)
	assert.NotNil(t, suite.TestCases[3].Error)
}

func TestJUnitFormatter_Unsupported(t *testing.T) {
	t.Parallel()
	f := NewJUnitFormatter(&bytes.Buffer{})
	assert.True(t, errors.Is(f.FormatInspect(&dto.InspectAssetResponse{}), ErrUnsupportedReport))
	assert.True(t, errors.Is(f.FormatPack(&dto.PackAssetResponse{}), ErrUnsupportedReport))
}
