package output

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/assetkit-dev/assetkit/internal/application/dto"
)

// JUnitFormatter formats run and check reports as JUnit XML.
// Every script becomes one test case.
type JUnitFormatter struct {
	writer io.Writer
}

// NewJUnitFormatter creates a new JUnit formatter.
func NewJUnitFormatter(w io.Writer) *JUnitFormatter {
	return &JUnitFormatter{
		writer: w,
	}
}

// JUnitTestSuites JUnit XML structures
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Name       string           `xml:"name,attr"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

type JUnitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Skipped   int             `xml:"skipped,attr"`
	Time      float64         `xml:"time,attr"`
	TestCases []JUnitTestCase `xml:"testcase"`
}

type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Content string `xml:",chardata"`
}

type JUnitError struct {
	Message string `xml:"message,attr"`
	Content string `xml:",chardata"`
}

type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// FormatRun writes a run report. Failed scripts are failures, stopped
// scripts are errors and scripts that never ran are skipped.
func (f *JUnitFormatter) FormatRun(r *dto.RunAssetResponse) error {
	suite := JUnitTestSuite{
		Name:  r.Asset.Name,
		Tests: len(r.Scripts),
		Time:  r.Metadata.Duration.Seconds(),
	}

	for _, s := range r.Scripts {
		c := JUnitTestCase{
			Name:      s.Name,
			ClassName: r.Asset.Name + "." + s.Trigger,
		}
		switch s.Status {
		case dto.ScriptFailed:
			suite.Failures++
			c.Failure = &JUnitFailure{
				Message: s.Message,
				Content: strings.Join(s.Errors, "\n"),
			}
		case dto.ScriptStopped:
			suite.Errors++
			c.Error = &JUnitError{
				Message: s.Message,
				Content: strings.Join(s.Errors, "\n"),
			}
		case dto.ScriptNotRun:
			suite.Skipped++
			c.Skipped = &JUnitSkipped{Message: "script did not run"}
		}
		suite.TestCases = append(suite.TestCases, c)
	}

	return f.write(suite)
}

// FormatCheck writes a check report. Scripts that do not compile are failures.
func (f *JUnitFormatter) FormatCheck(r *dto.CheckScriptsResponse) error {
	suite := JUnitTestSuite{
		Name:     r.Asset.Name,
		Tests:    len(r.Scripts),
		Failures: r.Failures(),
		Time:     r.Metadata.Duration.Seconds(),
	}

	for _, s := range r.Scripts {
		c := JUnitTestCase{
			Name:      s.Name,
			ClassName: r.Asset.Name + "." + s.Trigger,
		}
		if !s.Valid {
			content := s.Error
			if s.Line > 0 {
				content = fmt.Sprintf("line %d: %s", s.Line, s.Error)
			}
			c.Failure = &JUnitFailure{
				Message: "script does not compile",
				Content: content,
			}
		}
		suite.TestCases = append(suite.TestCases, c)
	}

	return f.write(suite)
}

// FormatInspect is not supported by JUnit.
func (f *JUnitFormatter) FormatInspect(*dto.InspectAssetResponse) error {
	return fmt.Errorf("junit: inspect: %w", ErrUnsupportedReport)
}

// FormatPack is not supported by JUnit.
func (f *JUnitFormatter) FormatPack(*dto.PackAssetResponse) error {
	return fmt.Errorf("junit: pack: %w", ErrUnsupportedReport)
}

func (f *JUnitFormatter) write(suite JUnitTestSuite) error {
	suites := JUnitTestSuites{
		Name:       "AssetKit Scripts",
		Tests:      suite.Tests,
		Failures:   suite.Failures,
		Errors:     suite.Errors,
		Time:       suite.Time,
		TestSuites: []JUnitTestSuite{suite},
	}

	_, err := f.writer.Write([]byte(xml.Header))
	if err != nil {
		return err
	}

	encoder := xml.NewEncoder(f.writer)
	encoder.Indent("", "  ")
	if err := encoder.Encode(suites); err != nil {
		return err
	}

	_, err = f.writer.Write([]byte("\n"))
	return err
}
