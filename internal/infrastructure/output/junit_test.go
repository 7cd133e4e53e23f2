package output

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJUnitFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJUnitFormatter(&buf).Format(createTestResult(t)))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, xml.Header))

	var suites JUnitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &suites))

	assert.Equal(t, 4, suites.Tests)
	assert.Equal(t, 1, suites.Failures)
	assert.Equal(t, 1, suites.Errors)
	require.Len(t, suites.TestSuites, 1)

	cases := suites.TestSuites[0].TestCases
	require.Len(t, cases, 4)

	assert.Equal(t, "Alpha 1.0", cases[0].Name)
	assert.Nil(t, cases[0].Failure)

	require.NotNil(t, cases[1].Failure)
	assert.Contains(t, cases[1].Failure.Content, HeaderNewLines)
	assert.Contains(t, cases[1].Failure.Content, "  Beta.dll uses Foo.Bar::Baz()")

	require.NotNil(t, cases[2].Error)
	assert.Equal(t, "scan engine exited with code 2", cases[2].Error.Message)

	require.NotNil(t, cases[3].Skipped)
	assert.Equal(t, "cancelled", cases[3].Skipped.Message)
}
