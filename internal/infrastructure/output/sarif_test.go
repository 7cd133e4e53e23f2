package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeSARIF(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	return raw
}

func TestSARIFFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewSARIFFormatter(&buf).Format(createTestResult(t)))

	raw := decodeSARIF(t, &buf)
	assert.Equal(t, "2.1.0", raw["version"])
	assert.Contains(t, raw, "$schema")

	runs := raw["runs"].([]interface{})
	require.Len(t, runs, 1)
	run := runs[0].(map[string]interface{})

	driver := run["tool"].(map[string]interface{})["driver"].(map[string]interface{})
	assert.Equal(t, "addin-compat", driver["name"])

	var ruleIDs []string
	for _, r := range driver["rules"].([]interface{}) {
		ruleIDs = append(ruleIDs, r.(map[string]interface{})["id"].(string))
	}
	assert.Equal(t, []string{RuleNewReference, RuleExpectedMissing, RuleScanError}, ruleIDs)

	results := run["results"].([]interface{})
	require.Len(t, results, 3, "one per added line, one per missing line, one per error")

	byRule := make(map[string]map[string]interface{})
	for _, r := range results {
		res := r.(map[string]interface{})
		byRule[res["ruleId"].(string)] = res
	}

	added := byRule[RuleNewReference]
	require.NotNil(t, added)
	assert.Equal(t, "error", added["level"])
	assert.Equal(t, "Beta.dll uses Foo.Bar::Baz()", added["message"].(map[string]interface{})["text"])

	missing := byRule[RuleExpectedMissing]
	require.NotNil(t, missing)
	assert.Equal(t, "warning", missing["level"])

	scanErr := byRule[RuleScanError]
	require.NotNil(t, scanErr)
	assert.Equal(t, "scan engine exited with code 2", scanErr["message"].(map[string]interface{})["text"])

	invocations := run["invocations"].([]interface{})
	require.Len(t, invocations, 1)
	assert.Equal(t, false, invocations[0].(map[string]interface{})["executionSuccessful"])
}

func TestSARIFMapper_NormalizeURI(t *testing.T) {
	m := &sarifMapper{cwd: "/work"}
	assert.Equal(t, "addins/Foo", m.normalizeURI("/work/addins/Foo"))
	assert.Equal(t, "file:///opt/addins/Foo", m.normalizeURI("/opt/addins/Foo"))
}
