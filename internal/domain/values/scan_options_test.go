package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanOptions_Args(t *testing.T) {
	assert.Equal(t, []string{"--report-intptr-constructors"}, DefaultScanOptions().Args())
	assert.Nil(t, ScanOptions{}.Args())
	assert.Equal(t, []string{
		"--report-intptr-constructors",
		"--report-version-mismatch",
		"--report-embedded-interop-types",
	}, ScanOptions{true, true, true}.Args())
}
