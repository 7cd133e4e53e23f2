package bundle

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/reglet-dev/addin-compat/internal/application/errors"
	"github.com/reglet-dev/addin-compat/internal/infrastructure/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeBundle(t *testing.T, dir, version string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Contents"), 0o755))
	if version != "" {
		plist := `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0">
<dict>
	<key>CFBundleName</key>
	<string>Visual Studio</string>
	<key>CFBundleShortVersionString</key>
	<string>` + version + `</string>
</dict>
</plist>`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "Contents", "Info.plist"), []byte(plist), 0o600))
	}
	return dir
}

func TestLocator_Locate(t *testing.T) {
	root := t.TempDir()
	older := makeBundle(t, filepath.Join(root, "VS 17.5.app"), "17.5.0")
	newer := makeBundle(t, filepath.Join(root, "VS 17.6.app"), "17.6.1")
	noPlist := makeBundle(t, filepath.Join(root, "VS.app"), "")
	missing := filepath.Join(root, "Missing.app")

	tests := []struct {
		name    string
		cfg     system.BundlesConfig
		preview bool
		want    string
		wantErr bool
	}{
		{"single", system.BundlesConfig{Stable: []string{missing, older}}, false, older, false},
		{"highest version", system.BundlesConfig{Stable: []string{older, newer}}, false, newer, false},
		{"versioned bundle wins over unversioned", system.BundlesConfig{Stable: []string{noPlist, older}}, false, older, false},
		{"preview channel", system.BundlesConfig{Stable: []string{older}, Preview: []string{newer}}, true, newer, false},
		{"nothing installed", system.BundlesConfig{Stable: []string{missing}}, false, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewLocator(tt.cfg, nil).Locate(context.Background(), tt.preview)
			if tt.wantErr {
				var cfgErr *apperrors.ConfigurationError
				assert.ErrorAs(t, err, &cfgErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocator_FirstWhenNoVersions(t *testing.T) {
	root := t.TempDir()
	a := makeBundle(t, filepath.Join(root, "A.app"), "")
	b := makeBundle(t, filepath.Join(root, "B.app"), "")

	got, err := NewLocator(system.BundlesConfig{Stable: []string{b, a}}, nil).Locate(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestBundleVersion(t *testing.T) {
	dir := makeBundle(t, filepath.Join(t.TempDir(), "VS.app"), "17.6.1")
	v, err := BundleVersion(dir)
	require.NoError(t, err)
	assert.Equal(t, "17.6.1", v.String())

	_, err = BundleVersion(t.TempDir())
	assert.Error(t, err)
}
