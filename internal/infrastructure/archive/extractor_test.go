package archive

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestExtractor_Extract(t *testing.T) {
	base := t.TempDir()
	mpack := filepath.Join(t.TempDir(), "Foo_1.0.mpack")
	writeZip(t, mpack, map[string]string{
		"addin.info":       `<Addin id="Foo" version="1.0"/>`,
		"lib/Foo.dll":      "MZ",
		"lib/nested/x.dll": "MZ",
	})

	extracted, err := NewExtractor(base, nil).Extract(context.Background(), mpack)
	require.NoError(t, err)

	dir := extracted.Dir()
	assert.Equal(t, base, filepath.Dir(dir))
	data, err := os.ReadFile(filepath.Join(dir, "lib", "Foo.dll"))
	require.NoError(t, err)
	assert.Equal(t, "MZ", string(data))
	assert.FileExists(t, filepath.Join(dir, "lib", "nested", "x.dll"))
	assert.FileExists(t, filepath.Join(dir, "addin.info"))

	extracted.Dispose()
	assert.NoDirExists(t, dir)
	extracted.Dispose()
}

func TestExtractor_NotAnArchive(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(t.TempDir(), "broken.mpack")
	require.NoError(t, os.WriteFile(path, []byte("not a zip at all"), 0o600))

	_, err := NewExtractor(base, nil).Extract(context.Background(), path)
	require.Error(t, err)

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	assert.Empty(t, entries, "no extraction dir left behind")
}

func TestExtractor_MissingArchive(t *testing.T) {
	_, err := NewExtractor(t.TempDir(), nil).Extract(context.Background(), "/does/not/exist.mpack")
	assert.Error(t, err)
}

func TestSafeJoin(t *testing.T) {
	tests := []struct {
		name    string
		entry   string
		want    string
		wantErr bool
	}{
		{"plain", "lib/Foo.dll", filepath.Join("/x", "lib", "Foo.dll"), false},
		{"dot segments inside", "lib/../Foo.dll", filepath.Join("/x", "Foo.dll"), false},
		{"parent escape", "../evil.dll", "", true},
		{"deep escape", "lib/../../evil.dll", "", true},
		{"absolute", "/etc/passwd", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SafeJoin("/x", tt.entry)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsafePath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRemovable(t *testing.T) {
	assert.False(t, Removable(""))
	assert.False(t, Removable("/"))
	assert.False(t, Removable("/tmp"), "parent is the filesystem root")
	assert.True(t, Removable("/tmp/addin-compat-mpack-123"))
}
