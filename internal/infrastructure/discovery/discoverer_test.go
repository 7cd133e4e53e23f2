package discovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestParseManifest(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantID  string
		wantNm  string
		wantVer string
		wantErr bool
	}{
		{"namespaced", `<Addin id="Foo" namespace="Acme" name="Foo Tools" version="1.2.0"/>`, "Acme.Foo", "Foo Tools", "1.2.0", false},
		{"name defaults to id", `<Addin id="Bar" version="2.0"><Runtime/></Addin>`, "Bar", "Bar", "2.0", false},
		{"missing id", `<Addin name="X"/>`, "", "", "", true},
		{"not xml", `{}`, "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := filepath.Join(dir, tt.name+".addin.xml")
			writeFile(t, p, tt.content)

			m, err := ParseManifest(p)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, m.ID)
			assert.Equal(t, tt.wantNm, m.Name)
			assert.Equal(t, tt.wantVer, m.Version)
		})
	}
}

func TestFindManifest(t *testing.T) {
	dir := t.TempDir()
	got, err := FindManifest(dir)
	require.NoError(t, err)
	assert.Empty(t, got)

	writeFile(t, filepath.Join(dir, "Foo.addin.xml"), `<Addin id="Foo"/>`)
	got, err = FindManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Foo.addin.xml"), got)

	writeFile(t, filepath.Join(dir, "addin.info"), `<Addin id="Foo"/>`)
	got, err = FindManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "addin.info"), got)
}

func TestDiscoverer_Discover(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "foo-1.0", "addin.xml"), `<Addin id="Foo" name="Foo" version="1.0"/>`)
	writeFile(t, filepath.Join(root, "foo-1.10", "addin.xml"), `<Addin id="Foo" name="Foo" version="1.10"/>`)
	writeFile(t, filepath.Join(root, "bar", "Bar.addin.xml"), `<Addin id="Bar" name="bar" version="3.0"/>`)
	writeFile(t, filepath.Join(root, "broken", "addin.xml"), `not xml`)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))
	writeFile(t, filepath.Join(root, "loose.txt"), "x")

	addins, err := NewDiscoverer(nil).Discover(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, addins, 2)

	assert.Equal(t, "bar", addins[0].Name)
	assert.Equal(t, "Foo", addins[1].Name)
	assert.Equal(t, "1.10", addins[1].Version, "semver picks 1.10 over 1.0")
	assert.Equal(t, filepath.Join(root, "foo-1.10"), addins[1].Location)
}

func TestDiscoverer_DiscoverMissingRoot(t *testing.T) {
	_, err := NewDiscoverer(nil).Discover(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestDiscoverer_FindArchives(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(a, "z.mpack"), "")
	writeFile(t, filepath.Join(a, "nested", "y.MPACK"), "")
	writeFile(t, filepath.Join(a, "notes.txt"), "")
	writeFile(t, filepath.Join(b, "x.zip"), "")

	got, err := NewDiscoverer(nil).FindArchives(context.Background(), []string{a, b}, []string{".mpack", ".zip"})
	require.NoError(t, err)

	want := []string{
		filepath.Join(a, "nested", "y.MPACK"),
		filepath.Join(a, "z.mpack"),
		filepath.Join(b, "x.zip"),
	}
	assert.ElementsMatch(t, want, got)
	assert.IsIncreasing(t, got)
}

func TestNewerVersion(t *testing.T) {
	assert.True(t, NewerVersion("1.10", "1.9"))
	assert.False(t, NewerVersion("1.0.0", "1.0.0"))
	assert.True(t, NewerVersion("17.6.1", "17.6.0-preview"))
	assert.True(t, NewerVersion("b", "a"), "non-semver falls back to string order")
}
