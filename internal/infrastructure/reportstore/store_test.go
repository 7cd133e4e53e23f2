package reportstore

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CreateTemporary(t *testing.T) {
	base := t.TempDir()
	store := New(base, nil)

	f, err := store.Create("")
	require.NoError(t, err)

	assert.Equal(t, reportFileName, filepath.Base(f.Path()))
	assert.Equal(t, base, filepath.Dir(filepath.Dir(f.Path())))
	assert.DirExists(t, filepath.Dir(f.Path()))

	require.NoError(t, f.WriteLines([]string{"A uses Foo", "B uses Bar"}))
	lines, err := f.ReadLines()
	require.NoError(t, err)
	assert.Equal(t, []string{"A uses Foo", "B uses Bar"}, lines)

	f.Dispose()
	assert.NoDirExists(t, filepath.Dir(f.Path()))

	// Dispose is idempotent.
	f.Dispose()
}

func TestStore_ConcurrentCreateIsCollisionFree(t *testing.T) {
	store := New(t.TempDir(), nil)

	const n = 16
	paths := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f, err := store.Create("")
			if assert.NoError(t, err) {
				paths[i] = f.Path()
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, p := range paths {
		assert.False(t, seen[p], "duplicate path %s", p)
		seen[p] = true
	}
}

func TestStore_CreatePreferredPath(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "nested", "dir", "baseline.txt")

	f, err := New("", nil).Create(target)
	require.NoError(t, err)
	assert.Equal(t, target, f.Path())
	assert.DirExists(t, filepath.Dir(target))

	require.NoError(t, f.WriteLines([]string{"x"}))
	f.Dispose()
	assert.FileExists(t, target, "preferred paths are never owned")
}

func TestFile_ReadLines(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, nil)

	tests := []struct {
		name    string
		content *string
		want    []string
	}{
		{"missing file", nil, []string{}},
		{"empty file", ptr(""), []string{}},
		{"lf", ptr("a\nb\n"), []string{"a", "b"}},
		{"crlf", ptr("a\r\nb\r\n"), []string{"a", "b"}},
		{"no trailing newline", ptr("a\nb"), []string{"a", "b"}},
		{"inner blank line kept", ptr("a\n\nb\n"), []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".txt")
			if tt.content != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tt.content), 0o600))
			}
			f, err := store.Create(path)
			require.NoError(t, err)

			lines, err := f.ReadLines()
			require.NoError(t, err)
			assert.Equal(t, tt.want, lines)
		})
	}
}

func TestStore_CreateDir(t *testing.T) {
	store := New(t.TempDir(), nil)

	dir, cleanup, err := store.CreateDir("diffs-*")
	require.NoError(t, err)
	assert.DirExists(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x"), []byte("x"), 0o600))

	cleanup()
	assert.NoDirExists(t, dir)
	cleanup()
}

func ptr(s string) *string { return &s }
