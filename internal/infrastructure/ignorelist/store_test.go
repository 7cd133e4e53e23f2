package ignorelist

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/reglet-dev/addin-compat/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addin(t *testing.T, id, version string) entities.Addin {
	t.Helper()
	a, err := entities.NewAddin(id, id, version, filepath.Join(t.TempDir(), id), entities.AddinSourceDirectory)
	require.NoError(t, err)
	return a
}

func diffFile(t *testing.T, lines string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "diff.txt")
	require.NoError(t, os.WriteFile(p, []byte(lines), 0o600))
	return p
}

func TestStore_StageAndSave(t *testing.T) {
	ctx := context.Background()
	store := New(t.TempDir(), nil)
	defer func() { _ = store.Close() }()

	foo := addin(t, "Foo", "1.0")
	bar := addin(t, "Bar", "2.0")

	_, ok := store.ExistingFile(foo)
	assert.False(t, ok)

	require.NoError(t, store.Stage(foo, diffFile(t, "C uses Baz\n")))
	require.NoError(t, store.Stage(bar, diffFile(t, "D uses Qux\nE uses Qux\n")))

	_, ok = store.ExistingFile(foo)
	assert.False(t, ok, "staging does not persist")

	pending := store.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, "Bar", pending[0].Name)

	saved, err := store.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bar,2.0", "Foo,1.0"}, saved)
	assert.Empty(t, store.Pending())

	path, ok := store.ExistingFile(foo)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(store.Dir(), "Foo,1.0-diff.txt"), path)

	lines, err := store.Load(bar)
	require.NoError(t, err)
	assert.Equal(t, []string{"D uses Qux", "E uses Qux"}, lines)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Bar,2.0", entries[0].LocalID)
	assert.Equal(t, 2, entries[0].Lines)
}

func TestStore_SaveReplacesEverything(t *testing.T) {
	ctx := context.Background()
	store := New(t.TempDir(), nil)
	defer func() { _ = store.Close() }()

	foo := addin(t, "Foo", "1.0")
	bar := addin(t, "Bar", "2.0")

	require.NoError(t, store.Stage(foo, diffFile(t, "old\n")))
	_, err := store.Save(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Stage(bar, diffFile(t, "new\n")))
	_, err = store.Save(ctx)
	require.NoError(t, err)

	_, ok := store.ExistingFile(foo)
	assert.False(t, ok, "lists from earlier saves are dropped")
	_, ok = store.ExistingFile(bar)
	assert.True(t, ok)
}

func TestStore_SaveWithNothingStagedKeepsLists(t *testing.T) {
	ctx := context.Background()
	store := New(t.TempDir(), nil)
	defer func() { _ = store.Close() }()

	foo := addin(t, "Foo", "1.0")
	require.NoError(t, store.Stage(foo, diffFile(t, "x\n")))
	_, err := store.Save(ctx)
	require.NoError(t, err)

	saved, err := store.Save(ctx)
	require.NoError(t, err)
	assert.Nil(t, saved)

	_, ok := store.ExistingFile(foo)
	assert.True(t, ok)
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	store := New(t.TempDir(), nil)
	defer func() { _ = store.Close() }()

	foo := addin(t, "Foo", "1.0")
	require.NoError(t, store.Stage(foo, diffFile(t, "x\n")))
	_, err := store.Save(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Reset(ctx))
	assert.NoDirExists(t, store.Dir())

	entries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	lines, err := store.Load(foo)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestStore_CloseDropsStaged(t *testing.T) {
	store := New(t.TempDir(), nil)
	foo := addin(t, "Foo", "1.0")
	require.NoError(t, store.Stage(foo, diffFile(t, "x\n")))
	staging := store.stagingDir

	require.NoError(t, store.Close())
	assert.NoDirExists(t, staging)
	assert.Empty(t, store.Pending())

	saved, err := store.Save(context.Background())
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestStore_StageMissingDiff(t *testing.T) {
	store := New(t.TempDir(), nil)
	defer func() { _ = store.Close() }()

	err := store.Stage(addin(t, "Foo", "1.0"), filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
	assert.Empty(t, store.Pending())
}
