package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/reglet-dev/addin-compat/internal/application/dto"
	apperrors "github.com/reglet-dev/addin-compat/internal/application/errors"
	"github.com/reglet-dev/addin-compat/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaselineService_Show(t *testing.T) {
	root := t.TempDir()
	fooPath := filepath.Join(root, "Foo,1.0-diff.txt")
	require.NoError(t, os.WriteFile(fooPath, []byte("A uses Foo\nB uses Bar\n"), 0o600))

	lists := newFakeIgnoreLists()
	lists.entries = []dto.BaselineEntry{
		{LocalID: "Foo,1.0", Path: fooPath, Lines: 2},
		{LocalID: "Bar,1.0", Path: filepath.Join(root, "Bar,1.0-diff.txt")},
		{LocalID: "Bar,2.0", Path: filepath.Join(root, "Bar,2.0-diff.txt")},
	}
	svc := NewBaselineService(lists, newFakeStore(root), nil)

	t.Run("full identity", func(t *testing.T) {
		entry, lines, err := svc.Show(context.Background(), "Foo,1.0")
		require.NoError(t, err)
		assert.Equal(t, fooPath, entry.Path)
		assert.Equal(t, []string{"A uses Foo", "B uses Bar"}, lines)
	})

	t.Run("bare id", func(t *testing.T) {
		_, lines, err := svc.Show(context.Background(), "Foo")
		require.NoError(t, err)
		assert.Len(t, lines, 2)
	})

	t.Run("ambiguous id", func(t *testing.T) {
		_, _, err := svc.Show(context.Background(), "Bar")
		var valErr *apperrors.ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Equal(t, []string{"Bar,1.0", "Bar,2.0"}, valErr.Details)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, _, err := svc.Show(context.Background(), "Nope")
		assert.Error(t, err)
	})
}

func TestBaselineService_SaveAndReset(t *testing.T) {
	lists := newFakeIgnoreLists()
	svc := NewBaselineService(lists, newFakeStore(t.TempDir()), nil)

	saved, err := svc.Save(context.Background())
	require.NoError(t, err)
	assert.Empty(t, saved)
	assert.Zero(t, lists.saved, "nothing staged means nothing saved")
	assert.False(t, svc.HasPending())

	require.NoError(t, lists.Stage(entities.Addin{ID: "Foo", Version: "1.0"}, "/tmp/diff.txt"))
	assert.True(t, svc.HasPending())

	saved, err = svc.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Foo,1.0"}, saved)
	assert.False(t, svc.HasPending())

	require.NoError(t, svc.Reset(context.Background()))
	assert.Equal(t, 1, lists.reset)
}
