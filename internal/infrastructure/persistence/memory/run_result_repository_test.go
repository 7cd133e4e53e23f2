package memory

import (
	"context"
	"testing"
	"time"

	"github.com/reglet-dev/addin-compat/internal/domain/execution"
	"github.com/reglet-dev/addin-compat/internal/domain/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunResultRepository_SaveAndFind(t *testing.T) {
	repo := NewRunResultRepository()
	ctx := context.Background()

	id := values.NewRunID()
	result := execution.NewRunResultWithID(id, "/app")

	require.NoError(t, repo.Save(ctx, result))

	found, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "/app", found.AppDir)
	assert.True(t, found.RunID.Equals(id))

	_, err = repo.FindByID(ctx, values.NewRunID())
	assert.Error(t, err)

	assert.Error(t, repo.Save(ctx, nil))
}

func TestRunResultRepository_FindByAppDir(t *testing.T) {
	repo := NewRunResultRepository()
	ctx := context.Background()

	now := time.Now()
	r1 := execution.NewRunResult("/app-a")
	r1.StartTime = now.Add(-3 * time.Hour)
	r2 := execution.NewRunResult("/app-a")
	r2.StartTime = now.Add(-2 * time.Hour)
	r3 := execution.NewRunResult("/app-a")
	r3.StartTime = now.Add(-1 * time.Hour)
	r4 := execution.NewRunResult("/app-b")

	for _, r := range []*execution.RunResult{r1, r2, r3, r4} {
		require.NoError(t, repo.Save(ctx, r))
	}

	results, err := repo.FindByAppDir(ctx, "/app-a", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, r3.RunID, results[0].RunID)
	assert.Equal(t, r2.RunID, results[1].RunID)

	results, err = repo.FindByAppDir(ctx, "/app-a", 0)
	require.NoError(t, err)
	assert.Len(t, results, 3)

	results, err = repo.FindByAppDir(ctx, "/nope", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}
