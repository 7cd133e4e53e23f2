package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/reglet-dev/addin-compat/internal/application/errors"
	"github.com/reglet-dev/addin-compat/internal/domain/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkdir(t *testing.T, parts ...string) string {
	t.Helper()
	dir := filepath.Join(parts...)
	require.NoError(t, os.MkdirAll(dir, 0o750))
	return dir
}

func TestScanService_Scan(t *testing.T) {
	root := t.TempDir()
	appDir := mkdir(t, root, "app")
	addinDir := mkdir(t, root, "addin")
	store := newFakeStore(root)

	engine := &fakeEngine{reports: map[string][]string{
		"":       {"A uses Foo"},
		addinDir: {"A uses Foo", "B uses Bar"},
	}}
	svc := NewScanService(engine, values.DefaultScanOptions(), nil)

	t.Run("app only", func(t *testing.T) {
		dest, err := store.Create("")
		require.NoError(t, err)
		defer dest.Dispose()

		report, err := svc.Scan(context.Background(), ScanTarget{AppDir: appDir}, dest)
		require.NoError(t, err)
		assert.Equal(t, []string{"A uses Foo"}, report.Lines())
	})

	t.Run("with addin", func(t *testing.T) {
		dest, err := store.Create("")
		require.NoError(t, err)
		defer dest.Dispose()

		report, err := svc.Scan(context.Background(), ScanTarget{AppDir: appDir, AddinDir: addinDir}, dest)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Len())
	})

	require.NotEmpty(t, engine.requests)
	assert.Equal(t, values.DefaultScanOptions(), engine.requests[0].Options)
}

func TestScanService_MissingDirectories(t *testing.T) {
	root := t.TempDir()
	appDir := mkdir(t, root, "app")
	store := newFakeStore(root)
	engine := &fakeEngine{}
	svc := NewScanService(engine, values.ScanOptions{}, nil)

	dest, err := store.Create("")
	require.NoError(t, err)
	defer dest.Dispose()

	tests := []struct {
		name   string
		target ScanTarget
		aspect string
	}{
		{"missing app dir", ScanTarget{AppDir: filepath.Join(root, "nope")}, "app-dir"},
		{"empty app dir", ScanTarget{}, "app-dir"},
		{"missing addin dir", ScanTarget{AppDir: appDir, AddinDir: filepath.Join(root, "nope")}, "addin-dir"},
		{"missing config", ScanTarget{AppDir: appDir, ConfigFile: filepath.Join(root, "nope.txt")}, "scanner-config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Scan(context.Background(), tt.target, dest)
			var cfgErr *apperrors.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.aspect, cfgErr.Aspect)
		})
	}
	assert.Empty(t, engine.requests, "engine must not run for invalid targets")
}

func TestScanService_EngineFailure(t *testing.T) {
	root := t.TempDir()
	appDir := mkdir(t, root, "app")
	store := newFakeStore(root)

	t.Run("non-zero exit keeps partial report", func(t *testing.T) {
		engine := &fakeEngine{
			reports:   map[string][]string{"": {"partial"}},
			exitCodes: map[string]int{"": 2},
		}
		dest, err := store.Create("")
		require.NoError(t, err)
		defer dest.Dispose()

		report, err := NewScanService(engine, values.ScanOptions{}, nil).
			Scan(context.Background(), ScanTarget{AppDir: appDir}, dest)

		var scanErr *apperrors.ScanError
		require.ErrorAs(t, err, &scanErr)
		assert.Contains(t, scanErr.Message, "exited with code 2")
		assert.Equal(t, []string{"partial"}, report.Lines())
	})

	t.Run("engine could not start", func(t *testing.T) {
		cause := errors.New("executable not found")
		engine := &fakeEngine{err: cause}
		dest, err := store.Create("")
		require.NoError(t, err)
		defer dest.Dispose()

		_, err = NewScanService(engine, values.ScanOptions{}, nil).
			Scan(context.Background(), ScanTarget{AppDir: appDir}, dest)
		assert.ErrorIs(t, err, cause)
	})
}

func TestScanService_NotPreemptedByCancellation(t *testing.T) {
	root := t.TempDir()
	appDir := mkdir(t, root, "app")
	store := newFakeStore(root)
	engine := &fakeEngine{reports: map[string][]string{"": {"A"}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dest, err := store.Create("")
	require.NoError(t, err)
	defer dest.Dispose()

	report, err := NewScanService(engine, values.ScanOptions{}, nil).Scan(ctx, ScanTarget{AppDir: appDir}, dest)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Len())
	require.Len(t, engine.ctxErrs, 1)
	assert.NoError(t, engine.ctxErrs[0])
}
