package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/reglet-dev/addin-compat/internal/application/ports"
	"github.com/reglet-dev/addin-compat/internal/domain/entities"
	domainServices "github.com/reglet-dev/addin-compat/internal/domain/services"
	"github.com/reglet-dev/addin-compat/internal/domain/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkerFixture struct {
	root     string
	appDir   string
	addinDir string
	store    *fakeStore
	engine   *fakeEngine
	checker  *InProcessChecker
	addin    entities.Addin
}

func newCheckerFixture(t *testing.T, candidate []string) *checkerFixture {
	t.Helper()
	root := t.TempDir()
	f := &checkerFixture{
		root:     root,
		appDir:   mkdir(t, root, "app"),
		addinDir: mkdir(t, root, "Foo"),
		store:    newFakeStore(root),
	}
	f.engine = &fakeEngine{reports: map[string][]string{f.addinDir: candidate}}
	f.checker = NewInProcessChecker(NewScanService(f.engine, values.DefaultScanOptions(), nil), f.store, nil)

	addin, err := entities.NewAddin("Foo", "Foo", "1.0", f.addinDir, entities.AddinSourceDirectory)
	require.NoError(t, err)
	f.addin = addin
	return f
}

func (f *checkerFixture) check(baseline []string) ports.AddinCheck {
	report := entities.NewReport(baseline)
	return ports.AddinCheck{
		Addin:          f.addin,
		AppDir:         f.appDir,
		AddinDir:       f.addinDir,
		Baseline:       &report,
		DiffOutputFile: filepath.Join(f.root, "out", "Foo-diff.txt"),
	}
}

func TestInProcessChecker_Pass(t *testing.T) {
	f := newCheckerFixture(t, []string{"A uses Foo"})

	outcome, err := f.checker.CheckAddin(context.Background(), f.check([]string{"A uses Foo", "B uses Bar"}))
	require.NoError(t, err)

	assert.Equal(t, values.StatusPass, outcome.Status)
	assert.Empty(t, outcome.Message)
	assert.Empty(t, outcome.DiffFile, "no diff is written when there are no new lines")
	assert.Empty(t, f.store.leftovers(), "candidate report dir must be removed")
}

func TestInProcessChecker_FailWritesDiff(t *testing.T) {
	f := newCheckerFixture(t, []string{"A uses Foo", "C uses Baz"})

	outcome, err := f.checker.CheckAddin(context.Background(), f.check([]string{"A uses Foo"}))
	require.NoError(t, err)

	assert.Equal(t, values.StatusFail, outcome.Status)
	require.NotNil(t, outcome.Comparison)
	assert.Equal(t, []string{"C uses Baz"}, outcome.Comparison.Added)
	assert.Contains(t, outcome.Message, MessageReportDiffers)
	assert.Contains(t, outcome.Message, HeaderNewLines+"\nC uses Baz")

	data, err := os.ReadFile(outcome.DiffFile)
	require.NoError(t, err)
	assert.Equal(t, "C uses Baz\n", string(data))
}

func TestInProcessChecker_IgnoreFile(t *testing.T) {
	f := newCheckerFixture(t, []string{"A uses Foo", "C uses Baz"})
	ignore := filepath.Join(f.root, "ignore.txt")
	require.NoError(t, os.WriteFile(ignore, []byte("C uses Baz\n"), 0o600))

	check := f.check([]string{"A uses Foo"})
	check.IgnoreFile = ignore

	outcome, err := f.checker.CheckAddin(context.Background(), check)
	require.NoError(t, err)
	assert.Equal(t, values.StatusPass, outcome.Status)

	data, err := os.ReadFile(outcome.DiffFile)
	require.NoError(t, err)
	assert.Equal(t, "C uses Baz\n", string(data), "diff holds new lines before ignore filtering")
}

func TestInProcessChecker_BaselineFromFile(t *testing.T) {
	f := newCheckerFixture(t, []string{"A uses Foo", "C uses Baz"})
	baselineFile := filepath.Join(f.root, "baseline.txt")
	require.NoError(t, os.WriteFile(baselineFile, []byte("A uses Foo\nC uses Baz\n"), 0o600))

	check := f.check(nil)
	check.Baseline = nil
	check.BaselineFile = baselineFile

	outcome, err := f.checker.CheckAddin(context.Background(), check)
	require.NoError(t, err)
	assert.Equal(t, values.StatusPass, outcome.Status)
}

func TestInProcessChecker_ScanErrorPropagates(t *testing.T) {
	f := newCheckerFixture(t, []string{"A"})
	f.engine.exitCodes = map[string]int{f.addinDir: 3}

	_, err := f.checker.CheckAddin(context.Background(), f.check([]string{"A"}))
	assert.Error(t, err)
}

func TestFormatComparisonFailure(t *testing.T) {
	msg := FormatComparisonFailure(domainServices.ComparisonResult{
		Added:   []string{"new1", "new2"},
		Removed: []string{"gone"},
	})

	assert.Equal(t, MessageReportDiffers+"\n"+
		HeaderMissingLines+"\ngone\n"+
		HeaderNewLines+"\nnew1\nnew2", msg)
}

func TestInProcessBaselineGenerator(t *testing.T) {
	root := t.TempDir()
	appDir := mkdir(t, root, "app")
	store := newFakeStore(root)
	engine := &fakeEngine{reports: map[string][]string{"": {"A", "B"}}}
	gen := NewInProcessBaselineGenerator(NewScanService(engine, values.ScanOptions{}, nil), store)

	out := filepath.Join(root, "nested", "baseline.txt")
	report, err := gen.GenerateBaseline(context.Background(), ports.BaselineRequest{AppDir: appDir, OutputFile: out})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, report.Lines())
	assert.FileExists(t, out)
}
