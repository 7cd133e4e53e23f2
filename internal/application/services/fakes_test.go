package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/reglet-dev/addin-compat/internal/application/dto"
	"github.com/reglet-dev/addin-compat/internal/application/ports"
	"github.com/reglet-dev/addin-compat/internal/domain/entities"
	"github.com/reglet-dev/addin-compat/internal/domain/values"
)

// fakeReportFile is a ReportFile on the real filesystem.
type fakeReportFile struct {
	path  string
	owned string
}

func (f *fakeReportFile) Path() string { return f.path }

func (f *fakeReportFile) WriteLines(lines []string) error {
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	return os.WriteFile(f.path, []byte(content), 0o600)
}

func (f *fakeReportFile) ReadLines() ([]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}

func (f *fakeReportFile) Dispose() {
	if f.owned != "" {
		_ = os.RemoveAll(f.owned)
	}
}

// fakeStore allocates report files under root.
type fakeStore struct {
	root string
	mu   sync.Mutex
	dirs []string
}

func newFakeStore(root string) *fakeStore { return &fakeStore{root: root} }

func (s *fakeStore) Create(preferredPath string) (ports.ReportFile, error) {
	if preferredPath != "" {
		if err := os.MkdirAll(filepath.Dir(preferredPath), 0o750); err != nil {
			return nil, err
		}
		return &fakeReportFile{path: preferredPath}, nil
	}
	dir, err := os.MkdirTemp(s.root, "report-*")
	if err != nil {
		return nil, err
	}
	s.track(dir)
	return &fakeReportFile{path: filepath.Join(dir, "report.txt"), owned: dir}, nil
}

func (s *fakeStore) CreateDir(prefix string) (string, func(), error) {
	dir, err := os.MkdirTemp(s.root, prefix)
	if err != nil {
		return "", nil, err
	}
	s.track(dir)
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}

func (s *fakeStore) track(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirs = append(s.dirs, dir)
}

// leftovers returns tracked temp dirs that still exist.
func (s *fakeStore) leftovers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, d := range s.dirs {
		if _, err := os.Stat(d); err == nil {
			out = append(out, d)
		}
	}
	return out
}

// fakeEngine writes canned reports keyed by the scanned addin dir ("" for the app alone).
type fakeEngine struct {
	reports   map[string][]string
	exitCodes map[string]int
	err       error
	mu        sync.Mutex
	requests  []ports.EngineRequest
	ctxErrs   []error
}

func (e *fakeEngine) Run(ctx context.Context, req ports.EngineRequest) (*ports.EngineResult, error) {
	e.mu.Lock()
	e.requests = append(e.requests, req)
	e.ctxErrs = append(e.ctxErrs, ctx.Err())
	e.mu.Unlock()

	if e.err != nil {
		return nil, e.err
	}
	lines := e.reports[req.AddinDir]
	f := &fakeReportFile{path: req.ReportPath}
	if err := f.WriteLines(lines); err != nil {
		return nil, err
	}
	code := e.exitCodes[req.AddinDir]
	return &ports.EngineResult{ExitCode: code, Success: code == 0, FileCount: len(lines)}, nil
}

// fakeBaselines returns a canned baseline.
type fakeBaselines struct {
	report entities.Report
	err    error
	// partial is written to the output file before err is returned.
	partial []string
	// onGenerate runs at the start of each call, e.g. to cancel the run.
	onGenerate func()
	calls      []ports.BaselineRequest
}

func (b *fakeBaselines) GenerateBaseline(_ context.Context, req ports.BaselineRequest) (entities.Report, error) {
	b.calls = append(b.calls, req)
	if b.onGenerate != nil {
		b.onGenerate()
	}
	if b.err != nil {
		if len(b.partial) > 0 && req.OutputFile != "" {
			_ = (&fakeReportFile{path: req.OutputFile}).WriteLines(b.partial)
		}
		return entities.Report{}, b.err
	}
	if req.OutputFile != "" {
		_ = (&fakeReportFile{path: req.OutputFile}).WriteLines(b.report.Lines())
	}
	return b.report, nil
}

// fakeChecker returns canned outcomes keyed by addin name.
type fakeChecker struct {
	outcomes map[string]*ports.AddinCheckOutcome
	errs     map[string]error
	checked  []string
	checks   []ports.AddinCheck
	// onCheck runs after each check, e.g. to cancel the run.
	onCheck func(name string)
}

func (c *fakeChecker) CheckAddin(_ context.Context, check ports.AddinCheck) (*ports.AddinCheckOutcome, error) {
	c.checked = append(c.checked, check.Addin.Name)
	c.checks = append(c.checks, check)
	defer func() {
		if c.onCheck != nil {
			c.onCheck(check.Addin.Name)
		}
	}()

	if err := c.errs[check.Addin.Name]; err != nil {
		return nil, err
	}
	if out, ok := c.outcomes[check.Addin.Name]; ok {
		if out.Status == values.StatusFail && check.DiffOutputFile != "" {
			_ = os.WriteFile(check.DiffOutputFile, []byte("new line\n"), 0o600)
			out.DiffFile = check.DiffOutputFile
		}
		return out, nil
	}
	return &ports.AddinCheckOutcome{Status: values.StatusPass}, nil
}

// fakeExtractedAddin is an extracted archive.
type fakeExtractedAddin struct {
	dir      string
	disposed *int
}

func (e *fakeExtractedAddin) Dir() string { return e.dir }
func (e *fakeExtractedAddin) Dispose()    { *e.disposed++ }

// fakeExtractor "extracts" archives to pre-made dirs.
type fakeExtractor struct {
	dirs     map[string]string
	errs     map[string]error
	disposed int
}

func (x *fakeExtractor) Extract(_ context.Context, archivePath string) (ports.ExtractedAddin, error) {
	if err := x.errs[archivePath]; err != nil {
		return nil, err
	}
	return &fakeExtractedAddin{dir: x.dirs[archivePath], disposed: &x.disposed}, nil
}

// fakeDiscoverer serves manifests keyed by dir.
type fakeDiscoverer struct {
	manifests map[string]*ports.AddinManifest
	archives  []string
}

func (d *fakeDiscoverer) Discover(context.Context, string) ([]entities.Addin, error) {
	return nil, nil
}

func (d *fakeDiscoverer) ReadManifest(dir string) (*ports.AddinManifest, error) {
	return d.manifests[dir], nil
}

func (d *fakeDiscoverer) FindArchives(context.Context, []string, []string) ([]string, error) {
	return d.archives, nil
}

// fakeIgnoreLists is an in-memory IgnoreListStore.
type fakeIgnoreLists struct {
	existing map[string]string
	staged   map[string]string
	saved    int
	reset    int
	entries  []dto.BaselineEntry
}

func newFakeIgnoreLists() *fakeIgnoreLists {
	return &fakeIgnoreLists{existing: map[string]string{}, staged: map[string]string{}}
}

func (f *fakeIgnoreLists) ExistingFile(a entities.Addin) (string, bool) {
	p, ok := f.existing[a.LocalID()]
	return p, ok
}

func (f *fakeIgnoreLists) Load(entities.Addin) ([]string, error) { return nil, nil }

func (f *fakeIgnoreLists) Stage(a entities.Addin, diffFile string) error {
	f.staged[a.LocalID()] = diffFile
	return nil
}

func (f *fakeIgnoreLists) Pending() []entities.Addin {
	out := make([]entities.Addin, 0, len(f.staged))
	for id := range f.staged {
		out = append(out, entities.Addin{ID: id})
	}
	return out
}

func (f *fakeIgnoreLists) Save(context.Context) ([]string, error) {
	if len(f.staged) == 0 {
		return nil, nil
	}
	f.saved++
	var out []string
	for id := range f.staged {
		out = append(out, id)
	}
	f.staged = map[string]string{}
	return out, nil
}

func (f *fakeIgnoreLists) Reset(context.Context) error {
	f.reset++
	return nil
}

func (f *fakeIgnoreLists) List(context.Context) ([]dto.BaselineEntry, error) {
	return f.entries, nil
}

func (f *fakeIgnoreLists) Close() error { return nil }

// fakeLocator returns a fixed bundle path per channel.
type fakeLocator struct {
	stable, preview string
}

func (l *fakeLocator) Locate(_ context.Context, preview bool) (string, error) {
	path := l.stable
	if preview {
		path = l.preview
	}
	if path == "" {
		return "", errors.New("no bundle found")
	}
	return path, nil
}
