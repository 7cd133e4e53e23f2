package scanner

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"
	"golang.org/x/sync/errgroup"
)

// FileSelector picks the assembly files the engine should load.
type FileSelector struct {
	// Patterns match file base names, e.g. "*.dll".
	Patterns []string
	// Excludes are doublestar globs matched against root-relative slash paths.
	Excludes []string
}

// LoadExcludes reads exclusion globs from a scanner config file.
// One pattern per line; blank lines and lines starting with '#' are ignored.
func LoadExcludes(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scanner config: %w", err)
	}
	defer func() { _ = f.Close() }()

	var excludes []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, err := doublestar.Match(line, line); err != nil {
			return nil, fmt.Errorf("invalid exclusion pattern %q: %w", line, err)
		}
		excludes = append(excludes, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read scanner config: %w", err)
	}
	return excludes, nil
}

// Collect walks every root concurrently and returns the matching files.
// The result keeps root order; files within a root are sorted.
// A file reachable from two roots is listed once.
func (s FileSelector) Collect(ctx context.Context, roots ...string) ([]string, error) {
	perRoot := make([][]string, len(roots))

	g, ctx := errgroup.WithContext(ctx)
	for i, root := range roots {
		g.Go(func() error {
			files, err := s.walk(ctx, root)
			if err != nil {
				return err
			}
			perRoot[i] = files
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var all []string
	for _, files := range perRoot {
		for _, f := range files {
			if seen[f] {
				continue
			}
			seen[f] = true
			all = append(all, f)
		}
	}
	return all, nil
}

func (s FileSelector) walk(ctx context.Context, root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && s.excluded(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || s.excluded(rel) || !s.matches(d.Name()) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect files under %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

func (s FileSelector) matches(name string) bool {
	if len(s.Patterns) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, p := range s.Patterns {
		if ok, _ := filepath.Match(strings.ToLower(p), lower); ok {
			return true
		}
	}
	return false
}

func (s FileSelector) excluded(rel string) bool {
	for _, p := range s.Excludes {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
