package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/phpsniff/phpsniff/internal/domain"
)

// phpPattern selects the files analyzed under a directory root.
const phpPattern = "**/*.php"

// ignoredPatterns are never analyzed, whatever the configured excludes.
var ignoredPatterns = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/bower_components/**",
}

// skipDirs are pruned while walking so their contents are never visited.
var skipDirs = map[string]bool{
	"node_modules":     true,
	".git":             true,
	"bower_components": true,
}

// FileDiscoverer implements domain.Discoverer by walking the filesystem.
type FileDiscoverer struct{}

func New() *FileDiscoverer {
	return &FileDiscoverer{}
}

// Discover expands root into the php files to analyze. A directory root is
// walked recursively; a file root is returned as-is when it names a php file.
// Excludes are doublestar patterns matched against the full path and every
// trailing part of it, so a file is excluded the same way whether it is
// reached as a file root or through a directory root.
func (d *FileDiscoverer) Discover(root string, excludes []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.FileError{File: root, Err: domain.ErrPathNotFound}
		}
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}

	patterns := append(append([]string{}, ignoredPatterns...), excludes...)
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}

	if !info.IsDir() {
		if !strings.HasSuffix(filepath.Base(root), "php") {
			return nil, &domain.FileError{File: root, Err: domain.ErrInvalidExtension}
		}
		if ignored(patterns, root) {
			return nil, nil
		}
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		if entry.IsDir() {
			if path != root && skipDirs[entry.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		if ok, _ := doublestar.Match(phpPattern, filepath.ToSlash(rel)); !ok {
			return nil
		}
		if ignored(patterns, path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

func ignored(patterns []string, path string) bool {
	full := filepath.ToSlash(path)
	for _, p := range patterns {
		for candidate := full; ; {
			if ok, _ := doublestar.Match(p, candidate); ok {
				return true
			}
			i := strings.Index(candidate, "/")
			if i < 0 {
				break
			}
			candidate = candidate[i+1:]
		}
	}
	return false
}
