// Package scanner finds the kernel sources to check. It walks directory
// arguments honoring .idbranchignore files (gitignore-style patterns) and
// default exclusions, and keeps only files with a configured extension.
package scanner

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// FileInfo represents information about a discovered file.
type FileInfo struct {
	Path     string // as given, or joined onto the directory argument
	Language string
	Size     int64
}

// Options configures the scanner behavior.
type Options struct {
	SkipHidden      bool     // Skip hidden files and directories (starting with .)
	Extensions      []string // Extensions picked up while walking
	DefaultExcludes []string // Directory names never entered
	IgnoreFileName  string   // Name of the ignore file (default: .idbranchignore)
}

// DefaultOptions returns scanner options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		SkipHidden:     true,
		Extensions:     []string{".cl", ".clh", ".c", ".h"},
		IgnoreFileName: ".idbranchignore",
		DefaultExcludes: []string{
			".git",
			".hg",
			".svn",
			"node_modules",
			"vendor",
			"build",
			"dist",
			"CMakeFiles",
		},
	}
}

// Scanner provides file tree scanning capabilities.
type Scanner struct {
	opts Options
}

// New creates a new Scanner with the given options.
func New(opts Options) *Scanner {
	if opts.IgnoreFileName == "" {
		opts.IgnoreFileName = DefaultOptions().IgnoreFileName
	}
	return &Scanner{opts: opts}
}

// Collect expands the arguments of a check run. Files are taken as they
// are, whatever their extension; directories are walked. The result is
// sorted by path and free of duplicates.
func (s *Scanner) Collect(args []string) ([]FileInfo, error) {
	var files []FileInfo
	seen := make(map[string]bool)

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			if !seen[filepath.Clean(arg)] {
				seen[filepath.Clean(arg)] = true
				files = append(files, FileInfo{Path: arg, Language: LanguageOf(arg), Size: info.Size()})
			}
			continue
		}

		found, err := s.Scan(arg)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			if !seen[filepath.Clean(f.Path)] {
				seen[filepath.Clean(f.Path)] = true
				files = append(files, f)
			}
		}
	}

	slices.SortFunc(files, func(a, b FileInfo) int { return strings.Compare(a.Path, b.Path) })
	return files, nil
}

// Scan recursively scans the directory at root.
func (s *Scanner) Scan(root string) ([]FileInfo, error) {
	patterns, err := s.loadIgnorePatterns(root, "")
	if err != nil {
		return nil, fmt.Errorf("loading ignore patterns: %w", err)
	}

	var files []FileInfo
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable entries are skipped, the walk goes on
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if s.opts.SkipHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if s.isDefaultExcluded(d.Name()) || ignored(rel, true, patterns) {
				return filepath.SkipDir
			}
			nested, err := s.loadIgnorePatterns(path, rel)
			if err == nil {
				patterns = append(patterns, nested...)
			}
			return nil
		}

		if !d.Type().IsRegular() || !s.wanted(path) || ignored(rel, false, patterns) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, FileInfo{Path: path, Language: LanguageOf(path), Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return files, nil
}

func (s *Scanner) wanted(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range s.opts.Extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

func (s *Scanner) isDefaultExcluded(name string) bool {
	for _, exclude := range s.opts.DefaultExcludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	return false
}

// loadIgnorePatterns reads the ignore file in dir. Patterns from a nested
// file are rebased onto prefix so they only apply below dir.
func (s *Scanner) loadIgnorePatterns(dir, prefix string) ([]IgnorePattern, error) {
	file, err := os.Open(filepath.Join(dir, s.opts.IgnoreFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var patterns []IgnorePattern
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if prefix != "" {
			line = rebase(line, prefix)
		}
		patterns = append(patterns, ParseIgnorePattern(line))
	}

	return patterns, sc.Err()
}

func rebase(line, prefix string) string {
	neg := ""
	if strings.HasPrefix(line, "!") {
		neg, line = "!", line[1:]
	}
	line = strings.TrimPrefix(line, "/")
	if !strings.Contains(strings.TrimSuffix(line, "/"), "/") {
		line = "**/" + line
	}
	return neg + "/" + prefix + "/" + line
}
