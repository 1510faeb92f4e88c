// Package scanner discovers compilation units: source-language, C, and C++
// files reachable from a set of file/directory targets, honoring .gitignore
// and include/exclude glob filters.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// Extensions lists the file suffixes a Scanner treats as compilation units,
// keyed by the language they belong to.
var Extensions = map[string][]string{
	"source": {".cx"},
	"c":      {".c", ".h"},
	"cpp":    {".cpp", ".cc", ".hpp", ".hh"},
}

// Scanner handles recursive directory traversal with filtering capabilities.
type Scanner struct {
	maxBytes       int64
	followSymlinks bool
	includeGlobs   []string
	excludeGlobs   []string
	noGitignore    bool
	gitignore      *ignore.GitIgnore
}

// Config holds scanner configuration options.
type Config struct {
	MaxBytes       int64
	FollowSymlinks bool
	IncludeGlobs   []string
	ExcludeGlobs   []string
	NoGitignore    bool
}

// New creates a new scanner with the given configuration.
func New(cfg Config) *Scanner {
	s := &Scanner{
		maxBytes:       cfg.MaxBytes,
		followSymlinks: cfg.FollowSymlinks,
		includeGlobs:   cfg.IncludeGlobs,
		excludeGlobs:   cfg.ExcludeGlobs,
		noGitignore:    cfg.NoGitignore,
	}

	if !cfg.NoGitignore {
		s.loadGitignore()
	}

	return s
}

// loadGitignore loads .gitignore patterns from the current directory and parent directories.
func (s *Scanner) loadGitignore() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	var gitignoreFiles []string
	dir := cwd
	for {
		gitignorePath := filepath.Join(dir, ".gitignore")
		if _, err := os.Stat(gitignorePath); err == nil {
			gitignoreFiles = append(gitignoreFiles, gitignorePath)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if len(gitignoreFiles) > 0 {
		// Reverse so the closest .gitignore to cwd is applied last.
		for i := len(gitignoreFiles)/2 - 1; i >= 0; i-- {
			opp := len(gitignoreFiles) - 1 - i
			gitignoreFiles[i], gitignoreFiles[opp] = gitignoreFiles[opp], gitignoreFiles[i]
		}

		if len(gitignoreFiles) == 1 {
			gitignore, err := ignore.CompileIgnoreFile(gitignoreFiles[0])
			if err == nil {
				s.gitignore = gitignore
			}
		} else {
			gitignore, err := ignore.CompileIgnoreFileAndLines(gitignoreFiles[0], gitignoreFiles[1:]...)
			if err == nil {
				s.gitignore = gitignore
			}
		}
	}
}

// ScanTargets processes a list of file and directory targets, returning the
// compilation units found, one path per file.
func (s *Scanner) ScanTargets(ctx context.Context, targets []string) ([]string, error) {
	if len(targets) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
		targets = []string{cwd}
	}

	var allFiles []string
	for _, target := range targets {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		files, err := s.scanTarget(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("scanning target %s: %w", target, err)
		}
		allFiles = append(allFiles, files...)
	}

	return s.deduplicateFiles(allFiles), nil
}

// scanTarget processes a single target (file or directory).
func (s *Scanner) scanTarget(ctx context.Context, target string) ([]string, error) {
	info, err := os.Lstat(target)
	if err != nil {
		return nil, fmt.Errorf("accessing target %s: %w", target, err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		if !s.followSymlinks {
			return nil, nil
		}
		resolved, err := filepath.EvalSymlinks(target)
		if err != nil {
			return nil, fmt.Errorf("resolving symlink %s: %w", target, err)
		}
		return s.scanTarget(ctx, resolved)
	}

	if info.Mode().IsRegular() {
		if s.shouldProcessFile(target, info) {
			return []string{target}, nil
		}
		return nil, nil
	}

	if info.IsDir() {
		return s.scanDirectory(ctx, target)
	}

	return nil, nil
}

// scanDirectory recursively scans a directory for compilation units.
func (s *Scanner) scanDirectory(ctx context.Context, dir string) ([]string, error) {
	var files []string

	err := fs.WalkDir(os.DirFS(dir), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fullPath := filepath.Join(dir, path)

		if d.IsDir() {
			if s.shouldSkipDirectory(path) {
				return fs.SkipDir
			}
			return nil
		}

		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return fmt.Errorf("getting file info for %s: %w", fullPath, err)
			}

			if s.shouldProcessFile(fullPath, info) {
				files = append(files, fullPath)
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory %s: %w", dir, err)
	}

	return files, nil
}

// shouldProcessFile determines if a file should be processed based on extension,
// gitignore, size, and glob filters.
func (s *Scanner) shouldProcessFile(path string, info os.FileInfo) bool {
	if s.gitignore != nil {
		if relPath, err := filepath.Rel(".", path); err == nil {
			if s.gitignore.MatchesPath(relPath) {
				return false
			}
		}
	}

	if s.maxBytes > 0 && info.Size() > s.maxBytes {
		return false
	}

	if !isCompilationUnit(path) {
		return false
	}

	basename := filepath.Base(path)

	if len(s.includeGlobs) > 0 {
		matched := false
		for _, pattern := range s.includeGlobs {
			if match, _ := doublestar.Match(pattern, basename); match {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, pattern := range s.excludeGlobs {
		if match, _ := doublestar.Match(pattern, basename); match {
			return false
		}
	}

	return true
}

// isCompilationUnit reports whether path carries a recognized source-language,
// C, or C++ extension.
func isCompilationUnit(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, exts := range Extensions {
		if slices.Contains(exts, ext) {
			return true
		}
	}
	return false
}

// shouldSkipDirectory determines if a directory should be skipped during traversal.
func (s *Scanner) shouldSkipDirectory(path string) bool {
	if s.gitignore != nil {
		if relPath, err := filepath.Rel(".", path); err == nil {
			if s.gitignore.MatchesPath(relPath) {
				return true
			}
		}
	}

	dirname := filepath.Base(path)

	skipDirs := []string{".git", "vendor", "node_modules", "dist", "build", ".cnextc"}
	if slices.Contains(skipDirs, dirname) {
		return true
	}

	if strings.HasPrefix(dirname, ".") && dirname != "." {
		return true
	}

	return false
}

// deduplicateFiles removes duplicate file paths from the list.
func (s *Scanner) deduplicateFiles(files []string) []string {
	seen := make(map[string]bool)
	var result []string

	for _, file := range files {
		if !seen[file] {
			seen[file] = true
			result = append(result, file)
		}
	}

	return result
}
