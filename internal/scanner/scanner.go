package scanner

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/gobwas/glob"
	"github.com/panbanda/ctrlmetrics/pkg/config"
)

// WarnFunc receives entries that could not be read during a scan.
type WarnFunc func(path string, err error)

// Scanner finds controller source files in a directory tree.
type Scanner struct {
	config   *config.Config
	pattern  glob.Glob
	matchers []matcher
	onWarn   WarnFunc
}

// matcher applies gitignore-style patterns relative to base.
type matcher struct {
	base string
	m    gitignore.Matcher
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithWarningHandler sets the callback for unreadable entries.
func WithWarningHandler(fn WarnFunc) Option {
	return func(s *Scanner) {
		s.onWarn = fn
	}
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config, opts ...Option) (*Scanner, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	pattern, err := glob.Compile("*" + glob.QuoteMeta(cfg.Scan.Suffix))
	if err != nil {
		return nil, fmt.Errorf("invalid suffix %q: %w", cfg.Scan.Suffix, err)
	}
	s := &Scanner{config: cfg, pattern: pattern}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Match reports whether a file name follows the controller naming convention.
func (s *Scanner) Match(name string) bool {
	return s.pattern.Match(name)
}

// findGitRoot finds the root of the git repository by looking for .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadExcludePatterns loads exclusion patterns from both config and .gitignore files.
func (s *Scanner) loadExcludePatterns(root string) {
	s.matchers = nil

	var patterns []gitignore.Pattern
	for _, pattern := range s.config.Scan.Exclude {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}
	if len(patterns) > 0 {
		s.matchers = append(s.matchers, matcher{base: root, m: gitignore.NewMatcher(patterns)})
	}

	if !s.config.Scan.Gitignore {
		return
	}
	gitRoot := findGitRoot(root)
	if gitRoot == "" {
		return
	}
	// ReadPatterns recursively reads every .gitignore below the git root.
	gitPatterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil)
	if err != nil {
		s.warn(gitRoot, err)
		return
	}
	if len(gitPatterns) > 0 {
		s.matchers = append(s.matchers, matcher{base: gitRoot, m: gitignore.NewMatcher(gitPatterns)})
	}
}

// isExcluded checks if an absolute path matches any exclusion pattern.
func (s *Scanner) isExcluded(path string, isDir bool) bool {
	for _, m := range s.matchers {
		rel, err := filepath.Rel(m.base, path)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		if m.m.Match(strings.Split(rel, string(filepath.Separator)), isDir) {
			return true
		}
	}
	return false
}

func (s *Scanner) warn(path string, err error) {
	if s.onWarn != nil {
		s.onWarn(path, err)
	}
}

// Files lazily yields matching files under root in lexical order.
// Unreadable entries are reported to the warning handler and skipped.
// Symlinks resolving outside root are not followed.
func (s *Scanner) Files(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		absRoot, err := resolveRoot(root)
		if err != nil {
			s.warn(root, err)
			return
		}
		s.loadExcludePatterns(absRoot)

		_ = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				s.warn(path, err)
				if d != nil && d.IsDir() && path != absRoot {
					return filepath.SkipDir
				}
				return nil
			}

			if d.Type()&fs.ModeSymlink != 0 {
				resolved, err := filepath.EvalSymlinks(path)
				if err != nil || !isWithinRoot(resolved, absRoot) {
					return nil
				}
			}

			if d.IsDir() {
				if path != absRoot && s.isExcluded(path, true) {
					return filepath.SkipDir
				}
				return nil
			}

			if !s.Match(d.Name()) || s.isExcluded(path, false) {
				return nil
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// ScanDir recursively scans a directory for controller files.
// A root that does not exist or is not a directory is an error.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	if _, err := resolveRoot(root); err != nil {
		return nil, err
	}

	files := make([]string, 0, 64)
	for path := range s.Files(root) {
		files = append(files, path)
	}
	return files, nil
}

// resolveRoot returns the absolute, symlink-free form of a directory path.
func resolveRoot(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: not a directory", root)
	}
	return absRoot, nil
}

// isWithinRoot checks if a path is contained within the root directory.
// Returns false if the path escapes via symlinks or relative paths.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	// Add separator to prevent "/root2" matching "/root"
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}
