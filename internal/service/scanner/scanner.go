package scanner

import (
	"path/filepath"

	"github.com/panbanda/ctrlmetrics/internal/scanner"
	"github.com/panbanda/ctrlmetrics/pkg/config"
)

// ScanResult contains the result of a file scan.
type ScanResult struct {
	// SourceDir is the directory actually walked: <root>/<scan.source_dir>.
	SourceDir string
	Files     []string
}

// Service provides file scanning functionality.
type Service struct {
	config *config.Config
	onWarn scanner.WarnFunc
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithWarningHandler sets the callback for entries skipped during the walk.
func WithWarningHandler(fn scanner.WarnFunc) Option {
	return func(s *Service) {
		s.onWarn = fn
	}
}

// New creates a new scanner service.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.LoadOrDefault()
	}
	return s
}

// ScanRoot scans the configured source directory beneath root for controller files.
func (s *Service) ScanRoot(root string) (*ScanResult, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &PathError{Path: root, Err: err}
	}
	sourceDir := filepath.Join(absRoot, s.config.Scan.SourceDir)

	scan, err := scanner.NewScanner(s.config, scanner.WithWarningHandler(s.onWarn))
	if err != nil {
		return nil, &ScanError{Path: sourceDir, Err: err}
	}
	files, err := scan.ScanDir(sourceDir)
	if err != nil {
		return nil, &ScanError{Path: sourceDir, Err: err}
	}

	return &ScanResult{SourceDir: sourceDir, Files: files}, nil
}

// PathError indicates an invalid path.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return "invalid path " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ScanError indicates a scanning failure.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return "failed to scan directory " + e.Path + ": " + e.Err.Error()
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
