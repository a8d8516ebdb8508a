// Package analyzer defines the contract shared by source analyzers.
package analyzer

import "context"

// FileAnalyzer turns a list of discovered source files into a result of type T.
// Implementations must keep results in the order files were given and stop
// early when ctx is cancelled.
type FileAnalyzer[T any] interface {
	Analyze(ctx context.Context, files []string) (T, error)

	// Close releases parsers and caches held by the analyzer.
	Close()
}
