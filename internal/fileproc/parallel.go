// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"github.com/panbanda/ctrlmetrics/pkg/parser"
	"github.com/sourcegraph/conc/pool"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error

	index int
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.add(-1, path, err)
}

func (e *ProcessingErrors) add(index int, path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err, index: index})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// sort orders errors by input position.
func (e *ProcessingErrors) sort() {
	e.mu.Lock()
	defer e.mu.Unlock()
	slices.SortStableFunc(e.Errors, func(a, b ProcessingError) int {
		return a.index - b.index
	})
}

// abortError marks an error that stops the whole run.
type abortError struct {
	err error
}

func (e *abortError) Error() string { return e.err.Error() }
func (e *abortError) Unwrap() error { return e.err }

// Abort wraps err so that MapFiles cancels outstanding work and returns it.
func Abort(err error) error {
	if err == nil {
		return nil
	}
	return &abortError{err: err}
}

// IsAbort reports whether err was produced by Abort.
func IsAbort(err error) bool {
	var ae *abortError
	return errors.As(err, &ae)
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// 2x is optimal for mixed I/O and CGO workloads.
const DefaultWorkerMultiplier = 2

// ProgressFunc is called after each file is processed.
type ProgressFunc func()

// ErrorFunc is called when a file processing error occurs.
// Receives the file path and the error. If nil, errors are only collected.
type ErrorFunc func(path string, err error)

// Options configures MapFiles.
type Options struct {
	// MaxWorkers bounds concurrency. <= 0 means 2x NumCPU.
	MaxWorkers int
	OnProgress ProgressFunc
	OnError    ErrorFunc
}

// MapFiles processes files in parallel, calling fn for each file with a
// dedicated parser. Successful results are returned in the order of files,
// independent of completion order. Per-file errors are collected and the
// file is dropped. An error wrapped with Abort cancels remaining work and is
// returned (unwrapped) as the third value.
func MapFiles[T any](ctx context.Context, files []string, opts Options, fn func(*parser.Parser, string) (T, error)) ([]T, *ProcessingErrors, error) {
	if len(files) == 0 {
		return nil, nil, nil
	}

	maxWorkers := opts.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU() * DefaultWorkerMultiplier
	}

	slots := make([]T, len(files))
	done := make([]bool, len(files))
	errs := &ProcessingErrors{}

	p := pool.New().
		WithContext(ctx).
		WithMaxGoroutines(maxWorkers).
		WithCancelOnError().
		WithFirstError()
	for i, path := range files {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			psr := parser.New()
			defer psr.Close()

			result, err := fn(psr, path)
			if opts.OnProgress != nil {
				opts.OnProgress()
			}

			if err != nil {
				if IsAbort(err) {
					return err
				}
				errs.add(i, path, err)
				if opts.OnError != nil {
					opts.OnError(path, err)
				}
				return nil // Don't stop pool on individual file errors
			}

			slots[i] = result
			done[i] = true
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		var ae *abortError
		if errors.As(err, &ae) {
			return nil, errs, ae.err
		}
		return nil, errs, err
	}

	results := make([]T, 0, len(files))
	for i := range slots {
		if done[i] {
			results = append(results, slots[i])
		}
	}

	if !errs.HasErrors() {
		return results, nil, nil
	}
	errs.sort()
	return results, errs, nil
}
