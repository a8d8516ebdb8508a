package ast

import "errors"

// ErrUnsupportedLanguage is returned when parsing a file that is not Kotlin.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Position represents a location in source code.
type Position struct {
	File   string
	Line   int
	Column int
}

// Provider abstracts how source files become typed syntax trees.
type Provider interface {
	// Parse reads and parses a file.
	Parse(path string) (*File, error)

	// ParseSource parses already loaded content. path is used for positions
	// and error messages only.
	ParseSource(path string, source []byte) (*File, error)

	// Close releases provider resources.
	Close()
}
