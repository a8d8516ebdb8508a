// Package controller finds reactive controller classes in Kotlin sources
// and measures their constructor dependencies and Rx stream members.
package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/panbanda/ctrlmetrics/internal/cache"
	"github.com/panbanda/ctrlmetrics/internal/fileproc"
	"github.com/panbanda/ctrlmetrics/pkg/analyzer"
	"github.com/panbanda/ctrlmetrics/pkg/ast"
	"github.com/panbanda/ctrlmetrics/pkg/ast/treesitter"
	"github.com/panbanda/ctrlmetrics/pkg/models"
	"github.com/panbanda/ctrlmetrics/pkg/parser"
)

// Ensure Analyzer implements analyzer.FileAnalyzer.
var _ analyzer.FileAnalyzer[[]models.Record] = (*Analyzer)(nil)

const (
	DefaultInterface = "ObservableTransformer<UiEvent, UiChange>"
	ApplyMember      = "apply"
)

// DefaultStreamTypes are the member types counted as Rx streams.
var DefaultStreamTypes = []string{"Observable<UiChange>", "ObservableSource<UiChange>"}

// Rules describe what makes a class a controller and what counts as a stream.
type Rules struct {
	Interface       *ast.TypeRef
	StreamTypes     []*ast.TypeRef
	ExcludedMembers []string
}

// DefaultRules returns the rules for ObservableTransformer<UiEvent, UiChange> controllers.
func DefaultRules() Rules {
	rules, err := NewRules(DefaultInterface, DefaultStreamTypes, []string{ApplyMember})
	if err != nil {
		panic(err)
	}
	return rules
}

// NewRules parses the written type spellings into Rules.
func NewRules(iface string, streamTypes, excluded []string) (Rules, error) {
	it, err := ast.ParseTypeRef(iface)
	if err != nil {
		return Rules{}, fmt.Errorf("invalid controller interface: %w", err)
	}
	rules := Rules{Interface: it, ExcludedMembers: excluded}
	for _, s := range streamTypes {
		st, err := ast.ParseTypeRef(s)
		if err != nil {
			return Rules{}, fmt.Errorf("invalid stream type: %w", err)
		}
		rules.StreamTypes = append(rules.StreamTypes, st)
	}
	return rules, nil
}

// fingerprint identifies the rules for cache invalidation.
func (r Rules) fingerprint() string {
	parts := []string{r.Interface.String()}
	for _, t := range r.StreamTypes {
		parts = append(parts, t.String())
	}
	parts = append(parts, r.ExcludedMembers...)
	return cache.Fingerprint(parts...)
}

// SkipFunc receives files dropped from the report together with the reason.
type SkipFunc func(path string, err error)

// Analyzer classifies controller files and extracts their records.
type Analyzer struct {
	parser     *parser.Parser
	rules      Rules
	cache      *cache.Cache
	maxWorkers int
	onSkip     SkipFunc
	onProgress fileproc.ProgressFunc
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithRules overrides the default controller rules.
func WithRules(rules Rules) Option {
	return func(a *Analyzer) {
		a.rules = rules
	}
}

// WithCache enables the result cache.
func WithCache(c *cache.Cache) Option {
	return func(a *Analyzer) {
		a.cache = c
	}
}

// WithMaxWorkers bounds the number of files analyzed concurrently.
func WithMaxWorkers(n int) Option {
	return func(a *Analyzer) {
		a.maxWorkers = n
	}
}

// WithSkipHandler sets the callback for excluded files.
func WithSkipHandler(fn SkipFunc) Option {
	return func(a *Analyzer) {
		a.onSkip = fn
	}
}

// WithProgress sets a callback invoked once per analyzed file.
func WithProgress(fn fileproc.ProgressFunc) Option {
	return func(a *Analyzer) {
		a.onProgress = fn
	}
}

// New creates a new controller analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		parser: parser.New(),
		rules:  DefaultRules(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeFile analyzes a single file.
func (a *Analyzer) AnalyzeFile(path string) (models.Record, error) {
	return a.analyzeFile(a.parser, path)
}

// AnalyzeSource analyzes already loaded content. path determines the
// expected class name.
func (a *Analyzer) AnalyzeSource(path string, content []byte) (models.Record, error) {
	return a.analyzeSource(a.parser, path, content)
}

// Analyze processes files in parallel and returns the controller records in
// file order. Excluded files are reported to the skip handler. A controller
// without a primary constructor aborts the run with an error naming the file.
func (a *Analyzer) Analyze(ctx context.Context, files []string) ([]models.Record, error) {
	records, _, err := fileproc.MapFiles(ctx, files, fileproc.Options{
		MaxWorkers: a.maxWorkers,
		OnProgress: a.onProgress,
		OnError: func(path string, err error) {
			if a.onSkip != nil {
				a.onSkip(path, err)
			}
		},
	}, func(psr *parser.Parser, path string) (models.Record, error) {
		rec, err := a.analyzeFile(psr, path)
		if errors.Is(err, ErrNoConstructor) {
			return rec, fileproc.Abort(fmt.Errorf("%s: %w", path, err))
		}
		return rec, err
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Close releases analyzer resources.
func (a *Analyzer) Close() {
	a.parser.Close()
}

func (a *Analyzer) analyzeFile(psr *parser.Parser, path string) (models.Record, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return models.Record{}, fmt.Errorf("failed to read file: %w", err)
	}
	return a.analyzeSource(psr, path, content)
}

func (a *Analyzer) analyzeSource(psr *parser.Parser, path string, content []byte) (models.Record, error) {
	if a.cache == nil || !a.cache.Enabled() {
		return a.classify(psr, path, content)
	}

	hash := cache.HashBytes(content)
	key := a.cacheKey(path)
	if out, ok := a.lookup(key, hash); ok {
		return out.result()
	}

	rec, err := a.classify(psr, path, content)
	if err == nil || errors.Is(err, ErrNotController) || errors.Is(err, ErrNoDeclaration) {
		a.store(key, hash, rec, err)
	}
	return rec, err
}

func (a *Analyzer) classify(psr *parser.Parser, path string, content []byte) (models.Record, error) {
	file, err := treesitter.NewWithParser(psr).ParseSource(path, content)
	if err != nil {
		return models.Record{}, err
	}

	name := BaseName(path)
	cls, err := FindClass(file, name)
	if err != nil {
		if len(file.Errors) > 0 {
			return models.Record{}, syntaxError(file.Errors[0])
		}
		return models.Record{}, err
	}
	if len(cls.Errors) > 0 {
		return models.Record{}, syntaxError(cls.Errors[0])
	}
	if !IsController(cls, a.rules.Interface) {
		return models.Record{}, ErrNotController
	}

	rec, err := Extract(name, cls, a.rules)
	if err != nil {
		return models.Record{}, err
	}
	rec.Path = path
	return rec, nil
}

// cachedOutcome is the persisted result of classifying one file.
type cachedOutcome struct {
	Record   *models.Record `json:"record,omitempty"`
	Excluded string         `json:"excluded,omitempty"`
}

func (a *Analyzer) cacheKey(path string) string {
	return strings.Join([]string{"controller", a.rules.fingerprint(), path}, ":")
}

func (a *Analyzer) lookup(key, hash string) (*cachedOutcome, bool) {
	if a.cache == nil {
		return nil, false
	}
	data, ok := a.cache.GetWithHash(key, hash)
	if !ok {
		return nil, false
	}
	var out cachedOutcome
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false
	}
	if out.Record == nil && out.Excluded != ErrNotController.Error() && out.Excluded != ErrNoDeclaration.Error() {
		return nil, false
	}
	return &out, true
}

func (o *cachedOutcome) result() (models.Record, error) {
	switch {
	case o.Record != nil:
		return *o.Record, nil
	case o.Excluded == ErrNotController.Error():
		return models.Record{}, ErrNotController
	default:
		return models.Record{}, ErrNoDeclaration
	}
}

func (a *Analyzer) store(key, hash string, rec models.Record, err error) {
	if a.cache == nil {
		return
	}
	out := cachedOutcome{}
	if err != nil {
		out.Excluded = err.Error()
	} else {
		out.Record = &rec
	}
	data, mErr := json.Marshal(out)
	if mErr != nil {
		return
	}
	_ = a.cache.SetWithHash(key, hash, data)
}
