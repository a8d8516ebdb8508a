package analysis

import (
	"context"

	"github.com/panbanda/ctrlmetrics/internal/cache"
	"github.com/panbanda/ctrlmetrics/pkg/analyzer/controller"
	"github.com/panbanda/ctrlmetrics/pkg/config"
	"github.com/panbanda/ctrlmetrics/pkg/models"
)

// Service orchestrates controller analysis.
type Service struct {
	config *config.Config
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// New creates a new analysis service.
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

// ControllerOptions configures controller analysis.
type ControllerOptions struct {
	MaxWorkers int
	NoCache    bool // overrides an enabled cache for this run
	OnSkip     controller.SkipFunc
	OnProgress func()
	// OnRecord receives each controller record in discovery order.
	OnRecord func(models.Record)
}

// AnalyzeControllers classifies files, extracts controller records and
// builds the sorted report. It fails with models.ErrNoControllers when no
// file qualifies and with controller.ErrNoConstructor when a controller
// lacks a primary constructor.
func (s *Service) AnalyzeControllers(ctx context.Context, files []string, opts ControllerOptions) (*models.Report, error) {
	rules, err := controller.NewRules(
		s.config.Controller.Interface,
		s.config.Controller.StreamTypes,
		s.config.Controller.ExcludedMembers,
	)
	if err != nil {
		return nil, err
	}

	analyzerOpts := []controller.Option{
		controller.WithRules(rules),
		controller.WithMaxWorkers(opts.MaxWorkers),
		controller.WithSkipHandler(opts.OnSkip),
		controller.WithProgress(opts.OnProgress),
	}
	c, err := cache.New(s.config.Cache.Dir, s.config.Cache.TTL, s.config.Cache.Enabled && !opts.NoCache)
	if err != nil {
		return nil, &CacheError{Dir: s.config.Cache.Dir, Err: err}
	}
	analyzerOpts = append(analyzerOpts, controller.WithCache(c))

	ctrlAnalyzer := controller.New(analyzerOpts...)
	defer ctrlAnalyzer.Close()

	records, err := ctrlAnalyzer.Analyze(ctx, files)
	if err != nil {
		return nil, err
	}
	if opts.OnRecord != nil {
		for _, r := range records {
			opts.OnRecord(r)
		}
	}
	return models.NewReport(records)
}

// CacheError indicates the cache directory could not be prepared.
type CacheError struct {
	Dir string
	Err error
}

func (e *CacheError) Error() string {
	return "failed to open cache " + e.Dir + ": " + e.Err.Error()
}

func (e *CacheError) Unwrap() error {
	return e.Err
}
