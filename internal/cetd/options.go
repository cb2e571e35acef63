package cetd

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Option configures Aggregate and Build.
type Option func(*options)

type options struct {
	logger zerolog.Logger
	scorer Scorer
}

func newOptions(opts []Option) options {
	o := options{logger: log.Logger, scorer: LogDensityScorer{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithLogger sets the logger that receives data quality warnings. The
// global zerolog logger is used by default.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithScorer replaces the default LogDensityScorer.
func WithScorer(s Scorer) Option {
	return func(o *options) {
		if s != nil {
			o.scorer = s
		}
	}
}
