package repository

import "github.com/okian/candle/pkg/logger"

type options struct {
	log logger.Logger
}

// Option applies a configuration option to a store.
type Option func(*options)

// WithLogger sets the logger used for integrity and I/O warnings.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func buildOptions(name string, opts []Option) options {
	o := options{log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	o.log = o.log.Named(name)
	return o
}
