package simulation

import (
	"github.com/rs/zerolog"

	"drawgap-lab/internal/observability"
)

// DefaultTopGaps is the number of longest completed gaps kept in a Result.
const DefaultTopGaps = 10

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger. Defaults to zerolog.Nop().
func WithLogger(log zerolog.Logger) Option {
	return func(d *Driver) {
		d.log = log
	}
}

// WithMetrics records session outcomes and events to m.
func WithMetrics(m *observability.Metrics) Option {
	return func(d *Driver) {
		d.metrics = m
	}
}

// WithTopGaps sets how many longest gaps the Result carries.
func WithTopGaps(n int) Option {
	return func(d *Driver) {
		if n >= 0 {
			d.topGaps = n
		}
	}
}
