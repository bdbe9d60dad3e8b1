package mtdbridge

import "time"

const (
	defaultTimeout = 500 * time.Millisecond
	defaultSlice   = time.Millisecond
)

type Option func(*Bridge)

// WithTimeout sets the total budget of each polling window.
func WithTimeout(timeout time.Duration) Option {
	return func(b *Bridge) {
		if timeout > 0 {
			b.timeout = timeout
		}
	}
}

// WithPollInterval sets the delay between completion polls.
func WithPollInterval(slice time.Duration) Option {
	return func(b *Bridge) {
		if slice > 0 {
			b.slice = slice
		}
	}
}

// WithLogFunc routes diagnostic output to the given printf-style function.
func WithLogFunc(logf func(format string, params ...any)) Option {
	return func(b *Bridge) {
		b.LogFunc = logf
	}
}
