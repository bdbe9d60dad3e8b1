package fwupdate

import (
	"time"

	"github.com/labxtech/bridgeboot/image"
)

// ValidateFunc checks a completed firmware image before installation.
type ValidateFunc func(img []byte) bool

// RunFunc executes a post-install command line.
type RunFunc func(cmd string) error

type config struct {
	validate ValidateFunc
	run      RunFunc
	halt     func()
	logf     func(format string, params ...any)

	pollAttempts int
	pollInterval time.Duration
}

func defaultConfig() config {
	return config{
		validate: func(img []byte) bool { return image.Validate(img) == nil },
		run:      ShellRun,
		halt:     haltForever,

		pollAttempts: 4,
		pollInterval: 250 * time.Millisecond,
	}
}

// haltForever is the terminal state after a completed update: the
// device holds still until the host resets it.
func haltForever() {
	for {
		time.Sleep(time.Hour)
	}
}

type Option func(*config)

// WithValidator replaces the image validation check.
func WithValidator(validate ValidateFunc) Option {
	return func(c *config) {
		c.validate = validate
	}
}

// WithRunner replaces the post-install command runner.
func WithRunner(run RunFunc) Option {
	return func(c *config) {
		c.run = run
	}
}

// WithHalt replaces the terminal halt behavior.
func WithHalt(halt func()) Option {
	return func(c *config) {
		c.halt = halt
	}
}

// WithLogFunc routes diagnostic output to the given printf-style function.
func WithLogFunc(logf func(format string, params ...any)) Option {
	return func(c *config) {
		c.logf = logf
	}
}

// WithPollAttempts sets how many times the boot decision polls the
// mailbox for a host request.
func WithPollAttempts(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.pollAttempts = n
		}
	}
}

// WithPollInterval sets the delay between boot decision mailbox polls.
func WithPollInterval(interval time.Duration) Option {
	return func(c *config) {
		if interval > 0 {
			c.pollInterval = interval
		}
	}
}
