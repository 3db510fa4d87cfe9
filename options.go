package pipewalk

import "github.com/go-logr/logr"

// Option is a function that configures an App.
type Option func(*App)

// WithAddr sets the HTTP listen address.
var WithAddr = func(addr string) Option {
	return func(a *App) {
		a.addr = addr
	}
}

// WithLogr sets the logger for the application.
var WithLogr = func(log logr.Logger) Option {
	return func(a *App) {
		a.log = log
	}
}

// WithStrict makes sessions reject unusable pipeline documents with
// an explicit error instead of silently falling back to the default
// pipeline.
var WithStrict = func(strict bool) Option {
	return func(a *App) {
		a.strict = strict
	}
}
