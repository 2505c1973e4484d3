package config

import (
	"time"

	"github.com/dshills/keycalc/internal/config/watcher"
)

// ReloadFunc receives the configuration reloaded after the file at path
// changed, or the error that prevented loading it.
type ReloadFunc func(cfg *Config, err error)

// Watch reloads the configuration whenever the file at path changes and
// passes the result to fn. A removed file reloads as defaults plus
// environment. The returned watcher must be closed by the caller.
func Watch(path string, fn ReloadFunc, debounce time.Duration) (*watcher.Watcher, error) {
	return watcher.New(path, func(watcher.Event) {
		fn(Load(path))
	},
		watcher.WithDebounce(debounce),
		watcher.WithErrorHandler(func(err error) { fn(nil, err) }),
	)
}
