package common

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Kind names a browser the factory can launch.
type Kind string

const (
	Firefox          Kind = "firefox"
	Chrome           Kind = "chrome"
	Chromium         Kind = "chromium"
	Safari           Kind = "safari"
	InternetExplorer Kind = "internet explorer"
	PhantomJS        Kind = "phantomjs"
)

// Kinds lists every known browser kind in display order.
var Kinds = []Kind{Firefox, Chrome, Chromium, Safari, InternetExplorer, PhantomJS}

// ParseKind normalizes a browser name. The second result is false for
// names that are not known kinds.
func ParseKind(name string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Kinds {
		if k == known {
			return k, true
		}
	}
	return k, false
}

// LogType selects one of the driver log streams.
type LogType string

const (
	LogBrowser LogType = "browser"
	LogDriver  LogType = "driver"
	LogClient  LogType = "client"
	LogServer  LogType = "server"
)

// LogTypes is the set of streams saved for every browser.
var LogTypes = []LogType{LogBrowser, LogDriver, LogClient, LogServer}

// LogEntry is a single record of a driver log stream.
type LogEntry struct {
	Timestamp time.Time
	Level     string
	Source    string
	Message   string
}

// ErrUnsupportedLogType is returned by backends asked for a stream the
// driver refuses to provide.
var ErrUnsupportedLogType = errors.New("unsupported log type")

// Browser is a live browser-automation handle. The caller owns it and
// must call Quit on every exit path.
type Browser interface {
	Kind() Kind
	Navigate(ctx context.Context, url string) error
	Screenshot(ctx context.Context) ([]byte, error)
	Source(ctx context.Context) (string, error)
	Logs(ctx context.Context, logType LogType) ([]LogEntry, error)
	Quit() error
}

// Options carries per-launch settings that are not part of the
// environment configuration.
type Options struct {
	// Tags label the session on a remote hub.
	Tags []string
	// Proxy overrides the configured proxy server.
	Proxy string
	// Capabilities are merged last into remote capabilities.
	Capabilities map[string]any
}

// Option mutates Options.
type Option func(*Options)

// WithTags adds session tags.
func WithTags(tags ...string) Option {
	return func(o *Options) {
		o.Tags = append(o.Tags, tags...)
	}
}

// WithProxy routes browser traffic through the given proxy server.
func WithProxy(proxy string) Option {
	return func(o *Options) {
		o.Proxy = proxy
	}
}

// WithCapabilities merges extra remote capabilities.
func WithCapabilities(caps map[string]any) Option {
	return func(o *Options) {
		if o.Capabilities == nil {
			o.Capabilities = make(map[string]any, len(caps))
		}
		for k, v := range caps {
			o.Capabilities[k] = v
		}
	}
}

// BuildOptions applies opts over an empty Options.
func BuildOptions(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
