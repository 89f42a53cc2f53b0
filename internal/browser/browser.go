// Package browser selects and launches a browser from configuration.
//
// The browser kind comes from SELENIUM_BROWSER. When SELENIUM_HOST is set
// every kind is requested from that Selenium hub; otherwise firefox,
// chromium and safari are launched locally through Playwright and chrome
// through the DevTools protocol.
//
//	b, err := browser.FromEnv(ctx)
//	if err != nil {
//		return err
//	}
//	defer b.Quit()
package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/luispater/bokchoy/internal/browser/chrome"
	"github.com/luispater/bokchoy/internal/browser/common"
	"github.com/luispater/bokchoy/internal/browser/pw"
	"github.com/luispater/bokchoy/internal/browser/remote"
	"github.com/luispater/bokchoy/internal/config"
	log "github.com/sirupsen/logrus"
)

type (
	Browser     = common.Browser
	Kind        = common.Kind
	LogType     = common.LogType
	LogEntry    = common.LogEntry
	ConfigError = common.ConfigError
	Options     = common.Options
	Option      = common.Option
)

// Launcher starts a browser of kind. It is picked by New after the kind
// has been validated.
type Launcher func(ctx context.Context, kind Kind, cfg *config.AppConfig, opts Options) (Browser, error)

var (
	mu             sync.RWMutex
	launchers      = map[Kind]Launcher{}
	remoteLauncher Launcher
)

func init() {
	for _, kind := range common.Kinds {
		if pw.Supports(kind) {
			launchers[kind] = launchPlaywright
		}
	}
	launchers[common.Chrome] = launchChrome
	remoteLauncher = launchRemote
}

func launchPlaywright(ctx context.Context, kind Kind, cfg *config.AppConfig, opts Options) (Browser, error) {
	return pw.Launch(ctx, kind, cfg, opts)
}

func launchChrome(ctx context.Context, _ Kind, cfg *config.AppConfig, opts Options) (Browser, error) {
	return chrome.Launch(ctx, cfg, opts)
}

func launchRemote(ctx context.Context, kind Kind, cfg *config.AppConfig, opts Options) (Browser, error) {
	return remote.Launch(ctx, kind, cfg, opts)
}

// Register replaces the local launcher for kind and returns a func that
// restores the previous one. A nil launcher removes local support.
func Register(kind Kind, l Launcher) (restore func()) {
	mu.Lock()
	defer mu.Unlock()
	prev, had := launchers[kind]
	setLauncher(kind, l)
	return func() {
		mu.Lock()
		defer mu.Unlock()
		if had {
			setLauncher(kind, prev)
		} else {
			delete(launchers, kind)
		}
	}
}

func setLauncher(kind Kind, l Launcher) {
	if l == nil {
		delete(launchers, kind)
		return
	}
	launchers[kind] = l
}

// RegisterRemote replaces the remote launcher and returns a restore func.
func RegisterRemote(l Launcher) (restore func()) {
	mu.Lock()
	defer mu.Unlock()
	prev := remoteLauncher
	remoteLauncher = l
	return func() {
		mu.Lock()
		defer mu.Unlock()
		remoteLauncher = prev
	}
}

// Backend describes which launcher New would use for kind under cfg.
func Backend(kind Kind, cfg *config.AppConfig) string {
	if cfg != nil && cfg.Remote.Enabled() {
		return "remote webdriver (" + cfg.Remote.Host + ")"
	}
	mu.RLock()
	_, ok := launchers[kind]
	mu.RUnlock()
	switch {
	case !ok:
		return "remote only"
	case kind == common.Chrome:
		return "chromedp"
	case pw.Supports(kind):
		return "playwright"
	default:
		return "custom"
	}
}

// New launches the browser named by cfg.Browser. Unknown names, and
// remote-only kinds without a hub, fail with *ConfigError.
func New(ctx context.Context, cfg *config.AppConfig, opts ...Option) (Browser, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	kind, ok := common.ParseKind(cfg.Browser)
	if !ok {
		return nil, &ConfigError{Name: cfg.Browser}
	}

	mu.RLock()
	launch, local := launchers[kind]
	remoteLaunch := remoteLauncher
	mu.RUnlock()

	if cfg.Remote.Enabled() {
		launch = remoteLaunch
	} else if !local {
		return nil, &ConfigError{Name: cfg.Browser, Reason: "only available on a remote hub (set SELENIUM_HOST)"}
	}

	log.Debugf("Launching %s via %s", kind, Backend(kind, cfg))
	b, err := launch(ctx, kind, cfg, common.BuildOptions(opts...))
	if err != nil {
		return nil, err
	}
	return b, nil
}

// FromEnv loads the configuration from the environment and launches the
// selected browser.
func FromEnv(ctx context.Context, opts ...Option) (Browser, error) {
	cfg, err := config.LoadConfig("", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load browser config: %w", err)
	}
	return New(ctx, cfg, opts...)
}
