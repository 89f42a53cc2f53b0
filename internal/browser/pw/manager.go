package pw

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/luispater/bokchoy/internal/browser/common"
	"github.com/luispater/bokchoy/internal/config"
	"github.com/luispater/bokchoy/internal/utils"
	"github.com/playwright-community/playwright-go"
	log "github.com/sirupsen/logrus"
)

// engines maps browser kinds onto the Playwright engine that renders them.
var engines = map[common.Kind]string{
	common.Firefox:  "firefox",
	common.Chromium: "chromium",
	common.Safari:   "webkit",
}

// Supports reports whether kind can be launched through Playwright.
func Supports(kind common.Kind) bool {
	_, ok := engines[kind]
	return ok
}

// Browser holds the Playwright driver, the launched browser and its single
// page.
type Browser struct {
	kind    common.Kind
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page

	consoleLog *utils.Queue[common.LogEntry]
	driverLog  *utils.Queue[common.LogEntry]

	quitOnce sync.Once
	quitErr  error
}

// Launch starts the Playwright driver and opens a browser of the given
// kind with one blank page.
func Launch(ctx context.Context, kind common.Kind, cfg *config.AppConfig, opts common.Options) (*Browser, error) {
	engine, ok := engines[kind]
	if !ok {
		return nil, fmt.Errorf("playwright cannot launch %q", kind)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runOpts := &playwright.RunOptions{
		Browsers: []string{engine},
		Verbose:  cfg.Debug,
	}
	if cfg.InstallBrowsers {
		log.Debugf("Installing playwright %s...", engine)
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	b := &Browser{
		kind:       kind,
		pw:         pw,
		consoleLog: utils.NewQueue[common.LogEntry](utils.DefaultQueueLimit),
		driverLog:  utils.NewQueue[common.LogEntry](utils.DefaultQueueLimit),
	}

	browser, err := b.browserType(engine).Launch(launchOptions(kind, cfg, opts))
	if err != nil {
		_ = b.Quit()
		return nil, fmt.Errorf("failed to launch %s: %w", kind, err)
	}
	b.browser = browser
	b.recordDriver("INFO", fmt.Sprintf("%s %s launched", engine, browser.Version()))
	log.Debugf("Browser %s launched successfully.", kind)

	page, err := browser.NewPage()
	if err != nil {
		_ = b.Quit()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	b.page = page
	b.attach(page)

	return b, nil
}

func launchOptions(kind common.Kind, cfg *config.AppConfig, opts common.Options) playwright.BrowserTypeLaunchOptions {
	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	}
	switch kind {
	case common.Firefox:
		if cfg.Firefox.ExecPath != "" {
			launchOpts.ExecutablePath = playwright.String(cfg.Firefox.ExecPath)
			log.Debugf("Attempting to launch Firefox from: %s", cfg.Firefox.ExecPath)
		} else {
			log.Debug("Firefox path not specified, launching default Playwright Firefox.")
		}
	case common.Chromium:
		if cfg.Chrome.ExecPath != "" {
			launchOpts.ExecutablePath = playwright.String(cfg.Chrome.ExecPath)
		}
		if len(cfg.Chrome.Args) > 0 {
			launchOpts.Args = cfg.Chrome.Args
		}
	}

	proxy := cfg.Proxy
	if opts.Proxy != "" {
		proxy = opts.Proxy
	}
	if proxy != "" {
		launchOpts.Proxy = &playwright.Proxy{Server: proxy}
	}
	return launchOpts
}

func (b *Browser) browserType(engine string) playwright.BrowserType {
	switch engine {
	case "chromium":
		return b.pw.Chromium
	case "webkit":
		return b.pw.WebKit
	default:
		return b.pw.Firefox
	}
}

// Kind implements common.Browser.
func (b *Browser) Kind() common.Kind {
	return b.kind
}

// Quit closes the browser and stops the Playwright driver. Calling it more
// than once returns the result of the first call.
func (b *Browser) Quit() error {
	b.quitOnce.Do(func() {
		var firstErr error
		if b.browser != nil {
			if err := b.browser.Close(); err != nil {
				log.Debugf("Error closing browser: %v", err)
				firstErr = err
			}
		}
		if b.pw != nil {
			if err := b.pw.Stop(); err != nil {
				log.Debugf("Error stopping playwright: %v", err)
				if firstErr == nil {
					firstErr = err
				}
			}
		}
		b.quitErr = firstErr
	})
	return b.quitErr
}

func (b *Browser) recordDriver(level, msg string) {
	b.driverLog.Enqueue(common.LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Source:    "playwright",
		Message:   msg,
	})
}
