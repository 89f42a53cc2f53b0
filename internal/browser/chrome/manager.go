package chrome

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/luispater/bokchoy/internal/browser/common"
	"github.com/luispater/bokchoy/internal/config"
	"github.com/luispater/bokchoy/internal/utils"
	log "github.com/sirupsen/logrus"
)

// Browser is a chromedp-driven Chrome instance.
type Browser struct {
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	execPath      string

	consoleLog *utils.Queue[common.LogEntry]
	driverLog  *utils.Queue[common.LogEntry]

	quitOnce sync.Once
	quitErr  error
}

// allocatorOptions builds the exec allocator flags from the configuration.
func allocatorOptions(cfg *config.AppConfig, opts common.Options) ([]chromedp.ExecAllocatorOption, string) {
	execPath := cfg.Chrome.ExecPath
	if execPath == "" {
		log.Debug("Chrome path not specified in config or CHROME_BIN env, will attempt auto-detection.")
	}

	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts,
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
	)

	if execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(execPath))
	}

	if cfg.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", true))
		allocOpts = append(allocOpts, chromedp.Flag("disable-gpu", true))
		allocOpts = append(allocOpts, chromedp.WindowSize(1920, 1080))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}

	if cfg.Chrome.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(cfg.Chrome.UserDataDir))
	}

	proxy := cfg.Proxy
	if opts.Proxy != "" {
		proxy = opts.Proxy
	}
	if proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(proxy))
	}

	for _, arg := range cfg.Chrome.Args {
		if arg != "" {
			parts := strings.SplitN(arg, "=", 2)
			if len(parts) == 2 {
				allocOpts = append(allocOpts, chromedp.Flag(strings.TrimPrefix(parts[0], "--"), parts[1]))
			} else {
				allocOpts = append(allocOpts, chromedp.Flag(strings.TrimPrefix(parts[0], "--"), true))
			}
		}
	}

	return allocOpts, execPath
}

// Launch starts Chrome and attaches to its first tab. The browser outlives
// ctx; release it with Quit.
func Launch(ctx context.Context, cfg *config.AppConfig, opts common.Options) (*Browser, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	allocOpts, execPath := allocatorOptions(cfg, opts)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)

	b := &Browser{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		execPath:    execPath,
		consoleLog:  utils.NewQueue[common.LogEntry](utils.DefaultQueueLimit),
		driverLog:   utils.NewQueue[common.LogEntry](utils.DefaultQueueLimit),
	}

	browserCtx, browserCancel := chromedp.NewContext(
		allocCtx,
		chromedp.WithLogf(b.driverLogf("INFO", log.Debugf)),
		chromedp.WithErrorf(b.driverLogf("SEVERE", log.Warnf)),
	)
	b.browserCtx = browserCtx
	b.browserCancel = browserCancel

	chromedp.ListenTarget(browserCtx, b.handleEvent)

	// The first Run allocates the browser, so it must use the browser
	// context itself rather than a cancellable child.
	if err := chromedp.Run(browserCtx, enableLogDomain()); err != nil {
		_ = b.Quit()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b.recordDriver("INFO", fmt.Sprintf("chrome launched (path: %q)", execPath))
	log.Infof("Chromedp browser launched successfully with path: %s", execPath)
	return b, nil
}

// Kind implements common.Browser.
func (b *Browser) Kind() common.Kind {
	return common.Chrome
}

// Quit closes the browser and shuts down its process. Calling it more than
// once returns the result of the first call.
func (b *Browser) Quit() error {
	b.quitOnce.Do(func() {
		if b.browserCtx != nil {
			log.Debug("Cancelling Chromedp browser context...")
			if err := chromedp.Cancel(b.browserCtx); err != nil {
				log.Debugf("Error closing chrome: %v", err)
				b.quitErr = err
			}
			b.browserCancel()
		}
		if b.allocCancel != nil {
			log.Debug("Cancelling Chromedp allocator context...")
			b.allocCancel()
		}
		log.Info("Chromedp browser closed.")
	})
	return b.quitErr
}

// run executes actions on the browser tab, stopping early if ctx is done.
func (b *Browser) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(b.browserCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}
