// Package remote drives browsers hosted on a Selenium hub or a Sauce Labs
// tunnel through the WebDriver wire protocol.
package remote

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/luispater/bokchoy/internal/browser/common"
	"github.com/luispater/bokchoy/internal/config"
	log "github.com/sirupsen/logrus"
	"github.com/tebeka/selenium"
	slog "github.com/tebeka/selenium/log"
)

// newRemote is replaced in tests.
var newRemote = selenium.NewRemote

var logTypes = map[common.LogType]slog.Type{
	common.LogBrowser: slog.Browser,
	common.LogDriver:  slog.Driver,
	common.LogClient:  slog.Client,
	common.LogServer:  slog.Server,
}

// Browser is a WebDriver session on a remote hub.
type Browser struct {
	kind common.Kind
	wd   selenium.WebDriver

	quitOnce sync.Once
	quitErr  error
}

// browserName returns the WebDriver browserName for kind.
func browserName(kind common.Kind) string {
	if kind == common.Chromium {
		return string(common.Chrome)
	}
	return string(kind)
}

// Capabilities builds the desired capabilities sent to the hub.
func Capabilities(kind common.Kind, cfg *config.AppConfig, opts common.Options) selenium.Capabilities {
	caps := selenium.Capabilities{
		"browserName": browserName(kind),
	}
	if cfg.Remote.Version != "" {
		caps["version"] = cfg.Remote.Version
	}
	if cfg.Remote.Platform != "" {
		caps["platform"] = cfg.Remote.Platform
	}

	name := cfg.Remote.JobName
	if name == "" {
		name = "bokchoy-" + uuid.NewString()
	}
	caps["name"] = name
	if cfg.Remote.BuildNumber != "" {
		caps["build"] = cfg.Remote.BuildNumber
	}

	tags := append(append([]string{}, cfg.Tags...), opts.Tags...)
	if len(tags) > 0 {
		caps["tags"] = tags
	}

	proxy := cfg.Proxy
	if opts.Proxy != "" {
		proxy = opts.Proxy
	}
	if proxy != "" {
		caps.AddProxy(selenium.Proxy{
			Type: selenium.Manual,
			HTTP: proxy,
			SSL:  proxy,
		})
	}

	for _, lt := range common.LogTypes {
		caps.SetLogLevel(logTypes[lt], slog.All)
	}

	for k, v := range opts.Capabilities {
		caps[k] = v
	}
	return caps
}

// Launch opens a session for kind on the configured hub.
func Launch(ctx context.Context, kind common.Kind, cfg *config.AppConfig, opts common.Options) (*Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	caps := Capabilities(kind, cfg, opts)
	log.Debugf("Requesting %s session from %s", kind, cfg.Remote.Host)
	wd, err := newRemote(caps, cfg.Remote.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to open remote %s session: %w", kind, err)
	}
	log.Infof("Remote %s session %s started on %s", kind, wd.SessionID(), cfg.Remote.Host)

	return &Browser{kind: kind, wd: wd}, nil
}

// Kind implements common.Browser.
func (b *Browser) Kind() common.Kind {
	return b.kind
}

// Navigate loads url in the remote browser.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.wd.Get(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// Screenshot returns the PNG screenshot taken by the remote driver.
func (b *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf, err := b.wd.Screenshot()
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// Source returns the page source reported by the remote driver.
func (b *Browser) Source(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src, err := b.wd.PageSource()
	if err != nil {
		return "", fmt.Errorf("failed to read page source: %w", err)
	}
	return src, nil
}

// Logs fetches logType from the remote driver. Drivers that do not keep a
// stream answer with an error.
func (b *Browser) Logs(ctx context.Context, logType common.LogType) ([]common.LogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	typ, ok := logTypes[logType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrUnsupportedLogType, logType)
	}
	msgs, err := b.wd.Log(typ)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s log: %w", logType, err)
	}
	entries := make([]common.LogEntry, 0, len(msgs))
	for _, m := range msgs {
		entries = append(entries, common.LogEntry{
			Timestamp: m.Timestamp,
			Level:     string(m.Level),
			Source:    string(typ),
			Message:   m.Message,
		})
	}
	return entries, nil
}

// Quit ends the remote session. Calling it more than once returns the
// result of the first call.
func (b *Browser) Quit() error {
	b.quitOnce.Do(func() {
		if err := b.wd.Quit(); err != nil {
			log.Debugf("Error quitting remote session: %v", err)
			b.quitErr = err
		}
	})
	return b.quitErr
}
