package pw

import (
	"context"
	"fmt"
	"time"

	"github.com/luispater/bokchoy/internal/browser/common"
	"github.com/playwright-community/playwright-go"
)

// attach wires page events into the browser and driver logs.
func (b *Browser) attach(page playwright.Page) {
	page.OnConsole(func(msg playwright.ConsoleMessage) {
		b.consoleLog.Enqueue(common.LogEntry{
			Timestamp: time.Now(),
			Level:     consoleLevel(msg.Type()),
			Source:    "console-api",
			Message:   msg.Text(),
		})
	})
	page.OnPageError(func(err error) {
		b.consoleLog.Enqueue(common.LogEntry{
			Timestamp: time.Now(),
			Level:     "SEVERE",
			Source:    "javascript",
			Message:   err.Error(),
		})
	})
	page.OnFrameNavigated(func(frame playwright.Frame) {
		if frame.ParentFrame() == nil {
			b.recordDriver("INFO", "navigated to "+frame.URL())
		}
	})
	page.OnRequestFailed(func(req playwright.Request) {
		reason := "unknown"
		if failure := req.Failure(); failure != nil {
			reason = failure.Error()
		}
		b.recordDriver("WARNING", fmt.Sprintf("request %s %s failed: %s", req.Method(), req.URL(), reason))
	})
	page.OnCrash(func(playwright.Page) {
		b.recordDriver("SEVERE", "page crashed")
	})
	page.OnClose(func(playwright.Page) {
		b.recordDriver("INFO", "page closed")
	})
}

// timeoutFrom converts the ctx deadline into a Playwright timeout in
// milliseconds. Nil means the Playwright default.
func timeoutFrom(ctx context.Context) *float64 {
	deadline, ok := ctx.Deadline()
	if !ok {
		return nil
	}
	ms := float64(time.Until(deadline).Milliseconds())
	if ms < 1 {
		ms = 1
	}
	return playwright.Float(ms)
}

// Navigate loads url and waits for the load event.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   timeoutFrom(ctx),
	})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// Screenshot captures the full page as PNG.
func (b *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf, err := b.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
		Type:     playwright.ScreenshotTypePng,
		Timeout:  timeoutFrom(ctx),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// Source returns the serialized DOM of the current document.
func (b *Browser) Source(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	html, err := b.page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page source: %w", err)
	}
	return html, nil
}

// Logs returns and clears the entries collected for logType. Playwright
// has no client or server streams; those are always empty.
func (b *Browser) Logs(_ context.Context, logType common.LogType) ([]common.LogEntry, error) {
	switch logType {
	case common.LogBrowser:
		return b.consoleLog.Drain(), nil
	case common.LogDriver:
		return b.driverLog.Drain(), nil
	case common.LogClient, common.LogServer:
		return []common.LogEntry{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", common.ErrUnsupportedLogType, logType)
	}
}

func consoleLevel(typ string) string {
	switch typ {
	case "error", "assert":
		return "SEVERE"
	case "warning":
		return "WARNING"
	case "debug", "trace":
		return "DEBUG"
	default:
		return "INFO"
	}
}
