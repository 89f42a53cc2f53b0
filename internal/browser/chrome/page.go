package chrome

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"github.com/luispater/bokchoy/internal/browser/common"
	log "github.com/sirupsen/logrus"
)

// Navigate loads url in the current tab and waits for the load event.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	if err := b.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	b.recordDriver("INFO", "navigated to "+url)
	log.Debugf("Successfully navigated to: %s", url)
	return nil
}

// Screenshot captures the full page as PNG.
func (b *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	// quality 100 selects PNG encoding
	if err := b.run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// Source returns the serialized DOM of the current document.
func (b *Browser) Source(ctx context.Context) (string, error) {
	var html string
	if err := b.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page source: %w", err)
	}
	return html, nil
}

// Logs returns and clears the entries collected for logType. Chrome has no
// client or server streams; those are always empty.
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
