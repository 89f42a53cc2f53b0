package chrome

import (
	"context"
	"fmt"
	"strings"
	"time"

	cdplog "github.com/chromedp/cdproto/log"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/luispater/bokchoy/internal/browser/common"
	"github.com/tidwall/gjson"
)

func enableLogDomain() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		return cdplog.Enable().Do(ctx)
	})
}

// handleEvent runs on chromedp's event goroutine and must not block.
func (b *Browser) handleEvent(ev any) {
	switch ev := ev.(type) {
	case *runtime.EventConsoleAPICalled:
		b.consoleLog.Enqueue(common.LogEntry{
			Timestamp: timestampOf(ev.Timestamp),
			Level:     consoleLevel(string(ev.Type)),
			Source:    "console-api",
			Message:   formatArgs(ev.Args),
		})
	case *runtime.EventExceptionThrown:
		msg := "uncaught exception"
		if ev.ExceptionDetails != nil {
			msg = ev.ExceptionDetails.Text
			if ev.ExceptionDetails.Exception != nil && ev.ExceptionDetails.Exception.Description != "" {
				msg = ev.ExceptionDetails.Exception.Description
			}
		}
		b.consoleLog.Enqueue(common.LogEntry{
			Timestamp: timestampOf(ev.Timestamp),
			Level:     "SEVERE",
			Source:    "javascript",
			Message:   msg,
		})
	case *cdplog.EventEntryAdded:
		if ev.Entry == nil {
			return
		}
		msg := ev.Entry.Text
		if ev.Entry.URL != "" {
			msg = ev.Entry.URL + " - " + msg
		}
		b.consoleLog.Enqueue(common.LogEntry{
			Timestamp: timestampOf(ev.Entry.Timestamp),
			Level:     consoleLevel(string(ev.Entry.Level)),
			Source:    string(ev.Entry.Source),
			Message:   msg,
		})
	}
}

// driverLogf returns a chromedp log func that records into the driver log
// and forwards to sink.
func (b *Browser) driverLogf(level string, sink func(string, ...interface{})) func(string, ...interface{}) {
	return func(format string, args ...interface{}) {
		b.recordDriver(level, fmt.Sprintf(format, args...))
		sink(format, args...)
	}
}

func (b *Browser) recordDriver(level, msg string) {
	b.driverLog.Enqueue(common.LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Source:    "chromedp",
		Message:   msg,
	})
}

// consoleLevel maps DevTools levels onto the WebDriver vocabulary.
func consoleLevel(level string) string {
	switch level {
	case "error", "assert":
		return "SEVERE"
	case "warning", "warn":
		return "WARNING"
	case "debug", "verbose", "trace":
		return "DEBUG"
	default:
		return "INFO"
	}
}

func formatArgs(args []*runtime.RemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == nil {
			continue
		}
		switch {
		case len(arg.Value) > 0:
			parts = append(parts, gjson.ParseBytes([]byte(arg.Value)).String())
		case arg.Description != "":
			parts = append(parts, arg.Description)
		default:
			parts = append(parts, string(arg.Type))
		}
	}
	return strings.Join(parts, " ")
}

func timestampOf(ts *runtime.Timestamp) time.Time {
	if ts == nil {
		return time.Now()
	}
	return ts.Time()
}
