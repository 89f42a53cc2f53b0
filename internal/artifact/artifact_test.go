package artifact

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/luispater/bokchoy/internal/browser/common"
	"github.com/luispater/bokchoy/internal/config"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type fakeBrowser struct {
	png     []byte
	source  string
	logs    map[common.LogType][]common.LogEntry
	logErrs map[common.LogType]error
	err     error
}

func (f *fakeBrowser) Kind() common.Kind { return common.Firefox }

func (f *fakeBrowser) Navigate(context.Context, string) error { return nil }

func (f *fakeBrowser) Quit() error { return nil }

func (f *fakeBrowser) Screenshot(context.Context) ([]byte, error) { return f.png, f.err }

func (f *fakeBrowser) Source(context.Context) (string, error) { return f.source, f.err }

func (f *fakeBrowser) Logs(_ context.Context, lt common.LogType) ([]common.LogEntry, error) {
	if err := f.logErrs[lt]; err != nil {
		return nil, err
	}
	return f.logs[lt], nil
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{
		png:    append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 200)...),
		source: "<html><head><title>Button</title></head><body>" + strings.Repeat("<button>Click</button>", 10) + "</body></html>",
		logs: map[common.LogType][]common.LogEntry{
			common.LogBrowser: {
				{Timestamp: time.UnixMilli(1700000000000), Level: "INFO", Source: "console-api", Message: "hello"},
				{Timestamp: time.UnixMilli(1700000000001), Level: "SEVERE", Source: "javascript", Message: `say "hi"`},
			},
			common.LogDriver: {
				{Timestamp: time.UnixMilli(1700000000002), Level: "INFO", Source: "playwright", Message: "launched"},
			},
		},
	}
}

func newMemSaver(env map[string]string) (*Saver, afero.Fs) {
	fs := afero.NewMemMapFs()
	return &Saver{
		Fs: fs,
		Lookup: func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		},
	}, fs
}

func fileSize(t *testing.T, fs afero.Fs, path string) int64 {
	t.Helper()
	info, err := fs.Stat(path)
	require.NoError(t, err, path)
	return info.Size()
}

func TestSaveScreenshot(t *testing.T) {
	t.Parallel()

	s, fs := newMemSaver(map[string]string{"SCREENSHOT_DIR": "/shots"})
	require.NoError(t, s.SaveScreenshot(context.Background(), newFakeBrowser(), "button_page"))

	assert.Greater(t, fileSize(t, fs, "/shots/button_page.png"), int64(100))
}

func TestSaveSource(t *testing.T) {
	t.Parallel()

	s, fs := newMemSaver(map[string]string{"SAVED_SOURCE_DIR": "/html/nested"})
	require.NoError(t, s.SaveSource(context.Background(), newFakeBrowser(), "button_page"))

	assert.Greater(t, fileSize(t, fs, "/html/nested/button_page.html"), int64(100))
	data, err := afero.ReadFile(fs, "/html/nested/button_page.html")
	require.NoError(t, err)
	assert.Contains(t, string(data), "<title>Button</title>")
}

func TestSaveDriverLogs(t *testing.T) {
	t.Parallel()

	s, fs := newMemSaver(map[string]string{"SELENIUM_DRIVER_LOG_DIR": "/logs"})
	require.NoError(t, s.SaveDriverLogs(context.Background(), newFakeBrowser(), "js_page"))

	for _, lt := range []string{"browser", "driver", "client", "server"} {
		ok, err := afero.Exists(fs, "/logs/js_page_"+lt+".log")
		require.NoError(t, err)
		assert.True(t, ok, lt)
	}
	assert.Zero(t, fileSize(t, fs, "/logs/js_page_client.log"))
	assert.Zero(t, fileSize(t, fs, "/logs/js_page_server.log"))

	data, err := afero.ReadFile(fs, "/logs/js_page_browser.log")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, int64(1700000000000), gjson.Get(lines[0], "timestamp").Int())
	assert.Equal(t, "INFO", gjson.Get(lines[0], "level").String())
	assert.Equal(t, "console-api", gjson.Get(lines[0], "source").String())
	assert.Equal(t, "hello", gjson.Get(lines[0], "message").String())
	assert.Equal(t, `say "hi"`, gjson.Get(lines[1], "message").String())
}

func TestSaveDriverLogsSkipsFailingType(t *testing.T) {
	t.Parallel()

	b := newFakeBrowser()
	b.logErrs = map[common.LogType]error{common.LogServer: errors.New("log type not found")}
	s, fs := newMemSaver(map[string]string{"SELENIUM_DRIVER_LOG_DIR": "/logs"})
	require.NoError(t, s.SaveDriverLogs(context.Background(), b, "page"))

	ok, err := afero.Exists(fs, "/logs/page_server.log")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = afero.Exists(fs, "/logs/page_browser.log")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSaveWithoutDirIsNoop(t *testing.T) {
	t.Parallel()

	b := newFakeBrowser()
	b.err = errors.New("must not be called")
	s, fs := newMemSaver(map[string]string{"SCREENSHOT_DIR": ""})
	ctx := context.Background()

	require.NoError(t, s.SaveScreenshot(ctx, b, "page"))
	require.NoError(t, s.SaveSource(ctx, b, "page"))
	require.NoError(t, s.SaveDriverLogs(ctx, b, "page"))

	for _, path := range []string{"/page.png", "/page.html", "/page_browser.log"} {
		ok, err := afero.Exists(fs, path)
		require.NoError(t, err)
		assert.False(t, ok, path)
	}
}

func TestSavePropagatesBrowserError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	b := newFakeBrowser()
	b.err = boom
	s, _ := newMemSaver(map[string]string{
		"SCREENSHOT_DIR":   "/shots",
		"SAVED_SOURCE_DIR": "/html",
	})

	assert.ErrorIs(t, s.SaveScreenshot(context.Background(), b, "page"), boom)
	assert.ErrorIs(t, s.SaveSource(context.Background(), b, "page"), boom)
}

func TestSaveWriteError(t *testing.T) {
	t.Parallel()

	env := map[string]string{"SCREENSHOT_DIR": "/shots"}
	s, fs := newMemSaver(env)
	s.Fs = afero.NewReadOnlyFs(fs)

	assert.Error(t, s.SaveScreenshot(context.Background(), newFakeBrowser(), "page"))
}

func TestSaveAll(t *testing.T) {
	t.Parallel()

	s, fs := newMemSaver(map[string]string{
		"SCREENSHOT_DIR":          "/out",
		"SAVED_SOURCE_DIR":        "/out",
		"SELENIUM_DRIVER_LOG_DIR": "/out",
	})
	require.NoError(t, s.SaveAll(context.Background(), newFakeBrowser(), "all"))

	entries, err := afero.ReadDir(fs, "/out")
	require.NoError(t, err)
	assert.Len(t, entries, 6)
}

func TestSaveUsesDefaults(t *testing.T) {
	t.Parallel()

	s, fs := newMemSaver(map[string]string{"SCREENSHOT_DIR": "/env"})
	s.Defaults = config.AppConfigArtifacts{
		ScreenshotDir:  "/file",
		SavedSourceDir: "/file",
	}
	require.NoError(t, s.SaveScreenshot(context.Background(), newFakeBrowser(), "page"))
	require.NoError(t, s.SaveSource(context.Background(), newFakeBrowser(), "page"))

	for path, want := range map[string]bool{
		"/env/page.png":   true,
		"/file/page.png":  false,
		"/file/page.html": true,
	} {
		ok, err := afero.Exists(fs, path)
		require.NoError(t, err)
		assert.Equal(t, want, ok, path)
	}
}

func TestEncodeLogsEmpty(t *testing.T) {
	t.Parallel()

	data, err := EncodeLogs(nil)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestPackageSaversUseEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SCREENSHOT_DIR", dir)
	t.Setenv("SAVED_SOURCE_DIR", dir)
	t.Setenv("SELENIUM_DRIVER_LOG_DIR", dir)

	b := newFakeBrowser()
	ctx := context.Background()
	require.NoError(t, SaveScreenshot(ctx, b, "button_page"))
	require.NoError(t, SaveSource(ctx, b, "button_page"))
	require.NoError(t, SaveDriverLogs(ctx, b, "js_page"))

	for _, name := range []string{
		"button_page.png", "button_page.html",
		"js_page_browser.log", "js_page_driver.log", "js_page_client.log", "js_page_server.log",
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}
