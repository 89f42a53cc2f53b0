package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luispater/bokchoy/internal/browser"
	"github.com/luispater/bokchoy/internal/browser/common"
	"github.com/luispater/bokchoy/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBrowser struct {
	visited []string
	quit    bool
}

func (f *fakeBrowser) Kind() common.Kind { return common.Chrome }

func (f *fakeBrowser) Navigate(_ context.Context, url string) error {
	f.visited = append(f.visited, url)
	return nil
}

func (f *fakeBrowser) Screenshot(context.Context) ([]byte, error) {
	return []byte("\x89PNG\r\n\x1a\n" + strings.Repeat("x", 128)), nil
}

func (f *fakeBrowser) Source(context.Context) (string, error) {
	return "<html><head><title> Button Page </title></head><body></body></html>", nil
}

func (f *fakeBrowser) Logs(context.Context, common.LogType) ([]common.LogEntry, error) {
	return nil, nil
}

func (f *fakeBrowser) Quit() error {
	f.quit = true
	return nil
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPageTitle(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Hello", pageTitle("<html><head><title>Hello</title></head></html>"))
	assert.Equal(t, "", pageTitle("<html><body>no title</body></html>"))
	assert.Equal(t, "First", pageTitle("<title>First</title><svg><title>Second</title></svg>"))
}

func TestCaptureCommand(t *testing.T) {
	fake := &fakeBrowser{}
	t.Cleanup(browser.Register(common.Chrome, func(context.Context, common.Kind, *config.AppConfig, common.Options) (common.Browser, error) {
		return fake, nil
	}))

	dir := t.TempDir()
	t.Setenv("SELENIUM_BROWSER", "chrome")
	t.Setenv("SELENIUM_HOST", "")
	t.Setenv("SCREENSHOT_DIR", dir)
	t.Setenv("SAVED_SOURCE_DIR", dir)
	t.Setenv("SELENIUM_DRIVER_LOG_DIR", dir)

	out, err := run(t, "capture", "http://localhost:8003/button", "button_page")
	require.NoError(t, err)
	assert.Contains(t, out, `as "button_page"`)
	assert.Contains(t, out, `(title: "Button Page")`)
	assert.Equal(t, []string{"http://localhost:8003/button"}, fake.visited)
	assert.True(t, fake.quit)

	for _, name := range []string{
		"button_page.png", "button_page.html",
		"button_page_browser.log", "button_page_driver.log",
		"button_page_client.log", "button_page_server.log",
	} {
		_, errStat := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, errStat, name)
	}
}

func TestCaptureInvalidBrowser(t *testing.T) {
	t.Setenv("SELENIUM_BROWSER", "invalid")

	_, err := run(t, "capture", "http://localhost")
	var cfgErr *common.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestCaptureRequiresURL(t *testing.T) {
	_, err := run(t, "capture")
	assert.Error(t, err)
}

func TestBrowsersCommand(t *testing.T) {
	t.Setenv("SELENIUM_BROWSER", "safari")
	t.Setenv("SELENIUM_HOST", "")

	out, err := run(t, "browsers")
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	for _, kind := range common.Kinds {
		assert.Contains(t, out, string(kind))
	}
	assert.Contains(t, out, "safari *")
	assert.Contains(t, out, "chromedp")
	assert.Contains(t, out, "remote only")
}

func TestConfigFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bokchoy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("browser: chromium\n"), 0o644))
	t.Setenv("SELENIUM_HOST", "")
	t.Setenv("SELENIUM_BROWSER", "")
	require.NoError(t, os.Unsetenv("SELENIUM_BROWSER"))

	out, err := run(t, "--config", path, "browsers")
	require.NoError(t, err)
	assert.Contains(t, out, "chromium *")
}
