// Package artifact saves screenshots, page source and driver logs of a
// browser into directories named by environment variables.
package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/luispater/bokchoy/internal/browser/common"
	"github.com/luispater/bokchoy/internal/config"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/tidwall/sjson"
)

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

// Saver writes artifacts to Fs. Directories are looked up through Lookup
// on every call, so they may change while a browser is running. Defaults
// fill in directories the environment leaves empty.
type Saver struct {
	Fs       afero.Fs
	Lookup   config.LookupFunc
	Defaults config.AppConfigArtifacts
}

// NewSaver returns a Saver on the OS filesystem and process environment.
func NewSaver() *Saver {
	return &Saver{Fs: afero.NewOsFs(), Lookup: os.LookupEnv}
}

var defaultSaver = NewSaver()

// SaveScreenshot writes <name>.png under SCREENSHOT_DIR.
func SaveScreenshot(ctx context.Context, b common.Browser, name string) error {
	return defaultSaver.SaveScreenshot(ctx, b, name)
}

// SaveDriverLogs writes <name>_<type>.log under SELENIUM_DRIVER_LOG_DIR.
func SaveDriverLogs(ctx context.Context, b common.Browser, name string) error {
	return defaultSaver.SaveDriverLogs(ctx, b, name)
}

// SaveSource writes <name>.html under SAVED_SOURCE_DIR.
func SaveSource(ctx context.Context, b common.Browser, name string) error {
	return defaultSaver.SaveSource(ctx, b, name)
}

// SaveAll runs every saver and joins their errors.
func SaveAll(ctx context.Context, b common.Browser, name string) error {
	return defaultSaver.SaveAll(ctx, b, name)
}

func (s *Saver) dirs() (config.AppConfigArtifacts, error) {
	dirs, err := config.LoadArtifacts(s.Lookup)
	if err != nil {
		return dirs, err
	}
	if dirs.ScreenshotDir == "" {
		dirs.ScreenshotDir = s.Defaults.ScreenshotDir
	}
	if dirs.DriverLogDir == "" {
		dirs.DriverLogDir = s.Defaults.DriverLogDir
	}
	if dirs.SavedSourceDir == "" {
		dirs.SavedSourceDir = s.Defaults.SavedSourceDir
	}
	return dirs, nil
}

func (s *Saver) write(dir, file string, data []byte) (string, error) {
	if err := s.Fs.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, file)
	if err := afero.WriteFile(s.Fs, path, data, filePerm); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// SaveScreenshot writes <name>.png under SCREENSHOT_DIR. It does nothing
// when the variable is unset.
func (s *Saver) SaveScreenshot(ctx context.Context, b common.Browser, name string) error {
	dirs, err := s.dirs()
	if err != nil {
		return err
	}
	if dirs.ScreenshotDir == "" {
		log.Debugf("Screenshot %q not saved: SCREENSHOT_DIR is not set", name)
		return nil
	}

	png, err := b.Screenshot(ctx)
	if err != nil {
		return err
	}
	path, err := s.write(dirs.ScreenshotDir, name+".png", png)
	if err != nil {
		return err
	}
	log.Debugf("Saved screenshot to %s", path)
	return nil
}

// SaveSource writes <name>.html under SAVED_SOURCE_DIR. It does nothing
// when the variable is unset.
func (s *Saver) SaveSource(ctx context.Context, b common.Browser, name string) error {
	dirs, err := s.dirs()
	if err != nil {
		return err
	}
	if dirs.SavedSourceDir == "" {
		log.Debugf("Source %q not saved: SAVED_SOURCE_DIR is not set", name)
		return nil
	}

	src, err := b.Source(ctx)
	if err != nil {
		return err
	}
	path, err := s.write(dirs.SavedSourceDir, name+".html", []byte(src))
	if err != nil {
		return err
	}
	log.Debugf("Saved page source to %s", path)
	return nil
}

// SaveDriverLogs writes one file per log type under
// SELENIUM_DRIVER_LOG_DIR, one JSON record per line. A log type the
// browser fails to return is skipped with a warning; write failures are
// returned.
func (s *Saver) SaveDriverLogs(ctx context.Context, b common.Browser, name string) error {
	dirs, err := s.dirs()
	if err != nil {
		return err
	}
	if dirs.DriverLogDir == "" {
		log.Debugf("Driver logs %q not saved: SELENIUM_DRIVER_LOG_DIR is not set", name)
		return nil
	}

	for _, logType := range common.LogTypes {
		entries, errLogs := b.Logs(ctx, logType)
		if errLogs != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			log.Warnf("Could not save %s log for %q: %v", logType, name, errLogs)
			continue
		}

		data, errEncode := EncodeLogs(entries)
		if errEncode != nil {
			return errEncode
		}
		path, errWrite := s.write(dirs.DriverLogDir, fmt.Sprintf("%s_%s.log", name, logType), data)
		if errWrite != nil {
			return errWrite
		}
		log.Debugf("Saved %d %s log entries to %s", len(entries), logType, path)
	}
	return nil
}

// SaveAll runs every saver and joins their errors.
func (s *Saver) SaveAll(ctx context.Context, b common.Browser, name string) error {
	return errors.Join(
		s.SaveScreenshot(ctx, b, name),
		s.SaveSource(ctx, b, name),
		s.SaveDriverLogs(ctx, b, name),
	)
}

// EncodeLogs renders entries as newline-terminated JSON objects with
// timestamp (unix milliseconds), level, source and message fields.
func EncodeLogs(entries []common.LogEntry) ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range entries {
		line := []byte(`{}`)
		var err error
		line, err = sjson.SetBytes(line, "timestamp", e.Timestamp.UnixMilli())
		if err == nil {
			line, err = sjson.SetBytes(line, "level", e.Level)
		}
		if err == nil {
			line, err = sjson.SetBytes(line, "source", e.Source)
		}
		if err == nil {
			line, err = sjson.SetBytes(line, "message", e.Message)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to encode log entry: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
