package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/mstoykov/envconfig"
)

// DefaultBrowser is used when SELENIUM_BROWSER is not set.
const DefaultBrowser = "firefox"

// DefaultRemotePort is the standard Selenium hub port.
const DefaultRemotePort = 4444

// LookupFunc resolves an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// AppConfig holds the browser launch configuration.
type AppConfig struct {
	Browser         string   `yaml:"browser" envconfig:"SELENIUM_BROWSER"`
	Headless        bool     `yaml:"headless" envconfig:"BOKCHOY_HEADLESS"`
	Debug           bool     `yaml:"debug" envconfig:"BOKCHOY_DEBUG"`
	InstallBrowsers bool     `yaml:"install-browsers" envconfig:"BOKCHOY_INSTALL_BROWSERS"`
	Proxy           string   `yaml:"proxy,omitempty" envconfig:"BOKCHOY_PROXY"`
	Tags            []string `yaml:"tags,omitempty" envconfig:"BOKCHOY_TAGS"`

	Chrome    AppConfigChrome    `yaml:"chrome" ignored:"true"`
	Firefox   AppConfigFirefox   `yaml:"firefox" ignored:"true"`
	Remote    AppConfigRemote    `yaml:"remote" ignored:"true"`
	Artifacts AppConfigArtifacts `yaml:"artifacts" ignored:"true"`
}

type AppConfigChrome struct {
	ExecPath    string   `yaml:"exec-path" envconfig:"CHROME_BIN"`
	UserDataDir string   `yaml:"user-data-dir,omitempty" envconfig:"BOKCHOY_CHROME_USER_DATA_DIR"`
	Args        []string `yaml:"args" envconfig:"BOKCHOY_CHROME_ARGS"`
}

type AppConfigFirefox struct {
	ExecPath string `yaml:"exec-path" envconfig:"SELENIUM_FIREFOX_PATH"`
}

// AppConfigRemote describes a Selenium hub. The remote backend is used
// whenever Host is set.
type AppConfigRemote struct {
	Host        string `yaml:"host" envconfig:"SELENIUM_HOST"`
	Port        int    `yaml:"port" envconfig:"SELENIUM_PORT"`
	Version     string `yaml:"version,omitempty" envconfig:"SELENIUM_VERSION"`
	Platform    string `yaml:"platform,omitempty" envconfig:"SELENIUM_PLATFORM"`
	JobName     string `yaml:"job-name,omitempty" envconfig:"JOB_NAME"`
	BuildNumber string `yaml:"build-number,omitempty" envconfig:"BUILD_NUMBER"`
	SauceUser   string `yaml:"sauce-user,omitempty" envconfig:"SAUCE_USER_NAME"`
	SauceKey    string `yaml:"sauce-key,omitempty" envconfig:"SAUCE_API_KEY"`
}

// AppConfigArtifacts names the directories artifacts are written to. An
// empty directory disables the corresponding saver.
type AppConfigArtifacts struct {
	ScreenshotDir  string `yaml:"screenshot-dir" envconfig:"SCREENSHOT_DIR"`
	DriverLogDir   string `yaml:"driver-log-dir" envconfig:"SELENIUM_DRIVER_LOG_DIR"`
	SavedSourceDir string `yaml:"saved-source-dir" envconfig:"SAVED_SOURCE_DIR"`
}

// Enabled reports whether a remote hub is configured.
func (r AppConfigRemote) Enabled() bool {
	return r.Host != ""
}

// URL returns the WebDriver endpoint of the hub, with Sauce Labs
// credentials when both are present.
func (r AppConfigRemote) URL() string {
	port := r.Port
	if port == 0 {
		port = DefaultRemotePort
	}
	u := url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(r.Host, strconv.Itoa(port)),
		Path:   "/wd/hub",
	}
	if r.SauceUser != "" && r.SauceKey != "" {
		u.User = url.UserPassword(r.SauceUser, r.SauceKey)
	}
	return u.String()
}

// NewConfig returns the built-in defaults.
func NewConfig() *AppConfig {
	return &AppConfig{
		Browser: DefaultBrowser,
		Remote: AppConfigRemote{
			Port: DefaultRemotePort,
		},
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML
// file at path and finally the environment. A nil lookup uses
// os.LookupEnv.
func LoadConfig(path string, lookup LookupFunc) (*AppConfig, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	cfg := NewConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := processEnv(cfg, lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadArtifacts reads only the artifact directories from the environment.
func LoadArtifacts(lookup LookupFunc) (AppConfigArtifacts, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var artifacts AppConfigArtifacts
	if err := envconfig.Process("", &artifacts, lookup); err != nil {
		return artifacts, fmt.Errorf("failed to read artifact directories: %w", err)
	}
	return artifacts, nil
}

func processEnv(cfg *AppConfig, lookup LookupFunc) error {
	specs := []any{cfg, &cfg.Chrome, &cfg.Firefox, &cfg.Remote, &cfg.Artifacts}
	for _, spec := range specs {
		if err := envconfig.Process("", spec, lookup); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
	}
	return nil
}
