package common

import "fmt"

// ConfigError reports a browser selection that cannot be launched.
type ConfigError struct {
	Name   string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid browser name %q", e.Name)
	}
	return fmt.Sprintf("invalid browser name %q: %s", e.Name, e.Reason)
}
