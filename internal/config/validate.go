package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSite(); err != nil {
		return err
	}
	if err := c.validateRemote(); err != nil {
		return err
	}
	if err := c.validateMessaging(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateSite() error {
	// site.id may be empty here; scanning is refused until it is set, either
	// in config or through the runtime settings store.
	switch c.Site.DefaultAction {
	case "arrival", "departure":
	default:
		return fmt.Errorf("site.default_action must be %q or %q", "arrival", "departure")
	}
	if c.Site.Year == "" {
		return errors.New("site.year must be set")
	}
	return nil
}

func (c *Config) validateRemote() error {
	if c.Remote.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/tapline/config.toml"
		}
		return fmt.Errorf("remote.base_url is required; edit %s (create with 'tapline config init')", defaultPath)
	}
	parsed, err := url.Parse(c.Remote.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("remote.base_url %q is not an absolute URL", c.Remote.BaseURL)
	}
	if c.Remote.RequestTimeout <= 0 {
		return errors.New("remote.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateMessaging() error {
	if !c.Messaging.Enabled {
		return nil
	}
	if c.Messaging.RequestTimeout <= 0 {
		return errors.New("messaging.request_timeout must be positive")
	}
	if c.Messaging.APIKey != "" && c.Messaging.SenderName == "" {
		return errors.New("messaging.sender_name must be set when messaging.api_key is set")
	}
	return nil
}

func (c *Config) validateSync() error {
	if err := ensurePositiveMap(map[string]int{
		"sync.flush_interval":         c.Sync.FlushInterval,
		"sync.probe_interval":         c.Sync.ProbeInterval,
		"sync.refresh_retries":        c.Sync.RefreshRetries,
		"sync.refresh_retry_delay_ms": c.Sync.RefreshRetryDelayMS,
	}); err != nil {
		return err
	}
	if c.Sync.SubmitRetryDelayMS < 0 {
		return errors.New("sync.submit_retry_delay_ms must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be %q or %q", "console", "json")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
