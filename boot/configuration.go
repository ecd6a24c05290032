package boot

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/noctsys/noct/log"
	"github.com/noctsys/noct/resource"
)

// requiredKeys must be present in every configuration.
var requiredKeys = []string{
	"noct.application.name",
	"noct.application.version",
}

// LoadConfig reads the configuration file or directory at path and scans
// it over the defaults. The returned config must be closed by the caller.
func LoadConfig(path string) (config.Config, *Bootstrap, error) {
	if path == "" {
		return nil, nil, fmt.Errorf("configuration path is empty: please specify it via -conf or %s", ConfigPathEnv)
	}
	log.Infof("loading bootstrap configuration from: %s", path)

	cfg := config.New(config.WithSource(file.NewSource(path)))
	if err := cfg.Load(); err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration from %s: %w", path, err)
	}
	if err := validateConfig(cfg); err != nil {
		_ = cfg.Close()
		return nil, nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	bc := defaults()
	if err := cfg.Scan(&bc); err != nil {
		_ = cfg.Close()
		return nil, nil, fmt.Errorf("failed to scan configuration: %w", err)
	}
	if err := bc.validate(); err != nil {
		_ = cfg.Close()
		return nil, nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, &bc, nil
}

func validateConfig(cfg config.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration instance is nil")
	}
	for _, key := range requiredKeys {
		if _, err := cfg.Value(key).String(); err != nil {
			return fmt.Errorf("required configuration key '%s' is missing or invalid: %w", key, err)
		}
	}
	return nil
}

func (b *Bootstrap) validate() error {
	if b.Noct.Console.Capacity < 0 {
		return fmt.Errorf("noct.console.capacity must not be negative")
	}
	if b.Noct.Console.MaxLines < 0 {
		return fmt.Errorf("noct.console.max_lines must not be negative")
	}
	if _, err := b.debounce(); err != nil {
		return fmt.Errorf("noct.resource.debounce: %w", err)
	}
	if r := b.Noct.Tracing.Ratio; r < 0 || r > 1 {
		return fmt.Errorf("noct.tracing.ratio must be within [0, 1], got %v", r)
	}
	if p := b.Noct.Metrics.Path; b.Noct.Metrics.Addr != "" && !strings.HasPrefix(p, "/") {
		return fmt.Errorf("noct.metrics.path must start with '/', got %q", p)
	}
	return nil
}

func (b *Bootstrap) debounce() (time.Duration, error) {
	if b.Noct.Resource.Debounce == "" {
		return resource.DefaultDebounce, nil
	}
	d, err := time.ParseDuration(b.Noct.Resource.Debounce)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}
