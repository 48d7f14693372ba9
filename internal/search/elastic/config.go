package elastic

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

type ConfigErrorCode string

const (
	ConfigErrorMissingURL   ConfigErrorCode = "missing_url"
	ConfigErrorInvalidURL   ConfigErrorCode = "invalid_url"
	ConfigErrorMissingIndex ConfigErrorCode = "missing_index"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Cause error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid elasticsearch config"
	}
	return fmt.Sprintf("invalid elasticsearch config (code=%s): %v", e.Code, e.Cause)
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

type Config struct {
	URL   string
	Index string
}

func ResolveConfigFromEnv() (Config, error) {
	cfg := Config{
		URL:   strings.TrimSpace(os.Getenv("ELASTICSEARCH_URL")),
		Index: strings.TrimSpace(os.Getenv("ELASTICSEARCH_INDEX")),
	}
	if cfg.URL == "" {
		return Config{}, &ConfigError{Code: ConfigErrorMissingURL, Cause: fmt.Errorf("ELASTICSEARCH_URL is required")}
	}
	parsed, err := url.Parse(cfg.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return Config{}, &ConfigError{Code: ConfigErrorInvalidURL, Cause: fmt.Errorf("ELASTICSEARCH_URL %q is not an absolute URL", cfg.URL)}
	}
	if cfg.Index == "" {
		return Config{}, &ConfigError{Code: ConfigErrorMissingIndex, Cause: fmt.Errorf("ELASTICSEARCH_INDEX is required")}
	}
	return cfg, nil
}
