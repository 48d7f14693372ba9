package semantic

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

type ConfigErrorCode string

const (
	ConfigErrorMissingURL        ConfigErrorCode = "missing_url"
	ConfigErrorInvalidURL        ConfigErrorCode = "invalid_url"
	ConfigErrorMissingCollection ConfigErrorCode = "missing_collection"
	ConfigErrorMissingVectorDim  ConfigErrorCode = "missing_vector_dim"
	ConfigErrorInvalidVectorDim  ConfigErrorCode = "invalid_vector_dim"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Cause error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid vector store config"
	}
	return fmt.Sprintf("invalid vector store config (code=%s): %v", e.Code, e.Cause)
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

type Config struct {
	URL             string
	Collection      string
	NamespacePrefix string
	VectorDim       int
}

func ResolveConfigFromEnv() (Config, error) {
	cfg := Config{
		URL:             strings.TrimSpace(os.Getenv("QDRANT_URL")),
		Collection:      strings.TrimSpace(os.Getenv("QDRANT_COLLECTION")),
		NamespacePrefix: strings.TrimSpace(os.Getenv("QDRANT_NAMESPACE_PREFIX")),
	}
	if cfg.NamespacePrefix == "" {
		cfg.NamespacePrefix = "ab"
	}

	if cfg.URL == "" {
		return Config{}, &ConfigError{Code: ConfigErrorMissingURL, Cause: fmt.Errorf("QDRANT_URL is required")}
	}
	parsed, err := url.Parse(cfg.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return Config{}, &ConfigError{Code: ConfigErrorInvalidURL, Cause: fmt.Errorf("QDRANT_URL %q is not an absolute URL", cfg.URL)}
	}
	if cfg.Collection == "" {
		return Config{}, &ConfigError{Code: ConfigErrorMissingCollection, Cause: fmt.Errorf("QDRANT_COLLECTION is required")}
	}

	rawDim := strings.TrimSpace(os.Getenv("QDRANT_VECTOR_DIM"))
	if rawDim == "" {
		return Config{}, &ConfigError{Code: ConfigErrorMissingVectorDim, Cause: fmt.Errorf("QDRANT_VECTOR_DIM is required")}
	}
	dim, err := strconv.Atoi(rawDim)
	if err != nil || dim <= 0 {
		return Config{}, &ConfigError{Code: ConfigErrorInvalidVectorDim, Cause: fmt.Errorf("QDRANT_VECTOR_DIM %q is not a positive integer", rawDim)}
	}
	cfg.VectorDim = dim

	return cfg, nil
}
