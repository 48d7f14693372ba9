package search

import (
	"fmt"
	"os"
	"strings"
)

// Provider names one of the interchangeable search strategies. All three
// satisfy Backend; deployments pick one via SEARCH_BACKEND.
type Provider string

const (
	// ProviderElastic delegates ranking to an external full-text engine.
	ProviderElastic Provider = "elasticsearch"
	// ProviderMemory fetches a filtered candidate set and scores it
	// in-process with a fixed weight table.
	ProviderMemory Provider = "memory"
	// ProviderSemantic delegates retrieval and ranking to an external
	// vector-search service.
	ProviderSemantic Provider = "semantic"
)

type ProviderConfigErrorCode string

const (
	ProviderConfigErrorUnknownProvider ProviderConfigErrorCode = "unknown_provider"
)

type ProviderConfigError struct {
	Code     ProviderConfigErrorCode
	Provider string
	Cause    error
}

func (e *ProviderConfigError) Error() string {
	if e == nil {
		return "invalid search provider config"
	}
	return fmt.Sprintf("invalid search provider config (code=%s provider=%q): %v", e.Code, e.Provider, e.Cause)
}

func (e *ProviderConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ResolveProviderFromEnv reads SEARCH_BACKEND, defaulting to the in-memory
// strategy, which needs no external engine.
func ResolveProviderFromEnv() (Provider, error) {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("SEARCH_BACKEND")))
	switch raw {
	case "":
		return ProviderMemory, nil
	case string(ProviderElastic), "es":
		return ProviderElastic, nil
	case string(ProviderMemory), "firestore":
		return ProviderMemory, nil
	case string(ProviderSemantic), "rag":
		return ProviderSemantic, nil
	default:
		return "", &ProviderConfigError{
			Code:     ProviderConfigErrorUnknownProvider,
			Provider: raw,
			Cause:    fmt.Errorf("unsupported search backend %q", raw),
		}
	}
}
