package semantic

import (
	"errors"
	"testing"
)

func setValidEnv(t *testing.T) {
	t.Setenv("QDRANT_URL", "http://qdrant:6333")
	t.Setenv("QDRANT_COLLECTION", "universities")
	t.Setenv("QDRANT_NAMESPACE_PREFIX", "ab")
	t.Setenv("QDRANT_VECTOR_DIM", "1536")
}

func TestResolveConfigFromEnv(t *testing.T) {
	setValidEnv(t)

	cfg, err := ResolveConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveConfigFromEnv: %v", err)
	}
	if cfg.URL != "http://qdrant:6333" {
		t.Fatalf("url: want=%q got=%q", "http://qdrant:6333", cfg.URL)
	}
	if cfg.Collection != "universities" {
		t.Fatalf("collection: want=%q got=%q", "universities", cfg.Collection)
	}
	if cfg.NamespacePrefix != "ab" {
		t.Fatalf("namespace prefix: want=%q got=%q", "ab", cfg.NamespacePrefix)
	}
	if cfg.VectorDim != 1536 {
		t.Fatalf("vector dim: want=%d got=%d", 1536, cfg.VectorDim)
	}
}

func TestResolveConfigFromEnvDefaultsNamespacePrefix(t *testing.T) {
	setValidEnv(t)
	t.Setenv("QDRANT_NAMESPACE_PREFIX", "")

	cfg, err := ResolveConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveConfigFromEnv: %v", err)
	}
	if cfg.NamespacePrefix != "ab" {
		t.Fatalf("default namespace prefix: want=%q got=%q", "ab", cfg.NamespacePrefix)
	}
}

func TestResolveConfigFromEnvErrors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(t *testing.T)
		want ConfigErrorCode
	}{
		{
			name: "missing url",
			mut:  func(t *testing.T) { t.Setenv("QDRANT_URL", "") },
			want: ConfigErrorMissingURL,
		},
		{
			name: "relative url",
			mut:  func(t *testing.T) { t.Setenv("QDRANT_URL", "qdrant:6333") },
			want: ConfigErrorInvalidURL,
		},
		{
			name: "missing collection",
			mut:  func(t *testing.T) { t.Setenv("QDRANT_COLLECTION", "") },
			want: ConfigErrorMissingCollection,
		},
		{
			name: "missing vector dim",
			mut:  func(t *testing.T) { t.Setenv("QDRANT_VECTOR_DIM", "") },
			want: ConfigErrorMissingVectorDim,
		},
		{
			name: "non-numeric vector dim",
			mut:  func(t *testing.T) { t.Setenv("QDRANT_VECTOR_DIM", "large") },
			want: ConfigErrorInvalidVectorDim,
		},
		{
			name: "negative vector dim",
			mut:  func(t *testing.T) { t.Setenv("QDRANT_VECTOR_DIM", "-3") },
			want: ConfigErrorInvalidVectorDim,
		},
	}
	for _, tc := range cases {
		setValidEnv(t)
		tc.mut(t)

		_, err := ResolveConfigFromEnv()
		if err == nil {
			t.Fatalf("%s: expected error, got nil", tc.name)
		}
		var got *ConfigError
		if !errors.As(err, &got) {
			t.Fatalf("%s: expected ConfigError, got=%T", tc.name, err)
		}
		if got.Code != tc.want {
			t.Fatalf("%s: code: want=%q got=%q", tc.name, tc.want, got.Code)
		}
	}
}
