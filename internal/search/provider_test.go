package search

import (
	"errors"
	"testing"
)

func TestResolveProviderFromEnv(t *testing.T) {
	cases := []struct {
		raw  string
		want Provider
	}{
		{"", ProviderMemory},
		{"memory", ProviderMemory},
		{"firestore", ProviderMemory},
		{"elasticsearch", ProviderElastic},
		{"es", ProviderElastic},
		{"ES", ProviderElastic},
		{"semantic", ProviderSemantic},
		{"rag", ProviderSemantic},
		{"  semantic  ", ProviderSemantic},
	}
	for _, tc := range cases {
		t.Setenv("SEARCH_BACKEND", tc.raw)
		got, err := ResolveProviderFromEnv()
		if err != nil {
			t.Fatalf("ResolveProviderFromEnv(%q): %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ResolveProviderFromEnv(%q): want=%q got=%q", tc.raw, tc.want, got)
		}
	}
}

func TestResolveProviderFromEnvUnknown(t *testing.T) {
	t.Setenv("SEARCH_BACKEND", "solr")

	_, err := ResolveProviderFromEnv()
	if err == nil {
		t.Fatalf("expected error for unknown provider, got nil")
	}
	var got *ProviderConfigError
	if !errors.As(err, &got) {
		t.Fatalf("expected ProviderConfigError, got=%T", err)
	}
	if got.Code != ProviderConfigErrorUnknownProvider {
		t.Fatalf("code: want=%q got=%q", ProviderConfigErrorUnknownProvider, got.Code)
	}
}

func TestSortDocumentsContractOrder(t *testing.T) {
	docs := []ScoredDocument{
		{ID: "c", Score: 0.5},
		{ID: "a", Score: 0.9},
		{ID: "b", Score: 0.5},
	}

	SortDocuments(docs)

	wantIDs := []string{"a", "b", "c"}
	for i, want := range wantIDs {
		if docs[i].ID != want {
			t.Fatalf("position %d: want=%q got=%q", i, want, docs[i].ID)
		}
	}
}
