package memory

import (
	"context"
	"testing"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/admitbridge/admitbridge-backend/internal/logger"
	"github.com/admitbridge/admitbridge-backend/internal/repos"
	"github.com/admitbridge/admitbridge-backend/internal/search"
	"github.com/admitbridge/admitbridge-backend/internal/types"
)

type fakeUniversityRepo struct {
	universities []*types.University
}

func (f *fakeUniversityRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.University, error) {
	panic("not used")
}

func (f *fakeUniversityRepo) Upsert(ctx context.Context, tx *gorm.DB, u *types.University) error {
	panic("not used")
}

func (f *fakeUniversityRepo) List(ctx context.Context, tx *gorm.DB, filters repos.UniversityFilters, limit int) ([]*types.University, error) {
	var out []*types.University
	for _, u := range f.universities {
		if filters.State != "" && u.State != filters.State {
			continue
		}
		if filters.MaxRank > 0 && (u.USNewsRank == nil || *u.USNewsRank > filters.MaxRank) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func rankPtr(v int) *int { return &v }

func testUniversities() []*types.University {
	return []*types.University{
		{
			Slug:       "stanford",
			Name:       "Stanford University",
			State:      "CA",
			USNewsRank: rankPtr(3),
			AcademicStructure: datatypes.NewJSONType(types.AcademicStructure{
				Colleges: []types.College{
					{Name: "Engineering", Majors: []types.Major{{Name: "Computer Science"}}},
				},
			}),
		},
		{
			Slug:        "uc-berkeley",
			Name:        "University of California, Berkeley",
			State:       "CA",
			USNewsRank:  rankPtr(15),
			Description: "Public research university with a top computer science program",
		},
		{
			Slug:       "university-of-michigan",
			Name:       "University of Michigan",
			State:      "MI",
			USNewsRank: rankPtr(21),
		},
	}
}

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewBackend(log, &fakeUniversityRepo{universities: testUniversities()})
}

func TestSearchExactNameOutranksSubstring(t *testing.T) {
	b := newTestBackend(t)

	docs, err := b.Search(context.Background(), "Stanford University", nil, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(docs) == 0 {
		t.Fatalf("expected results")
	}
	if docs[0].ID != "stanford" {
		t.Fatalf("top result: want=%q got=%q", "stanford", docs[0].ID)
	}
	if docs[0].Score != weightExactName {
		t.Fatalf("top score: want=%v got=%v", weightExactName, docs[0].Score)
	}
}

func TestSearchTokensMatchDescriptionAndMajors(t *testing.T) {
	b := newTestBackend(t)

	docs, err := b.Search(context.Background(), "computer science", nil, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("results: want=2 got=%d", len(docs))
	}
	for _, doc := range docs {
		if doc.ID != "stanford" && doc.ID != "uc-berkeley" {
			t.Fatalf("unexpected hit %q", doc.ID)
		}
	}
}

func TestSearchNonMatchingQueryReturnsEmptySlice(t *testing.T) {
	b := newTestBackend(t)

	docs, err := b.Search(context.Background(), "zzzzzz", nil, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if docs == nil {
		t.Fatalf("zero hits must return an empty slice, not nil")
	}
	if len(docs) != 0 {
		t.Fatalf("results: want=0 got=%d", len(docs))
	}
}

func TestSearchEmptyQueryBrowsesWithFilters(t *testing.T) {
	b := newTestBackend(t)

	docs, err := b.Search(context.Background(), "", map[string]string{search.FilterState: "CA"}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("results: want=2 got=%d", len(docs))
	}
	// Equal scores, so contract tie-break orders by ID ascending.
	if docs[0].ID != "stanford" || docs[1].ID != "uc-berkeley" {
		t.Fatalf("order: want=[stanford uc-berkeley] got=[%s %s]", docs[0].ID, docs[1].ID)
	}
}

func TestSearchDeterministicAcrossCalls(t *testing.T) {
	b := newTestBackend(t)

	first, err := b.Search(context.Background(), "university", nil, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	second, err := b.Search(context.Background(), "university", nil, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("result counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].Score != second[i].Score {
			t.Fatalf("position %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestSearchRespectsLimit(t *testing.T) {
	b := newTestBackend(t)

	docs, err := b.Search(context.Background(), "university", nil, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("results: want=1 got=%d", len(docs))
	}
}

func TestSearchPayloadIsEngineNeutral(t *testing.T) {
	b := newTestBackend(t)

	docs, err := b.Search(context.Background(), "stanford", nil, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(docs) == 0 {
		t.Fatalf("expected results")
	}
	payload := docs[0].Payload
	if payload["slug"] != "stanford" || payload["name"] != "Stanford University" {
		t.Fatalf("payload missing identity fields: %v", payload)
	}
}
