package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/admitbridge/admitbridge-backend/internal/apperr"
	"github.com/admitbridge/admitbridge-backend/internal/repos"
	"github.com/admitbridge/admitbridge-backend/internal/types"
)

type stubProfileRepo struct {
	profile *types.StudentProfile
}

func (r *stubProfileRepo) GetByUserID(ctx context.Context, _ *gorm.DB, _ string) (*types.StudentProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.profile, nil
}

func (r *stubProfileRepo) GetByUserIDForUpdate(context.Context, *gorm.DB, string) (*types.StudentProfile, error) {
	panic("not used")
}

func (r *stubProfileRepo) Create(context.Context, *gorm.DB, *types.StudentProfile) error {
	panic("not used")
}

func (r *stubProfileRepo) Save(context.Context, *gorm.DB, *types.StudentProfile) error {
	panic("not used")
}

type stubUniversityRepo struct {
	university *types.University
}

func (r *stubUniversityRepo) GetBySlug(context.Context, *gorm.DB, string) (*types.University, error) {
	return r.university, nil
}

func (r *stubUniversityRepo) List(context.Context, *gorm.DB, repos.UniversityFilters, int) ([]*types.University, error) {
	panic("not used")
}

func (r *stubUniversityRepo) Upsert(context.Context, *gorm.DB, *types.University) error {
	panic("not used")
}

type stubFitCache struct {
	put []*types.FitResult
}

func (c *stubFitCache) Get(context.Context, string, string) (*types.FitResult, error) {
	return nil, fmt.Errorf("fit result: %w", apperr.ErrNotFound)
}

func (c *stubFitCache) Put(_ context.Context, _ *gorm.DB, result *types.FitResult) error {
	c.put = append(c.put, result)
	return nil
}

func (c *stubFitCache) InvalidateUser(context.Context, *gorm.DB, string) (int64, error) {
	panic("not used")
}

type stubCredits struct {
	debits int
}

func (c *stubCredits) CheckAvailable(context.Context, string, types.CreditType, int) (Availability, error) {
	return Availability{HasCredits: true, Remaining: 5}, nil
}

func (c *stubCredits) Debit(context.Context, string, types.CreditType, int, string) error {
	c.debits++
	return nil
}

func (c *stubCredits) Credit(context.Context, string, types.CreditType, int, string) error {
	panic("not used")
}

func (c *stubCredits) GrantUnlimited(context.Context, string, types.CreditType, *time.Time) error {
	panic("not used")
}

func (c *stubCredits) ListBalances(context.Context, string) ([]*types.CreditBalance, error) {
	panic("not used")
}

func TestFitFlightKeyDistinguishesForce(t *testing.T) {
	plain := fitFlightKey("user-1", "stanford", false)
	if forced := fitFlightKey("user-1", "stanford", true); forced == plain {
		t.Fatalf("forced and unforced requests must not share a flight: %q", plain)
	}
	if got := fitFlightKey("user-2", "stanford", false); got == plain {
		t.Fatalf("distinct users must not share a flight: %q", got)
	}
	if got := fitFlightKey("user-1", "berkeley", false); got == plain {
		t.Fatalf("distinct universities must not share a flight: %q", got)
	}
}

func TestComputeFitSurvivesCallerCancellation(t *testing.T) {
	cache := &stubFitCache{}
	credits := &stubCredits{}
	svc := NewFitService(
		testLogger(),
		&stubProfileRepo{profile: &types.StudentProfile{GPAUnweighted: fptr(3.9), SATTotal: iptr(1450)}},
		&stubUniversityRepo{university: testUniversity()},
		cache,
		credits,
	)

	// The flight leader's context may be canceled while followers still
	// wait on the result; the shared computation must not inherit that
	// cancellation.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := svc.ComputeFit(ctx, "user-1", "stanford", "Computer Science", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.MatchScore == 0 || result.FitCategory == "" {
		t.Fatalf("incomplete result: %+v", result)
	}
	if credits.debits != 1 {
		t.Fatalf("debits: want=1 got=%d", credits.debits)
	}
	if len(cache.put) != 1 {
		t.Fatalf("cache writes: want=1 got=%d", len(cache.put))
	}
}
