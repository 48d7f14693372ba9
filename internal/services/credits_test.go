package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/admitbridge/admitbridge-backend/internal/apperr"
	"github.com/admitbridge/admitbridge-backend/internal/types"
)

// fakeCreditRepo mirrors the conditional-debit contract in memory: the
// balance check and decrement happen under one lock, so concurrent debits
// can never drive a balance negative.
type fakeCreditRepo struct {
	mu       sync.Mutex
	balances map[string]*types.CreditBalance
	usages   []*types.CreditUsage
}

func newFakeCreditRepo() *fakeCreditRepo {
	return &fakeCreditRepo{balances: map[string]*types.CreditBalance{}}
}

func balanceKey(userID string, creditType types.CreditType) string {
	return userID + "|" + string(creditType)
}

func (f *fakeCreditRepo) GetBalance(ctx context.Context, tx *gorm.DB, userID string, creditType types.CreditType) (*types.CreditBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.balances[balanceKey(userID, creditType)]
	if !ok {
		return nil, fmt.Errorf("credit balance: %w", apperr.ErrNotFound)
	}
	copied := *b
	return &copied, nil
}

func (f *fakeCreditRepo) ListBalances(ctx context.Context, tx *gorm.DB, userID string) ([]*types.CreditBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.CreditBalance
	for _, b := range f.balances {
		if b.UserID == userID {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeCreditRepo) DebitIfAvailable(ctx context.Context, tx *gorm.DB, userID string, creditType types.CreditType, amount int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.balances[balanceKey(userID, creditType)]
	if !ok || b.Balance < amount {
		return false, nil
	}
	b.Balance -= amount
	return true, nil
}

func (f *fakeCreditRepo) AddCredits(ctx context.Context, tx *gorm.DB, userID string, creditType types.CreditType, amount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := balanceKey(userID, creditType)
	b, ok := f.balances[key]
	if !ok {
		b = &types.CreditBalance{UserID: userID, CreditType: creditType}
		f.balances[key] = b
	}
	b.Balance += amount
	return nil
}

func (f *fakeCreditRepo) SetUnlimited(ctx context.Context, tx *gorm.DB, userID string, creditType types.CreditType, balance *types.CreditBalance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := balanceKey(userID, creditType)
	b, ok := f.balances[key]
	if !ok {
		b = &types.CreditBalance{UserID: userID, CreditType: creditType}
		f.balances[key] = b
	}
	b.Unlimited = balance.Unlimited
	b.UnlimitedExpiresAt = balance.UnlimitedExpiresAt
	return nil
}

func (f *fakeCreditRepo) AppendUsage(ctx context.Context, tx *gorm.DB, usage *types.CreditUsage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usages = append(f.usages, usage)
	return nil
}

func TestConcurrentDebitsNeverOverspend(t *testing.T) {
	repo := newFakeCreditRepo()
	if err := repo.AddCredits(context.Background(), nil, "user-1", types.CreditTypeFitAnalysis, 1); err != nil {
		t.Fatalf("seed balance: %v", err)
	}

	const attempts = 8
	results := make(chan bool, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.DebitIfAvailable(context.Background(), nil, "user-1", types.CreditTypeFitAnalysis, 1)
			if err != nil {
				t.Errorf("debit: %v", err)
			}
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for ok := range results {
		if ok {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Fatalf("debit successes: want=1 got=%d", succeeded)
	}

	balance, err := repo.GetBalance(context.Background(), nil, "user-1", types.CreditTypeFitAnalysis)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance.Balance != 0 {
		t.Fatalf("balance: want=0 got=%d", balance.Balance)
	}
}

func newTestCreditService(repo *fakeCreditRepo, now func() time.Time) *creditService {
	log := testLogger()
	s := &creditService{
		log:     log,
		credits: repo,
		now:     now,
	}
	return s
}

func TestCheckAvailable(t *testing.T) {
	fixedNow := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := fixedNow.Add(-time.Hour)
	future := fixedNow.Add(time.Hour)

	cases := []struct {
		name      string
		seed      func(repo *fakeCreditRepo)
		wantHas   bool
		wantUnl   bool
		wantLeft  int
		creditTyp types.CreditType
	}{
		{
			name:      "no balance row",
			seed:      func(*fakeCreditRepo) {},
			wantHas:   false,
			creditTyp: types.CreditTypeFitAnalysis,
		},
		{
			name: "sufficient",
			seed: func(r *fakeCreditRepo) {
				_ = r.AddCredits(context.Background(), nil, "user-1", types.CreditTypeFitAnalysis, 3)
			},
			wantHas:   true,
			wantLeft:  3,
			creditTyp: types.CreditTypeFitAnalysis,
		},
		{
			name: "exhausted",
			seed: func(r *fakeCreditRepo) {
				_ = r.AddCredits(context.Background(), nil, "user-1", types.CreditTypeFitAnalysis, 0)
			},
			wantHas:   false,
			creditTyp: types.CreditTypeFitAnalysis,
		},
		{
			name: "unlimited active",
			seed: func(r *fakeCreditRepo) {
				_ = r.SetUnlimited(context.Background(), nil, "user-1", types.CreditTypeAIMessages,
					&types.CreditBalance{Unlimited: true, UnlimitedExpiresAt: &future})
			},
			wantHas:   true,
			wantUnl:   true,
			creditTyp: types.CreditTypeAIMessages,
		},
		{
			name: "unlimited expired",
			seed: func(r *fakeCreditRepo) {
				_ = r.SetUnlimited(context.Background(), nil, "user-1", types.CreditTypeAIMessages,
					&types.CreditBalance{Unlimited: true, UnlimitedExpiresAt: &past})
			},
			wantHas:   false,
			creditTyp: types.CreditTypeAIMessages,
		},
		{
			name: "unlimited no expiry",
			seed: func(r *fakeCreditRepo) {
				_ = r.SetUnlimited(context.Background(), nil, "user-1", types.CreditTypeEssayReview,
					&types.CreditBalance{Unlimited: true})
			},
			wantHas:   true,
			wantUnl:   true,
			creditTyp: types.CreditTypeEssayReview,
		},
	}

	for _, tc := range cases {
		repo := newFakeCreditRepo()
		tc.seed(repo)
		svc := newTestCreditService(repo, func() time.Time { return fixedNow })

		got, err := svc.CheckAvailable(context.Background(), "user-1", tc.creditTyp, 1)
		if err != nil {
			t.Fatalf("%s: CheckAvailable: %v", tc.name, err)
		}
		if got.HasCredits != tc.wantHas {
			t.Fatalf("%s: has credits: want=%v got=%v", tc.name, tc.wantHas, got.HasCredits)
		}
		if got.Unlimited != tc.wantUnl {
			t.Fatalf("%s: unlimited: want=%v got=%v", tc.name, tc.wantUnl, got.Unlimited)
		}
		if tc.wantLeft != 0 && got.Remaining != tc.wantLeft {
			t.Fatalf("%s: remaining: want=%d got=%d", tc.name, tc.wantLeft, got.Remaining)
		}
	}
}

func TestGrantUnlimitedRecordsExpiry(t *testing.T) {
	repo := newFakeCreditRepo()
	svc := newTestCreditService(repo, time.Now)

	expiresAt := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := svc.GrantUnlimited(context.Background(), "user-1", types.CreditTypeFitAnalysis, &expiresAt); err != nil {
		t.Fatalf("GrantUnlimited: %v", err)
	}

	balance, err := repo.GetBalance(context.Background(), nil, "user-1", types.CreditTypeFitAnalysis)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if !balance.Unlimited {
		t.Fatalf("balance not marked unlimited")
	}
	if balance.UnlimitedExpiresAt == nil || !balance.UnlimitedExpiresAt.Equal(expiresAt) {
		t.Fatalf("expiry: want=%v got=%v", expiresAt, balance.UnlimitedExpiresAt)
	}
}
