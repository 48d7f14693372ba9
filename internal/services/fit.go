package services

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"

	"github.com/admitbridge/admitbridge-backend/internal/apperr"
	"github.com/admitbridge/admitbridge-backend/internal/logger"
	"github.com/admitbridge/admitbridge-backend/internal/repos"
	"github.com/admitbridge/admitbridge-backend/internal/types"
)

const fitAnalysisCost = 1

type FitService interface {
	// ComputeFit returns the cached result when it is fresh (same profile
	// fingerprint) and force is false; otherwise it recomputes, persists
	// and debits one fit-analysis credit. A missing profile or university
	// surfaces as a typed not-found error, never a guessed result.
	ComputeFit(ctx context.Context, userID, universityID, intendedMajor string, force bool) (*types.FitResult, error)
}

type fitService struct {
	log          *logger.Logger
	profiles     repos.ProfileRepo
	universities repos.UniversityRepo
	fitCache     FitCacheService
	credits      CreditService
	group        singleflight.Group
}

func NewFitService(
	baseLog *logger.Logger,
	profiles repos.ProfileRepo,
	universities repos.UniversityRepo,
	fitCache FitCacheService,
	credits CreditService,
) FitService {
	return &fitService{
		log:          baseLog.With("service", "FitService"),
		profiles:     profiles,
		universities: universities,
		fitCache:     fitCache,
		credits:      credits,
	}
}

func (s *fitService) ComputeFit(ctx context.Context, userID, universityID, intendedMajor string, force bool) (*types.FitResult, error) {
	slug := types.NormalizeUniversitySlug(universityID)

	// Concurrent identical requests collapse to one computation (and one
	// debit); distinct users, universities, or force flags never share a
	// flight. The shared computation runs detached from the leader's
	// cancellation so one dropped caller cannot fail the rest.
	flightCtx := context.WithoutCancel(ctx)
	result, err, _ := s.group.Do(fitFlightKey(userID, slug, force), func() (interface{}, error) {
		return s.computeFit(flightCtx, userID, slug, intendedMajor, force)
	})
	if err != nil {
		return nil, err
	}
	return result.(*types.FitResult), nil
}

func fitFlightKey(userID, slug string, force bool) string {
	key := userID + "|" + slug
	if force {
		key += "|force"
	}
	return key
}

func (s *fitService) computeFit(ctx context.Context, userID, slug, intendedMajor string, force bool) (*types.FitResult, error) {
	profile, err := s.profiles.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	fingerprint := ProfileFingerprint(profile)

	if !force {
		cached, err := s.fitCache.Get(ctx, userID, slug)
		if err == nil && cached.ProfileVersionHash == fingerprint {
			return cached, nil
		}
		if err != nil && !isNotFound(err) {
			s.log.Warn("Fit cache read failed, recomputing", "user_id", userID, "university_slug", slug, "error", err)
		}
	}

	availability, err := s.credits.CheckAvailable(ctx, userID, types.CreditTypeFitAnalysis, fitAnalysisCost)
	if err != nil {
		return nil, err
	}
	if !availability.HasCredits {
		return nil, &apperr.InsufficientCredits{
			CreditType: string(types.CreditTypeFitAnalysis),
			Requested:  fitAnalysisCost,
			Remaining:  availability.Remaining,
		}
	}

	university, err := s.universities.GetBySlug(ctx, nil, slug)
	if err != nil {
		return nil, err
	}

	major := intendedMajor
	if major == "" && profile.IntendedMajor != nil {
		major = *profile.IntendedMajor
	}

	outcome := ComputeFitOutcome(profile, university, major)
	result := &types.FitResult{
		UserID:             userID,
		UniversitySlug:     slug,
		FitCategory:        outcome.Category,
		MatchScore:         outcome.MatchScore,
		Confidence:         outcome.Confidence,
		GapAnalysis:        datatypes.NewJSONSlice(outcome.GapAnalysis),
		Recommendations:    datatypes.NewJSONSlice(outcome.Recommendations),
		ProfileVersionHash: fingerprint,
		ComputedAt:         time.Now().UTC(),
	}

	// The availability check above is advisory; the debit's conditional
	// update is the authoritative gate under concurrency. No distributed
	// transaction: the balance row and the fit row are each written
	// atomically on their own.
	if err := s.credits.Debit(ctx, userID, types.CreditTypeFitAnalysis, fitAnalysisCost, "fit:"+slug); err != nil {
		return nil, err
	}
	if err := s.fitCache.Put(ctx, nil, result); err != nil {
		return nil, err
	}

	s.log.Info("Computed fit",
		"user_id", userID,
		"university_slug", slug,
		"fit_category", result.FitCategory,
		"match_score", result.MatchScore,
	)
	return result, nil
}
