package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/admitbridge/admitbridge-backend/internal/logger"
	"github.com/admitbridge/admitbridge-backend/internal/repos"
	"github.com/admitbridge/admitbridge-backend/internal/types"
)

// fitRelevantFields is the fixed policy table deciding which profile fields
// invalidate cached fits when they change. Descriptive content (activity
// text, awards, work history, school name) does not move a fit computation;
// academic numbers, intended major and residency do. Exhaustively tested
// against every field in the profile schema.
var fitRelevantFields = map[string]bool{
	types.FieldGPAWeighted:   true,
	types.FieldGPAUnweighted: true,
	types.FieldSATTotal:      true,
	types.FieldACTComposite:  true,
	types.FieldClassRank:     true,
	types.FieldIntendedMajor: true,
	types.FieldLocation:      true,

	types.FieldGraduationYear:  false,
	types.FieldSchool:          false,
	types.FieldCourses:         false,
	types.FieldAPExams:         false,
	types.FieldExtracurricular: false,
	types.FieldLeadershipRoles: false,
	types.FieldAwards:          false,
	types.FieldWorkExperience:  false,
}

// ShouldInvalidateFits reports whether a profile change touching
// changedFields must drop the user's cached fit results. The decision is
// per-profile: fit-relevant fields affect every university identically.
func ShouldInvalidateFits(changedFields []string) bool {
	for _, f := range changedFields {
		if fitRelevantFields[f] {
			return true
		}
	}
	return false
}

// FitRelevantFieldKnown reports whether the policy table has an explicit
// entry for the field, relevant or not. Used by tests to keep the table
// exhaustive as the schema grows.
func FitRelevantFieldKnown(field string) bool {
	_, ok := fitRelevantFields[field]
	return ok
}

// ProfileFingerprint hashes the fit-relevant profile content. Two profiles
// with the same fingerprint produce identical fit computations, so a cached
// result carrying the current fingerprint is fresh.
func ProfileFingerprint(p *types.StudentProfile) string {
	var b strings.Builder
	writeNullable := func(name string, v any, present bool) {
		b.WriteString(name)
		b.WriteByte('=')
		if present {
			fmt.Fprintf(&b, "%v", v)
		}
		b.WriteByte(';')
	}
	writeNullable(types.FieldGPAWeighted, deref(p.GPAWeighted), p.GPAWeighted != nil)
	writeNullable(types.FieldGPAUnweighted, deref(p.GPAUnweighted), p.GPAUnweighted != nil)
	writeNullable(types.FieldSATTotal, deref(p.SATTotal), p.SATTotal != nil)
	writeNullable(types.FieldACTComposite, deref(p.ACTComposite), p.ACTComposite != nil)
	writeNullable(types.FieldClassRank, deref(p.ClassRank), p.ClassRank != nil)
	writeNullable(types.FieldIntendedMajor, deref(p.IntendedMajor), p.IntendedMajor != nil)
	writeNullable(types.FieldLocation, deref(p.Location), p.Location != nil)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:16])
}

func deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

const (
	fitCacheTTL       = 24 * time.Hour
	fitCacheKeyPrefix = "fit:"
	fitCacheSetPrefix = "fit_keys:"
)

type FitCacheService interface {
	Get(ctx context.Context, userID, universitySlug string) (*types.FitResult, error)
	Put(ctx context.Context, tx *gorm.DB, result *types.FitResult) error
	// InvalidateUser drops every cached fit for the user, in postgres and
	// in the redis hot layer. Returns the number of postgres rows removed.
	InvalidateUser(ctx context.Context, tx *gorm.DB, userID string) (int64, error)
}

type fitCacheService struct {
	log  *logger.Logger
	rdb  *redis.Client
	repo repos.FitResultRepo
}

// NewFitCacheService builds the read-through cache over the fit_result
// table. rdb may be nil; the service then serves straight from postgres.
func NewFitCacheService(log *logger.Logger, rdb *redis.Client, repo repos.FitResultRepo) FitCacheService {
	return &fitCacheService{
		log:  log.With("service", "FitCacheService"),
		rdb:  rdb,
		repo: repo,
	}
}

func (s *fitCacheService) Get(ctx context.Context, userID, universitySlug string) (*types.FitResult, error) {
	slug := types.NormalizeUniversitySlug(universitySlug)

	if s.rdb != nil {
		raw, err := s.rdb.Get(ctx, s.cacheKey(userID, slug)).Bytes()
		if err == nil {
			var cached types.FitResult
			if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
				return &cached, nil
			}
			s.log.Warn("Dropping undecodable cached fit", "user_id", userID, "university_slug", slug)
			_ = s.rdb.Del(ctx, s.cacheKey(userID, slug)).Err()
		} else if err != redis.Nil {
			s.log.Warn("Redis fit cache read failed, falling back to postgres", "error", err)
		}
	}

	result, err := s.repo.Get(ctx, nil, userID, slug)
	if err != nil {
		return nil, err
	}
	s.backfill(ctx, result)
	return result, nil
}

func (s *fitCacheService) Put(ctx context.Context, tx *gorm.DB, result *types.FitResult) error {
	if err := s.repo.Put(ctx, tx, result); err != nil {
		return err
	}
	s.backfill(ctx, result)
	return nil
}

func (s *fitCacheService) InvalidateUser(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	removed, err := s.repo.DeleteByUser(ctx, tx, userID)
	if err != nil {
		return 0, err
	}

	if s.rdb != nil {
		setKey := fitCacheSetPrefix + userID
		keys, err := s.rdb.SMembers(ctx, setKey).Result()
		if err != nil {
			s.log.Warn("Redis fit cache key-set read failed during invalidation", "error", err)
		} else if len(keys) > 0 {
			if err := s.rdb.Del(ctx, append(keys, setKey)...).Err(); err != nil {
				s.log.Warn("Redis fit cache invalidation failed", "error", err)
			}
		}
	}
	return removed, nil
}

func (s *fitCacheService) backfill(ctx context.Context, result *types.FitResult) {
	if s.rdb == nil || result == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	key := s.cacheKey(result.UserID, result.UniversitySlug)
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, key, raw, fitCacheTTL)
	pipe.SAdd(ctx, fitCacheSetPrefix+result.UserID, key)
	pipe.Expire(ctx, fitCacheSetPrefix+result.UserID, fitCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn("Redis fit cache write failed", "error", err)
	}
}

func (s *fitCacheService) cacheKey(userID, slug string) string {
	return fitCacheKeyPrefix + userID + ":" + slug
}
