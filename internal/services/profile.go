package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"gorm.io/gorm"

	"github.com/admitbridge/admitbridge-backend/internal/logger"
	"github.com/admitbridge/admitbridge-backend/internal/repos"
	"github.com/admitbridge/admitbridge-backend/internal/types"
)

// UploadExtraction is the already-extracted structured content of one
// uploaded document, as delivered by the ingestion boundary. Every field is
// optional; absent keys merge as nulls and never fail the upload.
type UploadExtraction struct {
	GPAWeighted    *float64 `json:"gpa_weighted,omitempty"`
	GPAUnweighted  *float64 `json:"gpa_unweighted,omitempty"`
	SATTotal       *int     `json:"sat_total,omitempty"`
	ACTComposite   *int     `json:"act_composite,omitempty"`
	ClassRank      *string  `json:"class_rank,omitempty"`
	IntendedMajor  *string  `json:"intended_major,omitempty"`
	GraduationYear *int     `json:"graduation_year,omitempty"`
	School         *string  `json:"school,omitempty"`
	Location       *string  `json:"location,omitempty"`

	Courses          []types.ProfileItem `json:"courses,omitempty"`
	APExams          []types.ProfileItem `json:"ap_exams,omitempty"`
	Extracurriculars []types.ProfileItem `json:"extracurriculars,omitempty"`
	LeadershipRoles  []types.ProfileItem `json:"leadership_roles,omitempty"`
	Awards           []types.ProfileItem `json:"awards,omitempty"`
	WorkExperience   []types.ProfileItem `json:"work_experience,omitempty"`
}

// OnboardingFields are the scalar answers from the onboarding form. They
// merge like an upload's scalars but register no source document.
type OnboardingFields struct {
	GPAWeighted    *float64 `json:"gpa_weighted,omitempty"`
	GPAUnweighted  *float64 `json:"gpa_unweighted,omitempty"`
	SATTotal       *int     `json:"sat_total,omitempty"`
	ACTComposite   *int     `json:"act_composite,omitempty"`
	ClassRank      *string  `json:"class_rank,omitempty"`
	IntendedMajor  *string  `json:"intended_major,omitempty"`
	GraduationYear *int     `json:"graduation_year,omitempty"`
	School         *string  `json:"school,omitempty"`
	Location       *string  `json:"location,omitempty"`
}

type MergeResult struct {
	Created            bool     `json:"created"`
	ChangedFields      []string `json:"changed_fields"`
	FitRelevantChanged bool     `json:"fit_relevant_changed"`
	InvalidatedFits    int64    `json:"invalidated_fits"`
}

type RemovalResult struct {
	DocumentFound bool `json:"document_found"`
	// RemovedFields were sourced solely from the deleted document and
	// have been nulled.
	RemovedFields []string `json:"removed_fields"`
	// RetainedStaleFields had other sources too; their current value is
	// kept as-is, not recomputed from the remaining documents, so it may
	// be stale. Callers can prompt a re-upload for these.
	RetainedStaleFields []string `json:"retained_stale_fields"`
	InvalidatedFits     int64    `json:"invalidated_fits"`
}

// DocumentIndexer pushes raw document text into the semantic search store.
// Indexing is best-effort: the profile merge commits regardless.
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, userID, filename, text string) error
	RemoveDocument(ctx context.Context, userID, filename string) error
}

type ProfileService interface {
	Get(ctx context.Context, userID string) (*types.StudentProfile, error)
	UpsertFromUpload(ctx context.Context, userID, filename string, extraction UploadExtraction, rawText string) (*MergeResult, error)
	UpsertOnboarding(ctx context.Context, userID string, fields OnboardingFields) (*MergeResult, error)
	RemoveSourceFields(ctx context.Context, userID, filename string) (*RemovalResult, error)
	ListDocuments(ctx context.Context, userID string) ([]*types.ProfileDocument, error)
}

type profileService struct {
	db       *gorm.DB
	log      *logger.Logger
	profiles repos.ProfileRepo
	docs     repos.ProfileDocumentRepo
	fitCache FitCacheService
	indexer  DocumentIndexer
}

// NewProfileService wires the merge pipeline. indexer may be nil when no
// semantic backend is configured.
func NewProfileService(
	db *gorm.DB,
	baseLog *logger.Logger,
	profiles repos.ProfileRepo,
	docs repos.ProfileDocumentRepo,
	fitCache FitCacheService,
	indexer DocumentIndexer,
) ProfileService {
	return &profileService{
		db:       db,
		log:      baseLog.With("service", "ProfileService"),
		profiles: profiles,
		docs:     docs,
		fitCache: fitCache,
		indexer:  indexer,
	}
}

func (s *profileService) Get(ctx context.Context, userID string) (*types.StudentProfile, error) {
	return s.profiles.GetByUserID(ctx, nil, userID)
}

func (s *profileService) ListDocuments(ctx context.Context, userID string) ([]*types.ProfileDocument, error) {
	return s.docs.ListByUser(ctx, nil, userID)
}

func (s *profileService) UpsertFromUpload(ctx context.Context, userID, filename string, extraction UploadExtraction, rawText string) (*MergeResult, error) {
	filename = strings.TrimSpace(filename)
	result := &MergeResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profile, created, err := s.loadOrCreateLocked(ctx, tx, userID)
		if err != nil {
			return err
		}
		result.Created = created

		sources := profile.FieldSourceMap.Data()
		if sources == nil {
			sources = types.FieldSources{}
		}

		changed := mergeScalars(profile, scalarsOf(extraction), func(field string) {
			sources[field] = addSource(sources[field], filename)
		})
		changed = append(changed, mergeCollections(profile, extraction, func(field string) {
			sources[field] = addSource(sources[field], filename)
		})...)

		// Raw text appends unconditionally, duplicates included;
		// repeated uploads are never deduplicated.
		if rawText != "" {
			profile.RawContent += rawSegment(filename, rawText)
		}

		profile.FieldSourceMap = newFieldSourceMap(sources)
		if err := s.profiles.Save(ctx, tx, profile); err != nil {
			return err
		}

		sum := sha256.Sum256([]byte(rawText))
		if err := s.docs.Upsert(ctx, tx, &types.ProfileDocument{
			UserID:        userID,
			Filename:      filename,
			ContentSHA256: hex.EncodeToString(sum[:]),
			SizeBytes:     int64(len(rawText)),
		}); err != nil {
			return err
		}

		result.ChangedFields = changed
		result.FitRelevantChanged = ShouldInvalidateFits(changed)
		if result.FitRelevantChanged {
			removed, err := s.fitCache.InvalidateUser(ctx, tx, userID)
			if err != nil {
				return err
			}
			result.InvalidatedFits = removed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.indexer != nil && rawText != "" {
		if err := s.indexer.IndexDocument(ctx, userID, filename, rawText); err != nil {
			s.log.Warn("Semantic indexing of uploaded document failed", "user_id", userID, "filename", filename, "error", err)
		}
	}

	s.log.Info("Merged upload into profile",
		"user_id", userID,
		"filename", filename,
		"created", result.Created,
		"changed_fields", len(result.ChangedFields),
		"invalidated_fits", result.InvalidatedFits,
	)
	return result, nil
}

func (s *profileService) UpsertOnboarding(ctx context.Context, userID string, fields OnboardingFields) (*MergeResult, error) {
	result := &MergeResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profile, created, err := s.loadOrCreateLocked(ctx, tx, userID)
		if err != nil {
			return err
		}
		result.Created = created

		// Onboarding registers no sources: registerSource is a no-op.
		changed := mergeScalars(profile, scalarValues{
			gpaWeighted:    fields.GPAWeighted,
			gpaUnweighted:  fields.GPAUnweighted,
			satTotal:       fields.SATTotal,
			actComposite:   fields.ACTComposite,
			classRank:      fields.ClassRank,
			intendedMajor:  fields.IntendedMajor,
			graduationYear: fields.GraduationYear,
			school:         fields.School,
			location:       fields.Location,
		}, func(string) {})

		if err := s.profiles.Save(ctx, tx, profile); err != nil {
			return err
		}

		result.ChangedFields = changed
		result.FitRelevantChanged = ShouldInvalidateFits(changed)
		if result.FitRelevantChanged {
			removed, err := s.fitCache.InvalidateUser(ctx, tx, userID)
			if err != nil {
				return err
			}
			result.InvalidatedFits = removed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveSourceFields rolls back the contribution of one deleted document.
// Fields sourced solely from it are nulled; fields with other sources keep
// their current value (reported as retained-stale, not recomputed — see
// DESIGN.md).
func (s *profileService) RemoveSourceFields(ctx context.Context, userID, filename string) (*RemovalResult, error) {
	filename = strings.TrimSpace(filename)
	result := &RemovalResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.docs.GetByUserAndFilename(ctx, tx, userID, filename); err != nil {
			if isNotFound(err) {
				return nil
			}
			return err
		}
		result.DocumentFound = true

		profile, err := s.profiles.GetByUserIDForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}

		sources := profile.FieldSourceMap.Data()
		result.RemovedFields, result.RetainedStaleFields = rollbackSourceFields(profile, sources, filename)

		profile.RawContent = removeRawSegment(profile.RawContent, filename)
		profile.FieldSourceMap = newFieldSourceMap(sources)
		if err := s.profiles.Save(ctx, tx, profile); err != nil {
			return err
		}

		if err := s.docs.Delete(ctx, tx, userID, filename); err != nil {
			return err
		}

		if ShouldInvalidateFits(result.RemovedFields) {
			removed, err := s.fitCache.InvalidateUser(ctx, tx, userID)
			if err != nil {
				return err
			}
			result.InvalidatedFits = removed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.DocumentFound {
		return result, nil
	}

	if s.indexer != nil {
		if err := s.indexer.RemoveDocument(ctx, userID, filename); err != nil {
			s.log.Warn("Semantic index removal failed", "user_id", userID, "filename", filename, "error", err)
		}
	}

	s.log.Info("Removed document source from profile",
		"user_id", userID,
		"filename", filename,
		"removed_fields", len(result.RemovedFields),
		"retained_stale_fields", len(result.RetainedStaleFields),
	)
	return result, nil
}

func (s *profileService) loadOrCreateLocked(ctx context.Context, tx *gorm.DB, userID string) (*types.StudentProfile, bool, error) {
	profile, err := s.profiles.GetByUserIDForUpdate(ctx, tx, userID)
	if err == nil {
		return profile, false, nil
	}
	if !isNotFound(err) {
		return nil, false, err
	}

	fresh := &types.StudentProfile{
		UserID:         userID,
		FieldSourceMap: newFieldSourceMap(types.FieldSources{}),
	}
	if err := s.profiles.Create(ctx, tx, fresh); err != nil {
		return nil, false, err
	}
	return fresh, true, nil
}
