package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"

	"github.com/admitbridge/admitbridge-backend/internal/apperr"
	"github.com/admitbridge/admitbridge-backend/internal/types"
)

// Merge rules, per field kind:
//   - scalars: a non-null incoming value overwrites, last upload wins; the
//     source registers whenever the field is written, changed or not
//   - collections: incoming items append only when their natural key (the
//     item name, case-insensitive) is absent; existing items never leave
//   - nulls: absent keys write nothing and register no source

type scalarValues struct {
	gpaWeighted    *float64
	gpaUnweighted  *float64
	satTotal       *int
	actComposite   *int
	classRank      *string
	intendedMajor  *string
	graduationYear *int
	school         *string
	location       *string
}

func scalarsOf(e UploadExtraction) scalarValues {
	return scalarValues{
		gpaWeighted:    e.GPAWeighted,
		gpaUnweighted:  e.GPAUnweighted,
		satTotal:       e.SATTotal,
		actComposite:   e.ACTComposite,
		classRank:      e.ClassRank,
		intendedMajor:  e.IntendedMajor,
		graduationYear: e.GraduationYear,
		school:         e.School,
		location:       e.Location,
	}
}

func mergeScalars(p *types.StudentProfile, in scalarValues, registerSource func(field string)) []string {
	var changed []string

	mergeFloat := func(field string, dst **float64, src *float64) {
		if src == nil {
			return
		}
		registerSource(field)
		if *dst == nil || **dst != *src {
			v := *src
			*dst = &v
			changed = append(changed, field)
		}
	}
	mergeInt := func(field string, dst **int, src *int) {
		if src == nil {
			return
		}
		registerSource(field)
		if *dst == nil || **dst != *src {
			v := *src
			*dst = &v
			changed = append(changed, field)
		}
	}
	mergeString := func(field string, dst **string, src *string) {
		if src == nil {
			return
		}
		registerSource(field)
		if *dst == nil || **dst != *src {
			v := *src
			*dst = &v
			changed = append(changed, field)
		}
	}

	mergeFloat(types.FieldGPAWeighted, &p.GPAWeighted, in.gpaWeighted)
	mergeFloat(types.FieldGPAUnweighted, &p.GPAUnweighted, in.gpaUnweighted)
	mergeInt(types.FieldSATTotal, &p.SATTotal, in.satTotal)
	mergeInt(types.FieldACTComposite, &p.ACTComposite, in.actComposite)
	mergeString(types.FieldClassRank, &p.ClassRank, in.classRank)
	mergeString(types.FieldIntendedMajor, &p.IntendedMajor, in.intendedMajor)
	mergeInt(types.FieldGraduationYear, &p.GraduationYear, in.graduationYear)
	mergeString(types.FieldSchool, &p.School, in.school)
	mergeString(types.FieldLocation, &p.Location, in.location)

	return changed
}

func mergeCollections(p *types.StudentProfile, e UploadExtraction, registerSource func(field string)) []string {
	var changed []string

	merge := func(field string, dst *datatypes.JSONSlice[types.ProfileItem], incoming []types.ProfileItem) {
		if len(incoming) == 0 {
			return
		}
		merged, added := mergeItems([]types.ProfileItem(*dst), incoming)
		if added == 0 {
			return
		}
		*dst = datatypes.NewJSONSlice(merged)
		registerSource(field)
		changed = append(changed, field)
	}

	merge(types.FieldCourses, &p.Courses, e.Courses)
	merge(types.FieldAPExams, &p.APExams, e.APExams)
	merge(types.FieldExtracurricular, &p.Extracurriculars, e.Extracurriculars)
	merge(types.FieldLeadershipRoles, &p.LeadershipRoles, e.LeadershipRoles)
	merge(types.FieldAwards, &p.Awards, e.Awards)
	merge(types.FieldWorkExperience, &p.WorkExperience, e.WorkExperience)

	return changed
}

// mergeItems appends incoming items whose natural key is new. The key is
// the trimmed, lowercased item name; keyless items are skipped.
func mergeItems(existing, incoming []types.ProfileItem) ([]types.ProfileItem, int) {
	seen := make(map[string]bool, len(existing))
	for _, item := range existing {
		seen[itemKey(item)] = true
	}

	merged := existing
	added := 0
	for _, item := range incoming {
		key := itemKey(item)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, item)
		added++
	}
	return merged, added
}

func itemKey(item types.ProfileItem) string {
	return strings.ToLower(strings.TrimSpace(item.Name))
}

func nullField(p *types.StudentProfile, field string) {
	switch field {
	case types.FieldGPAWeighted:
		p.GPAWeighted = nil
	case types.FieldGPAUnweighted:
		p.GPAUnweighted = nil
	case types.FieldSATTotal:
		p.SATTotal = nil
	case types.FieldACTComposite:
		p.ACTComposite = nil
	case types.FieldClassRank:
		p.ClassRank = nil
	case types.FieldIntendedMajor:
		p.IntendedMajor = nil
	case types.FieldGraduationYear:
		p.GraduationYear = nil
	case types.FieldSchool:
		p.School = nil
	case types.FieldLocation:
		p.Location = nil
	case types.FieldCourses:
		p.Courses = nil
	case types.FieldAPExams:
		p.APExams = nil
	case types.FieldExtracurricular:
		p.Extracurriculars = nil
	case types.FieldLeadershipRoles:
		p.LeadershipRoles = nil
	case types.FieldAwards:
		p.Awards = nil
	case types.FieldWorkExperience:
		p.WorkExperience = nil
	}
}

func addSource(sources []string, filename string) []string {
	if filename == "" {
		return sources
	}
	for _, s := range sources {
		if s == filename {
			return sources
		}
	}
	return append(sources, filename)
}

func removeSource(sources []string, filename string) []string {
	out := sources[:0]
	for _, s := range sources {
		if s != filename {
			out = append(out, s)
		}
	}
	return out
}

func containsSource(sources []string, filename string) bool {
	for _, s := range sources {
		if s == filename {
			return true
		}
	}
	return false
}

// rollbackSourceFields walks every mergeable field and undoes filename's
// contribution in place: a field sourced solely from filename is nulled and
// its source entry dropped; a field with other sources keeps its current
// value and only sheds the filename. Fields never touched by filename are
// left alone. Returns the nulled fields and the retained-stale fields.
func rollbackSourceFields(p *types.StudentProfile, sources types.FieldSources, filename string) (removed, retainedStale []string) {
	for _, field := range types.AllProfileFields() {
		fieldSources := sources[field]
		if !containsSource(fieldSources, filename) {
			continue
		}
		if len(fieldSources) == 1 {
			nullField(p, field)
			delete(sources, field)
			removed = append(removed, field)
		} else {
			sources[field] = removeSource(fieldSources, filename)
			retainedStale = append(retainedStale, field)
		}
	}
	return removed, retainedStale
}

const rawSegmentHeader = "\n\n--- source: %s ---\n"

func rawSegment(filename, text string) string {
	return fmt.Sprintf(rawSegmentHeader, filename) + text
}

// removeRawSegment drops every raw-content segment belonging to filename.
// A segment runs from its header to the next header or end of content.
func removeRawSegment(content, filename string) string {
	header := fmt.Sprintf(rawSegmentHeader, filename)
	for {
		start := strings.Index(content, header)
		if start < 0 {
			return content
		}
		rest := content[start+len(header):]
		next := strings.Index(rest, "\n\n--- source: ")
		if next < 0 {
			content = content[:start]
		} else {
			content = content[:start] + rest[next:]
		}
	}
}

func newFieldSourceMap(sources types.FieldSources) datatypes.JSONType[types.FieldSources] {
	return datatypes.NewJSONType(sources)
}

func isNotFound(err error) bool {
	return errors.Is(err, apperr.ErrNotFound)
}
