package services

import (
	"reflect"
	"strings"
	"testing"

	"gorm.io/datatypes"

	"github.com/admitbridge/admitbridge-backend/internal/types"
)

func TestMergeScalarsLastWriteWins(t *testing.T) {
	profile := &types.StudentProfile{GPAUnweighted: fptr(3.5)}

	changed := mergeScalars(profile, scalarValues{gpaUnweighted: fptr(3.9)}, func(string) {})

	if len(changed) != 1 || changed[0] != types.FieldGPAUnweighted {
		t.Fatalf("changed: want=[%s] got=%v", types.FieldGPAUnweighted, changed)
	}
	if profile.GPAUnweighted == nil || *profile.GPAUnweighted != 3.9 {
		t.Fatalf("gpa: want=3.9 got=%v", profile.GPAUnweighted)
	}
}

func TestMergeScalarsNullNeverOverwrites(t *testing.T) {
	profile := &types.StudentProfile{
		GPAUnweighted: fptr(3.9),
		SATTotal:      iptr(1450),
	}

	changed := mergeScalars(profile, scalarValues{school: sptr("Lincoln High")}, func(string) {})

	if len(changed) != 1 || changed[0] != types.FieldSchool {
		t.Fatalf("changed: want=[%s] got=%v", types.FieldSchool, changed)
	}
	if *profile.GPAUnweighted != 3.9 || *profile.SATTotal != 1450 {
		t.Fatalf("absent fields must not overwrite existing values")
	}
}

func TestMergeScalarsSameValueRegistersSourceWithoutChange(t *testing.T) {
	profile := &types.StudentProfile{SATTotal: iptr(1450)}
	var registered []string

	changed := mergeScalars(profile, scalarValues{satTotal: iptr(1450)}, func(f string) {
		registered = append(registered, f)
	})

	if len(changed) != 0 {
		t.Fatalf("identical value must not report a change, got=%v", changed)
	}
	if len(registered) != 1 || registered[0] != types.FieldSATTotal {
		t.Fatalf("source must still register on a confirming write, got=%v", registered)
	}
}

func TestMergeItemsDedupsByNormalizedName(t *testing.T) {
	existing := []types.ProfileItem{
		{Name: "AP Calculus BC", Score: "5"},
	}
	incoming := []types.ProfileItem{
		{Name: "  ap calculus bc ", Score: "4"},
		{Name: "AP Physics C"},
		{Name: ""},
	}

	merged, added := mergeItems(existing, incoming)

	if added != 1 {
		t.Fatalf("added: want=1 got=%d", added)
	}
	if len(merged) != 2 {
		t.Fatalf("merged length: want=2 got=%d", len(merged))
	}
	if merged[0].Score != "5" {
		t.Fatalf("existing item must keep its original detail, got=%v", merged[0].Score)
	}
	if merged[1].Name != "AP Physics C" {
		t.Fatalf("new item missing, got=%v", merged[1].Name)
	}
}

func TestMergeCollectionsIdempotent(t *testing.T) {
	profile := &types.StudentProfile{}
	extraction := UploadExtraction{
		Extracurriculars: []types.ProfileItem{
			{Name: "Robotics Club", Role: "Captain"},
			{Name: "Debate Team"},
		},
	}

	first := mergeCollections(profile, extraction, func(string) {})
	second := mergeCollections(profile, extraction, func(string) {})

	if len(first) != 1 || first[0] != types.FieldExtracurricular {
		t.Fatalf("first merge changed: want=[%s] got=%v", types.FieldExtracurricular, first)
	}
	if len(second) != 0 {
		t.Fatalf("second identical merge must be a no-op, got=%v", second)
	}
	if got := len(profile.Extracurriculars); got != 2 {
		t.Fatalf("extracurriculars: want=2 got=%d", got)
	}
}

func TestSourceBookkeeping(t *testing.T) {
	sources := addSource(nil, "transcript.pdf")
	sources = addSource(sources, "resume.pdf")
	sources = addSource(sources, "transcript.pdf")

	if len(sources) != 2 {
		t.Fatalf("sources: want=2 got=%v", sources)
	}
	if !containsSource(sources, "resume.pdf") {
		t.Fatalf("resume.pdf missing from %v", sources)
	}

	sources = removeSource(sources, "transcript.pdf")
	if containsSource(sources, "transcript.pdf") {
		t.Fatalf("transcript.pdf still present after removal: %v", sources)
	}
	if !containsSource(sources, "resume.pdf") {
		t.Fatalf("removal dropped an unrelated source: %v", sources)
	}
}

func TestRollbackSourceFields(t *testing.T) {
	newState := func() (*types.StudentProfile, types.FieldSources) {
		profile := &types.StudentProfile{
			GPAUnweighted: fptr(3.9),
			SATTotal:      iptr(1450),
			IntendedMajor: sptr("Computer Science"),
		}
		sources := types.FieldSources{
			types.FieldGPAUnweighted: {"transcript.pdf"},
			types.FieldSATTotal:      {"transcript.pdf", "scores.pdf"},
			types.FieldIntendedMajor: {"essay.pdf"},
		}
		return profile, sources
	}

	profile, sources := newState()
	removed, retainedStale := rollbackSourceFields(profile, sources, "transcript.pdf")

	if want := []string{types.FieldGPAUnweighted}; !reflect.DeepEqual(removed, want) {
		t.Fatalf("removed: want=%v got=%v", want, removed)
	}
	if profile.GPAUnweighted != nil {
		t.Fatalf("sole-source field must be nulled, got=%v", *profile.GPAUnweighted)
	}
	if _, ok := sources[types.FieldGPAUnweighted]; ok {
		t.Fatalf("nulled field must drop its source entry: %v", sources)
	}

	if want := []string{types.FieldSATTotal}; !reflect.DeepEqual(retainedStale, want) {
		t.Fatalf("retained stale: want=%v got=%v", want, retainedStale)
	}
	if profile.SATTotal == nil || *profile.SATTotal != 1450 {
		t.Fatalf("multi-source field must keep its value, got=%v", profile.SATTotal)
	}
	if got := sources[types.FieldSATTotal]; !reflect.DeepEqual(got, []string{"scores.pdf"}) {
		t.Fatalf("multi-source field must shed only the deleted source: %v", got)
	}

	if profile.IntendedMajor == nil || *profile.IntendedMajor != "Computer Science" {
		t.Fatalf("untouched field must be left alone, got=%v", profile.IntendedMajor)
	}
	if got := sources[types.FieldIntendedMajor]; !reflect.DeepEqual(got, []string{"essay.pdf"}) {
		t.Fatalf("untouched field sources changed: %v", got)
	}

	profile, sources = newState()
	removed, retainedStale = rollbackSourceFields(profile, sources, "missing.pdf")
	if removed != nil || retainedStale != nil {
		t.Fatalf("unknown source must be a no-op, got removed=%v stale=%v", removed, retainedStale)
	}
	if profile.GPAUnweighted == nil || len(sources) != 3 {
		t.Fatalf("unknown source must not mutate profile or sources")
	}
}

func TestRemoveRawSegment(t *testing.T) {
	content := rawSegment("transcript.pdf", "GPA 3.9, class of 2027") +
		rawSegment("resume.pdf", "Robotics Club captain") +
		rawSegment("transcript.pdf", "re-uploaded transcript text")

	got := removeRawSegment(content, "transcript.pdf")

	if strings.Contains(got, "GPA 3.9") || strings.Contains(got, "re-uploaded") {
		t.Fatalf("transcript segments not removed: %q", got)
	}
	if !strings.Contains(got, "Robotics Club captain") {
		t.Fatalf("unrelated segment lost: %q", got)
	}
	if got := removeRawSegment(got, "missing.pdf"); !strings.Contains(got, "Robotics Club captain") {
		t.Fatalf("removing an absent source must not alter content")
	}
}

func TestNullFieldClearsEveryKnownField(t *testing.T) {
	profile := &types.StudentProfile{
		GPAWeighted:    fptr(4.2),
		GPAUnweighted:  fptr(3.9),
		SATTotal:       iptr(1450),
		ACTComposite:   iptr(33),
		ClassRank:      sptr("top 5%"),
		IntendedMajor:  sptr("Computer Science"),
		GraduationYear: iptr(2027),
		School:         sptr("Lincoln High"),
		Location:       sptr("CA"),
		Courses:        datatypes.NewJSONSlice([]types.ProfileItem{{Name: "AP Calculus BC"}}),
		Awards:         datatypes.NewJSONSlice([]types.ProfileItem{{Name: "AIME Qualifier"}}),
	}

	for _, field := range types.AllProfileFields() {
		nullField(profile, field)
	}

	if profile.GPAWeighted != nil || profile.GPAUnweighted != nil ||
		profile.SATTotal != nil || profile.ACTComposite != nil ||
		profile.ClassRank != nil || profile.IntendedMajor != nil ||
		profile.GraduationYear != nil || profile.School != nil || profile.Location != nil {
		t.Fatalf("scalar fields not cleared: %+v", profile)
	}
	if profile.Courses != nil || profile.Awards != nil {
		t.Fatalf("collection fields not cleared")
	}
}
