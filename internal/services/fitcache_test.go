package services

import (
	"testing"

	"github.com/admitbridge/admitbridge-backend/internal/types"
)

func TestFitRelevantFieldsCoversEveryProfileField(t *testing.T) {
	for _, field := range types.AllProfileFields() {
		if !FitRelevantFieldKnown(field) {
			t.Fatalf("no invalidation policy entry for field %q", field)
		}
	}
}

func TestShouldInvalidateFits(t *testing.T) {
	cases := []struct {
		name    string
		changed []string
		want    bool
	}{
		{"no changes", nil, false},
		{"gpa change", []string{types.FieldGPAWeighted}, true},
		{"sat change", []string{types.FieldSATTotal}, true},
		{"intended major change", []string{types.FieldIntendedMajor}, true},
		{"location change", []string{types.FieldLocation}, true},
		{"school name change", []string{types.FieldSchool}, false},
		{"graduation year change", []string{types.FieldGraduationYear}, false},
		{"activities change", []string{types.FieldExtracurricular, types.FieldAwards}, false},
		{"mixed changes", []string{types.FieldAwards, types.FieldACTComposite}, true},
	}
	for _, tc := range cases {
		if got := ShouldInvalidateFits(tc.changed); got != tc.want {
			t.Fatalf("%s: want=%v got=%v", tc.name, tc.want, got)
		}
	}
}

func TestProfileFingerprintTracksFitRelevantValues(t *testing.T) {
	base := &types.StudentProfile{
		GPAUnweighted: fptr(3.9),
		SATTotal:      iptr(1450),
		IntendedMajor: sptr("Computer Science"),
	}
	same := &types.StudentProfile{
		GPAUnweighted: fptr(3.9),
		SATTotal:      iptr(1450),
		IntendedMajor: sptr("Computer Science"),
	}
	if ProfileFingerprint(base) != ProfileFingerprint(same) {
		t.Fatalf("identical fit-relevant values must fingerprint identically")
	}

	changedGPA := &types.StudentProfile{
		GPAUnweighted: fptr(3.5),
		SATTotal:      iptr(1450),
		IntendedMajor: sptr("Computer Science"),
	}
	if ProfileFingerprint(base) == ProfileFingerprint(changedGPA) {
		t.Fatalf("GPA change must change the fingerprint")
	}
}

func TestProfileFingerprintIgnoresIrrelevantFields(t *testing.T) {
	base := &types.StudentProfile{
		GPAUnweighted: fptr(3.9),
	}
	withSchool := &types.StudentProfile{
		GPAUnweighted:  fptr(3.9),
		School:         sptr("Lincoln High"),
		GraduationYear: iptr(2027),
	}
	if ProfileFingerprint(base) != ProfileFingerprint(withSchool) {
		t.Fatalf("school and graduation year must not affect the fingerprint")
	}
}

func TestProfileFingerprintNilVersusZero(t *testing.T) {
	nilGPA := &types.StudentProfile{}
	zeroGPA := &types.StudentProfile{GPAUnweighted: fptr(0)}
	if ProfileFingerprint(nilGPA) == ProfileFingerprint(zeroGPA) {
		t.Fatalf("absent GPA and explicit 0.0 must fingerprint differently")
	}
}
