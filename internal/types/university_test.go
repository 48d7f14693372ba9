package types

import (
	"testing"

	"gorm.io/datatypes"
)

func TestNormalizeUniversitySlug(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"stanford", "stanford"},
		{"Stanford", "stanford"},
		{"  Stanford  ", "stanford"},
		{"Stanford_slug", "stanford"},
		{"uc berkeley", "uc-berkeley"},
		{"University of Michigan_slug", "university-of-michigan"},
	}
	for _, tc := range cases {
		if got := NormalizeUniversitySlug(tc.raw); got != tc.want {
			t.Fatalf("NormalizeUniversitySlug(%q): want=%q got=%q", tc.raw, tc.want, got)
		}
	}
}

func TestFindMajorCaseInsensitive(t *testing.T) {
	u := &University{
		Name: "Stanford University",
		AcademicStructure: datatypes.NewJSONType(AcademicStructure{
			Colleges: []College{
				{
					Name: "School of Engineering",
					Majors: []Major{
						{Name: "Computer Science"},
						{Name: "Mechanical Engineering"},
					},
				},
				{
					Name: "School of Humanities and Sciences",
					Majors: []Major{
						{Name: "Economics"},
					},
				},
			},
		}),
	}

	if got := u.FindMajor("computer science"); got == nil || got.Name != "Computer Science" {
		t.Fatalf("FindMajor(computer science): want match, got=%v", got)
	}
	if got := u.FindMajor("  ECONOMICS "); got == nil || got.Name != "Economics" {
		t.Fatalf("FindMajor across colleges: want match, got=%v", got)
	}
	if got := u.FindMajor("astrology"); got != nil {
		t.Fatalf("FindMajor(astrology): want nil, got=%v", got)
	}
	if got := u.FindMajor(""); got != nil {
		t.Fatalf("FindMajor(empty): want nil, got=%v", got)
	}
}
