package services

import (
	"fmt"
	"math"
	"strings"

	"github.com/admitbridge/admitbridge-backend/internal/types"
)

// Classification thresholds. The match score range [0,100] partitions into
// Reach [0, FitTargetFloor), Target [FitTargetFloor, FitSafetyFloor) and
// Safety [FitSafetyFloor, 100]. These are the only band cut points; nothing
// else in the scorer decides a category.
const (
	FitTargetFloor = 50
	FitSafetyFloor = 75
)

// Blend weights. Academic alignment dominates; selectivity (acceptance
// rate, major-specific when published) adjusts the score up or down.
const (
	academicBlendWeight    = 0.7
	selectivityBlendWeight = 0.3

	gpaComponentWeight  = 0.6
	testComponentWeight = 0.4

	// Acceptance rates at or above this saturate the selectivity factor:
	// a 50% admit rate and an open-admission school score the same.
	selectivitySaturationRate = 0.5

	// Neutral contribution used when an input is missing. Missing data
	// degrades confidence, never the ability to return a result.
	neutralComponent = 0.5
)

// FitOutcome is the pure scoring result before it is persisted or keyed.
type FitOutcome struct {
	Category        types.FitCategory
	MatchScore      int
	Confidence      types.FitConfidence
	GapAnalysis     []string
	Recommendations []string
}

// ComputeFitOutcome classifies a student's admission likelihood at one
// university. Pure and deterministic: no I/O, no clock, no randomness.
// Partially populated profiles and university records degrade confidence
// and are noted in GapAnalysis, they never fail the computation.
func ComputeFitOutcome(profile *types.StudentProfile, university *types.University, intendedMajor string) FitOutcome {
	var gaps []string
	var recs []string

	major := university.FindMajor(intendedMajor)
	if strings.TrimSpace(intendedMajor) != "" && major == nil {
		gaps = append(gaps, fmt.Sprintf(
			"major %q not found in %s's academic structure; using university-level statistics",
			strings.TrimSpace(intendedMajor), university.Name,
		))
	}

	admissions := university.AdmissionsData.Data()
	gpaRange := pickRange(major, admissions.GPARange, func(m *types.Major) *types.AdmittedRange { return m.GPARange })
	satRange := pickRange(major, admissions.SATRange, func(m *types.Major) *types.AdmittedRange { return m.SATRange })
	actRange := pickRange(major, admissions.ACTRange, func(m *types.Major) *types.AdmittedRange { return m.ACTRange })

	acceptanceRate := university.AcceptanceRate
	majorRate := false
	if major != nil && major.AcceptanceRate != nil {
		acceptanceRate = major.AcceptanceRate
		majorRate = true
	}

	// A record with no acceptance rate and no admitted ranges cannot be
	// classified; return the distinct unknown state rather than guessing.
	if acceptanceRate == nil && gpaRange == nil && satRange == nil && actRange == nil {
		return FitOutcome{
			Category:   types.FitUnknown,
			MatchScore: 0,
			Confidence: types.FitConfidenceLow,
			GapAnalysis: append(gaps, fmt.Sprintf(
				"%s has no published admissions statistics; fit cannot be classified", university.Name,
			)),
		}
	}

	gpaScore, gpaKnown, gpaGaps, gpaRecs := gpaAlignment(profile, gpaRange)
	testScore, testKnown, testGaps, testRecs := testAlignment(profile, satRange, actRange)
	gaps = append(gaps, gpaGaps...)
	gaps = append(gaps, testGaps...)
	recs = append(recs, gpaRecs...)
	recs = append(recs, testRecs...)

	var alignment float64
	switch {
	case gpaKnown && testKnown:
		alignment = gpaComponentWeight*gpaScore + testComponentWeight*testScore
	case gpaKnown:
		alignment = gpaScore
	case testKnown:
		alignment = testScore
	default:
		alignment = neutralComponent
	}

	selectivity := neutralComponent
	selectivityKnown := acceptanceRate != nil
	if selectivityKnown {
		selectivity = clamp01(*acceptanceRate / selectivitySaturationRate)
	} else {
		gaps = append(gaps, fmt.Sprintf("%s has no published acceptance rate", university.Name))
	}

	if major != nil && (major.Impacted || (majorRate && university.AcceptanceRate != nil && *acceptanceRate < *university.AcceptanceRate)) {
		gaps = append(gaps, fmt.Sprintf(
			"%s admits to %s at a lower rate than the university overall (impacted program)",
			university.Name, major.Name,
		))
	}

	score := int(math.Round(100 * (academicBlendWeight*alignment + selectivityBlendWeight*selectivity)))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	category := classify(score)
	if category == types.FitReach && acceptanceRate != nil && *acceptanceRate < 0.15 {
		recs = append(recs, "highly selective school; balance your list with target and safety options")
	}

	confidence := types.FitConfidenceHigh
	switch {
	case !gpaKnown && !testKnown:
		confidence = types.FitConfidenceLow
	case !gpaKnown || !testKnown || !selectivityKnown:
		confidence = types.FitConfidencePartial
	}

	return FitOutcome{
		Category:        category,
		MatchScore:      score,
		Confidence:      confidence,
		GapAnalysis:     gaps,
		Recommendations: recs,
	}
}

func classify(score int) types.FitCategory {
	switch {
	case score >= FitSafetyFloor:
		return types.FitSafety
	case score >= FitTargetFloor:
		return types.FitTarget
	default:
		return types.FitReach
	}
}

// rangePosition maps a student value against a published middle-50% range
// onto [0,1]. Monotone nondecreasing in value: the floor of the range sits
// at 0.5, the ceiling at 0.8, values above keep climbing toward 1.0 and
// values below fall toward 0.
func rangePosition(value, lo, hi float64) float64 {
	if hi <= lo {
		return neutralComponent
	}
	t := (value - lo) / (hi - lo)
	switch {
	case t < 0:
		return clamp01(0.5 + 0.5*t)
	case t <= 1:
		return 0.5 + 0.3*t
	default:
		s := 0.8 + 0.4*(t-1)
		if s > 1 {
			s = 1
		}
		return s
	}
}

func gpaAlignment(profile *types.StudentProfile, gpaRange *types.AdmittedRange) (score float64, known bool, gaps, recs []string) {
	gpa := profile.GPAUnweighted
	if gpa == nil {
		gpa = profile.GPAWeighted
	}
	switch {
	case gpa == nil && gpaRange == nil:
		return neutralComponent, false, []string{"no GPA on file and no admitted GPA range published"}, nil
	case gpa == nil:
		return neutralComponent, false,
			[]string{"no GPA on file; academic alignment is partly unknown"},
			[]string{"upload a transcript so GPA can be factored into fit"}
	case gpaRange == nil:
		return neutralComponent, false, []string{"no admitted GPA range published for this cohort"}, nil
	}

	score = rangePosition(*gpa, gpaRange.Min, gpaRange.Max)
	if *gpa < gpaRange.Min {
		gaps = append(gaps, fmt.Sprintf(
			"GPA %.2f is below the middle-50%% admitted range %.2f-%.2f",
			*gpa, gpaRange.Min, gpaRange.Max,
		))
		recs = append(recs, "GPA is below the admitted range; highlight course rigor and grade trend in essays")
	}
	return score, true, gaps, recs
}

func testAlignment(profile *types.StudentProfile, satRange, actRange *types.AdmittedRange) (score float64, known bool, gaps, recs []string) {
	var best float64
	found := false

	if profile.SATTotal != nil && satRange != nil {
		s := rangePosition(float64(*profile.SATTotal), satRange.Min, satRange.Max)
		if !found || s > best {
			best = s
		}
		found = true
		if float64(*profile.SATTotal) < satRange.Min {
			gaps = append(gaps, fmt.Sprintf(
				"SAT %d is below the middle-50%% admitted range %.0f-%.0f",
				*profile.SATTotal, satRange.Min, satRange.Max,
			))
			recs = append(recs, "SAT is below the admitted range; consider retesting or applying test-optional")
		}
	}
	if profile.ACTComposite != nil && actRange != nil {
		s := rangePosition(float64(*profile.ACTComposite), actRange.Min, actRange.Max)
		if !found || s > best {
			best = s
		}
		found = true
		if float64(*profile.ACTComposite) < actRange.Min {
			gaps = append(gaps, fmt.Sprintf(
				"ACT %d is below the middle-50%% admitted range %.0f-%.0f",
				*profile.ACTComposite, actRange.Min, actRange.Max,
			))
		}
	}

	if !found {
		if profile.SATTotal == nil && profile.ACTComposite == nil {
			gaps = append(gaps, "no test scores on file; academic alignment is partly unknown")
		} else {
			gaps = append(gaps, "no admitted test-score range published for this cohort")
		}
		return neutralComponent, false, gaps, recs
	}
	return best, true, gaps, recs
}

func pickRange(major *types.Major, fallback *types.AdmittedRange, pick func(*types.Major) *types.AdmittedRange) *types.AdmittedRange {
	if major != nil {
		if r := pick(major); r != nil {
			return r
		}
	}
	return fallback
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
