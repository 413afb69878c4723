// Package risk classifies students from their final grade and absences and
// aggregates the result per section.
package risk

import (
	"sort"

	"gradewatch/internal/attendance"
	"gradewatch/internal/grading"
	"gradewatch/internal/models"
)

// Escalation thresholds, most severe first
const (
	HighRiskAbsences   = 7
	HighRiskGrade      = 60.0
	MediumRiskAbsences = 5
	MediumRiskGrade    = 70.0
)

// Assessment is the derived risk of one student
type Assessment struct {
	AttendanceRisk bool             `json:"attendanceRisk"`
	AcademicRisk   bool             `json:"academicRisk"`
	AtRisk         bool             `json:"atRisk"`
	Label          models.RiskLabel `json:"label"`
}

// Classify derives the risk signals and label. Academic signals only fire
// when the student has at least one recorded score.
func Classify(finalGrade float64, absences int, hasScores bool) Assessment {
	a := Assessment{
		AttendanceRisk: absences >= attendance.DropThreshold,
		AcademicRisk:   hasScores && finalGrade < grading.PassingGrade,
	}
	a.AtRisk = a.AttendanceRisk || a.AcademicRisk

	switch {
	case absences >= HighRiskAbsences || (hasScores && finalGrade < HighRiskGrade):
		a.Label = models.RiskHigh
	case absences >= MediumRiskAbsences || (hasScores && finalGrade < MediumRiskGrade):
		a.Label = models.RiskMedium
	case a.AtRisk:
		a.Label = models.RiskInterventionNeeded
	default:
		a.Label = models.RiskOnTrack
	}
	return a
}

// StudentRisk ties an assessment to the student it describes
type StudentRisk struct {
	Student    models.Student `json:"student"`
	FinalGrade float64        `json:"finalGrade"`
	Absences   int            `json:"absences"`
	Assessment
}

// ClassifyStudent is Classify bound to a student
func ClassifyStudent(student models.Student, finalGrade float64, absences int, hasScores bool) StudentRisk {
	return StudentRisk{
		Student:    student,
		FinalGrade: finalGrade,
		Absences:   absences,
		Assessment: Classify(finalGrade, absences, hasScores),
	}
}

// SectionSummary aggregates a section's roster
type SectionSummary struct {
	Section   string                   `json:"section"`
	Size      int                      `json:"size"`
	RiskCount int                      `json:"riskCount"`
	ByLabel   map[models.RiskLabel]int `json:"byLabel"`
	AtRiskIDs []string                 `json:"atRiskIds"`
}

// Summarize groups students by section and ranks the sections by at-risk
// count, then roster size, both descending. Remaining ties fall back to the
// section name so the order never depends on input order.
func Summarize(students []StudentRisk) []SectionSummary {
	bySection := make(map[string]*SectionSummary)
	for _, sr := range students {
		name := sr.Student.Section
		s, ok := bySection[name]
		if !ok {
			s = &SectionSummary{Section: name, ByLabel: make(map[models.RiskLabel]int), AtRiskIDs: []string{}}
			bySection[name] = s
		}
		s.Size++
		s.ByLabel[sr.Label]++
		if sr.AtRisk {
			s.RiskCount++
			s.AtRiskIDs = append(s.AtRiskIDs, sr.Student.ID)
		}
	}

	out := make([]SectionSummary, 0, len(bySection))
	for _, s := range bySection {
		sort.Strings(s.AtRiskIDs)
		out = append(out, *s)
	}
	Rank(out)
	return out
}

// Rank orders summaries for display
func Rank(summaries []SectionSummary) {
	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if a.RiskCount != b.RiskCount {
			return a.RiskCount > b.RiskCount
		}
		if a.Size != b.Size {
			return a.Size > b.Size
		}
		return a.Section < b.Section
	})
}

// AtRisk filters the students flagged by either signal, most severe first
func AtRisk(students []StudentRisk) []StudentRisk {
	out := make([]StudentRisk, 0, len(students))
	for _, sr := range students {
		if sr.AtRisk {
			out = append(out, sr)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Label.Severity() > out[j].Label.Severity()
	})
	return out
}
