package service

import (
	"context"
	"fmt"

	"gradewatch/internal/attendance"
	"gradewatch/internal/grading"
	"gradewatch/internal/models"
	"gradewatch/internal/risk"
)

// AttendanceReport summarizes a student's attendance per term and overall
type AttendanceReport struct {
	Midterm attendance.Summary `json:"midterm"`
	Finals  attendance.Summary `json:"finals"`
	Overall attendance.Summary `json:"overall"`
}

// StudentReport is everything derived for one student. It is recomputed on
// every read and never stored.
type StudentReport struct {
	Student    models.Student        `json:"student"`
	Midterm    grading.TermBreakdown `json:"midterm"`
	Finals     grading.TermBreakdown `json:"finals"`
	FinalGrade grading.FinalGrade    `json:"finalGrade"`
	HasScores  bool                  `json:"hasScores"`
	Attendance AttendanceReport      `json:"attendance"`
	Risk       risk.Assessment       `json:"risk"`
}

// StudentRisk projects the report onto the classifier's roster row
func (r StudentReport) StudentRisk() risk.StudentRisk {
	return risk.StudentRisk{
		Student:    r.Student,
		FinalGrade: r.FinalGrade.Value,
		Absences:   r.Attendance.Overall.Absences,
		Assessment: r.Risk,
	}
}

// StudentReport computes the grades, attendance and risk of one student
func (s *GradebookService) StudentReport(ctx context.Context, studentID string) (StudentReport, error) {
	student, err := s.student(ctx, studentID)
	if err != nil {
		return StudentReport{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report(student), nil
}

// SectionRoster computes the reports of a section's students in roster order
func (s *GradebookService) SectionRoster(ctx context.Context, section string, atRiskOnly bool) ([]StudentReport, error) {
	students, err := s.students.ListBySection(ctx, section)
	if err != nil {
		return nil, fmt.Errorf("failed to list section %s: %w", section, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	reports := make([]StudentReport, 0, len(students))
	for _, student := range students {
		r := s.report(student)
		if atRiskOnly && !r.Risk.AtRisk {
			continue
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// SectionOverview aggregates risk per section, most at-risk sections first
func (s *GradebookService) SectionOverview(ctx context.Context) ([]risk.SectionSummary, error) {
	students, err := s.students.ListStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]risk.StudentRisk, 0, len(students))
	for _, student := range students {
		rows = append(rows, s.report(student).StudentRisk())
	}
	return risk.Summarize(rows), nil
}

// report is the single place grades are derived. Caller holds s.mu.
func (s *GradebookService) report(student models.Student) StudentReport {
	sheet := s.scores.Sheet(student.ID)

	r := StudentReport{
		Student:   student,
		Midterm:   s.breakdown(sheet, models.Midterm),
		Finals:    s.breakdown(sheet, models.Finals),
		HasScores: grading.HasAnyRecordedScore(sheet),
	}
	r.FinalGrade = grading.ComposeFinalGrade(r.Midterm.Total, r.Finals.Total)

	midDates := s.classDates[models.Midterm]
	finDates := s.classDates[models.Finals]
	r.Attendance = AttendanceReport{
		Midterm: s.ledger.Summarize(student.ID, midDates),
		Finals:  s.ledger.Summarize(student.ID, finDates),
		Overall: s.ledger.Summarize(student.ID, append(append([]string{}, midDates...), finDates...)),
	}

	r.Risk = risk.Classify(r.FinalGrade.Value, r.Attendance.Overall.Absences, r.HasScores)
	return r
}

func (s *GradebookService) breakdown(sheet models.ScoreSheet, term models.Term) grading.TermBreakdown {
	return grading.Breakdown(sheet, term,
		s.registry.Active(term, models.KindQuiz),
		s.registry.Active(term, models.KindActivity),
		s.configs[term])
}
