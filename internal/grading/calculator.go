// Package grading turns raw scores into term percentages and final grades.
// Every function here is pure: identical inputs always produce identical
// outputs and nothing is cached between calls.
package grading

import (
	"fmt"

	"gradewatch/internal/models"
)

// Component weights, in percent of the term grade
const (
	QuizWeight = 15.0

	MidtermActivityWeight   = 35.0
	MidtermRecitationWeight = 10.0
	MidtermExamWeight       = 40.0

	FinalsLabWeight        = 25.0
	FinalsRecitationWeight = 20.0
	FinalsExamWeight       = 40.0
)

// TermBreakdown is a term grade split into its weighted components
type TermBreakdown struct {
	Term       models.Term `json:"term"`
	Quiz       float64     `json:"quiz"`
	Activity   float64     `json:"activity"`
	Recitation float64     `json:"recitation"`
	Exam       float64     `json:"exam"`
	Total      float64     `json:"total"`
}

// Percentage scales raw/max to weight. A zero max contributes nothing.
func Percentage(raw, max, weight float64) float64 {
	if max <= 0 {
		return 0
	}
	return raw / max * weight
}

// CalculateTermGrade returns the 0-100 term percentage of a student
func CalculateTermGrade(scores models.ScoreSheet, term models.Term, quizzes, activities []models.AssessmentColumn, cfg models.TermConfig) float64 {
	return Breakdown(scores, term, quizzes, activities, cfg).Total
}

// Breakdown computes every weighted component of a term grade. It panics on
// an unknown term; that is a caller bug, not a data problem.
func Breakdown(scores models.ScoreSheet, term models.Term, quizzes, activities []models.AssessmentColumn, cfg models.TermConfig) TermBreakdown {
	if !term.Valid() {
		panic(fmt.Sprintf("grading: unknown term %q", term))
	}

	b := TermBreakdown{Term: term}

	quizMax, quizRaw := sumColumns(scores, term, models.KindQuiz, quizzes)
	b.Quiz = Percentage(quizRaw, quizMax, QuizWeight)

	actMax, actRaw := sumColumns(scores, term, models.KindActivity, activities)
	recitation := score(scores, models.RecitationKey(term))
	exam := score(scores, models.ExamKey(term))

	if term == models.Midterm {
		b.Activity = Percentage(actRaw, actMax, MidtermActivityWeight)
		b.Recitation = Percentage(recitation, CoercePoints(cfg.RecitationMax), MidtermRecitationWeight)
		b.Exam = Percentage(exam, CoercePoints(cfg.ExamMax), MidtermExamWeight)
	} else {
		b.Activity = Percentage(actRaw, actMax, FinalsLabWeight)
		b.Recitation = Percentage(recitation, CoercePoints(cfg.RecitationMax), FinalsRecitationWeight)
		b.Exam = Percentage(exam, CoercePoints(cfg.ExamMax), FinalsExamWeight)
	}

	b.Total = clamp(b.Quiz+b.Activity+b.Recitation+b.Exam, 0, 100)
	return b
}

// HasAnyRecordedScore reports whether at least one assessment has a value
func HasAnyRecordedScore(scores models.ScoreSheet) bool {
	return len(scores) > 0
}

func sumColumns(scores models.ScoreSheet, term models.Term, kind models.Kind, cols []models.AssessmentColumn) (max, raw float64) {
	for _, col := range cols {
		max += CoercePoints(col.MaxPoints)
		raw += score(scores, models.ColumnKey(term, kind, col.ID))
	}
	return max, raw
}

func score(scores models.ScoreSheet, key models.AssessmentKey) float64 {
	return nonNegative(scores[key])
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
