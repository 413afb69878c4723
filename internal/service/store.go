package service

import (
	"context"

	"gradewatch/internal/attendance"
	"gradewatch/internal/models"
)

// GradingStore persists grading state. The engine only talks to storage
// through it, one typed record per entity.
type GradingStore interface {
	LoadColumns(ctx context.Context, term models.Term) (models.TermColumns, error)
	SaveColumns(ctx context.Context, term models.Term, tc models.TermColumns) error

	LoadTermConfig(ctx context.Context, term models.Term) (models.TermConfig, error)
	SaveTermConfig(ctx context.Context, term models.Term, cfg models.TermConfig) error

	LoadClassDates(ctx context.Context, term models.Term) ([]string, error)
	SaveClassDates(ctx context.Context, term models.Term, dates []string) error

	LoadScores(ctx context.Context) (map[string]models.ScoreSheet, error)
	SaveScores(ctx context.Context, studentID string, sheet models.ScoreSheet) error

	LoadAttendance(ctx context.Context) ([]attendance.Entry, error)
	// SaveAttendance writes one mark; StatusUnset removes it
	SaveAttendance(ctx context.Context, entry attendance.Entry) error

	// Reset deletes all grading state
	Reset(ctx context.Context) error
}

// StudentDirectory is the source of student records
type StudentDirectory interface {
	GetStudent(ctx context.Context, id string) (models.Student, error)
	ListStudents(ctx context.Context) ([]models.Student, error)
	ListBySection(ctx context.Context, section string) ([]models.Student, error)
	UpsertStudent(ctx context.Context, student models.Student) error
	DeleteStudent(ctx context.Context, id string) error
}
