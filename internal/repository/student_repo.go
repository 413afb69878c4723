package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gradewatch/internal/database"
	"gradewatch/internal/models"
)

// StudentRepository handles database operations for the local student roster
type StudentRepository struct {
	db database.DBTX
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db database.DBTX) *StudentRepository {
	return &StudentRepository{db: db}
}

// UpsertStudent creates or updates a student
func (r *StudentRepository) UpsertStudent(ctx context.Context, student models.Student) error {
	query := r.db.GetDialect().UpsertQuery("students", "id", []string{"id", "name", "section", "email"})
	_, err := r.db.ExecContext(ctx, query, student.ID, student.Name, student.Section, student.Email)
	if err != nil {
		return fmt.Errorf("failed to save student: %w", err)
	}
	return nil
}

// GetStudent retrieves a student by ID
func (r *StudentRepository) GetStudent(ctx context.Context, id string) (models.Student, error) {
	query := "SELECT id, name, section, email FROM students WHERE id = ?"
	var s models.Student
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.Name, &s.Section, &s.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Student{}, ErrNotFound
	}
	if err != nil {
		return models.Student{}, fmt.Errorf("failed to get student: %w", err)
	}
	return s, nil
}

// ListStudents retrieves every student ordered by section and name
func (r *StudentRepository) ListStudents(ctx context.Context) ([]models.Student, error) {
	return r.query(ctx, "SELECT id, name, section, email FROM students ORDER BY section, name, id")
}

// ListBySection retrieves the students of one section ordered by name
func (r *StudentRepository) ListBySection(ctx context.Context, section string) ([]models.Student, error) {
	return r.query(ctx, "SELECT id, name, section, email FROM students WHERE section = ? ORDER BY name, id", section)
}

// DeleteStudent removes a student from the roster
func (r *StudentRepository) DeleteStudent(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM students WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	return nil
}

func (r *StudentRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.Student, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var students []models.Student
	for rows.Next() {
		var s models.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.Section, &s.Email); err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, s)
	}
	return students, rows.Err()
}
