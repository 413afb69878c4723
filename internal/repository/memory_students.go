package repository

import (
	"context"
	"sort"
	"sync"

	"gradewatch/internal/models"
)

// MemoryStudentRepository is an in-process student roster
type MemoryStudentRepository struct {
	mu       sync.RWMutex
	students map[string]models.Student
}

// NewMemoryStudentRepository creates a roster seeded with students
func NewMemoryStudentRepository(students ...models.Student) *MemoryStudentRepository {
	r := &MemoryStudentRepository{students: make(map[string]models.Student)}
	for _, s := range students {
		r.students[s.ID] = s
	}
	return r
}

func (r *MemoryStudentRepository) UpsertStudent(_ context.Context, student models.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.students[student.ID] = student
	return nil
}

func (r *MemoryStudentRepository) GetStudent(_ context.Context, id string) (models.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.students[id]
	if !ok {
		return models.Student{}, ErrNotFound
	}
	return s, nil
}

func (r *MemoryStudentRepository) ListStudents(_ context.Context) ([]models.Student, error) {
	return r.filter(func(models.Student) bool { return true }), nil
}

func (r *MemoryStudentRepository) ListBySection(_ context.Context, section string) ([]models.Student, error) {
	return r.filter(func(s models.Student) bool { return s.Section == section }), nil
}

func (r *MemoryStudentRepository) DeleteStudent(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.students, id)
	return nil
}

// filter returns matching students in the same order as the SQL repository
func (r *MemoryStudentRepository) filter(match func(models.Student) bool) []models.Student {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Student
	for _, s := range r.students {
		if match(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Section != b.Section {
			return a.Section < b.Section
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	return out
}
