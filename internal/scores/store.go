// Package scores keeps raw assessment scores, keyed by student and
// term-qualified assessment key. Entries are never dropped when a column is
// removed, so restoring the column brings its scores back.
package scores

import (
	"sort"
	"sync"

	"gradewatch/internal/grading"
	"gradewatch/internal/models"
)

// Store is a sparse, concurrency-safe score table
type Store struct {
	mu     sync.RWMutex
	sheets map[string]models.ScoreSheet
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{sheets: make(map[string]models.ScoreSheet)}
}

// Set records a score, coercing negative or non-finite values to 0
func (s *Store) Set(studentID string, key models.AssessmentKey, value float64) float64 {
	value = grading.CoercePoints(value)

	s.mu.Lock()
	defer s.mu.Unlock()

	sheet, ok := s.sheets[studentID]
	if !ok {
		sheet = make(models.ScoreSheet)
		s.sheets[studentID] = sheet
	}
	sheet[key] = value
	return value
}

// Clear unsets a score
func (s *Store) Clear(studentID string, key models.AssessmentKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sheet, ok := s.sheets[studentID]
	if !ok {
		return
	}
	delete(sheet, key)
	if len(sheet) == 0 {
		delete(s.sheets, studentID)
	}
}

// Get returns a score and whether it is set
func (s *Store) Get(studentID string, key models.AssessmentKey) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.sheets[studentID][key]
	return v, ok
}

// Sheet returns a copy of a student's scores; never nil
func (s *Store) Sheet(studentID string) models.ScoreSheet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sheets[studentID].Clone()
}

// HasAnyRecorded reports whether the student has at least one score set
func (s *Store) HasAnyRecorded(studentID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sheets[studentID]) > 0
}

// StudentIDs lists students with at least one score, sorted
func (s *Store) StudentIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sheets))
	for id := range s.sheets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Load replaces a student's sheet wholesale
func (s *Store) Load(studentID string, sheet models.ScoreSheet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(sheet) == 0 {
		delete(s.sheets, studentID)
		return
	}
	clean := make(models.ScoreSheet, len(sheet))
	for k, v := range sheet {
		clean[k] = grading.CoercePoints(v)
	}
	s.sheets[studentID] = clean
}
