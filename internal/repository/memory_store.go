package repository

import (
	"context"
	"sync"

	"gradewatch/internal/attendance"
	"gradewatch/internal/models"
)

// MemoryGradingStore keeps grading state in process memory. Values are
// copied on the way in and out so callers never share maps or slices with it.
type MemoryGradingStore struct {
	mu         sync.RWMutex
	columns    map[models.Term]models.TermColumns
	configs    map[models.Term]models.TermConfig
	classDates map[models.Term][]string
	scores     map[string]models.ScoreSheet
	attendance map[string]map[string]models.AttendanceStatus
}

// NewMemoryGradingStore creates an empty in-memory store
func NewMemoryGradingStore() *MemoryGradingStore {
	s := &MemoryGradingStore{}
	s.reset()
	return s
}

func (s *MemoryGradingStore) reset() {
	s.columns = make(map[models.Term]models.TermColumns)
	s.configs = make(map[models.Term]models.TermConfig)
	s.classDates = make(map[models.Term][]string)
	s.scores = make(map[string]models.ScoreSheet)
	s.attendance = make(map[string]map[string]models.AttendanceStatus)
}

func (s *MemoryGradingStore) LoadColumns(_ context.Context, term models.Term) (models.TermColumns, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTermColumns(s.columns[term]), nil
}

func (s *MemoryGradingStore) SaveColumns(_ context.Context, term models.Term, tc models.TermColumns) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.columns[term] = copyTermColumns(tc)
	return nil
}

func (s *MemoryGradingStore) LoadTermConfig(_ context.Context, term models.Term) (models.TermConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cfg, ok := s.configs[term]; ok {
		return cfg, nil
	}
	return models.DefaultTermConfig(), nil
}

func (s *MemoryGradingStore) SaveTermConfig(_ context.Context, term models.Term, cfg models.TermConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[term] = cfg
	return nil
}

func (s *MemoryGradingStore) LoadClassDates(_ context.Context, term models.Term) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.classDates[term]...), nil
}

func (s *MemoryGradingStore) SaveClassDates(_ context.Context, term models.Term, dates []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classDates[term] = append([]string(nil), dates...)
	return nil
}

func (s *MemoryGradingStore) LoadScores(_ context.Context) (map[string]models.ScoreSheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.ScoreSheet, len(s.scores))
	for id, sheet := range s.scores {
		out[id] = sheet.Clone()
	}
	return out, nil
}

func (s *MemoryGradingStore) SaveScores(_ context.Context, studentID string, sheet models.ScoreSheet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(sheet) == 0 {
		delete(s.scores, studentID)
		return nil
	}
	s.scores[studentID] = sheet.Clone()
	return nil
}

func (s *MemoryGradingStore) LoadAttendance(_ context.Context) ([]attendance.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var entries []attendance.Entry
	for studentID, byDate := range s.attendance {
		for date, status := range byDate {
			entries = append(entries, attendance.Entry{StudentID: studentID, Date: date, Status: status})
		}
	}
	sortEntries(entries)
	return entries, nil
}

func (s *MemoryGradingStore) SaveAttendance(_ context.Context, entry attendance.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byDate := s.attendance[entry.StudentID]
	if entry.Status == models.StatusUnset {
		delete(byDate, entry.Date)
		if len(byDate) == 0 {
			delete(s.attendance, entry.StudentID)
		}
		return nil
	}
	if byDate == nil {
		byDate = make(map[string]models.AttendanceStatus)
		s.attendance[entry.StudentID] = byDate
	}
	byDate[entry.Date] = entry.Status
	return nil
}

func (s *MemoryGradingStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

func copyTermColumns(tc models.TermColumns) models.TermColumns {
	return models.TermColumns{
		Active:  copyGroups(tc.Active),
		Removed: copyGroups(tc.Removed),
	}
}

func copyGroups(g models.ColumnGroups) models.ColumnGroups {
	return models.ColumnGroups{
		Quiz:     append([]models.AssessmentColumn(nil), g.Quiz...),
		Activity: append([]models.AssessmentColumn(nil), g.Activity...),
	}
}
