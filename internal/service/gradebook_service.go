package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gradewatch/internal/attendance"
	"gradewatch/internal/columns"
	"gradewatch/internal/grading"
	"gradewatch/internal/models"
	"gradewatch/internal/repository"
	"gradewatch/internal/scores"
)

// GradebookService owns the in-memory grading state, persists every change
// through a GradingStore and derives grades and risk on read.
type GradebookService struct {
	store    GradingStore
	students StudentDirectory

	// mu serializes writers; a write and its persistence happen under one lock
	mu         sync.RWMutex
	registry   *columns.Registry
	scores     *scores.Store
	ledger     *attendance.Ledger
	configs    map[models.Term]models.TermConfig
	classDates map[models.Term][]string
}

// NewGradebookService creates an empty gradebook. Call Load to hydrate it from the store.
func NewGradebookService(store GradingStore, students StudentDirectory) *GradebookService {
	s := &GradebookService{
		store:      store,
		students:   students,
		registry:   columns.NewRegistry(),
		scores:     scores.NewStore(),
		ledger:     attendance.NewLedger(),
		configs:    make(map[models.Term]models.TermConfig),
		classDates: make(map[models.Term][]string),
	}
	for _, term := range models.Terms {
		s.configs[term] = models.DefaultTermConfig()
	}
	return s
}

// Load replaces the in-memory state with what the store holds
func (s *GradebookService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// load rebuilds every in-memory structure from the store. Caller holds s.mu.
func (s *GradebookService) load(ctx context.Context) error {
	registry := columns.NewRegistry()
	configs := make(map[models.Term]models.TermConfig)
	classDates := make(map[models.Term][]string)

	for _, term := range models.Terms {
		tc, err := s.store.LoadColumns(ctx, term)
		if err != nil {
			return fmt.Errorf("failed to load %s columns: %w", term, err)
		}
		registry.Load(term, tc)

		cfg, err := s.store.LoadTermConfig(ctx, term)
		if err != nil {
			return fmt.Errorf("failed to load %s config: %w", term, err)
		}
		configs[term] = normalizeConfig(cfg)

		dates, err := s.store.LoadClassDates(ctx, term)
		if err != nil {
			return fmt.Errorf("failed to load %s class dates: %w", term, err)
		}
		classDates[term] = normalizeDates(dates)
	}

	sheets, err := s.store.LoadScores(ctx)
	if err != nil {
		return fmt.Errorf("failed to load scores: %w", err)
	}
	scoreStore := scores.NewStore()
	for studentID, sheet := range sheets {
		scoreStore.Load(studentID, registry.ResolveSheet(sheet))
	}

	entries, err := s.store.LoadAttendance(ctx)
	if err != nil {
		return fmt.Errorf("failed to load attendance: %w", err)
	}
	ledger := attendance.NewLedger()
	for _, e := range entries {
		ledger.Record(e.StudentID, e.Date, e.Status)
	}

	s.registry = registry
	s.scores = scoreStore
	s.ledger = ledger
	s.configs = configs
	s.classDates = classDates
	return nil
}

// AddColumn appends a new quiz or activity column to a term
func (s *GradebookService) AddColumn(ctx context.Context, term models.Term, kind models.Kind, maxPoints any, date string) (models.AssessmentColumn, error) {
	if err := checkTermKind(term, kind); err != nil {
		return models.AssessmentColumn{}, err
	}
	points, _ := grading.CoerceScore(maxPoints)

	s.mu.Lock()
	defer s.mu.Unlock()

	var col models.AssessmentColumn
	err := s.mutateColumns(ctx, term, func() bool {
		col = s.registry.Add(term, kind, points, strings.TrimSpace(date))
		return true
	})
	if err != nil {
		return models.AssessmentColumn{}, err
	}
	return col, nil
}

// RemoveColumn soft-deletes an active column. Scores recorded against it are
// kept. Reports false when id is not active.
func (s *GradebookService) RemoveColumn(ctx context.Context, term models.Term, kind models.Kind, id string) (bool, error) {
	if err := checkTermKind(term, kind); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var changed bool
	err := s.mutateColumns(ctx, term, func() bool {
		changed = s.registry.Remove(term, kind, id)
		return changed
	})
	return changed, err
}

// RestoreColumn brings a removed column back in label order. Reports false
// when id is not removed.
func (s *GradebookService) RestoreColumn(ctx context.Context, term models.Term, kind models.Kind, id string) (bool, error) {
	if err := checkTermKind(term, kind); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var changed bool
	err := s.mutateColumns(ctx, term, func() bool {
		changed = s.registry.Restore(term, kind, id)
		return changed
	})
	return changed, err
}

// SetMaxPoints updates a column's maximum; bad input becomes 0
func (s *GradebookService) SetMaxPoints(ctx context.Context, term models.Term, kind models.Kind, id string, value any) (bool, error) {
	if err := checkTermKind(term, kind); err != nil {
		return false, err
	}
	points, _ := grading.CoerceScore(value)

	s.mu.Lock()
	defer s.mu.Unlock()

	var changed bool
	err := s.mutateColumns(ctx, term, func() bool {
		changed = s.registry.SetMaxPoints(term, kind, id, points)
		return changed
	})
	return changed, err
}

// SetColumnDate updates a column's date
func (s *GradebookService) SetColumnDate(ctx context.Context, term models.Term, kind models.Kind, id, date string) (bool, error) {
	if err := checkTermKind(term, kind); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var changed bool
	err := s.mutateColumns(ctx, term, func() bool {
		changed = s.registry.SetDate(term, kind, id, strings.TrimSpace(date))
		return changed
	})
	return changed, err
}

// mutateColumns applies fn and persists the term's columns. The registry is
// rolled back if the store rejects the write. Caller holds s.mu.
func (s *GradebookService) mutateColumns(ctx context.Context, term models.Term, fn func() bool) error {
	before := s.registry.Snapshot(term)
	if !fn() {
		return nil
	}
	if err := s.store.SaveColumns(ctx, term, s.registry.Snapshot(term)); err != nil {
		s.registry.Load(term, before)
		return fmt.Errorf("failed to save %s columns: %w", term, err)
	}
	return nil
}

// Columns returns a term's active and removed columns
func (s *GradebookService) Columns(term models.Term) (models.TermColumns, error) {
	if !term.Valid() {
		return models.TermColumns{}, ErrUnknownTerm
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Snapshot(term), nil
}

// TermConfig returns a term's recitation and exam maximums
func (s *GradebookService) TermConfig(term models.Term) (models.TermConfig, error) {
	if !term.Valid() {
		return models.TermConfig{}, ErrUnknownTerm
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.configs[term], nil
}

// SetTermConfig stores a term's maximums; bad input becomes 0
func (s *GradebookService) SetTermConfig(ctx context.Context, term models.Term, recitationMax, examMax any) (models.TermConfig, error) {
	if !term.Valid() {
		return models.TermConfig{}, ErrUnknownTerm
	}
	rec, _ := grading.CoerceScore(recitationMax)
	exam, _ := grading.CoerceScore(examMax)
	cfg := models.TermConfig{RecitationMax: rec, ExamMax: exam}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SaveTermConfig(ctx, term, cfg); err != nil {
		return models.TermConfig{}, fmt.Errorf("failed to save %s config: %w", term, err)
	}
	s.configs[term] = cfg
	return cfg, nil
}

// RecordScore stores a raw score. Blank or nil input clears the entry;
// anything else is coerced to a non-negative number. Returns the stored
// value and whether an entry now exists.
func (s *GradebookService) RecordScore(ctx context.Context, studentID string, key models.AssessmentKey, raw any) (float64, bool, error) {
	sheet, err := s.RecordScores(ctx, studentID, map[models.AssessmentKey]any{key: raw})
	if err != nil {
		return 0, false, err
	}
	value, set := sheet[s.resolveKey(key)]
	return value, set, nil
}

// RecordScores applies a batch of raw scores with a single write. Either
// every entry is stored or, when the store fails, none is. Returns the
// student's resulting sheet.
func (s *GradebookService) RecordScores(ctx context.Context, studentID string, entries map[models.AssessmentKey]any) (models.ScoreSheet, error) {
	for key := range entries {
		if !key.Term.Valid() {
			return nil, ErrUnknownTerm
		}
	}
	if _, err := s.student(ctx, studentID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.scores.Sheet(studentID)
	for key, raw := range entries {
		key = s.registry.ResolveKey(key)
		if value, set := grading.CoerceScore(raw); set {
			s.scores.Set(studentID, key, value)
		} else {
			s.scores.Clear(studentID, key)
		}
	}

	sheet := s.scores.Sheet(studentID)
	if err := s.store.SaveScores(ctx, studentID, sheet); err != nil {
		s.scores.Load(studentID, before)
		return nil, fmt.Errorf("failed to save scores: %w", err)
	}
	return sheet, nil
}

func (s *GradebookService) resolveKey(key models.AssessmentKey) models.AssessmentKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.ResolveKey(key)
}

// Scores returns a copy of a student's raw scores
func (s *GradebookService) Scores(studentID string) models.ScoreSheet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scores.Sheet(studentID)
}

// RecordAttendance stores a mark for a student on a date. StatusUnset clears it.
func (s *GradebookService) RecordAttendance(ctx context.Context, studentID, date string, status models.AttendanceStatus) error {
	date = strings.TrimSpace(date)
	if date == "" {
		return ErrInvalidDate
	}
	if _, err := s.student(ctx, studentID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.ledger.Status(studentID, date)
	s.ledger.Record(studentID, date, status)

	entry := attendance.Entry{StudentID: studentID, Date: date, Status: status}
	if err := s.store.SaveAttendance(ctx, entry); err != nil {
		s.ledger.Record(studentID, date, before)
		return fmt.Errorf("failed to save attendance: %w", err)
	}
	return nil
}

// AddClassDate adds a class meeting to a term's calendar. Reports false if it was already there.
func (s *GradebookService) AddClassDate(ctx context.Context, term models.Term, date string) (bool, error) {
	return s.updateClassDates(ctx, term, date, func(dates []string, date string) ([]string, bool) {
		i := sort.SearchStrings(dates, date)
		if i < len(dates) && dates[i] == date {
			return dates, false
		}
		out := make([]string, 0, len(dates)+1)
		out = append(out, dates[:i]...)
		out = append(out, date)
		return append(out, dates[i:]...), true
	})
}

// RemoveClassDate drops a class meeting from a term's calendar. Recorded
// marks for that date are kept but no longer counted.
func (s *GradebookService) RemoveClassDate(ctx context.Context, term models.Term, date string) (bool, error) {
	return s.updateClassDates(ctx, term, date, func(dates []string, date string) ([]string, bool) {
		i := sort.SearchStrings(dates, date)
		if i == len(dates) || dates[i] != date {
			return dates, false
		}
		out := make([]string, 0, len(dates)-1)
		out = append(out, dates[:i]...)
		return append(out, dates[i+1:]...), true
	})
}

func (s *GradebookService) updateClassDates(ctx context.Context, term models.Term, date string, fn func([]string, string) ([]string, bool)) (bool, error) {
	if !term.Valid() {
		return false, ErrUnknownTerm
	}
	date = strings.TrimSpace(date)
	if date == "" {
		return false, ErrInvalidDate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dates, changed := fn(s.classDates[term], date)
	if !changed {
		return false, nil
	}
	if err := s.store.SaveClassDates(ctx, term, dates); err != nil {
		return false, fmt.Errorf("failed to save %s class dates: %w", term, err)
	}
	s.classDates[term] = dates
	return true, nil
}

// ClassDates returns a term's class meetings in ascending order
func (s *GradebookService) ClassDates(term models.Term) ([]string, error) {
	if !term.Valid() {
		return nil, ErrUnknownTerm
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.classDates[term]...), nil
}

// UpsertStudent adds or updates a roster entry
func (s *GradebookService) UpsertStudent(ctx context.Context, student models.Student) error {
	return s.students.UpsertStudent(ctx, student)
}

// ListStudents returns the roster
func (s *GradebookService) ListStudents(ctx context.Context) ([]models.Student, error) {
	return s.students.ListStudents(ctx)
}

func (s *GradebookService) student(ctx context.Context, id string) (models.Student, error) {
	student, err := s.students.GetStudent(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Student{}, ErrStudentNotFound
	}
	if err != nil {
		return models.Student{}, fmt.Errorf("failed to get student: %w", err)
	}
	return student, nil
}

func checkTermKind(term models.Term, kind models.Kind) error {
	if !term.Valid() {
		return ErrUnknownTerm
	}
	if !kind.Valid() {
		return ErrUnknownKind
	}
	return nil
}

func normalizeConfig(cfg models.TermConfig) models.TermConfig {
	return models.TermConfig{
		RecitationMax: grading.CoercePoints(cfg.RecitationMax),
		ExamMax:       grading.CoercePoints(cfg.ExamMax),
	}
}

// normalizeDates trims, de-duplicates and sorts date labels
func normalizeDates(dates []string) []string {
	seen := make(map[string]bool, len(dates))
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		d = strings.TrimSpace(d)
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
