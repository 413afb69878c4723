package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gradewatch/internal/attendance"
	"gradewatch/internal/database"
	"gradewatch/internal/models"
)

// Record keys. Each logical record is one JSON value.
const (
	scoresPrefix     = "scores:"
	attendancePrefix = "attendance:"
)

func activeColumnsKey(t models.Term) string  { return "columns_" + string(t) }
func removedColumnsKey(t models.Term) string { return "removed_columns_" + string(t) }
func termConfigKey(t models.Term) string     { return "term_config_" + string(t) }
func classDatesKey(t models.Term) string     { return "class_dates_" + string(t) }

// SQLGradingStore persists grading state as JSON records in the gradebook_records table
type SQLGradingStore struct {
	db *database.DB
}

// NewSQLGradingStore creates a grading store backed by db
func NewSQLGradingStore(db *database.DB) *SQLGradingStore {
	return &SQLGradingStore{db: db}
}

// LoadColumns returns a term's active and removed columns
func (s *SQLGradingStore) LoadColumns(ctx context.Context, term models.Term) (models.TermColumns, error) {
	kv := NewKVRepository(s.db)
	var tc models.TermColumns
	if _, err := getJSON(ctx, kv, activeColumnsKey(term), &tc.Active); err != nil {
		return models.TermColumns{}, err
	}
	if _, err := getJSON(ctx, kv, removedColumnsKey(term), &tc.Removed); err != nil {
		return models.TermColumns{}, err
	}
	return tc, nil
}

// SaveColumns writes both column records of a term atomically
func (s *SQLGradingStore) SaveColumns(ctx context.Context, term models.Term, tc models.TermColumns) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		kv := NewKVRepository(tx)
		if err := setJSON(ctx, kv, activeColumnsKey(term), tc.Active); err != nil {
			return err
		}
		return setJSON(ctx, kv, removedColumnsKey(term), tc.Removed)
	})
}

// LoadTermConfig returns a term's maximums, or the defaults if none were saved
func (s *SQLGradingStore) LoadTermConfig(ctx context.Context, term models.Term) (models.TermConfig, error) {
	cfg := models.DefaultTermConfig()
	if _, err := getJSON(ctx, NewKVRepository(s.db), termConfigKey(term), &cfg); err != nil {
		return models.TermConfig{}, err
	}
	return cfg, nil
}

// SaveTermConfig stores a term's maximums
func (s *SQLGradingStore) SaveTermConfig(ctx context.Context, term models.Term, cfg models.TermConfig) error {
	return setJSON(ctx, NewKVRepository(s.db), termConfigKey(term), cfg)
}

// LoadClassDates returns a term's class-meeting dates
func (s *SQLGradingStore) LoadClassDates(ctx context.Context, term models.Term) ([]string, error) {
	var dates []string
	if _, err := getJSON(ctx, NewKVRepository(s.db), classDatesKey(term), &dates); err != nil {
		return nil, err
	}
	return dates, nil
}

// SaveClassDates stores a term's class-meeting dates
func (s *SQLGradingStore) SaveClassDates(ctx context.Context, term models.Term, dates []string) error {
	return setJSON(ctx, NewKVRepository(s.db), classDatesKey(term), dates)
}

// LoadScores returns every student's score sheet
func (s *SQLGradingStore) LoadScores(ctx context.Context) (map[string]models.ScoreSheet, error) {
	records, err := NewKVRepository(s.db).ListPrefix(ctx, scoresPrefix)
	if err != nil {
		return nil, err
	}

	sheets := make(map[string]models.ScoreSheet, len(records))
	for key, value := range records {
		var sheet models.ScoreSheet
		if err := json.Unmarshal([]byte(value), &sheet); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", key, err)
		}
		sheets[strings.TrimPrefix(key, scoresPrefix)] = sheet
	}
	return sheets, nil
}

// SaveScores replaces a student's score sheet. An empty sheet deletes the record.
func (s *SQLGradingStore) SaveScores(ctx context.Context, studentID string, sheet models.ScoreSheet) error {
	kv := NewKVRepository(s.db)
	if len(sheet) == 0 {
		return kv.Delete(ctx, scoresPrefix+studentID)
	}
	return setJSON(ctx, kv, scoresPrefix+studentID, sheet)
}

// LoadAttendance returns every recorded attendance mark
func (s *SQLGradingStore) LoadAttendance(ctx context.Context) ([]attendance.Entry, error) {
	records, err := NewKVRepository(s.db).ListPrefix(ctx, attendancePrefix)
	if err != nil {
		return nil, err
	}

	var entries []attendance.Entry
	for key, value := range records {
		var byDate map[string]models.AttendanceStatus
		if err := json.Unmarshal([]byte(value), &byDate); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", key, err)
		}
		studentID := strings.TrimPrefix(key, attendancePrefix)
		for date, status := range byDate {
			entries = append(entries, attendance.Entry{StudentID: studentID, Date: date, Status: status})
		}
	}
	sortEntries(entries)
	return entries, nil
}

// SaveAttendance writes one mark. StatusUnset removes it.
func (s *SQLGradingStore) SaveAttendance(ctx context.Context, entry attendance.Entry) error {
	key := attendancePrefix + entry.StudentID
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		kv := NewKVRepository(tx)

		byDate := make(map[string]models.AttendanceStatus)
		if _, err := getJSON(ctx, kv, key, &byDate); err != nil {
			return err
		}

		if entry.Status == models.StatusUnset {
			delete(byDate, entry.Date)
		} else {
			byDate[entry.Date] = entry.Status
		}

		if len(byDate) == 0 {
			return kv.Delete(ctx, key)
		}
		return setJSON(ctx, kv, key, byDate)
	})
}

// Reset deletes every grading record
func (s *SQLGradingStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM gradebook_records"); err != nil {
		return fmt.Errorf("failed to clear gradebook records: %w", err)
	}
	return nil
}

// getJSON decodes a record into out, leaving out untouched when the key is missing
func getJSON(ctx context.Context, kv *KVRepository, key string, out interface{}) (bool, error) {
	value, err := kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func setJSON(ctx context.Context, kv *KVRepository, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return kv.Set(ctx, key, string(data))
}

func sortEntries(entries []attendance.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].StudentID != entries[j].StudentID {
			return entries[i].StudentID < entries[j].StudentID
		}
		return entries[i].Date < entries[j].Date
	})
}
