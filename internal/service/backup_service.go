package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"gradewatch/internal/attendance"
	"gradewatch/internal/models"
)

// BackupVersion is written into every snapshot
const BackupVersion = "1.0"

// BackupData is a complete gradebook snapshot
type BackupData struct {
	Version    string                       `json:"version"`
	ExportedAt time.Time                    `json:"exported_at"`
	Students   []models.Student             `json:"students"`
	Terms      map[models.Term]TermBackup   `json:"terms"`
	Scores     map[string]models.ScoreSheet `json:"scores"`
	Attendance []attendance.Entry           `json:"attendance"`
}

// TermBackup holds everything configured for one term
type TermBackup struct {
	Columns    models.TermColumns `json:"columns"`
	Config     models.TermConfig  `json:"config"`
	ClassDates []string           `json:"class_dates"`
}

// BackupService handles gradebook backup and restore operations
type BackupService struct {
	store     GradingStore
	students  StudentDirectory
	gradebook *GradebookService
}

// NewBackupService creates a new backup service. When gradebook is set it
// must read from the same store: imports then hold its write lock and reload
// it, so its cached state never overwrites imported records. A nil gradebook
// is only safe while no server is running against the store.
func NewBackupService(store GradingStore, students StudentDirectory, gradebook *GradebookService) *BackupService {
	return &BackupService{store: store, students: students, gradebook: gradebook}
}

// Snapshot collects the full gradebook
func (s *BackupService) Snapshot(ctx context.Context) (*BackupData, error) {
	if s.gradebook != nil {
		s.gradebook.mu.RLock()
		defer s.gradebook.mu.RUnlock()
	}
	return s.snapshot(ctx)
}

func (s *BackupService) snapshot(ctx context.Context) (*BackupData, error) {
	backup := &BackupData{
		Version:    BackupVersion,
		ExportedAt: time.Now().UTC(),
		Terms:      make(map[models.Term]TermBackup),
	}

	students, err := s.students.ListStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export students: %w", err)
	}
	backup.Students = students

	for _, term := range models.Terms {
		var tb TermBackup
		if tb.Columns, err = s.store.LoadColumns(ctx, term); err != nil {
			return nil, fmt.Errorf("failed to export %s columns: %w", term, err)
		}
		if tb.Config, err = s.store.LoadTermConfig(ctx, term); err != nil {
			return nil, fmt.Errorf("failed to export %s config: %w", term, err)
		}
		if tb.ClassDates, err = s.store.LoadClassDates(ctx, term); err != nil {
			return nil, fmt.Errorf("failed to export %s class dates: %w", term, err)
		}
		backup.Terms[term] = tb
	}

	if backup.Scores, err = s.store.LoadScores(ctx); err != nil {
		return nil, fmt.Errorf("failed to export scores: %w", err)
	}
	if backup.Attendance, err = s.store.LoadAttendance(ctx); err != nil {
		return nil, fmt.Errorf("failed to export attendance: %w", err)
	}
	return backup, nil
}

// Export writes a JSON snapshot to w
func (s *BackupService) Export(ctx context.Context, w io.Writer) error {
	log.Println("Starting gradebook export...")

	backup, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Exported: %d students, %d score sheets, %d attendance marks",
		len(backup.Students), len(backup.Scores), len(backup.Attendance))
	return nil
}

// Import restores a snapshot read from r. With replace, existing grading
// records and roster entries are removed first; otherwise the snapshot is
// merged over them record by record.
func (s *BackupService) Import(ctx context.Context, r io.Reader, replace bool) error {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return fmt.Errorf("%w: failed to decode backup: %v", ErrInvalidBackup, err)
	}
	if backup.Version != BackupVersion {
		return fmt.Errorf("%w: unsupported backup version %q", ErrInvalidBackup, backup.Version)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	if s.gradebook == nil {
		return s.restore(ctx, &backup, replace)
	}

	s.gradebook.mu.Lock()
	defer s.gradebook.mu.Unlock()

	restoreErr := s.restore(ctx, &backup, replace)
	// Reload even after a partial restore so memory matches the store
	if err := s.gradebook.load(ctx); err != nil {
		if restoreErr != nil {
			return fmt.Errorf("%w (reload also failed: %v)", restoreErr, err)
		}
		return fmt.Errorf("failed to reload gradebook after import: %w", err)
	}
	return restoreErr
}

func (s *BackupService) restore(ctx context.Context, backup *BackupData, replace bool) error {
	if replace {
		if err := s.clear(ctx); err != nil {
			return err
		}
	}

	for _, student := range backup.Students {
		if err := s.students.UpsertStudent(ctx, student); err != nil {
			return fmt.Errorf("failed to import student %s: %w", student.ID, err)
		}
	}

	for term, tb := range backup.Terms {
		if !term.Valid() {
			return fmt.Errorf("failed to import term %q: %w", term, ErrUnknownTerm)
		}
		if err := s.store.SaveColumns(ctx, term, tb.Columns); err != nil {
			return fmt.Errorf("failed to import %s columns: %w", term, err)
		}
		if err := s.store.SaveTermConfig(ctx, term, normalizeConfig(tb.Config)); err != nil {
			return fmt.Errorf("failed to import %s config: %w", term, err)
		}
		if err := s.store.SaveClassDates(ctx, term, normalizeDates(tb.ClassDates)); err != nil {
			return fmt.Errorf("failed to import %s class dates: %w", term, err)
		}
	}

	for studentID, sheet := range backup.Scores {
		if err := s.store.SaveScores(ctx, studentID, sheet); err != nil {
			return fmt.Errorf("failed to import scores for %s: %w", studentID, err)
		}
	}

	for _, entry := range backup.Attendance {
		if err := s.store.SaveAttendance(ctx, entry); err != nil {
			return fmt.Errorf("failed to import attendance for %s: %w", entry.StudentID, err)
		}
	}

	log.Printf("Imported: %d students, %d score sheets, %d attendance marks",
		len(backup.Students), len(backup.Scores), len(backup.Attendance))
	return nil
}

func (s *BackupService) clear(ctx context.Context) error {
	log.Println("Clearing existing gradebook data...")
	if err := s.store.Reset(ctx); err != nil {
		return err
	}

	students, err := s.students.ListStudents(ctx)
	if err != nil {
		return fmt.Errorf("failed to list students: %w", err)
	}
	for _, student := range students {
		if err := s.students.DeleteStudent(ctx, student.ID); err != nil {
			return fmt.Errorf("failed to delete student %s: %w", student.ID, err)
		}
	}
	return nil
}
