// Package attendance records per-date attendance marks and derives absence
// counts and percentages from them.
package attendance

import (
	"math"
	"sort"
	"sync"

	"gradewatch/internal/models"
)

// DropThreshold is the absence count at which a student is dropped from a term
const DropThreshold = 3

// lateWeight is the fraction of an absence a late mark costs in the percentage
const lateWeight = 0.5

// Ledger is a sparse, concurrency-safe attendance table. It stores whatever
// is written; protecting holiday and suspension dates is left to callers.
type Ledger struct {
	mu      sync.RWMutex
	records map[string]map[string]models.AttendanceStatus
}

// NewLedger creates an empty ledger
func NewLedger() *Ledger {
	return &Ledger{records: make(map[string]map[string]models.AttendanceStatus)}
}

// Record stores a status. StatusUnset removes the entry, so the date reads as present again.
func (l *Ledger) Record(studentID, date string, status models.AttendanceStatus) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if status == models.StatusUnset {
		if byDate, ok := l.records[studentID]; ok {
			delete(byDate, date)
			if len(byDate) == 0 {
				delete(l.records, studentID)
			}
		}
		return
	}

	byDate, ok := l.records[studentID]
	if !ok {
		byDate = make(map[string]models.AttendanceStatus)
		l.records[studentID] = byDate
	}
	byDate[date] = status
}

// Status returns the raw recorded status, StatusUnset when nothing was recorded
func (l *Ledger) Status(studentID, date string) models.AttendanceStatus {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.records[studentID][date]
}

// Summary counts a student's marks over a set of dates
type Summary struct {
	TotalDates int     `json:"totalDates"`
	Present    int     `json:"present"`
	Absences   int     `json:"absences"`
	Lates      int     `json:"lates"`
	Suspended  int     `json:"suspended"`
	Holidays   int     `json:"holidays"`
	Percentage float64 `json:"percentage"`
	Dropped    bool    `json:"dropped"`
}

// Summarize counts a student's marks over the given dates. Duplicate dates
// are counted once.
func (l *Ledger) Summarize(studentID string, dates []string) Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	byDate := l.records[studentID]
	seen := make(map[string]bool, len(dates))

	var s Summary
	for _, date := range dates {
		if seen[date] {
			continue
		}
		seen[date] = true
		s.TotalDates++

		switch byDate[date].Effective() {
		case models.StatusAbsent:
			s.Absences++
		case models.StatusLate:
			s.Lates++
		case models.StatusSuspended:
			s.Suspended++
		case models.StatusHoliday:
			s.Holidays++
		default:
			s.Present++
		}
	}

	s.Percentage = Percentage(s.TotalDates, s.Absences, s.Lates)
	s.Dropped = IsDropped(s.Absences)
	return s
}

// AbsenceCount counts absences over the given dates; lates and unset dates do not count
func (l *Ledger) AbsenceCount(studentID string, dates []string) int {
	return l.Summarize(studentID, dates).Absences
}

// Percentage is round((total - absences - lates/2) / total * 100).
// An empty date set reads as full attendance.
func Percentage(totalDates, absences, lates int) float64 {
	if totalDates <= 0 {
		return 100
	}
	present := float64(totalDates) - float64(absences) - float64(lates)*lateWeight
	return math.Round(present / float64(totalDates) * 100)
}

// IsDropped reports whether an absence count reaches the drop threshold
func IsDropped(absences int) bool {
	return absences >= DropThreshold
}

// Entry is one recorded attendance mark
type Entry struct {
	StudentID string                  `json:"studentId"`
	Date      string                  `json:"date"`
	Status    models.AttendanceStatus `json:"status"`
}

// Entries returns every recorded mark, sorted by student then date
func (l *Ledger) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Entry
	for studentID, byDate := range l.records {
		for date, status := range byDate {
			out = append(out, Entry{StudentID: studentID, Date: date, Status: status})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StudentID != out[j].StudentID {
			return out[i].StudentID < out[j].StudentID
		}
		return out[i].Date < out[j].Date
	})
	return out
}
