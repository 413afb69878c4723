package attendance

import (
	"fmt"
	"testing"

	"gradewatch/internal/models"
)

func termDates(n int) []string {
	dates := make([]string, n)
	for i := range dates {
		dates[i] = fmt.Sprintf("2024-09-%02d", i+1)
	}
	return dates
}

func TestUnsetDatesCountAsPresent(t *testing.T) {
	l := NewLedger()
	s := l.Summarize("stu-1", termDates(10))

	if s.Absences != 0 || s.Present != 10 {
		t.Errorf("summary = %+v, want 10 present and no absences", s)
	}
	if s.Percentage != 100 {
		t.Errorf("percentage = %v, want 100", s.Percentage)
	}
}

func TestPercentageWithAbsencesAndLates(t *testing.T) {
	l := NewLedger()
	dates := termDates(20)
	for _, d := range dates[:3] {
		l.Record("stu-1", d, models.StatusAbsent)
	}
	for _, d := range dates[3:5] {
		l.Record("stu-1", d, models.StatusLate)
	}

	s := l.Summarize("stu-1", dates)

	if s.Absences != 3 || s.Lates != 2 {
		t.Fatalf("counts = %d absences / %d lates, want 3 / 2", s.Absences, s.Lates)
	}
	if s.Percentage != 80 {
		t.Errorf("percentage = %v, want 80", s.Percentage)
	}
	if !s.Dropped {
		t.Error("three absences should drop the student")
	}
}

func TestLatesDoNotCountAsAbsences(t *testing.T) {
	l := NewLedger()
	dates := termDates(5)
	for _, d := range dates {
		l.Record("stu-1", d, models.StatusLate)
	}

	if got := l.AbsenceCount("stu-1", dates); got != 0 {
		t.Errorf("AbsenceCount = %d, want 0", got)
	}
	if s := l.Summarize("stu-1", dates); s.Dropped || s.Percentage != 50 {
		t.Errorf("summary = %+v, want 50%% and not dropped", s)
	}
}

func TestClearingRevertsToPresent(t *testing.T) {
	l := NewLedger()
	l.Record("stu-1", "2024-09-01", models.StatusAbsent)
	l.Record("stu-1", "2024-09-01", models.StatusUnset)

	if got := l.Status("stu-1", "2024-09-01"); got != models.StatusUnset {
		t.Errorf("Status = %q, want unset", got)
	}
	if got := l.AbsenceCount("stu-1", []string{"2024-09-01"}); got != 0 {
		t.Errorf("AbsenceCount = %d, want 0", got)
	}
	if n := len(l.Entries()); n != 0 {
		t.Errorf("entries = %d, want 0", n)
	}
}

func TestLedgerStoresProtectedStatuses(t *testing.T) {
	l := NewLedger()
	l.Record("stu-1", "2024-09-02", models.StatusHoliday)
	l.Record("stu-1", "2024-09-02", models.StatusAbsent)

	if got := l.Status("stu-1", "2024-09-02"); got != models.StatusAbsent {
		t.Errorf("Status = %q, want the last written value", got)
	}
}

func TestAbsencesOnlyCountWithinDateSet(t *testing.T) {
	l := NewLedger()
	l.Record("stu-1", "2024-08-01", models.StatusAbsent)
	l.Record("stu-1", "2024-09-01", models.StatusAbsent)

	if got := l.AbsenceCount("stu-1", []string{"2024-09-01", "2024-09-01", "2024-09-02"}); got != 1 {
		t.Errorf("AbsenceCount = %d, want 1", got)
	}
}

func TestDropThreshold(t *testing.T) {
	tests := []struct {
		absences int
		want     bool
	}{
		{absences: 0, want: false},
		{absences: 2, want: false},
		{absences: 3, want: true},
		{absences: 8, want: true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.absences), func(t *testing.T) {
			if got := IsDropped(tt.absences); got != tt.want {
				t.Errorf("IsDropped(%d) = %v, want %v", tt.absences, got, tt.want)
			}
		})
	}
}

func TestEmptyDateSetPercentage(t *testing.T) {
	if got := Percentage(0, 0, 0); got != 100 {
		t.Errorf("Percentage(0,0,0) = %v, want 100", got)
	}
}
