package models

import (
	"fmt"
	"strings"
)

// AttendanceStatus is the mark recorded for a student on a class date
type AttendanceStatus string

const (
	StatusUnset     AttendanceStatus = ""
	StatusPresent   AttendanceStatus = "P"
	StatusAbsent    AttendanceStatus = "A"
	StatusLate      AttendanceStatus = "L"
	StatusSuspended AttendanceStatus = "SUSPENDED"
	StatusHoliday   AttendanceStatus = "HOLIDAY"
)

// ParseAttendanceStatus accepts a status in any letter case; an empty string
// yields StatusUnset.
func ParseAttendanceStatus(s string) (AttendanceStatus, error) {
	status := AttendanceStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch status {
	case StatusUnset, StatusPresent, StatusAbsent, StatusLate, StatusSuspended, StatusHoliday:
		return status, nil
	}
	return StatusUnset, fmt.Errorf("unknown attendance status %q", s)
}

// Effective returns the status used for counting. Unset dates count as
// present until a mark is recorded.
func (s AttendanceStatus) Effective() AttendanceStatus {
	if s == StatusUnset {
		return StatusPresent
	}
	return s
}
