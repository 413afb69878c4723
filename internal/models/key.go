package models

import (
	"fmt"
	"strings"
)

// Component is the grading component a score contributes to
type Component string

const (
	ComponentQuiz       Component = "quiz"
	ComponentActivity   Component = "activity"
	ComponentLab        Component = "lab"
	ComponentRecitation Component = "recitation"
	ComponentExam       Component = "exam"
)

const (
	recitationBase = "r1"
	examBase       = "exam"
)

// AssessmentKey identifies a stored score. ColumnID is empty for the fixed
// recitation and exam components.
type AssessmentKey struct {
	Term      Term
	Component Component
	ColumnID  string
}

// RecitationKey returns the fixed recitation key of a term
func RecitationKey(t Term) AssessmentKey {
	return AssessmentKey{Term: t, Component: ComponentRecitation}
}

// ExamKey returns the fixed major exam key of a term
func ExamKey(t Term) AssessmentKey {
	return AssessmentKey{Term: t, Component: ComponentExam}
}

// ColumnKey returns the key under which scores for a dynamic column are stored.
// Finals reuse the activity columns but record them as labs.
func ColumnKey(t Term, k Kind, columnID string) AssessmentKey {
	c := ComponentQuiz
	if k == KindActivity {
		c = ComponentActivity
		if t == Finals {
			c = ComponentLab
		}
	}
	return AssessmentKey{Term: t, Component: c, ColumnID: columnID}
}

// String renders the key in its stored form, e.g. "r1_mid", "q-1f2e_fin"
// or "lab-9a0c_fin" for the finals score of column "act-9a0c".
func (k AssessmentKey) String() string {
	var base string
	switch k.Component {
	case ComponentRecitation:
		base = recitationBase
	case ComponentExam:
		base = examBase
	case ComponentLab:
		base = k.ColumnID
		if rest, ok := strings.CutPrefix(base, "act"); ok {
			base = "lab" + rest
		}
	default:
		base = k.ColumnID
	}
	return base + k.Term.keySuffix()
}

// IsColumn reports whether the key belongs to a dynamic quiz or activity column
func (k AssessmentKey) IsColumn() bool {
	switch k.Component {
	case ComponentQuiz, ComponentActivity, ComponentLab:
		return true
	}
	return false
}

// ParseAssessmentKey parses a key in its stored form. The column kind of a
// dynamic key is inferred from its id prefix ("act", "lab", else quiz); keys
// whose ids do not follow that convention must be resolved against the
// term's columns before use.
func ParseAssessmentKey(s string) (AssessmentKey, error) {
	var key AssessmentKey
	var base string
	switch {
	case strings.HasSuffix(s, Midterm.keySuffix()):
		key.Term = Midterm
		base = strings.TrimSuffix(s, Midterm.keySuffix())
	case strings.HasSuffix(s, Finals.keySuffix()):
		key.Term = Finals
		base = strings.TrimSuffix(s, Finals.keySuffix())
	default:
		return AssessmentKey{}, fmt.Errorf("assessment key %q has no term suffix", s)
	}
	if base == "" {
		return AssessmentKey{}, fmt.Errorf("assessment key %q has no base", s)
	}

	switch {
	case base == recitationBase:
		key.Component = ComponentRecitation
	case base == examBase:
		key.Component = ComponentExam
	case strings.HasPrefix(base, "lab"):
		key.Component = ComponentLab
		key.ColumnID = "act" + strings.TrimPrefix(base, "lab")
	case strings.HasPrefix(base, "act"):
		key.Component = ComponentActivity
		key.ColumnID = base
	default:
		key.Component = ComponentQuiz
		key.ColumnID = base
	}
	return key, nil
}

// MarshalText lets AssessmentKey be used as a JSON object key
func (k AssessmentKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText is the inverse of MarshalText
func (k *AssessmentKey) UnmarshalText(text []byte) error {
	parsed, err := ParseAssessmentKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ScoreSheet holds one student's recorded scores. Absent keys are unset.
type ScoreSheet map[AssessmentKey]float64

// Clone returns an independent copy of the sheet
func (s ScoreSheet) Clone() ScoreSheet {
	out := make(ScoreSheet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
