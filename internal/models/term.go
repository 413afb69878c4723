package models

import "fmt"

// Term identifies one of the two grading periods
type Term string

const (
	Midterm Term = "midterm"
	Finals  Term = "finals"
)

// Terms lists every grading period in display order
var Terms = []Term{Midterm, Finals}

// ParseTerm converts a user-supplied term name into a Term
func ParseTerm(s string) (Term, error) {
	switch Term(s) {
	case Midterm, Finals:
		return Term(s), nil
	}
	return "", fmt.Errorf("unknown term %q", s)
}

// Valid reports whether t is a known term
func (t Term) Valid() bool {
	return t == Midterm || t == Finals
}

// keySuffix is the legacy suffix appended to stored score keys
func (t Term) keySuffix() string {
	if t == Finals {
		return "_fin"
	}
	return "_mid"
}

// Kind identifies the category of a dynamic gradable column
type Kind string

const (
	KindQuiz     Kind = "quiz"
	KindActivity Kind = "activity"
)

// Kinds lists every column kind
var Kinds = []Kind{KindQuiz, KindActivity}

// ParseKind converts a user-supplied kind name into a Kind
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindQuiz, KindActivity:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown column kind %q", s)
}

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	return k == KindQuiz || k == KindActivity
}

// IDPrefix is prepended to generated column ids
func (k Kind) IDPrefix() string {
	if k == KindActivity {
		return "act-"
	}
	return "q-"
}

// LabelPrefix is the prefix of auto-numbered column labels (Q1, ACT1)
func (k Kind) LabelPrefix() string {
	if k == KindActivity {
		return "ACT"
	}
	return "Q"
}

// TermConfig holds the fixed maximums of a term, independent of the dynamic columns
type TermConfig struct {
	RecitationMax float64 `json:"recitationMax"`
	ExamMax       float64 `json:"examMax"`
}

// DefaultTermConfig applies to a term until an instructor sets its maximums
func DefaultTermConfig() TermConfig {
	return TermConfig{RecitationMax: 100, ExamMax: 100}
}
