package models

// AssessmentColumn is a single gradable quiz or activity slot
type AssessmentColumn struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	MaxPoints float64 `json:"maxPoints"`
	Date      string  `json:"date"`
}

// ColumnState tags a column as active or soft-deleted
type ColumnState int

const (
	ColumnActive ColumnState = iota
	ColumnRemoved
)

func (s ColumnState) String() string {
	if s == ColumnRemoved {
		return "removed"
	}
	return "active"
}

// ColumnGroups is the persisted shape of one term's columns in a single state
type ColumnGroups struct {
	Quiz     []AssessmentColumn `json:"quiz"`
	Activity []AssessmentColumn `json:"activity"`
}

// Of returns the columns of the given kind
func (g ColumnGroups) Of(k Kind) []AssessmentColumn {
	if k == KindActivity {
		return g.Activity
	}
	return g.Quiz
}

// Set replaces the columns of the given kind
func (g *ColumnGroups) Set(k Kind, cols []AssessmentColumn) {
	if k == KindActivity {
		g.Activity = cols
		return
	}
	g.Quiz = cols
}

// TermColumns is a term's full column schema
type TermColumns struct {
	Active  ColumnGroups `json:"active"`
	Removed ColumnGroups `json:"removed"`
}
