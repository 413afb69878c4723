package columns

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"gradewatch/internal/models"
)

// sequentialRegistry returns a registry with predictable ids
func sequentialRegistry() *Registry {
	r := NewRegistry()
	n := 0
	r.newID = func(k models.Kind) string {
		n++
		return fmt.Sprintf("%s%d", k.IDPrefix(), n)
	}
	return r
}

func labels(cols []models.AssessmentColumn) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Label
	}
	return strings.Join(out, ",")
}

func TestAddNumbersLabelsPerTermAndKind(t *testing.T) {
	r := sequentialRegistry()

	r.Add(models.Midterm, models.KindQuiz, 20, "2024-08-01")
	r.Add(models.Midterm, models.KindQuiz, 20, "")
	r.Add(models.Midterm, models.KindActivity, 50, "")
	r.Add(models.Finals, models.KindQuiz, 10, "")

	if got := labels(r.Active(models.Midterm, models.KindQuiz)); got != "Q1,Q2" {
		t.Errorf("midterm quizzes = %s, want Q1,Q2", got)
	}
	if got := labels(r.Active(models.Midterm, models.KindActivity)); got != "ACT1" {
		t.Errorf("midterm activities = %s, want ACT1", got)
	}
	if got := labels(r.Active(models.Finals, models.KindQuiz)); got != "Q1" {
		t.Errorf("finals quizzes = %s, want Q1", got)
	}
}

func TestAddCountsRemovedColumnsForLabel(t *testing.T) {
	r := sequentialRegistry()

	q1 := r.Add(models.Midterm, models.KindQuiz, 10, "")
	r.Remove(models.Midterm, models.KindQuiz, q1.ID)
	q2 := r.Add(models.Midterm, models.KindQuiz, 10, "")

	if q2.Label != "Q2" {
		t.Errorf("label after removal = %s, want Q2", q2.Label)
	}
}

func TestAddNeverReusesAnID(t *testing.T) {
	r := NewRegistry()
	calls := 0
	r.newID = func(k models.Kind) string {
		calls++
		if calls <= 2 {
			return "q-dup"
		}
		return "q-fresh"
	}

	first := r.Add(models.Midterm, models.KindQuiz, 10, "")
	second := r.Add(models.Midterm, models.KindQuiz, 10, "")

	if first.ID != "q-dup" || second.ID != "q-fresh" {
		t.Errorf("ids = %s, %s; want q-dup, q-fresh", first.ID, second.ID)
	}
}

func TestGeneratedIDsCarryKindPrefix(t *testing.T) {
	r := NewRegistry()
	q := r.Add(models.Midterm, models.KindQuiz, 10, "")
	a := r.Add(models.Midterm, models.KindActivity, 10, "")

	if !strings.HasPrefix(q.ID, "q-") || !strings.HasPrefix(a.ID, "act-") {
		t.Errorf("ids = %s, %s; want q- and act- prefixes", q.ID, a.ID)
	}
}

func TestRemoveAndRestoreRoundTrip(t *testing.T) {
	r := sequentialRegistry()
	col := r.Add(models.Finals, models.KindActivity, 35, "2024-10-01")

	if !r.Remove(models.Finals, models.KindActivity, col.ID) {
		t.Fatal("Remove returned false for an active column")
	}
	if n := len(r.Active(models.Finals, models.KindActivity)); n != 0 {
		t.Fatalf("active count after remove = %d, want 0", n)
	}
	if n := len(r.Removed(models.Finals, models.KindActivity)); n != 1 {
		t.Fatalf("removed count after remove = %d, want 1", n)
	}

	if !r.Restore(models.Finals, models.KindActivity, col.ID) {
		t.Fatal("Restore returned false for a removed column")
	}
	active := r.Active(models.Finals, models.KindActivity)
	if len(active) != 1 || active[0] != col {
		t.Fatalf("restored columns = %+v, want [%+v]", active, col)
	}
}

func TestRestoreKeepsLabelOrder(t *testing.T) {
	r := sequentialRegistry()
	r.Add(models.Midterm, models.KindQuiz, 10, "")
	q2 := r.Add(models.Midterm, models.KindQuiz, 10, "")
	r.Add(models.Midterm, models.KindQuiz, 10, "")

	r.Remove(models.Midterm, models.KindQuiz, q2.ID)
	if got := labels(r.Active(models.Midterm, models.KindQuiz)); got != "Q1,Q3" {
		t.Fatalf("after remove = %s, want Q1,Q3", got)
	}

	r.Restore(models.Midterm, models.KindQuiz, q2.ID)
	if got := labels(r.Active(models.Midterm, models.KindQuiz)); got != "Q1,Q2,Q3" {
		t.Errorf("after restore = %s, want Q1,Q2,Q3", got)
	}
}

func TestRestoreSortsUnnumberedLabelsLast(t *testing.T) {
	r := NewRegistry()
	r.Load(models.Midterm, models.TermColumns{
		Active: models.ColumnGroups{Quiz: []models.AssessmentColumn{
			{ID: "q-bonus", Label: "Bonus"},
			{ID: "q-3", Label: "Q3"},
		}},
		Removed: models.ColumnGroups{Quiz: []models.AssessmentColumn{
			{ID: "q-1", Label: "Q1"},
		}},
	})

	r.Restore(models.Midterm, models.KindQuiz, "q-1")

	if got := labels(r.Active(models.Midterm, models.KindQuiz)); got != "Q1,Q3,Bonus" {
		t.Errorf("order = %s, want Q1,Q3,Bonus", got)
	}
}

func TestUnknownIDsAreNoOps(t *testing.T) {
	r := sequentialRegistry()
	col := r.Add(models.Midterm, models.KindQuiz, 10, "")

	if r.Remove(models.Midterm, models.KindQuiz, "missing") {
		t.Error("Remove of unknown id reported a change")
	}
	if r.Restore(models.Midterm, models.KindQuiz, col.ID) {
		t.Error("Restore of an active column reported a change")
	}
	if r.Remove(models.Finals, models.KindQuiz, col.ID) {
		t.Error("Remove in the wrong term reported a change")
	}
	if r.SetMaxPoints(models.Midterm, models.KindActivity, col.ID, 5) {
		t.Error("SetMaxPoints for the wrong kind reported a change")
	}

	r.Remove(models.Midterm, models.KindQuiz, col.ID)
	if r.Remove(models.Midterm, models.KindQuiz, col.ID) {
		t.Error("second Remove reported a change")
	}
}

func TestSetMaxPointsClamps(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{name: "positive", value: 30, want: 30},
		{name: "negative", value: -5, want: 0},
		{name: "zero", value: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := sequentialRegistry()
			col := r.Add(models.Midterm, models.KindQuiz, 10, "")

			r.SetMaxPoints(models.Midterm, models.KindQuiz, col.ID, tt.value)

			got, _, _ := r.Get(models.Midterm, models.KindQuiz, col.ID)
			if got.MaxPoints != tt.want {
				t.Errorf("MaxPoints = %v, want %v", got.MaxPoints, tt.want)
			}
		})
	}
}

func TestSnapshotAndLoad(t *testing.T) {
	r := sequentialRegistry()
	r.Add(models.Midterm, models.KindQuiz, 10, "")
	removed := r.Add(models.Midterm, models.KindQuiz, 15, "")
	r.Add(models.Midterm, models.KindActivity, 40, "")
	r.Remove(models.Midterm, models.KindQuiz, removed.ID)

	snap := r.Snapshot(models.Midterm)

	loaded := NewRegistry()
	loaded.Load(models.Midterm, snap)

	if got := labels(loaded.Active(models.Midterm, models.KindQuiz)); got != "Q1" {
		t.Errorf("loaded active quizzes = %s, want Q1", got)
	}
	col, state, ok := loaded.Get(models.Midterm, models.KindQuiz, removed.ID)
	if !ok || state != models.ColumnRemoved || col != removed {
		t.Errorf("loaded removed column = %+v (%v, %v), want %+v removed", col, state, ok, removed)
	}
	if got := labels(loaded.Active(models.Midterm, models.KindActivity)); got != "ACT1" {
		t.Errorf("loaded activities = %s, want ACT1", got)
	}
}

func TestConcurrentAddsKeepUniqueIDs(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Add(models.Midterm, models.KindQuiz, 10, "")
		}()
	}
	wg.Wait()

	seenIDs := make(map[string]bool)
	seenLabels := make(map[string]bool)
	for _, col := range r.Active(models.Midterm, models.KindQuiz) {
		if seenIDs[col.ID] || seenLabels[col.Label] {
			t.Fatalf("duplicate column %+v", col)
		}
		seenIDs[col.ID] = true
		seenLabels[col.Label] = true
	}
	if len(seenIDs) != 50 {
		t.Errorf("column count = %d, want 50", len(seenIDs))
	}
}

func TestResolveKeyUsesColumnKind(t *testing.T) {
	r := NewRegistry()

	var mid models.TermColumns
	mid.Active.Set(models.KindActivity, []models.AssessmentColumn{{ID: "a1", Label: "ACT1", MaxPoints: 100}})
	mid.Active.Set(models.KindQuiz, []models.AssessmentColumn{{ID: "act-q", Label: "Q1", MaxPoints: 10}})
	r.Load(models.Midterm, mid)

	var fin models.TermColumns
	fin.Active.Set(models.KindActivity, []models.AssessmentColumn{{ID: "a1", Label: "ACT1"}, {ID: "lab-z", Label: "ACT2"}})
	fin.Removed.Set(models.KindQuiz, []models.AssessmentColumn{{ID: "lab-q", Label: "Q1"}})
	r.Load(models.Finals, fin)

	tests := []struct {
		stored string
		want   models.AssessmentKey
	}{
		{"a1_mid", models.ColumnKey(models.Midterm, models.KindActivity, "a1")},
		{"act-q_mid", models.ColumnKey(models.Midterm, models.KindQuiz, "act-q")},
		{"a1_fin", models.ColumnKey(models.Finals, models.KindActivity, "a1")},
		{"lab-z_fin", models.ColumnKey(models.Finals, models.KindActivity, "lab-z")},
		{"lab-q_fin", models.ColumnKey(models.Finals, models.KindQuiz, "lab-q")},
		{"q-9_mid", models.ColumnKey(models.Midterm, models.KindQuiz, "q-9")},
		{"r1_mid", models.RecitationKey(models.Midterm)},
	}

	for _, tt := range tests {
		t.Run(tt.stored, func(t *testing.T) {
			parsed, err := models.ParseAssessmentKey(tt.stored)
			if err != nil {
				t.Fatalf("ParseAssessmentKey() error = %v", err)
			}
			got := r.ResolveKey(parsed)
			if got != tt.want {
				t.Errorf("ResolveKey() = %+v, want %+v", got, tt.want)
			}
			if got.String() != tt.stored {
				t.Errorf("resolved key renders as %q, want %q", got.String(), tt.stored)
			}
		})
	}
}
