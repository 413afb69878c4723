// Package columns owns the dynamic quiz and activity columns of each term.
//
// Every column of a term+kind lives in one ordered collection tagged Active
// or Removed. Removing a column is a state change, never a deletion, so a
// restore brings back the same id, label and maximum, and any scores keyed by
// that id stay reachable.
package columns

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"

	"gradewatch/internal/grading"
	"gradewatch/internal/models"
)

type entry struct {
	col   models.AssessmentColumn
	state models.ColumnState
}

type setKey struct {
	term models.Term
	kind models.Kind
}

// collection is the ordered column list of one term+kind
type collection struct {
	order []string
	byID  map[string]*entry
}

func newCollection() *collection {
	return &collection{byID: make(map[string]*entry)}
}

func (c *collection) add(col models.AssessmentColumn, state models.ColumnState) {
	if c.has(col.ID) {
		return
	}
	c.order = append(c.order, col.ID)
	c.byID[col.ID] = &entry{col: col, state: state}
}

func (c *collection) has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

func (c *collection) list(state models.ColumnState) []models.AssessmentColumn {
	out := make([]models.AssessmentColumn, 0, len(c.order))
	for _, id := range c.order {
		if e := c.byID[id]; e.state == state {
			out = append(out, e.col)
		}
	}
	return out
}

// sortBySuffix orders columns by the trailing number of their label;
// labels without one sort last. The sort is stable.
func (c *collection) sortBySuffix() {
	sort.SliceStable(c.order, func(i, j int) bool {
		return labelNumber(c.byID[c.order[i]].col.Label) < labelNumber(c.byID[c.order[j]].col.Label)
	})
}

// Registry is safe for concurrent use; all mutations are serialised.
type Registry struct {
	mu    sync.RWMutex
	sets  map[setKey]*collection
	newID func(models.Kind) string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		sets: make(map[setKey]*collection),
		newID: func(k models.Kind) string {
			return k.IDPrefix() + uuid.NewString()
		},
	}
}

func (r *Registry) collection(term models.Term, kind models.Kind) *collection {
	key := setKey{term: term, kind: kind}
	c, ok := r.sets[key]
	if !ok {
		c = newCollection()
		r.sets[key] = c
	}
	return c
}

// Add appends a new active column. Its label is numbered from the count of
// active and removed columns so it never repeats a label still on file.
func (r *Registry) Add(term models.Term, kind models.Kind, maxPoints float64, date string) models.AssessmentColumn {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.collection(term, kind)

	id := r.newID(kind)
	for c.has(id) {
		id = r.newID(kind)
	}

	col := models.AssessmentColumn{
		ID:        id,
		Label:     kind.LabelPrefix() + strconv.Itoa(len(c.order)+1),
		MaxPoints: grading.CoercePoints(maxPoints),
		Date:      date,
	}
	c.add(col, models.ColumnActive)
	return col
}

// Remove soft-deletes an active column. Unknown or already removed ids are ignored.
func (r *Registry) Remove(term models.Term, kind models.Kind, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.collection(term, kind).byID[id]
	if !ok || e.state != models.ColumnActive {
		return false
	}
	e.state = models.ColumnRemoved
	return true
}

// Restore reactivates a removed column and reorders the collection by label number.
// Unknown or already active ids are ignored.
func (r *Registry) Restore(term models.Term, kind models.Kind, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.collection(term, kind)
	e, ok := c.byID[id]
	if !ok || e.state != models.ColumnRemoved {
		return false
	}
	e.state = models.ColumnActive
	c.sortBySuffix()
	return true
}

// SetMaxPoints updates a column's maximum, clamping it to >= 0
func (r *Registry) SetMaxPoints(term models.Term, kind models.Kind, id string, value float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.collection(term, kind).byID[id]
	if !ok {
		return false
	}
	e.col.MaxPoints = grading.CoercePoints(value)
	return true
}

// SetDate updates a column's date
func (r *Registry) SetDate(term models.Term, kind models.Kind, id, date string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.collection(term, kind).byID[id]
	if !ok {
		return false
	}
	e.col.Date = date
	return true
}

// Get looks up a column of either state
func (r *Registry) Get(term models.Term, kind models.Kind, id string) (models.AssessmentColumn, models.ColumnState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.sets[setKey{term: term, kind: kind}]
	if !ok {
		return models.AssessmentColumn{}, models.ColumnActive, false
	}
	e, ok := c.byID[id]
	if !ok {
		return models.AssessmentColumn{}, models.ColumnActive, false
	}
	return e.col, e.state, true
}

// ResolveKey maps a parsed score key onto the column it belongs to. Parsing
// guesses the kind from the id prefix, so a key for an activity whose id
// lacks "act" (or a quiz whose id has it) is rewritten to the column's real
// key. Keys that match no column of the term are returned unchanged.
func (r *Registry) ResolveKey(key models.AssessmentKey) models.AssessmentKey {
	if !key.IsColumn() {
		return key
	}

	candidates := []string{key.ColumnID}
	if key.Component == models.ComponentLab {
		// "lab…" was rewritten to "act…" on parse; the column may really be named "lab…"
		if rest, ok := strings.CutPrefix(key.ColumnID, "act"); ok {
			candidates = append(candidates, "lab"+rest)
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range candidates {
		for _, kind := range models.Kinds {
			c, ok := r.sets[setKey{term: key.Term, kind: kind}]
			if ok && c.has(id) {
				return models.ColumnKey(key.Term, kind, id)
			}
		}
	}
	return key
}

// ResolveSheet applies ResolveKey to every entry of a sheet
func (r *Registry) ResolveSheet(sheet models.ScoreSheet) models.ScoreSheet {
	out := make(models.ScoreSheet, len(sheet))
	for k, v := range sheet {
		out[r.ResolveKey(k)] = v
	}
	return out
}

// Active returns the active columns of a term+kind in display order
func (r *Registry) Active(term models.Term, kind models.Kind) []models.AssessmentColumn {
	return r.list(term, kind, models.ColumnActive)
}

// Removed returns the soft-deleted columns of a term+kind
func (r *Registry) Removed(term models.Term, kind models.Kind) []models.AssessmentColumn {
	return r.list(term, kind, models.ColumnRemoved)
}

func (r *Registry) list(term models.Term, kind models.Kind, state models.ColumnState) []models.AssessmentColumn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.sets[setKey{term: term, kind: kind}]
	if !ok {
		return []models.AssessmentColumn{}
	}
	return c.list(state)
}

// Snapshot returns a term's schema in its persisted active/removed shape
func (r *Registry) Snapshot(term models.Term) models.TermColumns {
	var tc models.TermColumns
	for _, kind := range models.Kinds {
		tc.Active.Set(kind, r.Active(term, kind))
		tc.Removed.Set(kind, r.Removed(term, kind))
	}
	return tc
}

// Load replaces a term's schema with previously persisted columns. Active
// columns keep their order; removed ones follow. Duplicate ids keep the
// first occurrence.
func (r *Registry) Load(term models.Term, tc models.TermColumns) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, kind := range models.Kinds {
		c := newCollection()
		for _, col := range tc.Active.Of(kind) {
			col.MaxPoints = grading.CoercePoints(col.MaxPoints)
			c.add(col, models.ColumnActive)
		}
		for _, col := range tc.Removed.Of(kind) {
			col.MaxPoints = grading.CoercePoints(col.MaxPoints)
			c.add(col, models.ColumnRemoved)
		}
		r.sets[setKey{term: term, kind: kind}] = c
	}
}

// labelNumber parses the trailing digits of a label
func labelNumber(label string) float64 {
	end := len(label)
	start := end
	for start > 0 && unicode.IsDigit(rune(label[start-1])) {
		start--
	}
	if start == end {
		return math.Inf(1)
	}
	n, err := strconv.Atoi(label[start:end])
	if err != nil {
		return math.Inf(1)
	}
	return float64(n)
}
