// Package filters maintains the set of active column filters and derives
// the filtered view by intersecting per-column predicates against the
// original dataset.
package filters

import (
	"errors"
	"log/slog"

	"datalens/internal/dataset"
)

// Errors surfaced to callers. Malformed regex patterns are deliberately
// NOT an error: they are absorbed as non-filtering no-ops.
var (
	ErrUnknownColumn = errors.New("column not present in dataset")
	ErrNoFilter      = errors.New("no active filter for column")
	ErrKindMismatch  = errors.New("value does not match filter kind")
	ErrInvalidRange  = errors.New("range bounds must be non-decreasing")
)

// membershipThreshold is the distinct-value count below which a
// non-numeric column gets a set-membership filter instead of a regex one
const membershipThreshold = 10

// Subscriber receives the recomputed filtered view after every
// successful registry mutation. Subscribers are invoked synchronously,
// in registration order.
type Subscriber func(view *dataset.Table)

// Registry holds the active filter specifications for a single dataset
// and recomputes the filtered view on every change.
//
// The registry itself is not goroutine-safe; the owning coordinator
// serializes access (single-writer model).
type Registry struct {
	original *dataset.Table
	view     *dataset.Table

	specs       []*Spec // insertion order, drives display order only
	byColumn    map[string]*Spec
	subscribers []Subscriber
	logger      *slog.Logger
}

// NewRegistry creates a registry over the original dataset. The initial
// view is the full dataset.
func NewRegistry(original *dataset.Table, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		original: original,
		view:     original,
		byColumn: make(map[string]*Spec),
		logger:   logger.With(slog.String("component", "filters.registry")),
	}
}

// Subscribe registers a downstream consumer of view changes
func (r *Registry) Subscribe(fn Subscriber) {
	r.subscribers = append(r.subscribers, fn)
}

// View returns the current filtered view
func (r *Registry) View() *dataset.Table {
	return r.view
}

// Specs returns the active specs in insertion order
func (r *Registry) Specs() []*Spec {
	return r.specs
}

// Spec returns the active spec for a column, or nil
func (r *Registry) Spec(column string) *Spec {
	return r.byColumn[column]
}

// Add registers a filter for the column, classified by column type:
// numeric columns get a range filter seeded with the column's [min, max],
// low-cardinality columns a membership filter seeded with all values
// selected, and everything else a regex filter seeded with the empty
// (match-all) pattern. Adding a column that already has a filter is a
// silent no-op.
func (r *Registry) Add(column string) error {
	if _, exists := r.byColumn[column]; exists {
		return nil
	}
	col := r.original.Column(column)
	if col == nil {
		return ErrUnknownColumn
	}

	spec := &Spec{Column: column}
	switch {
	case col.IsNumeric():
		min, max, ok := col.MinMax()
		if !ok {
			min, max = 0, 0
		}
		spec.Kind = KindRange
		spec.Low = min
		spec.High = max
	case col.DistinctCount() < membershipThreshold:
		values := col.DistinctStrings()
		spec.Kind = KindMembership
		spec.Options = values
		spec.Selected = append([]string(nil), values...)
	default:
		spec.Kind = KindRegex
	}

	r.specs = append(r.specs, spec)
	r.byColumn[column] = spec

	r.logger.Info("filter added",
		slog.String("column", column),
		slog.String("kind", string(spec.Kind)))

	r.Recompute()
	r.notify()
	return nil
}

// Remove deletes the filter for the column. Removing an absent filter
// is a no-op.
func (r *Registry) Remove(column string) {
	if _, exists := r.byColumn[column]; !exists {
		return
	}
	delete(r.byColumn, column)
	for i, s := range r.specs {
		if s.Column == column {
			r.specs = append(r.specs[:i], r.specs[i+1:]...)
			break
		}
	}

	r.logger.Info("filter removed", slog.String("column", column))

	r.Recompute()
	r.notify()
}

// UpdateRange replaces the bounds of a range filter. Bounds must be
// non-decreasing.
func (r *Registry) UpdateRange(column string, low, high float64) error {
	spec, err := r.specFor(column, KindRange)
	if err != nil {
		return err
	}
	if low > high {
		return ErrInvalidRange
	}
	spec.Low = low
	spec.High = high

	r.Recompute()
	r.notify()
	return nil
}

// UpdateSelection replaces the selected set of a membership filter.
// An empty selection makes the filter pass everything.
func (r *Registry) UpdateSelection(column string, selected []string) error {
	spec, err := r.specFor(column, KindMembership)
	if err != nil {
		return err
	}
	spec.Selected = append([]string(nil), selected...)

	r.Recompute()
	r.notify()
	return nil
}

// UpdatePattern replaces the pattern of a regex filter. A pattern that
// fails to compile is stored but treated as a non-filtering no-op: the
// failure is logged and the spec matches every row until corrected.
func (r *Registry) UpdatePattern(column string, pattern string) error {
	spec, err := r.specFor(column, KindRegex)
	if err != nil {
		return err
	}
	spec.Pattern = pattern
	re, compileErr := compilePattern(pattern)
	if compileErr != nil {
		r.logger.Warn("invalid regex pattern, filter passes all rows",
			slog.String("column", column),
			slog.String("pattern", pattern),
			slog.String("error", compileErr.Error()))
		spec.re = nil
	} else {
		spec.re = re
	}

	r.Recompute()
	r.notify()
	return nil
}

func (r *Registry) specFor(column string, kind Kind) (*Spec, error) {
	spec, exists := r.byColumn[column]
	if !exists {
		return nil, ErrNoFilter
	}
	if spec.Kind != kind {
		return nil, ErrKindMismatch
	}
	return spec, nil
}

// Recompute applies the conjunction of all active specs to the original
// dataset and replaces the view. Each spec contributes an independent
// boolean mask, so the result cannot depend on application order, and
// recomputing without intervening mutation is idempotent. With zero
// active filters the view is the full dataset.
func (r *Registry) Recompute() *dataset.Table {
	if len(r.specs) == 0 {
		r.view = r.original
		return r.view
	}

	n := r.original.NumRows()
	keep := make([]bool, n)
	for i := range keep {
		keep[i] = true
	}

	for _, spec := range r.specs {
		col := r.original.Column(spec.Column)
		if col == nil {
			continue
		}
		for i := 0; i < n; i++ {
			if keep[i] && !spec.matches(col, i) {
				keep[i] = false
			}
		}
	}

	rows := make([]int, 0, n)
	for i, k := range keep {
		if k {
			rows = append(rows, i)
		}
	}

	r.view = r.original.Select(rows)

	r.logger.Debug("view recomputed",
		slog.Int("active_filters", len(r.specs)),
		slog.Int("rows", r.view.NumRows()))

	return r.view
}

// notify delivers the current view to every subscriber in registration order
func (r *Registry) notify() {
	for _, fn := range r.subscribers {
		fn(r.view)
	}
}
