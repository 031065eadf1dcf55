// Package board coordinates the dashboard: it owns the canonical
// dataset, the filter registry and the scatter manager, tracks a
// monotonic render version, and pushes change notifications to the
// WebSocket hub.
package board

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"datalens/internal/charts"
	"datalens/internal/dataset"
	"datalens/internal/exporter"
	"datalens/internal/filters"
	"datalens/internal/metrics"
)

// Update scopes pushed to clients. A filter change invalidates both the
// table and the plot; a plot-setting change invalidates only the plot.
const (
	ScopeAll  = "all"
	ScopePlot = "plot"
)

// UpdateType is the WebSocket message type for board notifications
const UpdateType = "board:update"

// Notifier pushes board updates to connected clients
type Notifier interface {
	Broadcast(messageType string, data interface{})
}

// noopNotifier is used when no hub is wired (tests, CLI use)
type noopNotifier struct{}

func (noopNotifier) Broadcast(string, interface{}) {}

// ColumnInfo describes one dataset column for the schema endpoint
type ColumnInfo struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Distinct int      `json:"distinct"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
}

// TablePage is one page of the filtered view
type TablePage struct {
	Rows       []map[string]interface{} `json:"rows"`
	Page       int                      `json:"page"`
	PageSize   int                      `json:"page_size"`
	TotalRows  int                      `json:"total_rows"`
	TotalPages int                      `json:"total_pages"`
	Version    uint64                   `json:"version"`
}

// FilterView is an active filter together with its distribution chart
type FilterView struct {
	Spec  *filters.Spec     `json:"spec"`
	Chart *charts.DistChart `json:"chart"`
}

// FilterUpdate carries the new parameter value for one filter; exactly
// the fields matching the filter's kind are consulted.
type FilterUpdate struct {
	Low      *float64  `json:"low"`
	High     *float64  `json:"high"`
	Selected *[]string `json:"selected"`
	Pattern  *string   `json:"pattern"`
}

// ErrValueRequired is returned when a filter update carries no value
// usable for the filter's kind
var ErrValueRequired = errors.New("update value does not match filter kind")

// Board is the top-level coordinator. All access is serialized through
// its lock: the registry is single-writer, and its subscriber callbacks
// run synchronously while the write lock is held.
type Board struct {
	mu sync.RWMutex

	table    *dataset.Table
	registry *filters.Registry
	scatter  *charts.ScatterManager

	view    *dataset.Table
	version uint64

	notifier Notifier
	logger   *slog.Logger
}

// New creates a board over the given dataset
func New(table *dataset.Table, notifier Notifier, logger *slog.Logger) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	logger = logger.With(slog.String("component", "board"))

	b := &Board{
		table:    table,
		scatter:  charts.NewScatterManager(logger),
		view:     table,
		notifier: notifier,
		logger:   logger,
	}
	b.registry = filters.NewRegistry(table, logger)
	b.registry.Subscribe(b.onViewChange)
	b.scatter.UpdateAxisOptions(table)

	metrics.FilteredRows.Set(float64(table.NumRows()))

	return b
}

// onViewChange runs synchronously under the board's write lock whenever
// the registry recomputes the view.
func (b *Board) onViewChange(view *dataset.Table) {
	b.view = view
	b.version++
	b.scatter.UpdateAxisOptions(view)

	metrics.Recomputes.Inc()
	metrics.FilteredRows.Set(float64(view.NumRows()))

	b.logger.Info("filtered view changed",
		slog.Int("rows", view.NumRows()),
		slog.Uint64("version", b.version))

	b.notifier.Broadcast(UpdateType, map[string]interface{}{
		"version": b.version,
		"scope":   ScopeAll,
		"rows":    view.NumRows(),
	})
}

// Version returns the current reactive trigger value
func (b *Board) Version(ctx context.Context) uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// Columns returns the schema of the ORIGINAL dataset
func (b *Board) Columns(ctx context.Context) []ColumnInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()

	cols := b.table.Columns()
	out := make([]ColumnInfo, 0, len(cols))
	for i := range cols {
		c := &cols[i]
		info := ColumnInfo{
			Name:     c.Name,
			Kind:     string(c.Kind),
			Distinct: c.DistinctCount(),
		}
		if min, max, ok := c.MinMax(); ok {
			info.Min = &min
			info.Max = &max
		}
		out = append(out, info)
	}
	return out
}

// TablePage returns one page of the current filtered view
func (b *Board) TablePage(ctx context.Context, page, pageSize int) TablePage {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	total := b.view.NumRows()
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	return TablePage{
		Rows:       b.view.Rows((page-1)*pageSize, pageSize),
		Page:       page,
		PageSize:   pageSize,
		TotalRows:  total,
		TotalPages: totalPages,
		Version:    b.version,
	}
}

// Plot renders the scatter chart against the current filtered view
func (b *Board) Plot(ctx context.Context) *charts.PlotChart {
	b.mu.Lock()
	defer b.mu.Unlock()

	metrics.PlotRenders.Inc()
	return b.scatter.Render(b.view)
}

// ActiveFilters returns the active specs with their distribution charts,
// in display (insertion) order
func (b *Board) ActiveFilters(ctx context.Context) []FilterView {
	b.mu.RLock()
	defer b.mu.RUnlock()

	specs := b.registry.Specs()
	out := make([]FilterView, 0, len(specs))
	for _, spec := range specs {
		out = append(out, FilterView{
			Spec:  spec,
			Chart: charts.Distribution(b.table, spec),
		})
	}
	return out
}

// AddFilter registers a filter for the column; adding an already
// filtered column is a no-op
func (b *Board) AddFilter(ctx context.Context, column string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.registry.Add(column); err != nil {
		return err
	}
	metrics.ActiveFilters.Set(float64(len(b.registry.Specs())))
	return nil
}

// UpdateFilter applies the value carried by the update to the column's
// filter, dispatching on the filter's kind
func (b *Board) UpdateFilter(ctx context.Context, column string, upd FilterUpdate) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	spec := b.registry.Spec(column)
	if spec == nil {
		return filters.ErrNoFilter
	}

	switch spec.Kind {
	case filters.KindRange:
		if upd.Low == nil || upd.High == nil {
			return ErrValueRequired
		}
		return b.registry.UpdateRange(column, *upd.Low, *upd.High)
	case filters.KindMembership:
		if upd.Selected == nil {
			return ErrValueRequired
		}
		return b.registry.UpdateSelection(column, *upd.Selected)
	default:
		if upd.Pattern == nil {
			return ErrValueRequired
		}
		return b.registry.UpdatePattern(column, *upd.Pattern)
	}
}

// RemoveFilter deletes the column's filter; absent filters are a no-op
func (b *Board) RemoveFilter(ctx context.Context, column string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.registry.Remove(column)
	metrics.ActiveFilters.Set(float64(len(b.registry.Specs())))
	return nil
}

// Settings returns the current plot specification snapshot
func (b *Board) Settings(ctx context.Context) charts.Settings {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.scatter.CurrentSettings()
}

// UpdateSettings merges a partial plot-settings update, bumps the
// version and notifies clients with plot scope only
func (b *Board) UpdateSettings(ctx context.Context, patch charts.SettingsPatch) (charts.Settings, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.scatter.Apply(patch); err != nil {
		return b.scatter.CurrentSettings(), err
	}
	b.scatter.UpdateAxisOptions(b.view)
	b.version++

	b.logger.Info("plot settings changed", slog.Uint64("version", b.version))

	b.notifier.Broadcast(UpdateType, map[string]interface{}{
		"version": b.version,
		"scope":   ScopePlot,
	})

	return b.scatter.CurrentSettings(), nil
}

// AxisOptions returns the currently eligible columns per selector
func (b *Board) AxisOptions(ctx context.Context) charts.AxisOptions {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.scatter.UpdateAxisOptions(b.view)
}

// ExportXLSX writes the current filtered view and plot settings as an
// xlsx workbook
func (b *Board) ExportXLSX(ctx context.Context, w io.Writer) error {
	b.mu.RLock()
	view := b.view
	settings := b.scatter.CurrentSettings()
	b.mu.RUnlock()

	return exporter.WriteXLSX(w, view, settings)
}
