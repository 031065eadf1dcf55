package http

import (
	"context"
	"io"

	"datalens/internal/board"
	"datalens/internal/charts"
)

// BoardService defines what the board handler needs from the coordinator.
// Declared here so the handler can be tested against a mock.
type BoardService interface {
	Columns(ctx context.Context) []board.ColumnInfo
	TablePage(ctx context.Context, page, pageSize int) board.TablePage
	Plot(ctx context.Context) *charts.PlotChart
	AxisOptions(ctx context.Context) charts.AxisOptions
	ActiveFilters(ctx context.Context) []board.FilterView
	AddFilter(ctx context.Context, column string) error
	UpdateFilter(ctx context.Context, column string, upd board.FilterUpdate) error
	RemoveFilter(ctx context.Context, column string) error
	Settings(ctx context.Context) charts.Settings
	UpdateSettings(ctx context.Context, patch charts.SettingsPatch) (charts.Settings, error)
	ExportXLSX(ctx context.Context, w io.Writer) error
	Version(ctx context.Context) uint64
}
