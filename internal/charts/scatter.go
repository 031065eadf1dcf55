package charts

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"datalens/internal/dataset"
)

// Palettes selectable for color mapping
var Palettes = []string{
	"viridis", "plasma", "inferno", "magma", "cividis",
	"Spectral", "RdYlBu", "RdBu", "coolwarm", "Set1", "Set2", "Set3",
}

// ErrUnknownPalette is returned when a settings update names a palette
// outside the supported list
var ErrUnknownPalette = errors.New("unknown color palette")

// Default size mapping parameters
const (
	DefaultMinSize = 5
	DefaultMaxSize = 20
	DefaultGamma   = 1.0
	DefaultPalette = "viridis"

	// fixedPointSize is used when no size column is mapped, or when the
	// size column is constant and min-max normalization is undefined
	fixedPointSize = 10
)

// axisCardinalityLimit caps the distinct values of a categorical column
// for it to qualify as an axis or color dimension
const axisCardinalityLimit = 10

// Settings is the full plot specification: axis/size/color column
// choices plus the size and color style parameters.
type Settings struct {
	X       string  `json:"x_column"`
	Y       string  `json:"y_column"`
	Size    string  `json:"size_column"`
	Color   string  `json:"color_column"`
	MinSize int     `json:"min_size"`
	MaxSize int     `json:"max_size"`
	Gamma   float64 `json:"gamma_size"`
	Palette string  `json:"color_palette"`
}

// SettingsPatch carries a partial settings update; nil fields are left
// unchanged. Setting a selector field marks it user-overridden.
type SettingsPatch struct {
	X       *string  `json:"x_column"`
	Y       *string  `json:"y_column"`
	Size    *string  `json:"size_column"`
	Color   *string  `json:"color_column"`
	MinSize *int     `json:"min_size" validate:"omitempty,gte=1,lte=50"`
	MaxSize *int     `json:"max_size" validate:"omitempty,gte=1,lte=100"`
	Gamma   *float64 `json:"gamma_size" validate:"omitempty,gte=0.1,lte=3"`
	Palette *string  `json:"color_palette"`
}

// AxisOptions lists the columns currently eligible for each selector
type AxisOptions struct {
	Axis  []string `json:"axis"`
	Size  []string `json:"size"`
	Color []string `json:"color"`
}

// Point is one scatter mark. X and Y are float64 for numeric axes and
// string for categorical ones.
type Point struct {
	X     interface{} `json:"x"`
	Y     interface{} `json:"y"`
	Size  float64     `json:"size"`
	Color interface{} `json:"color,omitempty"`
}

// PlotChart is the scatter chart specification emitted to the frontend
type PlotChart struct {
	Type      string   `json:"type"`
	Title     string   `json:"title,omitempty"`
	XLabel    string   `json:"xlabel,omitempty"`
	YLabel    string   `json:"ylabel,omitempty"`
	Points    []Point  `json:"points,omitempty"`
	Tools     []string `json:"tools,omitempty"`
	ColorMode string   `json:"color_mode,omitempty"` // "continuous" or "discrete"
	Palette   string   `json:"palette,omitempty"`
	Colorbar  bool     `json:"colorbar,omitempty"`
	Legend    string   `json:"legend,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// interaction affordances carried by every rendered scatter chart
var scatterTools = []string{"hover", "box_select", "lasso_select"}

// ScatterManager owns the plot settings and renders the scatter chart
// for the current filtered view.
//
// Each selector walks unset → defaulted → user-overridden: automatic
// defaulting never clobbers a user's explicit choice on schema refreshes
// unless the chosen column no longer exists in the view, in which case
// the selector reverts to unset and re-defaults.
type ScatterManager struct {
	settings Settings

	xUserSet     bool
	yUserSet     bool
	sizeUserSet  bool
	colorUserSet bool

	logger *slog.Logger
}

// NewScatterManager creates a manager with default style settings and
// no columns selected.
func NewScatterManager(logger *slog.Logger) *ScatterManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScatterManager{
		settings: Settings{
			MinSize: DefaultMinSize,
			MaxSize: DefaultMaxSize,
			Gamma:   DefaultGamma,
			Palette: DefaultPalette,
		},
		logger: logger.With(slog.String("component", "charts.scatter")),
	}
}

// CurrentSettings returns a snapshot of the plot specification without
// forcing a re-render.
func (m *ScatterManager) CurrentSettings() Settings {
	return m.settings
}

// Apply merges a partial settings update. Selector fields set here are
// marked user-overridden; an empty string explicitly clears a selector.
func (m *ScatterManager) Apply(patch SettingsPatch) error {
	if patch.Palette != nil {
		if !validPalette(*patch.Palette) {
			return ErrUnknownPalette
		}
		m.settings.Palette = *patch.Palette
	}
	if patch.X != nil {
		m.settings.X = *patch.X
		m.xUserSet = *patch.X != ""
	}
	if patch.Y != nil {
		m.settings.Y = *patch.Y
		m.yUserSet = *patch.Y != ""
	}
	if patch.Size != nil {
		m.settings.Size = *patch.Size
		m.sizeUserSet = *patch.Size != ""
	}
	if patch.Color != nil {
		m.settings.Color = *patch.Color
		m.colorUserSet = *patch.Color != ""
	}
	if patch.MinSize != nil {
		m.settings.MinSize = *patch.MinSize
	}
	if patch.MaxSize != nil {
		m.settings.MaxSize = *patch.MaxSize
	}
	if patch.Gamma != nil {
		m.settings.Gamma = *patch.Gamma
	}
	return nil
}

// UpdateAxisOptions recomputes selector eligibility against the view's
// schema and reconciles the current selections: still-valid choices are
// preserved, vanished ones revert to unset and re-default.
func (m *ScatterManager) UpdateAxisOptions(view *dataset.Table) AxisOptions {
	opts := eligibleColumns(view)

	if m.settings.X != "" && !contains(opts.Axis, m.settings.X) {
		m.logger.Info("x column no longer eligible, reselecting",
			slog.String("column", m.settings.X))
		m.settings.X = ""
		m.xUserSet = false
	}
	if m.settings.Y != "" && !contains(opts.Axis, m.settings.Y) {
		m.logger.Info("y column no longer eligible, reselecting",
			slog.String("column", m.settings.Y))
		m.settings.Y = ""
		m.yUserSet = false
	}
	if m.settings.Size != "" && !contains(opts.Size, m.settings.Size) {
		m.settings.Size = ""
		m.sizeUserSet = false
	}
	if m.settings.Color != "" && !contains(opts.Color, m.settings.Color) {
		m.settings.Color = ""
		m.colorUserSet = false
	}

	// Default unset axes to the first two eligible columns
	if m.settings.X == "" && len(opts.Axis) > 0 {
		m.settings.X = opts.Axis[0]
	}
	if m.settings.Y == "" && len(opts.Axis) > 1 {
		m.settings.Y = opts.Axis[1]
	}

	return opts
}

// Render builds the scatter chart for the view. Missing axis choices,
// an empty view, or no surviving points after dropping missing values
// all degrade to a placeholder chart rather than an error.
func (m *ScatterManager) Render(view *dataset.Table) *PlotChart {
	if view == nil || view.NumRows() == 0 {
		return &PlotChart{Type: ChartPlaceholder, Message: "No data available"}
	}

	m.UpdateAxisOptions(view)

	s := m.settings
	if s.X == "" || s.Y == "" {
		return &PlotChart{Type: ChartPlaceholder, Message: "Please select X and Y columns"}
	}

	xCol := view.Column(s.X)
	yCol := view.Column(s.Y)

	// Drop rows with missing X or Y
	rows := make([]int, 0, view.NumRows())
	for i := 0; i < view.NumRows(); i++ {
		if cellMissing(xCol, i) || cellMissing(yCol, i) {
			continue
		}
		rows = append(rows, i)
	}
	if len(rows) == 0 {
		return &PlotChart{Type: ChartPlaceholder, Message: "No valid data points to plot"}
	}

	sizes := m.sizeValues(view, rows)

	var colorCol *dataset.Column
	if s.Color != "" {
		colorCol = view.Column(s.Color)
	}

	points := make([]Point, len(rows))
	for i, r := range rows {
		p := Point{
			X:    axisValue(xCol, r),
			Y:    axisValue(yCol, r),
			Size: sizes[i],
		}
		if colorCol != nil {
			p.Color = colorCol.CellValue(r)
		}
		points[i] = p
	}

	chart := &PlotChart{
		Type:   ChartScatter,
		Title:  fmt.Sprintf("%s vs %s", s.Y, s.X),
		XLabel: s.X,
		YLabel: s.Y,
		Points: points,
		Tools:  scatterTools,
	}

	if colorCol != nil {
		chart.Palette = s.Palette
		if colorCol.IsNumeric() {
			chart.ColorMode = "continuous"
			chart.Colorbar = true
		} else {
			chart.ColorMode = "discrete"
			chart.Legend = "right"
		}
	}

	return chart
}

// sizeValues computes the per-point sizes for the kept rows: min-max
// normalization over the CURRENT view, gamma correction, then linear
// rescaling into [MinSize, MaxSize]. A constant size column (max == min)
// skips the mapping and falls back to a fixed size for every point.
func (m *ScatterManager) sizeValues(view *dataset.Table, rows []int) []float64 {
	s := m.settings
	sizes := make([]float64, len(rows))
	for i := range sizes {
		sizes[i] = fixedPointSize
	}

	if s.Size == "" {
		return sizes
	}
	col := view.Column(s.Size)
	if col == nil || !col.IsNumeric() {
		return sizes
	}

	min, max := math.Inf(1), math.Inf(-1)
	for _, r := range rows {
		v := col.Floats[r]
		if math.IsNaN(v) {
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if !(max > min) {
		// Constant column: normalization would divide by zero
		return sizes
	}

	span := float64(s.MaxSize - s.MinSize)
	for i, r := range rows {
		v := col.Floats[r]
		if math.IsNaN(v) {
			sizes[i] = float64(s.MinSize)
			continue
		}
		normalized := (v - min) / (max - min)
		normalized = math.Pow(normalized, s.Gamma)
		sizes[i] = float64(s.MinSize) + normalized*span
	}
	return sizes
}

// eligibleColumns classifies the view's schema for each selector:
// axes take numeric plus low-cardinality categorical columns, size takes
// numeric only, color takes numeric plus categorical.
func eligibleColumns(view *dataset.Table) AxisOptions {
	var opts AxisOptions
	if view == nil {
		return opts
	}
	for _, col := range view.Columns() {
		c := col
		switch {
		case c.IsNumeric():
			opts.Axis = append(opts.Axis, c.Name)
			opts.Size = append(opts.Size, c.Name)
			opts.Color = append(opts.Color, c.Name)
		case c.Kind == dataset.KindCategorical:
			if c.DistinctCount() < axisCardinalityLimit {
				opts.Axis = append(opts.Axis, c.Name)
			}
			opts.Color = append(opts.Color, c.Name)
		}
	}
	return opts
}

func axisValue(col *dataset.Column, i int) interface{} {
	if col.IsNumeric() {
		return col.Floats[i]
	}
	return col.CellString(i)
}

func cellMissing(col *dataset.Column, i int) bool {
	return col.IsNumeric() && math.IsNaN(col.Floats[i])
}

func validPalette(name string) bool {
	return contains(Palettes, name)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
