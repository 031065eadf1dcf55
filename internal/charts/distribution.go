// Package charts builds JSON chart specifications for the frontend:
// per-filter distribution charts and the configurable scatter plot.
package charts

import (
	"fmt"
	"math"

	"datalens/internal/dataset"
	"datalens/internal/filters"
)

// Chart type discriminators
const (
	ChartHistogram       = "histogram"
	ChartBars            = "bars"
	ChartLengthHistogram = "length_histogram"
	ChartScatter         = "scatter"
	ChartPlaceholder     = "placeholder"
)

const (
	numericBins = 30
	lengthBins  = 20
)

// Range is a closed numeric interval
type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Bar is one category of a bar chart with its count and selection flag
type Bar struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
	Selected bool   `json:"selected"`
}

// DistChart is a lightweight distribution chart for one filtered column:
// a histogram with a highlighted sub-range for range filters, a bar chart
// with highlighted categories for membership filters, or a string-length
// histogram for regex filters.
type DistChart struct {
	Type      string    `json:"type"`
	Column    string    `json:"column"`
	Title     string    `json:"title,omitempty"`
	Edges     []float64 `json:"edges,omitempty"`
	Counts    []int     `json:"counts,omitempty"`
	Highlight *Range    `json:"highlight,omitempty"`
	Bars      []Bar     `json:"bars,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// Distribution draws the distribution of the column over the ORIGINAL
// dataset with the spec's current selection highlighted. It never fails:
// degenerate inputs produce a placeholder chart instead.
func Distribution(original *dataset.Table, spec *filters.Spec) *DistChart {
	col := original.Column(spec.Column)
	if col == nil || col.Len() == 0 {
		return placeholderDist(spec.Column, "no data to plot")
	}

	switch spec.Kind {
	case filters.KindRange:
		return numericDistribution(col, spec)
	case filters.KindMembership:
		return barDistribution(col, spec)
	default:
		return lengthDistribution(col)
	}
}

func placeholderDist(column, message string) *DistChart {
	return &DistChart{
		Type:    ChartPlaceholder,
		Column:  column,
		Message: message,
	}
}

func numericDistribution(col *dataset.Column, spec *filters.Spec) *DistChart {
	values := make([]float64, 0, len(col.Floats))
	for _, v := range col.Floats {
		if !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return placeholderDist(col.Name, "no numeric values to plot")
	}

	edges, counts := histogram(values, numericBins)

	return &DistChart{
		Type:      ChartHistogram,
		Column:    col.Name,
		Title:     fmt.Sprintf("%s Distribution", col.Name),
		Edges:     edges,
		Counts:    counts,
		Highlight: &Range{Low: spec.Low, High: spec.High},
	}
}

func barDistribution(col *dataset.Column, spec *filters.Spec) *DistChart {
	counts := make(map[string]int)
	order := make([]string, 0)
	for i := 0; i < col.Len(); i++ {
		v := col.CellString(i)
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}

	selected := make(map[string]bool, len(spec.Selected))
	for _, s := range spec.Selected {
		selected[s] = true
	}

	// Largest categories first, matching the usual value-count ordering
	sortByCountDesc(order, counts)

	bars := make([]Bar, 0, len(order))
	for _, v := range order {
		bars = append(bars, Bar{Category: v, Count: counts[v], Selected: selected[v]})
	}

	return &DistChart{
		Type:   ChartBars,
		Column: col.Name,
		Title:  fmt.Sprintf("%s Distribution", col.Name),
		Bars:   bars,
	}
}

// lengthDistribution charts the string-length distribution of a text
// column. The current regex pattern deliberately does not alter this
// chart; highlighting matching lengths is a possible followup.
func lengthDistribution(col *dataset.Column) *DistChart {
	lengths := make([]float64, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		lengths = append(lengths, float64(len(col.CellString(i))))
	}
	if len(lengths) == 0 {
		return placeholderDist(col.Name, "no values to plot")
	}

	edges, counts := histogram(lengths, lengthBins)

	return &DistChart{
		Type:   ChartLengthHistogram,
		Column: col.Name,
		Title:  fmt.Sprintf("%s Length Distribution", col.Name),
		Edges:  edges,
		Counts: counts,
	}
}

// histogram bins values into `bins` equal-width buckets between min and
// max; values equal to max land in the last bucket. A zero-width range
// is widened by ±0.5 so counting still works.
func histogram(values []float64, bins int) (edges []float64, counts []int) {
	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min == max {
		min -= 0.5
		max += 0.5
	}

	edges = make([]float64, bins+1)
	width := (max - min) / float64(bins)
	for i := range edges {
		edges[i] = min + float64(i)*width
	}
	edges[bins] = max

	counts = make([]int, bins)
	for _, v := range values {
		idx := int((v - min) / width)
		if idx >= bins {
			idx = bins - 1
		}
		if idx < 0 {
			idx = 0
		}
		counts[idx]++
	}
	return edges, counts
}

func sortByCountDesc(order []string, counts map[string]int) {
	// Stable insertion sort keeps equal-count categories in first-seen order
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && counts[order[j]] > counts[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
}
