// Package chart builds figure objects from aggregated data. Figures wrap
// go-echarts charts and render to self-contained HTML for the UI layer.
package chart

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	chartWidth  = "860px"
	chartHeight = "480px"
)

type renderer interface {
	Render(w io.Writer) error
}

// Series is one named sequence of values plotted against a shared axis.
type Series struct {
	Name   string
	Values []float64
}

// PieItem is one labeled slice of a pie chart.
type PieItem struct {
	Label string
	Value float64
}

// Figure is the plot object produced by generated analysis code.
type Figure struct {
	Kind  string
	Title string
	chart renderer
}

// HTML renders the figure as a standalone HTML document.
func (f *Figure) HTML() (string, error) {
	var buf bytes.Buffer
	if err := f.chart.Render(&buf); err != nil {
		return "", fmt.Errorf("render %s figure: %w", f.Kind, err)
	}
	return buf.String(), nil
}

func (f *Figure) String() string {
	return fmt.Sprintf("figure(%s, %q)", f.Kind, f.Title)
}

func globalOptions(title string) charts.GlobalOpts {
	return charts.WithTitleOpts(opts.Title{Title: title})
}

func initOptions() charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		Width:  chartWidth,
		Height: chartHeight,
	})
}

// NewBar builds a bar chart of one or more series over shared categories.
func NewBar(title string, x []string, series []Series) (*Figure, error) {
	if err := validateSeries(len(x), series); err != nil {
		return nil, err
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOptions(title), initOptions())
	bar.SetXAxis(x)
	for _, s := range series {
		data := make([]opts.BarData, len(s.Values))
		for i, v := range s.Values {
			data[i] = opts.BarData{Value: v}
		}
		bar.AddSeries(s.Name, data)
	}
	return &Figure{Kind: "bar", Title: title, chart: bar}, nil
}

// NewLine builds a line chart of one or more series over shared categories.
func NewLine(title string, x []string, series []Series) (*Figure, error) {
	if err := validateSeries(len(x), series); err != nil {
		return nil, err
	}

	line := charts.NewLine()
	line.SetGlobalOptions(globalOptions(title), initOptions())
	line.SetXAxis(x)
	for _, s := range series {
		data := make([]opts.LineData, len(s.Values))
		for i, v := range s.Values {
			data[i] = opts.LineData{Value: v}
		}
		line.AddSeries(s.Name, data)
	}
	return &Figure{Kind: "line", Title: title, chart: line}, nil
}

// NewScatter builds a scatter plot of (x, y) pairs.
func NewScatter(title, name string, xs, ys []float64) (*Figure, error) {
	if len(xs) == 0 {
		return nil, fmt.Errorf("scatter chart needs at least one point")
	}
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("scatter chart x/y length mismatch: %d vs %d", len(xs), len(ys))
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		globalOptions(title),
		initOptions(),
		charts.WithXAxisOpts(opts.XAxis{Type: "value"}),
	)
	data := make([]opts.ScatterData, len(xs))
	for i := range xs {
		data[i] = opts.ScatterData{Value: []interface{}{xs[i], ys[i]}}
	}
	scatter.AddSeries(name, data)
	return &Figure{Kind: "scatter", Title: title, chart: scatter}, nil
}

// NewPie builds a pie chart from labeled values.
func NewPie(title string, items []PieItem) (*Figure, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("pie chart needs at least one slice")
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(globalOptions(title), initOptions())
	data := make([]opts.PieData, len(items))
	for i, item := range items {
		data[i] = opts.PieData{Name: item.Label, Value: item.Value}
	}
	pie.AddSeries(title, data)
	return &Figure{Kind: "pie", Title: title, chart: pie}, nil
}

// NewHistogram bins values into equal-width intervals and plots the counts.
func NewHistogram(title string, values []float64, bins int) (*Figure, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("histogram needs at least one value")
	}
	if bins < 1 {
		bins = 10
	}

	labels, counts := Bin(values, bins)
	return NewBar(title, labels, []Series{{Name: "count", Values: counts}})
}

// Bin distributes values into equal-width bins and returns interval labels
// and per-bin counts.
func Bin(values []float64, bins int) ([]string, []float64) {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]

	if lo == hi {
		return []string{fmt.Sprintf("%.4g", lo)}, []float64{float64(len(values))}
	}

	width := (hi - lo) / float64(bins)
	labels := make([]string, bins)
	counts := make([]float64, bins)
	for i := 0; i < bins; i++ {
		labels[i] = fmt.Sprintf("%.4g to %.4g", lo+float64(i)*width, lo+float64(i+1)*width)
	}
	for _, v := range values {
		idx := int(math.Floor((v - lo) / width))
		if idx >= bins {
			idx = bins - 1 // top edge belongs to the last bin
		}
		counts[idx]++
	}
	return labels, counts
}

func validateSeries(xLen int, series []Series) error {
	if xLen == 0 {
		return fmt.Errorf("chart needs at least one category")
	}
	if len(series) == 0 {
		return fmt.Errorf("chart needs at least one series")
	}
	for _, s := range series {
		if len(s.Values) != xLen {
			return fmt.Errorf("series %q has %d values for %d categories", s.Name, len(s.Values), xLen)
		}
	}
	return nil
}
