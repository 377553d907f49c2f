package sandbox

import (
	"fmt"
	"sort"

	"viz-agent/chart"
	"viz-agent/dataset"

	"go.starlark.net/starlark"
)

// figureValue wraps a chart.Figure so generated code can bind it to `figure`.
type figureValue struct {
	fig *chart.Figure
}

var _ starlark.Value = (*figureValue)(nil)

func (f *figureValue) String() string        { return f.fig.String() }
func (f *figureValue) Type() string          { return "figure" }
func (f *figureValue) Freeze()               {}
func (f *figureValue) Truth() starlark.Bool  { return starlark.True }
func (f *figureValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: figure") }

// builtins returns the full predeclared namespace for one execution:
// the dataframe binding plus chart and aggregation helpers. Everything else
// the script sees comes from the Starlark universe.
func builtins(ds *dataset.Dataset) starlark.StringDict {
	return starlark.StringDict{
		"df":            newDataFrame(ds),
		"bar_chart":     starlark.NewBuiltin("bar_chart", makeAxisChart("bar_chart", chart.NewBar)),
		"line_chart":    starlark.NewBuiltin("line_chart", makeAxisChart("line_chart", chart.NewLine)),
		"scatter_chart": starlark.NewBuiltin("scatter_chart", scatterChart),
		"pie_chart":     starlark.NewBuiltin("pie_chart", pieChart),
		"histogram":     starlark.NewBuiltin("histogram", histogramChart),
		"group_sum":     starlark.NewBuiltin("group_sum", makeGroupAgg("group_sum", aggSum)),
		"group_mean":    starlark.NewBuiltin("group_mean", makeGroupAgg("group_mean", aggMean)),
		"group_count":   starlark.NewBuiltin("group_count", groupCount),
		"month_key":     starlark.NewBuiltin("month_key", monthKey),
		"sum_values":    starlark.NewBuiltin("sum_values", sumValues),
		"mean":          starlark.NewBuiltin("mean", meanValues),
		"unique":        starlark.NewBuiltin("unique", uniqueValues),
	}
}

// makeAxisChart adapts a category-axis chart constructor (bar, line) into a
// builtin of shape fn(title, x, series) where series is a dict name -> values.
func makeAxisChart(name string, construct func(string, []string, []chart.Series) (*chart.Figure, error)) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var title string
		var xVal, seriesVal starlark.Value
		if err := starlark.UnpackArgs(name, args, kwargs, "title", &title, "x", &xVal, "series", &seriesVal); err != nil {
			return nil, err
		}

		x, err := toStringSlice(xVal, "x")
		if err != nil {
			return nil, err
		}

		seriesDict, ok := seriesVal.(*starlark.Dict)
		if !ok {
			return nil, fmt.Errorf("%s: series must be a dict of name -> list of numbers, got %s", name, seriesVal.Type())
		}

		var series []chart.Series
		for _, item := range seriesDict.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("%s: series names must be strings, got %s", name, item[0].Type())
			}
			values, err := toFloatSlice(item[1], fmt.Sprintf("series[%q]", string(key)))
			if err != nil {
				return nil, err
			}
			series = append(series, chart.Series{Name: string(key), Values: values})
		}

		fig, err := construct(title, x, series)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return &figureValue{fig: fig}, nil
	}
}

func scatterChart(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var title, name string
	var xsVal, ysVal starlark.Value
	if err := starlark.UnpackArgs("scatter_chart", args, kwargs, "title", &title, "name", &name, "xs", &xsVal, "ys", &ysVal); err != nil {
		return nil, err
	}

	xs, err := toFloatSlice(xsVal, "xs")
	if err != nil {
		return nil, err
	}
	ys, err := toFloatSlice(ysVal, "ys")
	if err != nil {
		return nil, err
	}

	fig, err := chart.NewScatter(title, name, xs, ys)
	if err != nil {
		return nil, fmt.Errorf("scatter_chart: %w", err)
	}
	return &figureValue{fig: fig}, nil
}

func pieChart(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var title string
	var labelsVal, valuesVal starlark.Value
	if err := starlark.UnpackArgs("pie_chart", args, kwargs, "title", &title, "labels", &labelsVal, "values", &valuesVal); err != nil {
		return nil, err
	}

	labels, err := toStringSlice(labelsVal, "labels")
	if err != nil {
		return nil, err
	}
	values, err := toFloatSlice(valuesVal, "values")
	if err != nil {
		return nil, err
	}
	if len(labels) != len(values) {
		return nil, fmt.Errorf("pie_chart: labels/values length mismatch: %d vs %d", len(labels), len(values))
	}

	items := make([]chart.PieItem, len(labels))
	for i := range labels {
		items[i] = chart.PieItem{Label: labels[i], Value: values[i]}
	}

	fig, err := chart.NewPie(title, items)
	if err != nil {
		return nil, fmt.Errorf("pie_chart: %w", err)
	}
	return &figureValue{fig: fig}, nil
}

func histogramChart(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var title string
	var valuesVal starlark.Value
	bins := 10
	if err := starlark.UnpackArgs("histogram", args, kwargs, "title", &title, "values", &valuesVal, "bins?", &bins); err != nil {
		return nil, err
	}

	values, err := toFloatSlice(valuesVal, "values")
	if err != nil {
		return nil, err
	}

	fig, err := chart.NewHistogram(title, values, bins)
	if err != nil {
		return nil, fmt.Errorf("histogram: %w", err)
	}
	return &figureValue{fig: fig}, nil
}

type groupAgg func(values []float64) float64

func aggSum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

func aggMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return aggSum(values) / float64(len(values))
}

// makeGroupAgg builds fn(df, by, value) -> dict of group key -> aggregate.
// Keys appear in first-seen row order so charts stay deterministic.
func makeGroupAgg(name string, agg groupAgg) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var dfVal starlark.Value
		var by, value string
		if err := starlark.UnpackArgs(name, args, kwargs, "df", &dfVal, "by", &by, "value", &value); err != nil {
			return nil, err
		}

		df, ok := dfVal.(*dataFrame)
		if !ok {
			return nil, fmt.Errorf("%s: first argument must be the dataframe, got %s", name, dfVal.Type())
		}

		keys, err := groupKeys(df.ds, by)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		values, err := df.ds.ColumnFloats(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		grouped := make(map[string][]float64)
		var order []string
		for i, key := range keys {
			if _, seen := grouped[key]; !seen {
				order = append(order, key)
			}
			grouped[key] = append(grouped[key], values[i])
		}

		dict := starlark.NewDict(len(order))
		for _, key := range order {
			if err := dict.SetKey(starlark.String(key), starlark.Float(agg(grouped[key]))); err != nil {
				return nil, err
			}
		}
		return dict, nil
	}
}

func groupCount(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var dfVal starlark.Value
	var by string
	if err := starlark.UnpackArgs("group_count", args, kwargs, "df", &dfVal, "by", &by); err != nil {
		return nil, err
	}

	df, ok := dfVal.(*dataFrame)
	if !ok {
		return nil, fmt.Errorf("group_count: first argument must be the dataframe, got %s", dfVal.Type())
	}

	keys, err := groupKeys(df.ds, by)
	if err != nil {
		return nil, fmt.Errorf("group_count: %w", err)
	}

	counts := make(map[string]int)
	var order []string
	for _, key := range keys {
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	dict := starlark.NewDict(len(order))
	for _, key := range order {
		if err := dict.SetKey(starlark.String(key), starlark.MakeInt(counts[key])); err != nil {
			return nil, err
		}
	}
	return dict, nil
}

// groupKeys returns the grouping column as strings, whatever its type.
func groupKeys(ds *dataset.Dataset, by string) ([]string, error) {
	if !ds.HasColumn(by) {
		return nil, fmt.Errorf("no column named %q", by)
	}
	return ds.ColumnStrings(by)
}

func monthKey(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var value string
	if err := starlark.UnpackArgs("month_key", args, kwargs, "value", &value); err != nil {
		return nil, err
	}

	t, ok := dataset.ParseDate(value)
	if !ok {
		return nil, fmt.Errorf("month_key: cannot parse %q as a date", value)
	}
	return starlark.String(t.Format("2006-01")), nil
}

func sumValues(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var valuesVal starlark.Value
	if err := starlark.UnpackArgs("sum_values", args, kwargs, "values", &valuesVal); err != nil {
		return nil, err
	}
	values, err := toFloatSlice(valuesVal, "values")
	if err != nil {
		return nil, err
	}
	return starlark.Float(aggSum(values)), nil
}

func meanValues(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var valuesVal starlark.Value
	if err := starlark.UnpackArgs("mean", args, kwargs, "values", &valuesVal); err != nil {
		return nil, err
	}
	values, err := toFloatSlice(valuesVal, "values")
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("mean: empty list")
	}
	return starlark.Float(aggMean(values)), nil
}

func uniqueValues(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var valuesVal starlark.Value
	if err := starlark.UnpackArgs("unique", args, kwargs, "values", &valuesVal); err != nil {
		return nil, err
	}
	values, err := toStringSlice(valuesVal, "values")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return stringsToList(out), nil
}
