package sandbox

import (
	"fmt"
	"strings"

	"viz-agent/dataset"

	"go.starlark.net/starlark"
)

// dataFrame exposes a Dataset to generated code as the `df` global. It is
// read-only: every accessor returns fresh Starlark values, so nothing the
// script does to them reaches the Dataset or later executions.
type dataFrame struct {
	ds *dataset.Dataset
}

var (
	_ starlark.Value    = (*dataFrame)(nil)
	_ starlark.HasAttrs = (*dataFrame)(nil)
)

func newDataFrame(ds *dataset.Dataset) *dataFrame {
	return &dataFrame{ds: ds}
}

func (d *dataFrame) String() string {
	return fmt.Sprintf("dataframe(%q, %d rows)", d.ds.Name(), d.ds.NumRows())
}

func (d *dataFrame) Type() string          { return "dataframe" }
func (d *dataFrame) Freeze()               {}
func (d *dataFrame) Truth() starlark.Bool  { return starlark.True }
func (d *dataFrame) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: dataframe") }

func (d *dataFrame) AttrNames() []string {
	return []string{"col", "columns", "num_rows", "rows"}
}

func (d *dataFrame) Attr(name string) (starlark.Value, error) {
	switch name {
	case "columns":
		return stringsToList(d.ds.Columns()), nil
	case "num_rows":
		return starlark.MakeInt(d.ds.NumRows()), nil
	case "col":
		return starlark.NewBuiltin("col", d.col).BindReceiver(d), nil
	case "rows":
		return starlark.NewBuiltin("rows", d.rows).BindReceiver(d), nil
	default:
		return nil, nil // no such attribute; starlark reports it
	}
}

// col returns all values of one column: floats for numeric columns, strings
// otherwise.
func (d *dataFrame) col(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackArgs("col", args, kwargs, "name", &name); err != nil {
		return nil, err
	}

	if !d.ds.HasColumn(name) {
		return nil, fmt.Errorf("no column named %q (columns: %s)",
			name, strings.Join(d.ds.Columns(), ", "))
	}

	if d.ds.IsNumeric(name) {
		values, err := d.ds.ColumnFloats(name)
		if err != nil {
			return nil, err
		}
		return floatsToList(values), nil
	}

	values, err := d.ds.ColumnStrings(name)
	if err != nil {
		return nil, err
	}
	return stringsToList(values), nil
}

// rows returns the table as a list of row dicts.
func (d *dataFrame) rows(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs("rows", args, kwargs); err != nil {
		return nil, err
	}

	rows := d.ds.Rows()
	list := make([]starlark.Value, len(rows))
	for i, row := range rows {
		sv, err := goToStarlark(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		list[i] = sv
	}
	return starlark.NewList(list), nil
}
