package dataset

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"fmt"
	"io"
	"strings"
	"time"

	vizerrors "viz-agent/errors"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

//go:embed sample_data.csv
var sampleCSV []byte

// Dataset is an immutable in-memory table loaded from a CSV or Excel file.
// It carries a unique identity marker so cache fingerprints change whenever
// a new dataset is loaded, even from a file with the same name.
type Dataset struct {
	id         uuid.UUID
	name       string
	df         dataframe.DataFrame
	schemaHash string
}

// LoadCSV parses CSV content into a Dataset with type inference.
func LoadCSV(name string, r io.Reader) (*Dataset, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
	)
	if df.Error() != nil {
		return nil, vizerrors.WrapErrorf(vizerrors.ErrInvalidInput, "parse CSV %q: %v", name, df.Error())
	}
	return newDataset(name, df)
}

// LoadExcel parses the first sheet of an xlsx/xls workbook into a Dataset.
func LoadExcel(name string, r io.Reader) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, vizerrors.WrapErrorf(vizerrors.ErrInvalidInput, "open workbook %q: %v", name, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, vizerrors.WrapErrorf(vizerrors.ErrInvalidInput, "workbook %q has no sheets", name)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, vizerrors.WrapErrorf(vizerrors.ErrInvalidInput, "read sheet %q: %v", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, vizerrors.WrapErrorf(vizerrors.ErrInvalidInput, "workbook %q has no data rows", name)
	}

	// Excel rows can be ragged; pad to the header width so gota accepts them.
	width := len(rows[0])
	for i := range rows {
		for len(rows[i]) < width {
			rows[i] = append(rows[i], "")
		}
		rows[i] = rows[i][:width]
	}

	df := dataframe.LoadRecords(rows,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
	)
	if df.Error() != nil {
		return nil, vizerrors.WrapErrorf(vizerrors.ErrInvalidInput, "load workbook %q: %v", name, df.Error())
	}
	return newDataset(name, df)
}

// LoadSample loads the bundled sample sales dataset.
func LoadSample() (*Dataset, error) {
	return LoadCSV("sample_data.csv", bytes.NewReader(sampleCSV))
}

func newDataset(name string, df dataframe.DataFrame) (*Dataset, error) {
	if df.Ncol() == 0 || df.Nrow() == 0 {
		return nil, vizerrors.WrapErrorf(vizerrors.ErrInvalidInput, "dataset %q is empty", name)
	}
	return &Dataset{
		id:         uuid.New(),
		name:       name,
		df:         df,
		schemaHash: computeSchemaHash(df),
	}, nil
}

func computeSchemaHash(df dataframe.DataFrame) string {
	var sb strings.Builder
	types := df.Types()
	for i, name := range df.Names() {
		sb.WriteString(name)
		sb.WriteByte(':')
		sb.WriteString(string(types[i]))
		sb.WriteByte('\n')
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return fmt.Sprintf("%x", sum[:8])
}

// ID returns the dataset's identity marker used in cache fingerprints.
func (d *Dataset) ID() string { return d.id.String() }

// Name returns the source filename.
func (d *Dataset) Name() string { return d.name }

// SchemaHash returns a short hash of the column names and types.
func (d *Dataset) SchemaHash() string { return d.schemaHash }

// Columns returns the column names in order.
func (d *Dataset) Columns() []string { return d.df.Names() }

// NumRows returns the row count.
func (d *Dataset) NumRows() int { return d.df.Nrow() }

// HasColumn reports whether a column exists.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.df.Names() {
		if c == name {
			return true
		}
	}
	return false
}

// IsNumeric reports whether a column holds int or float values.
func (d *Dataset) IsNumeric(name string) bool {
	types := d.df.Types()
	for i, c := range d.df.Names() {
		if c == name {
			return types[i] == series.Int || types[i] == series.Float
		}
	}
	return false
}

// ColumnStrings returns all values of a column as strings.
func (d *Dataset) ColumnStrings(name string) ([]string, error) {
	if !d.HasColumn(name) {
		return nil, fmt.Errorf("no column named %q", name)
	}
	return d.df.Col(name).Records(), nil
}

// ColumnFloats returns all values of a numeric column.
func (d *Dataset) ColumnFloats(name string) ([]float64, error) {
	if !d.HasColumn(name) {
		return nil, fmt.Errorf("no column named %q", name)
	}
	if !d.IsNumeric(name) {
		return nil, fmt.Errorf("column %q is not numeric", name)
	}
	return d.df.Col(name).Float(), nil
}

// Rows materializes the table as row maps: float64 for numeric columns,
// string for everything else. Used by the sandbox df.rows() binding.
func (d *Dataset) Rows() []map[string]any {
	names := d.df.Names()
	numeric := make(map[string]bool, len(names))
	floats := make(map[string][]float64, len(names))
	strs := make(map[string][]string, len(names))
	for _, name := range names {
		if d.IsNumeric(name) {
			numeric[name] = true
			floats[name] = d.df.Col(name).Float()
		} else {
			strs[name] = d.df.Col(name).Records()
		}
	}

	rows := make([]map[string]any, d.df.Nrow())
	for i := range rows {
		row := make(map[string]any, len(names))
		for _, name := range names {
			if numeric[name] {
				row[name] = floats[name][i]
			} else {
				row[name] = strs[name][i]
			}
		}
		rows[i] = row
	}
	return rows
}

// Head returns up to n data rows as string records, header excluded.
func (d *Dataset) Head(n int) [][]string {
	records := d.df.Records()
	if len(records) <= 1 {
		return nil
	}
	data := records[1:]
	if n < len(data) {
		data = data[:n]
	}
	out := make([][]string, len(data))
	for i, row := range data {
		out[i] = append([]string(nil), row...)
	}
	return out
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDate tries the common tabular date layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
