package dataset

import (
	"errors"
	"strings"
	"testing"

	vizerrors "viz-agent/errors"
)

const testCSV = `city,population,growth,coastal
Lisbon,545000,0.8,true
Porto,231000,1.1,true
Braga,136000,2.3,false
`

func TestLoadCSV(t *testing.T) {
	ds, err := LoadCSV("cities.csv", strings.NewReader(testCSV))
	if err != nil {
		t.Fatalf("LoadCSV() error = %v", err)
	}

	if ds.Name() != "cities.csv" {
		t.Errorf("Name() = %q, want %q", ds.Name(), "cities.csv")
	}
	if ds.NumRows() != 3 {
		t.Errorf("NumRows() = %d, want 3", ds.NumRows())
	}

	wantCols := []string{"city", "population", "growth", "coastal"}
	for _, col := range wantCols {
		if !ds.HasColumn(col) {
			t.Errorf("HasColumn(%q) = false", col)
		}
	}

	if ds.IsNumeric("city") {
		t.Error("IsNumeric(city) = true, want false")
	}
	if !ds.IsNumeric("population") || !ds.IsNumeric("growth") {
		t.Error("numeric columns not detected")
	}

	growth, err := ds.ColumnFloats("growth")
	if err != nil {
		t.Fatalf("ColumnFloats() error = %v", err)
	}
	if len(growth) != 3 || growth[2] != 2.3 {
		t.Errorf("ColumnFloats(growth) = %v", growth)
	}

	if _, err := ds.ColumnFloats("city"); err == nil {
		t.Error("ColumnFloats(city) expected error for non-numeric column")
	}
	if _, err := ds.ColumnStrings("missing"); err == nil {
		t.Error("ColumnStrings(missing) expected error")
	}
}

func TestLoadCSVRejectsEmpty(t *testing.T) {
	_, err := LoadCSV("empty.csv", strings.NewReader("a,b\n"))
	if !errors.Is(err, vizerrors.ErrInvalidInput) {
		t.Errorf("LoadCSV() on header-only input error = %v, want ErrInvalidInput", err)
	}

	_, err = LoadCSV("garbage.csv", strings.NewReader("\"unterminated"))
	if !errors.Is(err, vizerrors.ErrInvalidInput) {
		t.Errorf("LoadCSV() on malformed input error = %v, want ErrInvalidInput", err)
	}
}

func TestDatasetIdentity(t *testing.T) {
	a, err := LoadCSV("same.csv", strings.NewReader(testCSV))
	if err != nil {
		t.Fatal(err)
	}
	b, err := LoadCSV("same.csv", strings.NewReader(testCSV))
	if err != nil {
		t.Fatal(err)
	}

	if a.ID() == b.ID() {
		t.Error("two loads of the same file share an ID; cache entries would collide")
	}
	if a.SchemaHash() != b.SchemaHash() {
		t.Error("identical schemas produced different schema hashes")
	}
}

func TestRows(t *testing.T) {
	ds, err := LoadCSV("cities.csv", strings.NewReader(testCSV))
	if err != nil {
		t.Fatal(err)
	}

	rows := ds.Rows()
	if len(rows) != 3 {
		t.Fatalf("Rows() returned %d rows, want 3", len(rows))
	}

	if city, ok := rows[0]["city"].(string); !ok || city != "Lisbon" {
		t.Errorf("rows[0][city] = %v, want Lisbon", rows[0]["city"])
	}
	if pop, ok := rows[0]["population"].(float64); !ok || pop != 545000 {
		t.Errorf("rows[0][population] = %v, want 545000", rows[0]["population"])
	}
}

func TestHead(t *testing.T) {
	ds, err := LoadCSV("cities.csv", strings.NewReader(testCSV))
	if err != nil {
		t.Fatal(err)
	}

	head := ds.Head(2)
	if len(head) != 2 {
		t.Fatalf("Head(2) returned %d rows", len(head))
	}
	if head[0][0] != "Lisbon" {
		t.Errorf("Head(2)[0][0] = %q, want Lisbon", head[0][0])
	}

	if got := ds.Head(100); len(got) != 3 {
		t.Errorf("Head(100) returned %d rows, want all 3", len(got))
	}
}

func TestLoadSample(t *testing.T) {
	ds, err := LoadSample()
	if err != nil {
		t.Fatalf("LoadSample() error = %v", err)
	}

	for _, col := range []string{"date", "region", "product", "revenue", "units", "customer_type"} {
		if !ds.HasColumn(col) {
			t.Errorf("sample dataset missing column %q", col)
		}
	}
	if ds.NumRows() == 0 {
		t.Error("sample dataset is empty")
	}
	if !ds.IsNumeric("revenue") {
		t.Error("sample revenue column not numeric")
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		want string // YYYY-MM when ok
	}{
		{"2024-03-15", true, "2024-03"},
		{"2024/03/15", true, "2024-03"},
		{"03/15/2024", true, "2024-03"},
		{"2024-03-15 10:30:00", true, "2024-03"},
		{"  2024-03-15  ", true, "2024-03"},
		{"not a date", false, ""},
		{"", false, ""},
	}

	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got.Format("2006-01") != tt.want {
			t.Errorf("ParseDate(%q) = %v, want month %s", tt.in, got, tt.want)
		}
	}
}
