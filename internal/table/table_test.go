package table

import (
	"math"
	"reflect"
	"testing"
)

func TestFromRecordsInfersKinds(t *testing.T) {
	header := []string{"id", "species", "length", "when", "note"}
	rows := [][]string{
		{"1", "setosa", "5.1", "2024-01-02", "short"},
		{"2", "versicolor", "NA", "2024-01-03", ""},
		{"3", "setosa", "4.9", "2024-01-04", "a very long free-text note that easily exceeds the sixty four character limit"},
	}
	tbl, err := FromRecords("sample", header, rows, DefaultOptions())
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	if tbl.NumRows() != 3 || tbl.NumCols() != 5 {
		t.Fatalf("shape = %dx%d, want 3x5", tbl.NumRows(), tbl.NumCols())
	}
	want := map[string]Kind{
		"id":      KindNumeric,
		"species": KindCategorical,
		"length":  KindNumeric,
		"when":    KindDatetime,
		"note":    KindText,
	}
	for name, kind := range want {
		c, ok := tbl.Column(name)
		if !ok {
			t.Fatalf("missing column %q", name)
		}
		if c.Kind != kind {
			t.Errorf("column %q kind = %s, want %s", name, c.Kind, kind)
		}
	}
	length, _ := tbl.Column("length")
	if got := length.Floats(); !reflect.DeepEqual(got, []float64{5.1, 4.9}) {
		t.Fatalf("length floats = %v", got)
	}
	if length.NullCount() != 1 || !length.IsNull(1) {
		t.Fatalf("expected NA to become null, nulls=%d", length.NullCount())
	}
	if got := tbl.NumericColumns(); !reflect.DeepEqual(got, []string{"id", "length"}) {
		t.Fatalf("NumericColumns = %v", got)
	}
	if got := tbl.CategoricalColumns(); !reflect.DeepEqual(got, []string{"species", "when", "note"}) {
		t.Fatalf("CategoricalColumns = %v", got)
	}
}

func TestFromRecordsPadsAndDedupes(t *testing.T) {
	tbl, err := FromRecords("dup", []string{"a", "a", ""}, [][]string{{"1"}, {"2", "x", "y"}}, DefaultOptions())
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	if got := tbl.Names(); !reflect.DeepEqual(got, []string{"a", "a.1", "Unnamed: 2"}) {
		t.Fatalf("Names = %v", got)
	}
	c, _ := tbl.Column("a.1")
	if !c.IsNull(0) || c.Value(1) != "x" {
		t.Fatalf("padding failed: %q %q", c.Value(0), c.Value(1))
	}
}

func TestNewRejectsBadShapes(t *testing.T) {
	a := NumericColumn("a", []float64{1, 2})
	b := NumericColumn("b", []float64{1})
	if _, err := New("bad", a, b); err == nil {
		t.Fatalf("expected length mismatch error")
	}
	if _, err := New("bad", a, NumericColumn("a", []float64{3, 4})); err == nil {
		t.Fatalf("expected duplicate name error")
	}
}

func TestHeadAndSchema(t *testing.T) {
	tbl, err := New("t",
		NumericColumn("x", []float64{1, math.NaN(), 3}),
		StringColumn("label", KindCategorical, []string{"a", "b", ""}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	head := tbl.Head(10)
	want := [][]string{{"1", "a"}, {"", "b"}, {"3", ""}}
	if !reflect.DeepEqual(head, want) {
		t.Fatalf("Head = %v, want %v", head, want)
	}
	if len(tbl.Head(1)) != 1 {
		t.Fatalf("Head(1) should return one row")
	}
	sch := tbl.Schema()
	if sch.NumFields() != 2 || sch.Field(0).Type.Name() != "float64" || sch.Field(1).Type.Name() != "utf8" {
		t.Fatalf("unexpected schema %s", sch)
	}
}

func TestParseNumericLocale(t *testing.T) {
	tests := []struct {
		in   string
		opt  Options
		want float64
		ok   bool
	}{
		{"1.5", Options{}, 1.5, true},
		{"-2.5e-1", Options{}, -0.25, true},
		{"0,5", Options{}, 0, false},
		{"1,000", Options{}, 0, false},
		{"1,000.25", Options{}, 0, false},
		{"3 4", Options{}, 0, false},
		{"0,5", Options{DecimalSeparator: ','}, 0.5, true},
		{"1.5", Options{DecimalSeparator: ','}, 0, false},
		{"1.000,25", Options{DecimalSeparator: ',', ThousandsSeparator: '.'}, 1000.25, true},
		{"1,000.25", Options{ThousandsSeparator: ','}, 1000.25, true},
		{"1 000", Options{ThousandsSeparator: ' '}, 1000, true},
		{"1e3", Options{}, 1000, true},
		{"inf", Options{}, 0, false},
		{"abc", Options{}, 0, false},
		{"1.000", Options{DecimalSeparator: ',', ThousandsSeparator: '.'}, 1000, true},
	}
	for _, tt := range tests {
		got, ok := parseNumeric(tt.in, tt.opt)
		if ok != tt.ok || (ok && math.Abs(got-tt.want) > 1e-9) {
			t.Errorf("parseNumeric(%q) = %v,%v want %v,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFromRecordsKeepsGroupedDigitsAsText(t *testing.T) {
	tbl, err := FromRecords("prices", []string{"price", "code"},
		[][]string{{"1,000", "3 4"}, {"2,500", "5 6"}}, DefaultOptions())
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	for _, name := range []string{"price", "code"} {
		c, _ := tbl.Column(name)
		if c.Kind != KindCategorical {
			t.Errorf("column %q kind = %s, want %s", name, c.Kind, KindCategorical)
		}
	}
	price, _ := tbl.Column("price")
	if price.Value(0) != "1,000" {
		t.Fatalf("price[0] = %q", price.Value(0))
	}
	if len(tbl.NumericColumns()) != 0 {
		t.Fatalf("NumericColumns = %v", tbl.NumericColumns())
	}
}
