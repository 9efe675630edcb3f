package parser_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/datadash/internal/apperr"
	"github.com/KaramelBytes/datadash/internal/parser"
	"github.com/KaramelBytes/datadash/internal/table"
)

func TestParseCSVRoundTripsShape(t *testing.T) {
	content := "date,plot,alpha_acids,moisture\n" +
		"2024-08-10,A1,12.5,74\n" +
		"2024-08-12,A1,11.8,71\n" +
		"2024-08-15,B3,10.2,68\n"
	tbl, err := parser.Parse([]byte(content), "hop_harvest.csv", parser.DefaultOptions())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tbl.NumRows() != 3 || tbl.NumCols() != 4 {
		t.Fatalf("shape = %dx%d, want 3x4", tbl.NumRows(), tbl.NumCols())
	}
	if tbl.Name != "hop_harvest.csv" {
		t.Fatalf("name = %q", tbl.Name)
	}
	if got := strings.Join(tbl.NumericColumns(), ","); got != "alpha_acids,moisture" {
		t.Fatalf("numeric columns = %s", got)
	}
	c, _ := tbl.Column("date")
	if c.Kind != table.KindDatetime {
		t.Fatalf("date kind = %s", c.Kind)
	}
}

func TestParseCSVSniffsSemicolonAndBOM(t *testing.T) {
	content := "\xef\xbb\xbfGroup;Score\nA;10,5\nB;9,5\n"
	tbl, err := parser.Parse([]byte(content), "scores.CSV", parser.DefaultOptions())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	score, ok := tbl.Column("Score")
	if !ok || !score.IsNumeric() {
		t.Fatalf("expected numeric Score column, names=%v", tbl.Names())
	}
	if v, _ := score.Float(0); v != 10.5 {
		t.Fatalf("score[0] = %v", v)
	}
}

func TestParseValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		kind     apperr.Kind
	}{
		{"unsupported txt", "notes.txt", "a,b\n1,2\n", apperr.UnsupportedFormat},
		{"unsupported json", "data.json", "[]", apperr.UnsupportedFormat},
		{"no extension", "data", "a,b\n1,2\n", apperr.UnsupportedFormat},
		{"header only", "empty.csv", "a,b\n", apperr.EmptyDataset},
		{"zero bytes", "empty.csv", "", apperr.EmptyDataset},
		{"single column", "one.csv", "value\n1\n2\n3\n", apperr.InsufficientColumns},
		{"ragged row", "ragged.csv", "a,b\n1,2\n3,4,5\n", apperr.ParseError},
		{"bad quote", "quote.csv", "a,b\n\"1\"x,2\n", apperr.ParseError},
		{"bad encoding", "latin.csv", "a,b\n\xff\xfe,1\n", apperr.ParseError},
		{"bad xlsx", "broken.xlsx", "not a zip", apperr.ParseError},
		{"bad xls", "broken.xls", "not a workbook", apperr.ParseError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := parser.Parse([]byte(tt.content), tt.filename, parser.DefaultOptions())
			if err == nil {
				t.Fatalf("expected error, got table with %d rows", tbl.NumRows())
			}
			if tbl != nil {
				t.Fatalf("expected no table on error")
			}
			if got := apperr.KindOf(err); got != tt.kind {
				t.Fatalf("kind = %v, want %v (err=%v)", got, tt.kind, err)
			}
		})
	}
}

func TestParseErrorKeepsUnderlyingMessage(t *testing.T) {
	_, err := parser.Parse([]byte("a,b\n1,2\n3,4,5\n"), "ragged.csv", parser.DefaultOptions())
	if !errors.Is(err, apperr.ErrParse) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if !strings.Contains(err.Error(), "expected 2 fields") {
		t.Fatalf("underlying message missing: %v", err)
	}
}

func TestParseXLSXSheetSelection(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetRow("Sheet1", "A1", &[]any{"city", "temp", "rain"}); err != nil {
		t.Fatalf("set header: %v", err)
	}
	if err := f.SetSheetRow("Sheet1", "A2", &[]any{"Oslo", 4.5, 10}); err != nil {
		t.Fatalf("set row: %v", err)
	}
	if err := f.SetSheetRow("Sheet1", "A3", &[]any{"Rome", 17.25, 3}); err != nil {
		t.Fatalf("set row: %v", err)
	}
	if _, err := f.NewSheet("Other"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	if err := f.SetSheetRow("Other", "A1", &[]any{"only"}); err != nil {
		t.Fatalf("set other: %v", err)
	}
	if err := f.SetSheetRow("Other", "A2", &[]any{"x"}); err != nil {
		t.Fatalf("set other: %v", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write xlsx: %v", err)
	}

	tbl, err := parser.Parse(buf.Bytes(), "weather.xlsx", parser.DefaultOptions())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tbl.NumRows() != 2 || tbl.NumCols() != 3 {
		t.Fatalf("shape = %dx%d, want 2x3", tbl.NumRows(), tbl.NumCols())
	}
	temp, _ := tbl.Column("temp")
	if v, _ := temp.Float(1); v != 17.25 {
		t.Fatalf("temp[1] = %v", v)
	}

	opt := parser.DefaultOptions()
	opt.Sheet = "other"
	_, err = parser.Parse(buf.Bytes(), "weather.xlsx", opt)
	if apperr.KindOf(err) != apperr.InsufficientColumns {
		t.Fatalf("expected InsufficientColumns for one-column sheet, got %v", err)
	}

	opt.Sheet = "missing"
	_, err = parser.Parse(buf.Bytes(), "weather.xlsx", opt)
	if apperr.KindOf(err) != apperr.ParseError || !strings.Contains(err.Error(), "Available sheets") {
		t.Fatalf("expected sheet-not-found parse error, got %v", err)
	}
}

func TestParseXLSSheetSelection(t *testing.T) {
	content, err := os.ReadFile(filepath.Join("testdata", "harvest.xls"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	tbl, err := parser.Parse(content, "harvest.xls", parser.DefaultOptions())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tbl.NumRows() != 3 || tbl.NumCols() != 3 {
		t.Fatalf("shape = %dx%d, want 3x3", tbl.NumRows(), tbl.NumCols())
	}
	if got := strings.Join(tbl.Names(), ","); got != "field,crop,tonnes" {
		t.Fatalf("names = %s", got)
	}
	tonnes, _ := tbl.Column("tonnes")
	if !tonnes.IsNumeric() {
		t.Fatalf("tonnes kind = %s", tonnes.Kind)
	}
	if v, _ := tonnes.Float(1); v != 4.25 {
		t.Fatalf("tonnes[1] = %v", v)
	}
	crop, _ := tbl.Column("crop")
	if crop.Kind != table.KindCategorical || crop.Value(2) != "barley" {
		t.Fatalf("crop = %s %q", crop.Kind, crop.Value(2))
	}

	// the second sheet starts below a blank row
	opt := parser.DefaultOptions()
	opt.Sheet = "NOTES"
	tbl, err = parser.Parse(content, "harvest.xls", opt)
	if err != nil {
		t.Fatalf("parse notes: %v", err)
	}
	if tbl.NumRows() != 2 || tbl.NumCols() != 2 {
		t.Fatalf("notes shape = %dx%d, want 2x2", tbl.NumRows(), tbl.NumCols())
	}
	pages, _ := tbl.Column("pages")
	if v, _ := pages.Float(0); v != 12 {
		t.Fatalf("pages[0] = %v", v)
	}

	opt.Sheet = "missing"
	_, err = parser.Parse(content, "harvest.xls", opt)
	if apperr.KindOf(err) != apperr.ParseError || !strings.Contains(err.Error(), "Available sheets: Yield, Notes") {
		t.Fatalf("expected sheet-not-found parse error, got %v", err)
	}
}

func TestParseCSVKeepsGroupedNumbersAsText(t *testing.T) {
	content := "item,price,qty\nbolt,\"1,000\",3\nnut,\"2,500\",4\n"
	tbl, err := parser.Parse([]byte(content), "parts.csv", parser.DefaultOptions())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	price, _ := tbl.Column("price")
	if price.IsNumeric() || price.Value(1) != "2,500" {
		t.Fatalf("price = %s %q", price.Kind, price.Value(1))
	}
	if got := strings.Join(tbl.NumericColumns(), ","); got != "qty" {
		t.Fatalf("numeric columns = %s", got)
	}
}

func TestSupported(t *testing.T) {
	for _, name := range []string{"a.csv", "b.XLSX", "c.xls"} {
		if !parser.Supported(name) {
			t.Errorf("%s should be supported", name)
		}
	}
	if parser.Supported("d.parquet") {
		t.Errorf("parquet should not be supported")
	}
}
