package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/datadash/internal/apperr"
	"github.com/KaramelBytes/datadash/internal/table"
)

// Options controls upload parsing.
type Options struct {
	Table table.Options
	// Delimiter for CSV. If 0, sniffed from the header line among ',', ';', '\t', '|'.
	Delimiter rune
	// Sheet selects a spreadsheet sheet by name; empty means the first sheet.
	Sheet string
}

// DefaultOptions returns the parsing defaults used by the dashboard.
func DefaultOptions() Options {
	return Options{Table: table.DefaultOptions()}
}

// Parser decodes one file format into a header plus raw string rows.
type Parser interface {
	CanParse(filename string) bool
	Records(content []byte, opt Options) (header []string, rows [][]string, err error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

func init() {
	Register(csvParser{})
	Register(xlsxParser{})
	Register(xlsParser{})
}

// Extensions lists the accepted upload extensions.
func Extensions() []string {
	return []string{".csv", ".xlsx", ".xls"}
}

// Parse validates and parses an uploaded file into a Table. The parser is
// chosen by the file name's extension. It never returns a partial table.
func Parse(content []byte, filename string, opt Options) (*table.Table, error) {
	p := lookup(filename)
	if p == nil {
		return nil, apperr.New(apperr.UnsupportedFormat,
			fmt.Sprintf("Unsupported file format %q. Please upload a CSV or Excel file.", filepath.Ext(filename)))
	}
	header, rows, err := p.Records(content, opt)
	if err != nil {
		if apperr.KindOf(err) != apperr.UnexpectedError {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.ParseError, "Error reading file", err)
	}
	if len(header) == 0 || len(rows) == 0 {
		return nil, apperr.New(apperr.EmptyDataset, "The uploaded file is empty.")
	}
	if len(header) < 2 {
		return nil, apperr.New(apperr.InsufficientColumns, "The file must contain at least two columns for analysis.")
	}
	t, err := table.FromRecords(filepath.Base(filename), header, rows, tableOptions(p, content, opt))
	if err != nil {
		return nil, apperr.Wrap(apperr.ParseError, "Error reading file", err)
	}
	return t, nil
}

// tableOptions applies the decimal-comma convention of semicolon separated
// files unless a decimal separator was set explicitly.
func tableOptions(p Parser, content []byte, opt Options) table.Options {
	topt := opt.Table
	if _, ok := p.(csvParser); !ok || topt.DecimalSeparator != 0 {
		return topt
	}
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(content)
	}
	if delim == ';' {
		topt.DecimalSeparator = ','
	}
	return topt
}

// Supported reports whether filename has an accepted extension.
func Supported(filename string) bool {
	return lookup(filename) != nil
}

func lookup(filename string) Parser {
	for _, p := range registry {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

func hasExt(filename, ext string) bool {
	return strings.EqualFold(filepath.Ext(filename), ext)
}

// splitHeader drops blank rows and returns the first non-blank row as the
// header. Trailing empty header cells are dropped unless a data row uses them.
func splitHeader(records [][]string) ([]string, [][]string) {
	for i, rec := range records {
		if blank(rec) {
			continue
		}
		width := usedWidth(rec)
		var rows [][]string
		for _, r := range records[i+1:] {
			if blank(r) {
				continue
			}
			rows = append(rows, r)
			if w := usedWidth(r); w > width {
				width = w
			}
		}
		header := make([]string, width)
		copy(header, rec)
		return header, rows
	}
	return nil, nil
}

func usedWidth(rec []string) int {
	for i := len(rec) - 1; i >= 0; i-- {
		if strings.TrimSpace(rec[i]) != "" {
			return i + 1
		}
	}
	return 0
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
