package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Options controls how raw string cells are typed.
type Options struct {
	// DecimalSeparator defaults to '.' when 0.
	DecimalSeparator rune
	// ThousandsSeparator is stripped before parsing; 0 means no grouping.
	ThousandsSeparator rune
	// MaxCategoryLen is the longest token still treated as a category label.
	MaxCategoryLen int
}

// DefaultOptions returns the typing rules used for uploads and built-ins.
func DefaultOptions() Options {
	return Options{MaxCategoryLen: 64}
}

// naValues mirrors the tokens dataframe readers treat as missing.
var naValues = map[string]struct{}{
	"": {}, "na": {}, "n/a": {}, "nan": {}, "null": {}, "none": {}, "#n/a": {}, "-nan": {}, "<na>": {},
}

// IsMissing reports whether a raw cell counts as a missing value.
func IsMissing(s string) bool {
	_, ok := naValues[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// FromRecords types raw string records into a Table. header supplies column
// names; rows shorter than the header are padded with missing cells. Duplicate
// or blank header names are made unique.
func FromRecords(name string, header []string, rows [][]string, opt Options) (*Table, error) {
	ncol := len(header)
	names := uniqueNames(header)
	cols := make([]*Column, 0, ncol)
	raw := make([]string, len(rows))
	for j := 0; j < ncol; j++ {
		for i, rec := range rows {
			if j < len(rec) {
				raw[i] = strings.TrimSpace(rec[j])
			} else {
				raw[i] = ""
			}
		}
		cols = append(cols, inferColumn(names[j], raw, opt))
	}
	t, err := New(name, cols...)
	if err != nil {
		return nil, fmt.Errorf("build table: %w", err)
	}
	return t, nil
}

// inferColumn decides the column kind: numeric only when every present value
// parses as a number, then datetime, then categorical/text by token length.
func inferColumn(name string, raw []string, opt Options) *Column {
	var present, numCnt, dtCnt, longCnt int
	nums := make([]float64, len(raw))
	valid := make([]bool, len(raw))
	vals := make([]string, len(raw))
	maxLen := opt.MaxCategoryLen
	if maxLen <= 0 {
		maxLen = 64
	}
	for i, v := range raw {
		if IsMissing(v) {
			continue
		}
		present++
		vals[i] = v
		if x, ok := parseNumeric(v, opt); ok {
			nums[i] = x
			valid[i] = true
			numCnt++
			continue
		}
		if _, ok := ParseTime(v); ok {
			dtCnt++
		}
		if len(v) > maxLen {
			longCnt++
		}
	}
	switch {
	case present == 0:
		return StringColumn(name, KindUnknown, vals)
	case numCnt == present:
		return numericFromParsed(name, nums, valid)
	case dtCnt == present:
		return StringColumn(name, KindDatetime, vals)
	case longCnt > 0:
		return StringColumn(name, KindText, vals)
	default:
		return StringColumn(name, KindCategorical, vals)
	}
}

func numericFromParsed(name string, nums []float64, valid []bool) *Column {
	for i := range nums {
		if !valid[i] {
			nums[i] = math.NaN()
		}
	}
	return NumericColumn(name, nums)
}

func uniqueNames(header []string) []string {
	seen := make(map[string]bool, len(header))
	counts := make(map[string]int)
	out := make([]string, len(header))
	for i, h := range header {
		n := strings.TrimSpace(h)
		if n == "" {
			n = fmt.Sprintf("Unnamed: %d", i)
		}
		if seen[n] {
			base := n
			for {
				counts[base]++
				cand := fmt.Sprintf("%s.%d", base, counts[base])
				if !seen[cand] {
					n = cand
					break
				}
			}
		}
		seen[n] = true
		out[i] = n
	}
	return out
}

var timeLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
}

// ParseTime parses the date layouts commonly found in exported spreadsheets.
func ParseTime(s string) (time.Time, bool) {
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseNumeric parses one cell under a single locale. Without explicit
// separators only '.' is a decimal point, so "1,000" or "3 4" stay text.
func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00A0", " "))
	if raw == "" || !looksNumeric(raw) {
		return 0, false
	}
	dec := opt.DecimalSeparator
	if dec == 0 {
		dec = '.'
	}
	if thou := opt.ThousandsSeparator; thou != 0 && thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		if strings.Contains(raw, ".") {
			return 0, false
		}
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// looksNumeric rejects tokens strconv would accept but a dataframe reader
// would keep as text ("inf", "Infinity", hex floats).
func looksNumeric(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.', r == ',', r == ' ', r == '-', r == '+', r == 'e', r == 'E':
		default:
			return false
		}
	}
	return strings.ContainsAny(s, "0123456789")
}
