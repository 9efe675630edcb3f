package parser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

type csvParser struct{}

func (csvParser) CanParse(filename string) bool {
	return hasExt(filename, ".csv")
}

func (csvParser) Records(content []byte, opt Options) ([]string, [][]string, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(content) {
		return nil, nil, errors.New("file is not valid UTF-8 text")
	}
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(content)
	}
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delim

	var records [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	header, rows := splitHeader(records)
	if width := declaredWidth(records); width > 0 {
		for i, row := range rows {
			if w := usedWidth(row); w > width {
				return nil, nil, fmt.Errorf("expected %d fields in data row %d, saw %d", width, i+1, w)
			}
		}
	}
	return header, rows, nil
}

// declaredWidth is the field count of the header line.
func declaredWidth(records [][]string) int {
	for _, rec := range records {
		if !blank(rec) {
			return len(rec)
		}
	}
	return 0
}

// sniffDelimiter picks the most frequent separator on the first non-empty line.
func sniffDelimiter(content []byte) rune {
	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		best, bestCount := ',', 0
		for _, sep := range []rune{',', ';', '\t', '|'} {
			if n := strings.Count(line, string(sep)); n > bestCount {
				best, bestCount = sep, n
			}
		}
		return best
	}
	return ','
}
