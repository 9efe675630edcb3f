package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/extrame/xls"
)

type xlsParser struct{}

func (xlsParser) CanParse(filename string) bool {
	return hasExt(filename, ".xls")
}

// Records reads a legacy BIFF workbook. The decoder panics on some malformed
// inputs, so panics are converted into parse errors.
func (xlsParser) Records(content []byte, opt Options) (header []string, rows [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			header, rows = nil, nil
			err = fmt.Errorf("malformed xls workbook: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(content), "utf-8")
	if err != nil {
		return nil, nil, fmt.Errorf("open xls: %w", err)
	}
	if wb.NumSheets() == 0 {
		return nil, nil, nil
	}
	sheet := wb.GetSheet(0)
	if opt.Sheet != "" {
		sheet = nil
		var names []string
		for i := 0; i < wb.NumSheets(); i++ {
			s := wb.GetSheet(i)
			if s == nil {
				continue
			}
			names = append(names, s.Name)
			if strings.EqualFold(s.Name, opt.Sheet) {
				sheet = s
				break
			}
		}
		if sheet == nil {
			return nil, nil, fmt.Errorf("sheet '%s' not found in workbook.\nAvailable sheets: %s",
				opt.Sheet, strings.Join(names, ", "))
		}
	}
	if sheet == nil {
		return nil, nil, nil
	}

	var records [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		rec := make([]string, row.LastCol())
		for c := row.FirstCol(); c < row.LastCol(); c++ {
			rec[c] = row.Col(c)
		}
		records = append(records, rec)
	}
	header, rows = splitHeader(records)
	return header, rows, nil
}
