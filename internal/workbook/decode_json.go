package workbook

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"markbook/internal/pkg/convert"
)

// looksLikeJSON sniffs the payload: a leading '{' after optional whitespace
// selects the JSON decoder.
func looksLikeJSON(data []byte) bool {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b == '{'
	}
	return false
}

// decodeJSON reads the JSON workbook shape:
//
//	{"sheets": [{"name": "Quiz 1", "rows": [{"Student ID": "S1", "Score": 9}]}]}
//
// Columns are collected in first-seen key order across a sheet's rows, so a
// key that only appears in later rows still gets a column and earlier rows
// are back-filled with empty cells.
func decodeJSON(data []byte) ([]RawSheet, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("malformed json workbook")
	}
	doc := gjson.ParseBytes(data)
	sheetsVal := doc.Get("sheets")
	if !sheetsVal.Exists() || !sheetsVal.IsArray() {
		return nil, fmt.Errorf("json workbook needs a top-level sheets array")
	}

	var (
		sheets  []RawSheet
		iterErr error
	)
	sheetsVal.ForEach(func(_, sv gjson.Result) bool {
		name := strings.TrimSpace(sv.Get("name").String())
		if name == "" {
			iterErr = fmt.Errorf("json workbook sheet %d has no name", len(sheets))
			return false
		}
		sheet := RawSheet{Name: name}
		colIdx := make(map[string]int)
		sv.Get("rows").ForEach(func(_, rv gjson.Result) bool {
			if !rv.IsObject() {
				return true
			}
			cells := make([]string, len(sheet.Columns))
			rv.ForEach(func(kv, vv gjson.Result) bool {
				key := kv.String()
				idx, ok := colIdx[key]
				if !ok {
					idx = len(sheet.Columns)
					colIdx[key] = idx
					sheet.Columns = append(sheet.Columns, key)
					for i := range sheet.Rows {
						sheet.Rows[i] = append(sheet.Rows[i], "")
					}
					cells = append(cells, "")
				}
				cells[idx] = cellString(vv)
				return true
			})
			sheet.Rows = append(sheet.Rows, cells)
			return true
		})
		sheets = append(sheets, sheet)
		return true
	})
	if iterErr != nil {
		return nil, iterErr
	}
	return sheets, nil
}

// cellString renders a JSON value the way the same cell would read from a
// spreadsheet. Numbers drop trailing zeros and nulls become empty cells.
func cellString(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		return convert.FormatNumeric(v.Num)
	case gjson.True:
		return "true"
	case gjson.False:
		return "false"
	case gjson.Null:
		return ""
	default:
		return v.Raw
	}
}
