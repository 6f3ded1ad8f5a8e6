package workbook

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// DecodeError wraps any failure to turn workbook bytes into sheets. Callers
// map it to a client-side failure; the wrapped cause stays available.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("workbook unreadable: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode parses workbook bytes into named sheets. Payloads whose first
// non-whitespace byte is '{' are treated as JSON workbooks; everything else
// goes through the xlsx reader. Decoding is all or nothing.
func Decode(data []byte) ([]RawSheet, error) {
	var (
		sheets []RawSheet
		err    error
	)
	if looksLikeJSON(data) {
		sheets, err = decodeJSON(data)
	} else {
		sheets, err = decodeXLSX(data)
	}
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return sheets, nil
}

func decodeXLSX(data []byte) ([]RawSheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	names := f.GetSheetList()
	sheets := make([]RawSheet, 0, len(names))
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		sheets = append(sheets, sheetFromRows(name, rows))
	}
	return sheets, nil
}

// sheetFromRows builds a RawSheet from raw cell rows. The first row is the
// header; data rows are padded to the header width and cells beyond it are
// dropped, since they have no column name to land under.
func sheetFromRows(name string, rows [][]string) RawSheet {
	if len(rows) == 0 {
		return RawSheet{Name: name}
	}
	header := append([]string(nil), rows[0]...)
	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		padded := make([]string, len(header))
		copy(padded, row)
		data = append(data, padded)
	}
	return RawSheet{Name: name, Columns: header, Rows: data}
}
