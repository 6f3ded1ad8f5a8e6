package workbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// xlsxBytes serializes fixture sheets through excelize so decode tests run
// against real workbook bytes.
func xlsxBytes(t *testing.T, sheets []RawSheet) []byte {
	t.Helper()
	f := excelize.NewFile()
	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", s.Name))
		} else {
			_, err := f.NewSheet(s.Name)
			require.NoError(t, err)
		}
		header := make([]interface{}, len(s.Columns))
		for j, c := range s.Columns {
			header[j] = c
		}
		require.NoError(t, f.SetSheetRow(s.Name, "A1", &header))
		for ri, row := range s.Rows {
			cells := make([]interface{}, len(row))
			for j, c := range row {
				cells[j] = c
			}
			anchor, err := excelize.CoordinatesToCellName(1, ri+2)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(s.Name, anchor, &cells))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDecode_XLSX(t *testing.T) {
	data := xlsxBytes(t, []RawSheet{
		{
			Name:    "Quiz 1",
			Columns: []string{"Student ID", "Score", "Out Of"},
			Rows: [][]string{
				{"S1", "8", "10"},
				{"S2", "9"},
			},
		},
		{
			Name:    "Quiz 2",
			Columns: []string{"Student ID", "Score"},
			Rows:    [][]string{{"S1", "18"}},
		},
	})

	sheets, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, sheets, 2)

	assert.Equal(t, "Quiz 1", sheets[0].Name)
	assert.Equal(t, []string{"Student ID", "Score", "Out Of"}, sheets[0].Columns)
	assert.Equal(t, [][]string{
		{"S1", "8", "10"},
		{"S2", "9", ""},
	}, sheets[0].Rows, "short rows are padded to the header width")

	assert.Equal(t, "Quiz 2", sheets[1].Name)
	assert.Equal(t, [][]string{{"S1", "18"}}, sheets[1].Rows)
}

func TestDecode_GarbageBytes(t *testing.T) {
	_, err := Decode([]byte("not a workbook"))
	var de *DecodeError
	assert.ErrorAs(t, err, &de)
}

func TestDecode_JSON(t *testing.T) {
	data := []byte(`{
	  "sheets": [
	    {"name": "Quiz 1", "rows": [
	      {"Student ID": "S1", "Score": 8.5, "Out Of": 10},
	      {"Student ID": "S2", "Score": null, "Weight": 30}
	    ]}
	  ]
	}`)

	sheets, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, sheets, 1)

	sh := sheets[0]
	assert.Equal(t, "Quiz 1", sh.Name)
	assert.Equal(t, []string{"Student ID", "Score", "Out Of", "Weight"}, sh.Columns,
		"columns appear in first-seen key order")
	assert.Equal(t, [][]string{
		{"S1", "8.5", "10", ""},
		{"S2", "", "", "30"},
	}, sh.Rows, "earlier rows are back-filled when later rows add columns")
}

func TestDecode_JSONBadShape(t *testing.T) {
	cases := map[string]string{
		"truncated":        `{"sheets": [}`,
		"no sheets key":    `{"tabs": []}`,
		"sheets not array": `{"sheets": {}}`,
		"unnamed sheet":    `{"sheets": [{"rows": []}]}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(payload))
			var de *DecodeError
			assert.ErrorAs(t, err, &de)
		})
	}
}

func TestLooksLikeJSON(t *testing.T) {
	assert.True(t, looksLikeJSON([]byte(`{"sheets":[]}`)))
	assert.True(t, looksLikeJSON([]byte("\n\t {\"sheets\":[]}")))
	assert.False(t, looksLikeJSON([]byte("PK\x03\x04")))
	assert.False(t, looksLikeJSON([]byte("[1,2]")))
	assert.False(t, looksLikeJSON(nil))
}

func TestSheetFromRows(t *testing.T) {
	sh := sheetFromRows("Empty", [][]string{{"Student ID", "Score"}})
	assert.Equal(t, []string{"Student ID", "Score"}, sh.Columns)
	assert.Empty(t, sh.Rows)

	blank := sheetFromRows("Blank", nil)
	assert.Empty(t, blank.Columns)
	assert.Empty(t, blank.Rows)

	long := sheetFromRows("Long", [][]string{{"A"}, {"1", "spill"}})
	assert.Equal(t, [][]string{{"1"}}, long.Rows, "cells past the header are dropped")
}
