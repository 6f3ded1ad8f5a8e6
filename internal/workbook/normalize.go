package workbook

import (
	"strings"

	"markbook/internal/logger"
	"markbook/internal/pkg/convert"
	"markbook/internal/schema"
)

// aliasSheetName is matched against normalized sheet names. The sheet is
// consumed for header mappings and never treated as data.
const aliasSheetName = "_aliases"

// Normalize turns decoded sheets into a Result. The alias sheet is read
// first so its mappings apply to every other sheet, then at most one sheet
// is claimed as credentials and the rest are flattened into the grade table
// in workbook order. Rows without a student id are dropped.
func Normalize(sheets []RawSheet, canon *schema.Canonicalizer) *Result {
	aliases := buildAliasMap(sheets)
	credsName, credsFound := findCredentialsSheet(sheets, canon, aliases)

	res := &Result{
		Grades:           GradeTable{},
		Credentials:      CredentialsTable{},
		GradeSheets:      []string{},
		CredentialsSheet: CredentialsAutoNone,
	}
	if credsFound {
		res.CredentialsSheet = credsName
	}
	for _, sheet := range sheets {
		if schema.Normalize(sheet.Name) == aliasSheetName {
			continue
		}
		if credsFound && sheet.Name == credsName {
			res.Credentials = normalizeCredentials(sheet, canon, aliases)
			continue
		}
		res.Grades = append(res.Grades, normalizeGrades(sheet, canon, aliases)...)
		res.GradeSheets = append(res.GradeSheets, sheet.Name)
	}
	return res
}

// buildAliasMap extracts workbook-local header mappings from the first alias
// sheet whose headers include "key" and "value". Rows with an empty side are
// skipped, and keys must name a known field; the mapping direction is
// spelling -> field, inverted from the sheet's key/value layout.
func buildAliasMap(sheets []RawSheet) schema.AliasMap {
	for _, sheet := range sheets {
		if schema.Normalize(sheet.Name) != aliasSheetName {
			continue
		}
		cols := make(map[string]int, len(sheet.Columns))
		for i, c := range sheet.Columns {
			name := schema.Normalize(c)
			if _, ok := cols[name]; !ok {
				cols[name] = i
			}
		}
		keyIdx, keyOK := cols["key"]
		valIdx, valOK := cols["value"]
		if !keyOK || !valOK {
			return nil
		}
		aliases := make(schema.AliasMap)
		for _, row := range sheet.Rows {
			field := schema.Normalize(row[keyIdx])
			spelling := schema.Normalize(row[valIdx])
			if field == "" || spelling == "" {
				continue
			}
			if !schema.IsField(field) {
				logger.Warnf("[load] alias %q targets unknown field %q, ignored", spelling, field)
				continue
			}
			aliases[spelling] = field
		}
		return aliases
	}
	return nil
}

// canonicalIndex maps canonical field names to column positions. When two
// columns canonicalize to the same field the leftmost wins.
func canonicalIndex(sheet RawSheet, canon *schema.Canonicalizer, aliases schema.AliasMap) map[string]int {
	idx := make(map[string]int, len(sheet.Columns))
	for i, col := range sheet.Columns {
		name, ok := canon.Canonical(col, aliases)
		if !ok {
			continue
		}
		if _, claimed := idx[name]; claimed {
			continue
		}
		idx[name] = i
	}
	return idx
}

func cellAt(row []string, idx map[string]int, field string) string {
	i, ok := idx[field]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func normalizeCredentials(sheet RawSheet, canon *schema.Canonicalizer, aliases schema.AliasMap) CredentialsTable {
	idx := canonicalIndex(sheet, canon, aliases)
	out := make(CredentialsTable, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		id := strings.TrimSpace(cellAt(row, idx, schema.FieldStudentID))
		if id == "" {
			continue
		}
		out = append(out, Credential{
			StudentID:  id,
			AccessCode: strings.TrimSpace(cellAt(row, idx, schema.FieldAccessCode)),
		})
	}
	return out
}

func normalizeGrades(sheet RawSheet, canon *schema.Canonicalizer, aliases schema.AliasMap) []GradeRow {
	idx := canonicalIndex(sheet, canon, aliases)
	rows := make([]GradeRow, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		id := strings.TrimSpace(cellAt(row, idx, schema.FieldStudentID))
		if id == "" {
			continue
		}
		gr := GradeRow{
			StudentID:  id,
			FirstName:  strings.TrimSpace(cellAt(row, idx, schema.FieldFirstName)),
			LastName:   strings.TrimSpace(cellAt(row, idx, schema.FieldLastName)),
			Course:     strings.TrimSpace(cellAt(row, idx, schema.FieldCourse)),
			Term:       strings.TrimSpace(cellAt(row, idx, schema.FieldTerm)),
			Assessment: strings.TrimSpace(cellAt(row, idx, schema.FieldAssessment)),
			Secret:     strings.TrimSpace(cellAt(row, idx, schema.FieldSecret)),
			OutOf:      100,
			Sheet:      sheet.Name,
		}
		if v, ok := convert.ParseNumeric(cellAt(row, idx, schema.FieldScore)); ok {
			gr.Score = &v
		}
		if v, ok := convert.ParseNumeric(cellAt(row, idx, schema.FieldOutOf)); ok {
			gr.OutOf = v
		}
		if v, ok := convert.ParseNumeric(cellAt(row, idx, schema.FieldWeight)); ok {
			gr.Weight = &v
		}
		rows = append(rows, gr)
	}
	return rows
}
