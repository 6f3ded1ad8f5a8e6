// Package workbook decodes raw workbook payloads into named sheets and
// normalizes them into one credentials table plus one long-form grade table.
package workbook

// RawSheet is one decoded sheet: a header row and string cells, padded so
// every row matches the header width. Ephemeral; consumed once by Normalize.
type RawSheet struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Credential is one row of the credentials table, both fields trimmed.
type Credential struct {
	StudentID  string `json:"student_id"`
	AccessCode string `json:"access_code"`
}

// CredentialsTable holds the single credentials table of a workbook. Empty
// when no sheet qualifies.
type CredentialsTable []Credential

// GradeRow is one assessment record in canonical form. Score and Weight are
// nil when the source cell was absent or non-numeric; OutOf is always
// present (missing values default to 100). A zero OutOf is kept as zero here
// and only reinterpreted during aggregation.
type GradeRow struct {
	StudentID  string   `json:"student_id"`
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	Course     string   `json:"course"`
	Term       string   `json:"term"`
	Assessment string   `json:"assessment"`
	Secret     string   `json:"secret"`
	Score      *float64 `json:"score"`
	OutOf      float64  `json:"out_of"`
	Weight     *float64 `json:"weight"`
	Sheet      string   `json:"sheet"`
}

// GradeTable is the row-wise concatenation of all grade sheets in
// sheet-encounter order. Immutable once built.
type GradeTable []GradeRow

// Result is the outcome of normalizing one workbook.
type Result struct {
	Grades      GradeTable
	Credentials CredentialsTable
	// GradeSheets lists every sheet that contributed to the grade table,
	// in workbook order, including sheets that produced zero rows.
	GradeSheets []string
	// CredentialsSheet is the resolved sheet name, or CredentialsAutoNone.
	CredentialsSheet string
}

// CredentialsAutoNone marks a workbook where no credentials sheet was named
// or detected.
const CredentialsAutoNone = "auto-detected/none"
