package workbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markbook/internal/schema"
)

func TestNormalize_SingleGradeSheet(t *testing.T) {
	canon := schema.NewCanonicalizer(nil, 0)
	res := Normalize([]RawSheet{
		{
			Name:    "Quiz 1",
			Columns: []string{"Student ID", "First Name", "Course", "Assessment", "Score", "Out Of", "Weight", "Favorite Color"},
			Rows: [][]string{
				{" S1 ", "Ada", "Math", "Quiz 1", "8", "10", "30", "teal"},
				{"S2", "Grace", "Math", "Quiz 1", "", "10", "", "mauve"},
				{"", "Nobody", "Math", "Quiz 1", "5", "10", "", ""},
			},
		},
	}, canon)

	assert.Equal(t, CredentialsAutoNone, res.CredentialsSheet)
	assert.Empty(t, res.Credentials)
	assert.Equal(t, []string{"Quiz 1"}, res.GradeSheets)
	require.Len(t, res.Grades, 2, "rows without a student id are dropped")

	first := res.Grades[0]
	assert.Equal(t, "S1", first.StudentID, "ids are trimmed")
	assert.Equal(t, "Ada", first.FirstName)
	assert.Equal(t, "Math", first.Course)
	assert.Empty(t, first.Secret, "an unrecognized column lands nowhere")
	require.NotNil(t, first.Score)
	assert.Equal(t, 8.0, *first.Score)
	assert.Equal(t, 10.0, first.OutOf)
	require.NotNil(t, first.Weight)
	assert.Equal(t, 30.0, *first.Weight)
	assert.Equal(t, "Quiz 1", first.Sheet)

	second := res.Grades[1]
	assert.Nil(t, second.Score)
	assert.Nil(t, second.Weight)
}

func TestNormalize_NumericDefaults(t *testing.T) {
	canon := schema.NewCanonicalizer(nil, 0)
	res := Normalize([]RawSheet{
		{
			Name:    "Scores",
			Columns: []string{"Student ID", "Score", "Out Of"},
			Rows: [][]string{
				{"S1", "abc", ""},
				{"S2", "7", "0"},
			},
		},
	}, canon)

	require.Len(t, res.Grades, 2)
	assert.Nil(t, res.Grades[0].Score, "non-numeric score reads as missing")
	assert.Equal(t, 100.0, res.Grades[0].OutOf, "missing out-of defaults to 100")
	assert.Equal(t, 0.0, res.Grades[1].OutOf, "an explicit zero survives normalization")
}

func TestNormalize_SynonymHeaders(t *testing.T) {
	canon := schema.NewCanonicalizer(nil, 0)
	res := Normalize([]RawSheet{
		{
			Name:    "Term 1",
			Columns: []string{"SID", "Given", "Surname", "Class", "Semester", "Task", "Mark", "Max", "Weight %", "PIN"},
			Rows:    [][]string{{"s1", "Ada", "Lovelace", "Math", "T1", "Quiz", "8", "10", "30", "1234"}},
		},
	}, canon)

	require.Len(t, res.Grades, 1)
	row := res.Grades[0]
	assert.Equal(t, "Ada", row.FirstName)
	assert.Equal(t, "Lovelace", row.LastName)
	assert.Equal(t, "Math", row.Course)
	assert.Equal(t, "T1", row.Term)
	assert.Equal(t, "Quiz", row.Assessment)
	assert.Equal(t, "1234", row.Secret)
	require.NotNil(t, row.Weight)
	assert.Equal(t, 30.0, *row.Weight)
}

func TestNormalize_AliasSheet(t *testing.T) {
	canon := schema.NewCanonicalizer(nil, 0)
	res := Normalize([]RawSheet{
		{
			Name:    "_aliases",
			Columns: []string{"Key", "Value"},
			Rows: [][]string{
				{"course", "subject area"},
				{"score", "raw pts"},
				{"bogus", "whatever"},
				{"", "blank key"},
			},
		},
		{
			Name:    "Grades",
			Columns: []string{"Student ID", "Subject Area", "Raw Pts"},
			Rows:    [][]string{{"S1", "Biology", "41"}},
		},
	}, canon)

	assert.Equal(t, []string{"Grades"}, res.GradeSheets, "the alias sheet is never data")
	require.Len(t, res.Grades, 1)
	assert.Equal(t, "Biology", res.Grades[0].Course)
	require.NotNil(t, res.Grades[0].Score)
	assert.Equal(t, 41.0, *res.Grades[0].Score)
}

func TestNormalize_CredentialsByName(t *testing.T) {
	canon := schema.NewCanonicalizer(nil, 0)
	res := Normalize([]RawSheet{
		{
			Name:    "Login",
			Columns: []string{"Student ID", "Access Code", "Notes"},
			Rows: [][]string{
				{" S1 ", " abc ", "x"},
				{"", "orphan", ""},
			},
		},
		{
			Name:    "Quiz 1",
			Columns: []string{"Student ID", "Score"},
			Rows:    [][]string{{"S1", "9"}},
		},
	}, canon)

	assert.Equal(t, "Login", res.CredentialsSheet)
	assert.Equal(t, []string{"Quiz 1"}, res.GradeSheets, "the credentials sheet never feeds the grade table")
	require.Len(t, res.Credentials, 1)
	assert.Equal(t, Credential{StudentID: "S1", AccessCode: "abc"}, res.Credentials[0])
	require.Len(t, res.Grades, 1)
	assert.Equal(t, "Quiz 1", res.Grades[0].Sheet)
}

func TestNormalize_CredentialsAutoDetected(t *testing.T) {
	canon := schema.NewCanonicalizer(nil, 0)
	res := Normalize([]RawSheet{
		{
			Name:    "Quiz 1",
			Columns: []string{"Student ID", "Score"},
			Rows:    [][]string{{"S1", "9"}},
		},
		{
			Name:    "Roster",
			Columns: []string{"SID", "Passcode"},
			Rows:    [][]string{{"S1", "abc"}},
		},
	}, canon)

	assert.Equal(t, "Roster", res.CredentialsSheet)
	assert.Equal(t, []string{"Quiz 1"}, res.GradeSheets)
	require.Len(t, res.Credentials, 1)
	assert.Equal(t, "abc", res.Credentials[0].AccessCode)
}

func TestNormalize_NamedSheetOutranksDetection(t *testing.T) {
	canon := schema.NewCanonicalizer(nil, 0)
	res := Normalize([]RawSheet{
		{
			Name:    "Roster",
			Columns: []string{"Student ID", "Access Code"},
			Rows:    [][]string{{"S1", "first"}},
		},
		{
			Name:    " Credentials ",
			Columns: []string{"Student ID", "Access Code"},
			Rows:    [][]string{{"S1", "named"}},
		},
	}, canon)

	assert.Equal(t, " Credentials ", res.CredentialsSheet, "name match ignores case and padding")
	require.Len(t, res.Credentials, 1)
	assert.Equal(t, "named", res.Credentials[0].AccessCode)
	assert.Equal(t, []string{"Roster"}, res.GradeSheets, "the losing sheet stays grade data")
}

func TestNormalize_LeftmostColumnWins(t *testing.T) {
	canon := schema.NewCanonicalizer(nil, 0)
	res := Normalize([]RawSheet{{
		Name:    "Scores",
		Columns: []string{"Student ID", "Score", "Points"},
		Rows:    [][]string{{"S1", "7", "99"}},
	}}, canon)

	require.Len(t, res.Grades, 1)
	require.NotNil(t, res.Grades[0].Score)
	assert.Equal(t, 7.0, *res.Grades[0].Score)
}

func TestNormalize_Idempotent(t *testing.T) {
	canon := schema.NewCanonicalizer(nil, 0)
	sheets := []RawSheet{
		{
			Name:    "credentials",
			Columns: []string{"Student ID", "Access Code"},
			Rows:    [][]string{{"S1", "abc"}},
		},
		{
			Name:    "Quiz 1",
			Columns: []string{"Student ID", "Course", "Score", "Out Of", "Weight"},
			Rows: [][]string{
				{"S1", "Math", "8", "10", "30"},
				{"S2", "Math", "", "10", ""},
			},
		},
	}

	first := Normalize(sheets, canon)
	second := Normalize(sheets, canon)
	assert.Equal(t, first, second, "normalizing the same sheets twice yields identical tables")
}

func TestBuildAliasMap_RequiresKeyValueHeaders(t *testing.T) {
	aliases := buildAliasMap([]RawSheet{{
		Name:    "_Aliases",
		Columns: []string{"From", "To"},
		Rows:    [][]string{{"course", "subject"}},
	}})
	assert.Nil(t, aliases)
}
