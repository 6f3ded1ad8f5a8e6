package gradebook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markbook/internal/gate"
	"markbook/internal/source"
	"markbook/internal/workbook"
)

var fixture = []byte(`{
  "sheets": [
    {"name": "credentials", "rows": [
      {"Student ID": "S1", "Access Code": "abc"},
      {"Student ID": "S2", "Access Code": "def"},
      {"Student ID": "S3", "Access Code": "ghi"}
    ]},
    {"name": "Quiz 1", "rows": [
      {"Student ID": "S1", "Course": "Math", "Assessment": "Quiz 1", "Score": 8, "Out Of": 10, "Weight": 30},
      {"Student ID": "S2", "Course": "Math", "Assessment": "Quiz 1", "Score": 5, "Out Of": 10, "Weight": 30}
    ]},
    {"name": "Quiz 2", "rows": [
      {"Student ID": "S1", "Course": "Math", "Assessment": "Quiz 2", "Score": 18, "Out Of": 20, "Weight": 70}
    ]}
  ]
}`)

func newTestService() *Service {
	return New(Options{Gate: gate.Gate{Mode: gate.ModeCredentials}})
}

func TestService_LoadAndLogin(t *testing.T) {
	svc := newTestService()
	snap, err := svc.LoadBytes(fixture, "upload")
	require.NoError(t, err)
	assert.Equal(t, "credentials", snap.CredentialsSheet)
	assert.Equal(t, []string{"Quiz 1", "Quiz 2"}, snap.GradeSheets)

	res, err := svc.Login(gate.Identity{StudentID: " s1 ", AccessCode: "abc"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, res.Outcome)

	require.Len(t, res.Summary, 1)
	assert.Equal(t, "Math", res.Summary[0].Course)
	assert.Equal(t, 2, res.Summary[0].Assessments)
	assert.InDelta(t, 87.0, float64(res.Summary[0].Overall), 1e-9)

	require.Len(t, res.Details, 2)
	assert.Equal(t, "Quiz 1", res.Details[0].Assessment)
	assert.Equal(t, "Quiz 2", res.Details[1].Assessment)
}

func TestService_SingleQuizWorkbook(t *testing.T) {
	payload := []byte(`{
	  "sheets": [
	    {"name": "credentials", "rows": [{"Student ID": "S1", "Access Code": "abc"}]},
	    {"name": "Quiz1", "rows": [
	      {"Student ID": "S1", "Course": "Math", "Assessment": "Q1", "Score": 9, "Out Of": 10}
	    ]}
	  ]
	}`)
	svc := newTestService()
	_, err := svc.LoadBytes(payload, "upload")
	require.NoError(t, err)

	res, err := svc.Login(gate.Identity{StudentID: "S1", AccessCode: "abc"})
	require.NoError(t, err)
	require.Len(t, res.Summary, 1)
	assert.Equal(t, "Math", res.Summary[0].Course)
	assert.Equal(t, 1, res.Summary[0].Assessments)
	assert.InDelta(t, 90.0, float64(res.Summary[0].Overall), 1e-9)

	_, err = svc.Login(gate.Identity{StudentID: "S1", AccessCode: "wrong"})
	assert.ErrorIs(t, err, gate.ErrNoMatch)

	_, err = svc.Login(gate.Identity{StudentID: "S2", AccessCode: "abc"})
	assert.ErrorIs(t, err, gate.ErrNoMatch, "an unknown id is rejected the same way as a wrong code")
}

func TestService_LoginRejections(t *testing.T) {
	svc := newTestService()
	_, err := svc.LoadBytes(fixture, "upload")
	require.NoError(t, err)

	_, err = svc.Login(gate.Identity{StudentID: "S1", AccessCode: "wrong"})
	assert.ErrorIs(t, err, gate.ErrNoMatch)

	_, err = svc.Login(gate.Identity{StudentID: "   ", AccessCode: "abc"})
	assert.ErrorIs(t, err, ErrMissingStudentID)
}

func TestService_LoginNoRows(t *testing.T) {
	svc := newTestService()
	_, err := svc.LoadBytes(fixture, "upload")
	require.NoError(t, err)

	res, err := svc.Login(gate.Identity{StudentID: "S3", AccessCode: "ghi"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoRows, res.Outcome)
	assert.Equal(t, MsgNoRows, res.Message)
	assert.Empty(t, res.Summary)
}

func TestService_NoWorkbook(t *testing.T) {
	svc := newTestService()

	_, err := svc.Login(gate.Identity{StudentID: "S1"})
	assert.ErrorIs(t, err, ErrNoWorkbook)

	_, err = svc.Meta()
	assert.ErrorIs(t, err, ErrNoWorkbook)

	_, err = svc.Overview()
	assert.ErrorIs(t, err, ErrNoWorkbook)
}

func TestService_FailedLoadKeepsSnapshot(t *testing.T) {
	svc := newTestService()
	first, err := svc.LoadBytes(fixture, "upload")
	require.NoError(t, err)

	_, err = svc.LoadBytes([]byte("definitely not a workbook"), "upload")
	var de *workbook.DecodeError
	require.ErrorAs(t, err, &de)

	meta, err := svc.Meta()
	require.NoError(t, err)
	assert.Equal(t, first.ID.String(), meta.SnapshotID, "a failed load must not disturb the published snapshot")
}

func TestService_Meta(t *testing.T) {
	svc := newTestService()
	_, err := svc.LoadBytes(fixture, "upload")
	require.NoError(t, err)

	meta, err := svc.Meta()
	require.NoError(t, err)
	assert.Equal(t, 3, meta.RowsLoaded)
	assert.Equal(t, []string{"Quiz 1", "Quiz 2"}, meta.GradeSheets)
	assert.Equal(t, "credentials", meta.CredentialsSheet)
	assert.Equal(t, 3, meta.CredentialRows)
	assert.Equal(t, "upload", meta.Source)
	assert.NotEmpty(t, meta.ContentHash)
}

func TestService_Courses(t *testing.T) {
	svc := newTestService()
	_, err := svc.LoadBytes(fixture, "upload")
	require.NoError(t, err)

	courses, err := svc.Courses(gate.Identity{StudentID: "S1", AccessCode: "abc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Math"}, courses)

	_, err = svc.Courses(gate.Identity{StudentID: "S1", AccessCode: "nope"})
	assert.ErrorIs(t, err, gate.ErrNoMatch)
}

func TestService_Overview(t *testing.T) {
	svc := newTestService()
	_, err := svc.LoadBytes(fixture, "upload")
	require.NoError(t, err)

	ov, err := svc.Overview()
	require.NoError(t, err)
	require.Len(t, ov, 1)
	assert.Equal(t, "Math", ov[0].Course)
	assert.Equal(t, 2, ov[0].Students)
}

func TestService_MemoizedNormalize(t *testing.T) {
	svc := newTestService()
	first, err := svc.LoadBytes(fixture, "upload")
	require.NoError(t, err)
	second, err := svc.LoadBytes(fixture, "upload")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID, "republishing mints a fresh snapshot")
	assert.Same(t, &first.Grades[0], &second.Grades[0], "identical bytes reuse the memoized tables")
}

func TestService_LoadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(fixture)
	}))
	defer srv.Close()

	svc := New(Options{Gate: gate.Gate{Mode: gate.ModeCredentials}, Fetcher: source.NewFetcher(0)})
	snap, err := svc.LoadURL(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "url", snap.Source)
	assert.Len(t, snap.Grades, 3)
}

func TestService_LoadURLFailureLeavesStore(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(fixture)
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer bad.Close()

	svc := New(Options{Gate: gate.Gate{Mode: gate.ModeCredentials}, Fetcher: source.NewFetcher(0)})
	first, err := svc.LoadURL(context.Background(), good.URL)
	require.NoError(t, err)

	_, err = svc.LoadURL(context.Background(), bad.URL)
	var fe *source.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusNotFound, fe.Status)

	meta, err := svc.Meta()
	require.NoError(t, err)
	assert.Equal(t, first.ID.String(), meta.SnapshotID)
}
