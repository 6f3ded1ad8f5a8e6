package gradebook

import "errors"

var (
	// ErrNoWorkbook means nothing has been loaded yet, or every load so far
	// has failed.
	ErrNoWorkbook = errors.New("no workbook loaded")
	// ErrMissingStudentID rejects lookups with a blank student id before
	// any mode check runs.
	ErrMissingStudentID = errors.New("student id is required")
)

// User-facing login strings, kept identical across the API and the CLI. The
// invalid message deliberately does not say which half of the login failed.
const (
	MsgInvalidLogin = "Invalid Student ID or Access Code."
	MsgNoRows       = "Login OK, but no grade rows were found for this Student ID."
)
