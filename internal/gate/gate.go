// Package gate decides whether a login claim is accepted and which grade
// rows it may see. Authorization and row selection are separate steps so
// callers can tell a rejected login apart from an accepted one with no rows.
package gate

import (
	"errors"
	"strings"

	"markbook/internal/report"
	"markbook/internal/workbook"
)

// Mode selects how access codes are checked.
type Mode string

const (
	// ModeCredentials checks the workbook's credentials table.
	ModeCredentials Mode = "credentials"
	// ModeShared checks one installation-wide access code.
	ModeShared Mode = "shared"
	// ModeOpen skips access code checks entirely.
	ModeOpen Mode = "open"
)

var (
	// ErrNoMatch rejects a login without saying which half failed.
	ErrNoMatch = errors.New("invalid student id or access code")
	// ErrCredentialsUnavailable means credentials mode is on but the loaded
	// workbook has no usable credentials table.
	ErrCredentialsUnavailable = errors.New("credentials table unavailable")
)

// Identity is one login attempt as supplied by the client, untrimmed.
type Identity struct {
	StudentID  string
	AccessCode string
	Secret     string
	Course     string
}

// Gate evaluates logins. The zero value behaves like credentials mode with
// the secret filter off.
type Gate struct {
	Mode          Mode
	SharedCode    string
	RequireSecret bool
}

// Authorize checks the access claim only. Student ids compare trimmed and
// case-insensitive; access codes compare trimmed but case-sensitive, and an
// empty stored code matches an empty supplied one.
func (g Gate) Authorize(id Identity, creds workbook.CredentialsTable) error {
	switch g.Mode {
	case ModeShared:
		if strings.TrimSpace(id.AccessCode) != strings.TrimSpace(g.SharedCode) {
			return ErrNoMatch
		}
		return nil
	case ModeOpen:
		return nil
	default:
		if len(creds) == 0 {
			return ErrCredentialsUnavailable
		}
		sid := normalizeID(id.StudentID)
		code := strings.TrimSpace(id.AccessCode)
		for _, c := range creds {
			if normalizeID(c.StudentID) == sid && c.AccessCode == code {
				return nil
			}
		}
		return ErrNoMatch
	}
}

// Rows selects the identity's grade rows after a successful Authorize. The
// secret filter, when enabled, drops rows whose secret is present but does
// not match case-insensitively; rows without a secret always pass, so the
// filter narrows rather than gates. A non-empty course narrows to that
// course; the unspecified label selects rows with an empty course cell.
func (g Gate) Rows(id Identity, grades workbook.GradeTable) workbook.GradeTable {
	sid := normalizeID(id.StudentID)
	secret := strings.ToLower(strings.TrimSpace(id.Secret))
	byCourse := id.Course != ""
	course := id.Course
	if course == report.UnspecifiedCourse {
		course = ""
	}

	out := workbook.GradeTable{}
	for _, r := range grades {
		if normalizeID(r.StudentID) != sid {
			continue
		}
		if g.RequireSecret && r.Secret != "" && strings.ToLower(r.Secret) != secret {
			continue
		}
		if byCourse && r.Course != course {
			continue
		}
		out = append(out, r)
	}
	return out
}

func normalizeID(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
