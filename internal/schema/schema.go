// Package schema owns the canonical column vocabulary and the header
// canonicalization rules that reconcile teacher-authored sheets into it.
package schema

import (
	"strings"

	"markbook/internal/logger"
)

// Canonical field names. The vocabulary is fixed; sheets may only vary in
// how they spell these.
const (
	FieldStudentID  = "student id"
	FieldAccessCode = "access code"
	FieldFirstName  = "first name"
	FieldLastName   = "last name"
	FieldCourse     = "course"
	FieldTerm       = "term"
	FieldAssessment = "assessment"
	FieldScore      = "score"
	FieldOutOf      = "out of"
	FieldWeight     = "weight"
	FieldSecret     = "secret"
)

// fieldOrder fixes the scan order for synonym registration so that a
// spelling claimed by two fields always resolves the same way.
var fieldOrder = []string{
	FieldStudentID,
	FieldAccessCode,
	FieldFirstName,
	FieldLastName,
	FieldCourse,
	FieldTerm,
	FieldAssessment,
	FieldScore,
	FieldOutOf,
	FieldWeight,
	FieldSecret,
}

// builtinSynonyms lists the recognized spellings per canonical field. The
// canonical name itself is always a member.
var builtinSynonyms = map[string][]string{
	FieldStudentID:  {"student id", "id", "sid", "student_number", "student num", "studentno", "student#"},
	FieldAccessCode: {"access code", "code", "login code", "passcode", "access_code"},
	FieldFirstName:  {"first name", "first", "given"},
	FieldLastName:   {"last name", "last", "family", "surname"},
	FieldCourse:     {"course", "class", "section"},
	FieldTerm:       {"term", "semester", "session"},
	FieldAssessment: {"assessment", "assignment", "quiz", "test", "task", "name"},
	FieldScore:      {"score", "mark", "points", "grade"},
	FieldOutOf:      {"out of", "max", "total", "points possible", "denominator"},
	FieldWeight:     {"weight", "weight %", "%", "percent", "percentage"},
	FieldSecret:     {"secret", "pin", "dob_last4"},
}

// GradeFields are the canonical columns every grade sheet is normalized to,
// in output order.
var GradeFields = []string{
	FieldStudentID,
	FieldFirstName,
	FieldLastName,
	FieldCourse,
	FieldTerm,
	FieldAssessment,
	FieldScore,
	FieldOutOf,
	FieldWeight,
	FieldSecret,
}

// CredentialFields are the canonical columns a credentials sheet must cover.
var CredentialFields = []string{FieldStudentID, FieldAccessCode}

// Fields returns the canonical vocabulary in fixed order.
func Fields() []string {
	out := make([]string, len(fieldOrder))
	copy(out, fieldOrder)
	return out
}

// IsField reports whether name (lowercased, trimmed) is a vocabulary member.
func IsField(name string) bool {
	name = Normalize(name)
	_, ok := builtinSynonyms[name]
	return ok
}

// Normalize applies the comparison form used throughout: trimmed, lowercased.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// AliasMap maps a lowercase custom header spelling to the canonical field it
// should resolve to. Built per workbook from the _aliases sheet; entries
// outrank every synonym.
type AliasMap map[string]string

// Canonicalizer resolves header spellings to canonical fields through an
// inverted index built once per vocabulary snapshot.
type Canonicalizer struct {
	index   map[string]string
	version int64
}

// NewCanonicalizer builds the inverted index from the builtin synonyms plus
// registry extras. Builtin spellings always win; an extra spelling already
// claimed elsewhere is skipped with a warning. version tags the vocabulary
// snapshot the index was built from (0 = builtins only).
func NewCanonicalizer(extras map[string][]string, version int64) *Canonicalizer {
	index := make(map[string]string, 64)
	for _, field := range fieldOrder {
		index[field] = field
		for _, syn := range builtinSynonyms[field] {
			index[Normalize(syn)] = field
		}
	}
	for _, field := range fieldOrder {
		for _, syn := range extras[field] {
			s := Normalize(syn)
			if s == "" {
				continue
			}
			if prev, ok := index[s]; ok {
				if prev != field {
					logger.Warnf("[vocab] spelling %q already maps to %q, extra mapping to %q ignored", s, prev, field)
				}
				continue
			}
			index[s] = field
		}
	}
	return &Canonicalizer{index: index, version: version}
}

// Version returns the vocabulary snapshot version the index was built from.
func (c *Canonicalizer) Version() int64 {
	if c == nil {
		return 0
	}
	return c.version
}

// Canonical resolves a raw header to its canonical field. Alias entries take
// precedence over synonyms; matching is exact on the normalized spelling, no
// fuzzy matching. The second return value is false for unrecognized headers.
func (c *Canonicalizer) Canonical(header string, aliases AliasMap) (string, bool) {
	h := Normalize(header)
	if h == "" {
		return "", false
	}
	if canon, ok := aliases[h]; ok {
		return canon, true
	}
	if c == nil {
		return "", false
	}
	canon, ok := c.index[h]
	return canon, ok
}
