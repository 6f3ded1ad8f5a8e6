package workbook

import (
	"markbook/internal/schema"
)

// looksLikeCredentials reports whether the sheet's headers, after
// canonicalization, cover every credential field. Extra columns do not
// disqualify a sheet.
func looksLikeCredentials(sheet RawSheet, canon *schema.Canonicalizer, aliases schema.AliasMap) bool {
	mapped := make(map[string]bool, len(sheet.Columns))
	for _, col := range sheet.Columns {
		if name, ok := canon.Canonical(col, aliases); ok {
			mapped[name] = true
		}
	}
	for _, want := range schema.CredentialFields {
		if !mapped[want] {
			return false
		}
	}
	return true
}

// findCredentialsSheet resolves at most one credentials sheet. A sheet named
// "credentials" or "login" (case-insensitive) wins outright; otherwise the
// first sheet whose headers qualify is taken. The alias sheet never
// qualifies.
func findCredentialsSheet(sheets []RawSheet, canon *schema.Canonicalizer, aliases schema.AliasMap) (string, bool) {
	for _, s := range sheets {
		switch schema.Normalize(s.Name) {
		case "credentials", "login":
			return s.Name, true
		}
	}
	for _, s := range sheets {
		if schema.Normalize(s.Name) == aliasSheetName {
			continue
		}
		if looksLikeCredentials(s, canon, aliases) {
			return s.Name, true
		}
	}
	return "", false
}
