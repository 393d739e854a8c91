// Package normalize holds the canonical trimming and casing rules applied to
// user input before it is stored or compared.
package normalize

import "strings"

// Email trims and lower-cases an address. It is the storage form and the key
// for lockout counters.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name and collapses inner whitespace runs.
// Use text.Fold for case-insensitive comparison keys.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Enum normalizes a closed-set value (role, status, auth method, priority).
func Enum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Phone trims a phone number and collapses inner whitespace. Punctuation is
// kept as the visitor typed it.
func Phone(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CaseReference upper-cases a firm case reference such as "hcc-12/2024".
func CaseReference(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// QueryParam trims a query parameter.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
