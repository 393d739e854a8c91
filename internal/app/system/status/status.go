// Package status holds the account status values for users.
package status

// Account status values.
const (
	Active   = "active"
	Disabled = "disabled"
)

// All returns every account status.
func All() []string {
	return []string{Active, Disabled}
}

// IsValid returns true if s is a recognized status value.
func IsValid(s string) bool {
	return s == Active || s == Disabled
}

// Default returns the status given to accounts created without one.
func Default() string {
	return Active
}

// CanSignIn reports whether an account in status s may hold a session.
func CanSignIn(s string) bool {
	return s == Active
}
