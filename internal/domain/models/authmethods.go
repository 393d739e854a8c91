// internal/domain/models/authmethods.go
package models

// AuthMethod represents a sign-in method.
type AuthMethod struct {
	Value string // stored value
	Label string // display label
}

// AllAuthMethods lists the supported sign-in methods.
var AllAuthMethods = []AuthMethod{
	{Value: "password", Label: "Password"},
	{Value: "google", Label: "Google"},
}

// Auth method values.
const (
	AuthMethodPassword = "password"
	AuthMethodGoogle   = "google"
)

// IsValidAuthMethod checks if a value is a valid auth method.
func IsValidAuthMethod(value string) bool {
	for _, m := range AllAuthMethods {
		if m.Value == value {
			return true
		}
	}
	return false
}

// AllAuthMethodValues returns all auth method values as a slice.
func AllAuthMethodValues() []string {
	values := make([]string, len(AllAuthMethods))
	for i, m := range AllAuthMethods {
		values[i] = m.Value
	}
	return values
}
