package normalize

import "testing"

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user@example.com", "user@example.com"},
		{"User@Example.Com", "user@example.com"},
		{"\tuser@example.com\n", "user@example.com"},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := Email(tt.input); got != tt.want {
			t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Collins Sang", "Collins Sang"},
		{"  Collins   K.  Sang ", "Collins K. Sang"},
		{"Wanjiru\tKamau", "Wanjiru Kamau"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Name(tt.input); got != tt.want {
			t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestEnum(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"admin", "admin"},
		{" ADMIN ", "admin"},
		{"Active", "active"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Enum(tt.input); got != tt.want {
			t.Errorf("Enum(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestPhoneAndCaseReference(t *testing.T) {
	if got := Phone("  +254  718 076   309 "); got != "+254 718 076 309" {
		t.Errorf("Phone() = %q", got)
	}
	if got := CaseReference(" hcc-12/2024 "); got != "HCC-12/2024" {
		t.Errorf("CaseReference() = %q", got)
	}
	if got := QueryParam("  land  "); got != "land" {
		t.Errorf("QueryParam() = %q", got)
	}
}
