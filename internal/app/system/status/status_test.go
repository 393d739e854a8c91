package status

import "testing"

func TestStatusValues(t *testing.T) {
	tests := []struct {
		status    string
		valid     bool
		canSignIn bool
	}{
		{Active, true, true},
		{Disabled, true, false},
		{"ACTIVE", false, false},
		{"pending", false, false},
		{"", false, false},
	}
	for _, tt := range tests {
		if got := IsValid(tt.status); got != tt.valid {
			t.Errorf("IsValid(%q) = %v, want %v", tt.status, got, tt.valid)
		}
		if got := CanSignIn(tt.status); got != tt.canSignIn {
			t.Errorf("CanSignIn(%q) = %v, want %v", tt.status, got, tt.canSignIn)
		}
	}

	if Default() != Active {
		t.Errorf("Default() = %q, want %q", Default(), Active)
	}
	for _, s := range All() {
		if !IsValid(s) {
			t.Errorf("All() contains invalid %q", s)
		}
	}
}
