package randx

import "testing"

func TestConnectionIDUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)

	for range 1000 {
		id := ConnectionID()
		if !IsValidConnectionID(id) {
			t.Fatalf("ConnectionID() = %q, not a valid connection id", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("ConnectionID() returned duplicate %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestIsValidConnectionID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"", false},
		{"not-a-uuid", false},
		{"6ba7b810-9dad-11d1-80b4-00c04fd430c8", false},
		{"{f47ac10b-58cc-4372-a567-0e02b2c3d479}", false},
		{"f47ac10b-58cc-4372-a567-0e02b2c3d479", true},
	}

	for _, tt := range tests {
		if got := IsValidConnectionID(tt.id); got != tt.want {
			t.Errorf("IsValidConnectionID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
