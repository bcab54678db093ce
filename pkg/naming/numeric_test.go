package naming

import "testing"

func TestNormalizeNumeric(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"integer-valued float collapses", 213.0, "213"},
		{"fractional float keeps decimals", 213.9, "213.9"},
		{"string passes through", "213.9", "213.9"},
		{"int formats plainly", 42, "42"},
		{"nil is empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeNumeric(tt.in); got != tt.want {
				t.Errorf("NormalizeNumeric(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
