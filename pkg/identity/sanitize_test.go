package identity

import "testing"

func TestSanitizeGUID(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"lowercases and strips hyphens", "ABC-123-DEF", "abc123def", false},
		{"drops non-alphanumeric", "abc.123!def", "abc123def", false},
		{"keeps underscores", "abc_123", "abc_123", false},
		{"empty input errors", "", "", true},
		{"punctuation-only errors", "---", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeGUID(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SanitizeGUID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("SanitizeGUID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
