package domain

import "testing"

func TestValidIndicativo(t *testing.T) {
	tests := []struct {
		indicativo string
		want       bool
	}{
		{"57", true},
		{"1", true},
		{"1809", true},
		{"", false},
		{"12345", false},
		{"+57", false},
		{"5a", false},
		{" 57", false},
	}
	for _, tt := range tests {
		if got := ValidIndicativo(tt.indicativo); got != tt.want {
			t.Errorf("ValidIndicativo(%q) = %v, want %v", tt.indicativo, got, tt.want)
		}
	}
}
