package util

import "testing"

func TestNormalizeUsername(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "alice", "alice"},
		{"trims", "  bob\t", "bob"},
		{"fullwidth", "ａｌｉｃｅ", "alice"},
		{"ligature", "ﬁona", "fiona"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeUsername(tt.in); got != tt.want {
				t.Errorf("NormalizeUsername(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsBlank(t *testing.T) {
	if !IsBlank(" \t\n") {
		t.Error("expected whitespace to be blank")
	}
	if IsBlank(" x ") {
		t.Error("expected non-empty input to be non-blank")
	}
}
