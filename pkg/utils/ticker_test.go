package utils

import "testing"

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"AAPL", "AAPL"},
		{"aapl", "AAPL"},
		{" msft ", "MSFT"},
		{"$TSLA", "TSLA"},
		{"brk.b", "BRK.B"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := NormalizeTicker(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeTicker(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestIsAlphanumeric(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"AAPL", true},
		{"aapl", true},
		{"X1", true},
		{"", false},
		{"BRK.B", false},
		{"AA PL", false},
		{"AAPL/../x", false},
		{"ÄPL", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsAlphanumeric(tt.input); got != tt.expected {
				t.Errorf("IsAlphanumeric(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIsDigits(t *testing.T) {
	if !IsDigits("1672531200000") {
		t.Error("expected epoch millis to be digits")
	}
	for _, s := range []string{"", "12a", "-1", "1.5"} {
		if IsDigits(s) {
			t.Errorf("IsDigits(%q) = true, want false", s)
		}
	}
}
