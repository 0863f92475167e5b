package errors

import (
	"math"
	"strings"
	"testing"
)

func TestValidatePositive(t *testing.T) {
	tests := []struct {
		name    string
		input   float64
		wantErr bool
	}{
		{"positive", 0.1, false},
		{"large", 1e6, false},
		{"zero", 0, true},
		{"negative", -0.3, true},
		{"nan", math.NaN(), true},
		{"inf", math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositive("resolution", tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePositive(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("expected INVALID_INPUT, got %v", GetCode(err))
			}
		})
	}
}

func TestValidateNonNegative(t *testing.T) {
	if err := ValidateNonNegative("robot radius", 0); err != nil {
		t.Errorf("zero should be accepted: %v", err)
	}
	if err := ValidateNonNegative("robot radius", -1); err == nil {
		t.Error("negative should be rejected")
	}
	if err := ValidateNonNegative("robot radius", math.NaN()); err == nil {
		t.Error("NaN should be rejected")
	}
}

func TestValidateCount(t *testing.T) {
	if err := ValidateCount("clusters", 0); err != nil {
		t.Errorf("zero should be accepted: %v", err)
	}
	if err := ValidateCount("clusters", -2); err == nil {
		t.Error("negative should be rejected")
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "assets/map_layout.txt", false},
		{"absolute", "/tmp/poi.json", false},
		{"empty", "", true},
		{"blank", "   ", true},
		{"too long", strings.Repeat("a", 501), true},
		{"null byte", "map\x00.txt", true},
		{"newline", "map\n.txt", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
