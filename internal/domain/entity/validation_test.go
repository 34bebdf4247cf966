package entity

import (
	"strings"
	"testing"
	"time"
)

func TestValidateFeature(t *testing.T) {
	tests := []struct {
		name    string
		feature string
		wantErr bool
	}{
		{"valid snake_case", "appeal_letter", false},
		{"valid with digits", "claim_summary_v2", false},
		{"empty", "", true},
		{"uppercase", "AppealLetter", true},
		{"spaces", "appeal letter", true},
		{"hyphen", "appeal-letter", true},
		{"too long", strings.Repeat("a", maxFeatureLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFeature(tt.feature)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFeature(%q) error = %v, wantErr %v", tt.feature, err, tt.wantErr)
			}
		})
	}
}

func TestValidateMonthKey(t *testing.T) {
	tests := []struct {
		name     string
		monthKey string
		wantErr  bool
	}{
		{"valid", "2024-01", false},
		{"valid december", "2025-12", false},
		{"empty", "", true},
		{"month out of range", "2024-13", true},
		{"missing month", "2024", true},
		{"full date", "2024-01-15", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMonthKey(tt.monthKey)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMonthKey(%q) error = %v, wantErr %v", tt.monthKey, err, tt.wantErr)
			}
		})
	}
}

func TestMonthKeyFor(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{
			name: "mid month UTC",
			at:   time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
			want: "2024-01",
		},
		{
			name: "last instant of month UTC",
			at:   time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC),
			want: "2024-01",
		},
		{
			name: "first instant of next month UTC",
			at:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			want: "2024-02",
		},
		{
			name: "local time past UTC month boundary",
			at:   time.Date(2024, 1, 31, 23, 30, 0, 0, time.FixedZone("EST", -5*3600)),
			want: "2024-02",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthKeyFor(tt.at); got != tt.want {
				t.Errorf("MonthKeyFor(%v) = %q, want %q", tt.at, got, tt.want)
			}
		})
	}
}
