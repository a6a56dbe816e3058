package shared

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"3", 3},
		{" 12 ", 12},
		{"", 0},
		{"Citi", 0},
		{"2.5", 0},
	}
	for _, tt := range tests {
		if got := ParseInt(tt.in); got != tt.want {
			t.Errorf("ParseInt(%q): got %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"54.3", "54.3"},
		{"54,3", "54.3"},
		{"abc", "0"},
		{"", "0"},
	}
	for _, tt := range tests {
		if got := ParseDecimal(tt.in); !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("ParseDecimal(%q): got %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDigitFilters(t *testing.T) {
	if got := DigitsOnly("1 250 €/mēn."); got != "1250" {
		t.Errorf("DigitsOnly: got %q", got)
	}
	if got := DigitsAndDots("85,000 €"); got != "85000" {
		t.Errorf("DigitsAndDots: got %q", got)
	}
	if got := DigitsAndDots("1 234.5 €"); got != "1234.5" {
		t.Errorf("DigitsAndDots: got %q", got)
	}
}

func TestParseTimeUTC(t *testing.T) {
	got := ParseTimeUTC("2024-03-05T10:15:00+02:00")
	want := time.Date(2024, 3, 5, 8, 15, 0, 0, time.UTC)
	if !got.Equal(want) || got.Location() != time.UTC {
		t.Errorf("got %v, want %v", got, want)
	}
	if !ParseTimeUTC("yesterday").IsZero() {
		t.Error("garbage should give zero time")
	}
	if !FromUnixMillis(0).IsZero() {
		t.Error("zero millis should give zero time")
	}
	if got := FromUnixMillis(1709633700000); !got.Equal(time.Date(2024, 3, 5, 10, 15, 0, 0, time.UTC)) {
		t.Errorf("FromUnixMillis: got %v", got)
	}
}

func TestFlexString(t *testing.T) {
	var v struct {
		A FlexString `json:"a"`
		B FlexString `json:"b"`
		C FlexString `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":"12a","b":54.5,"c":null}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.A.String() != "12a" || v.B.String() != "54.5" || v.C.String() != "" {
		t.Errorf("got %q %q %q", v.A, v.B, v.C)
	}
}
