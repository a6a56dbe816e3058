package domain

import (
	"testing"
	"time"
)

func TestTimeframeDaysBack(t *testing.T) {
	tests := []struct {
		in      Timeframe
		want    int
		wantErr bool
	}{
		{"today", 0, false},
		{"", 0, false},
		{"today-2", 2, false},
		{"today-5", 5, false},
		{"yesterday", 0, true},
		{"today-x", 0, true},
		{"today--1", 0, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			got, err := tt.in.DaysBack()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStartOfWindow(t *testing.T) {
	riga, err := time.LoadLocation("Europe/Riga")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// 23:30 UTC 4 марта - это уже 5 марта в Риге
	now := time.Date(2024, 3, 4, 23, 30, 0, 0, time.UTC)

	got := StartOfWindow(now, riga, 0)
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, riga)
	if !got.Equal(want) {
		t.Errorf("today: got %v, want %v", got, want)
	}

	got = StartOfWindow(now, riga, 5)
	want = time.Date(2024, 2, 29, 0, 0, 0, 0, riga)
	if !got.Equal(want) {
		t.Errorf("today-5: got %v, want %v", got, want)
	}

	if got := StartOfWindow(now, nil, 0); !got.Equal(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("nil location should mean UTC, got %v", got)
	}
}
