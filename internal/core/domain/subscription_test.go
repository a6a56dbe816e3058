package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSubscriptionMatches(t *testing.T) {
	sub := Subscription{
		TgUserID:   42,
		City:       "Rīga",
		District:   "Centrs",
		DealType:   DealTypeSell,
		RoomRange:  IntRange{Min: 2, Max: 3},
		PriceRange: DecimalRange{Min: decimal.NewFromInt(50000), Max: decimal.NewFromInt(120000)},
		AreaRange:  DecimalRange{Min: decimal.NewFromInt(30), Max: decimal.NewFromInt(80)},
		FloorRange: IntRange{Min: 1, Max: 10},
		IsActive:   true,
	}

	base := MatchCriteria{
		City:     "Rīga",
		District: "Centrs",
		DealType: DealTypeSell,
		Rooms:    2,
		Price:    decimal.NewFromInt(90000),
		Area:     decimal.NewFromInt(50),
		Floor:    3,
	}

	tests := []struct {
		name   string
		mutate func(c *MatchCriteria)
		active bool
		want   bool
	}{
		{"match", func(c *MatchCriteria) {}, true, true},
		{"price above range", func(c *MatchCriteria) { c.Price = decimal.NewFromInt(130000) }, true, false},
		{"inclusive upper bound", func(c *MatchCriteria) { c.Price = decimal.NewFromInt(120000); c.Rooms = 3 }, true, true},
		{"inclusive lower bound", func(c *MatchCriteria) { c.Area = decimal.NewFromInt(30); c.Floor = 1 }, true, true},
		{"rooms outside", func(c *MatchCriteria) { c.Rooms = 4 }, true, false},
		{"other district", func(c *MatchCriteria) { c.District = "Teika" }, true, false},
		{"unknown district", func(c *MatchCriteria) { c.District = Unknown }, true, false},
		{"other deal type", func(c *MatchCriteria) { c.DealType = DealTypeRent }, true, false},
		{"inactive", func(c *MatchCriteria) {}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			s := sub
			s.IsActive = tt.active

			if got := s.Matches(c); got != tt.want {
				t.Errorf("Matches: got %v, want %v", got, tt.want)
			}
		})
	}
}
