package domain

import (
	"errors"
	"slices"
	"testing"
)

func TestSelectTargets(t *testing.T) {
	configured := []CrawlTarget{
		{SourceSS, DealTypeSell},
		{SourceSS, DealTypeRent},
		{SourceCity24, DealTypeSell},
		{SourcePP, DealTypeRent},
	}

	tests := []struct {
		name      string
		sources   []Source
		dealTypes []DealType
		want      []CrawlTarget
	}{
		{"no filter", nil, nil, configured},
		{"by source", []Source{SourceSS}, nil, configured[:2]},
		{"by deal type", nil, []DealType{DealTypeRent}, []CrawlTarget{configured[1], configured[3]}},
		{"both", []Source{SourceSS, SourcePP}, []DealType{DealTypeSell}, []CrawlTarget{configured[0]}},
		{"not configured", []Source{SourceVarianti}, nil, []CrawlTarget{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectTargets(configured, tt.sources, tt.dealTypes)
			if !slices.Equal(got, tt.want) {
				t.Errorf("SelectTargets() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTargetFilter(t *testing.T) {
	sources, deals, err := ParseTargetFilter([]string{"ss", "varianti"}, []string{"Rent"})
	if err != nil {
		t.Fatalf("ParseTargetFilter: %v", err)
	}
	if !slices.Equal(sources, []Source{SourceSS, SourceVarianti}) || !slices.Equal(deals, []DealType{DealTypeRent}) {
		t.Errorf("got %v %v", sources, deals)
	}

	if _, _, err := ParseTargetFilter([]string{"kufar"}, nil); err == nil {
		t.Error("expected error for unknown source")
	}
	if _, _, err := ParseTargetFilter(nil, []string{"sell"}); err == nil {
		t.Error("expected error for lower-case deal type")
	}
}

func TestResolveTargets(t *testing.T) {
	configured := []CrawlTarget{{SourceSS, DealTypeSell}, {SourcePP, DealTypeRent}}

	got, err := ResolveTargets(configured, nil, nil)
	if err != nil || got != nil {
		t.Errorf("empty request: got %v, %v; want nil, nil", got, err)
	}

	got, err = ResolveTargets(configured, []string{"pp"}, nil)
	if err != nil || !slices.Equal(got, configured[1:]) {
		t.Errorf("pp only: got %v, %v", got, err)
	}

	if _, err := ResolveTargets(configured, []string{"city24"}, nil); !errors.Is(err, ErrNoMatchingTargets) {
		t.Errorf("unconfigured source: err = %v, want ErrNoMatchingTargets", err)
	}
	if _, err := ResolveTargets(configured, []string{"nope"}, nil); err == nil {
		t.Error("unknown source: expected error")
	}
}
