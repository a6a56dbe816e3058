package shared

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
)

type stubThumbnails struct {
	calls []string
}

func (s *stubThumbnails) Thumbnail(_ context.Context, imageURL string) []byte {
	s.calls = append(s.calls, imageURL)
	return []byte("jpeg")
}

func TestPartitionsSortedByCode(t *testing.T) {
	got := Partitions(map[string]string{"teika": "Teika", "centre": "Centre", "agenskalns": "Agenskalns"})
	want := []string{"agenskalns", "centre", "teika"}
	if len(got) != len(want) {
		t.Fatalf("got %d partitions, want %d", len(got), len(want))
	}
	for i, code := range want {
		if got[i].Code != code {
			t.Errorf("partition %d: got %q, want %q", i, got[i].Code, code)
		}
	}
	if got[1].Name != "Centre" {
		t.Errorf("name not carried: %+v", got[1])
	}
}

func TestFinalizeWithThumbnail(t *testing.T) {
	valid := domain.Flat{
		Source: domain.SourceSS, DealType: domain.DealTypeSell, District: "Centre", Street: "Brivibas 1",
		Rooms: 2, Area: decimal.NewFromInt(50), Floor: 2, FloorsTotal: 5,
		Price: decimal.NewFromInt(90000), URL: "https://www.ss.lv/msg/1.html",
	}

	thumbs := &stubThumbnails{}
	res := FinalizeWithThumbnail(context.Background(), valid, thumbs, "https://i.ss.lv/1.800.jpg")
	if !res.IsOK() {
		t.Fatalf("expected ok, got %v", res.Reason())
	}
	if string(res.Flat().Thumbnail) != "jpeg" || res.Flat().ID == "" {
		t.Errorf("thumbnail or id missing: %+v", res.Flat())
	}

	invalid := valid
	invalid.Rooms = 0
	res = FinalizeWithThumbnail(context.Background(), invalid, thumbs, "https://i.ss.lv/2.800.jpg")
	if res.IsOK() {
		t.Fatal("expected invalid result")
	}
	if len(thumbs.calls) != 1 {
		t.Errorf("thumbnail must be fetched only for valid flats, calls: %v", thumbs.calls)
	}
}
