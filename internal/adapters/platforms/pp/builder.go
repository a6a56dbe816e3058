package pp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/DaniilsFirgers/dzivoklitis/internal/adapters/platforms/shared"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/port"
)

const thumbnailURLFormat = "https://img.pp.lv/storage/%s/%s/%s/32.%s"

type BuilderAdapter struct {
	mapping    domain.ResolvedMapping
	cityCode   string
	thumbnails port.ThumbnailPort
}

func NewBuilderAdapter(mapping domain.ResolvedMapping, cityCode string, thumbnails port.ThumbnailPort) *BuilderAdapter {
	return &BuilderAdapter{mapping: mapping, cityCode: cityCode, thumbnails: thumbnails}
}

// Build не меняет этажи местами: у pp.lv этаж выше этажности считается ошибкой данных
func (b *BuilderAdapter) Build(ctx context.Context, _ domain.Partition, raw domain.RawListing) domain.BuildResult {
	var l lot
	if err := json.Unmarshal(raw.Payload, &l); err != nil {
		return domain.Invalid(fmt.Errorf("pp listing %s: %w", raw.AdID, err))
	}

	full, square := priceTypes(b.mapping.DealType)
	street := strings.TrimSpace(l.PublicLocation.Address)
	if street == "" {
		street = domain.Unknown
	}

	flat := domain.Flat{
		Source:      domain.SourcePP,
		DealType:    b.mapping.DealType,
		City:        b.mapping.City(b.cityCode),
		District:    b.district(l),
		Street:      street,
		Rooms:       shared.ParseInt(l.text(filterRooms, "0")),
		Area:        shared.ParseDecimal(l.text(filterArea, "0")).Round(domain.PriceScale),
		Floor:       shared.ParseInt(l.text(filterFloor, "0")),
		FloorsTotal: shared.ParseInt(l.text(filterFloorsTotal, "1")),
		Series:      b.series(l),
		URL:         l.FrontURL,
		PublishedAt: raw.ListedAt,
		Price:       l.price(full),
		PricePerM2:  l.price(square),
	}
	if l.PublicLocation.CoordinateY != nil {
		flat.Latitude = *l.PublicLocation.CoordinateY
	}
	if l.PublicLocation.CoordinateX != nil {
		flat.Longitude = *l.PublicLocation.CoordinateX
	}

	return shared.FinalizeWithThumbnail(ctx, flat, b.thumbnails, thumbnailURL(l.Thumbnail))
}

func (b *BuilderAdapter) district(l lot) string {
	if l.PublicLocation.Region.ID == nil {
		return domain.Unknown
	}
	return b.mapping.District(strconv.Itoa(*l.PublicLocation.Region.ID))
}

func (b *BuilderAdapter) series(l lot) string {
	f, ok := l.filter(filterSeries)
	if !ok || f.Value == nil || f.Value.ID == nil {
		return domain.Unknown
	}
	return b.mapping.Series(strconv.Itoa(*f.Value.ID))
}

func thumbnailURL(t *thumbnail) string {
	if t == nil || len(t.StorageID) < 4 || t.Extension == "" {
		return ""
	}
	return fmt.Sprintf(thumbnailURLFormat, t.StorageID[0:2], t.StorageID[2:4], t.StorageID, t.Extension)
}
