package city24

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/DaniilsFirgers/dzivoklitis/internal/adapters/platforms/shared"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/port"
)

const listingURLFormat = "https://www.city24.lv/real-estate/apartments-for-%s/riga/%s"

type BuilderAdapter struct {
	mapping    domain.ResolvedMapping
	cityCode   string
	thumbnails port.ThumbnailPort
}

func NewBuilderAdapter(mapping domain.ResolvedMapping, cityCode string, thumbnails port.ThumbnailPort) *BuilderAdapter {
	return &BuilderAdapter{mapping: mapping, cityCode: cityCode, thumbnails: thumbnails}
}

func (b *BuilderAdapter) Build(ctx context.Context, partition domain.Partition, raw domain.RawListing) domain.BuildResult {
	var r realty
	if err := json.Unmarshal(raw.Payload, &r); err != nil {
		return domain.Invalid(fmt.Errorf("city24 listing %s: %w", raw.AdID, err))
	}
	if r.FriendlyID == "" {
		return domain.Invalid(domain.NewValidationError("friendly_id", "is empty"))
	}
	if r.Attributes.Floor == nil || r.Attributes.TotalFloors == nil {
		return domain.Invalid(domain.NewValidationError("floor", "floor or total floors missing"))
	}
	if r.RoomCount == nil {
		return domain.Invalid(domain.NewValidationError("rooms", "missing"))
	}

	area := r.PropertySize.Round(domain.PriceScale)
	flat := domain.Flat{
		Source:      domain.SourceCity24,
		DealType:    b.mapping.DealType,
		City:        b.mapping.City(b.cityCode),
		District:    partition.Name,
		Street:      streetName(r.Address),
		Rooms:       *r.RoomCount,
		Area:        area,
		Floor:       *r.Attributes.Floor,
		FloorsTotal: *r.Attributes.TotalFloors,
		Series:      b.series(r.Attributes.HouseType),
		URL:         b.listingURL(r.FriendlyID),
		PublishedAt: raw.ListedAt,
		Price:       r.PricePerUnit.Mul(area),
		PricePerM2:  r.PricePerUnit,
	}
	if r.Latitude != nil {
		flat.Latitude = *r.Latitude
	}
	if r.Longitude != nil {
		flat.Longitude = *r.Longitude
	}
	flat.FixReversedFloors()

	return shared.FinalizeWithThumbnail(ctx, flat, b.thumbnails, imageURL(r.MainImage))
}

func (b *BuilderAdapter) listingURL(friendlyID string) string {
	kind := "sale"
	if b.mapping.DealType == domain.DealTypeRent {
		kind = "rent"
	}
	return fmt.Sprintf(listingURLFormat, kind, friendlyID)
}

func (b *BuilderAdapter) series(houseType []string) string {
	if len(houseType) == 0 {
		return domain.Unknown
	}
	return b.mapping.Series(houseType[0])
}

func streetName(addr realtyAddress) string {
	street := addr.StreetName.String()
	if street == "" {
		street = domain.Unknown
	}
	if house := addr.HouseNumber.String(); house != "" {
		return street + " " + house
	}
	return street
}

// imageURL подставляет формат em в шаблон адреса картинки
func imageURL(img *realtyImage) string {
	if img == nil || img.URL == nil {
		return ""
	}
	return strings.ReplaceAll(*img.URL, "{fmt:em}", "14")
}
