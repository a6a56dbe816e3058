package varianti

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

const listingURLFormat = "https://www.varianti.lv/lv/detail/%s/"

type BuilderAdapter struct {
	mapping    domain.ResolvedMapping
	cityCode   string
	thumbnails port.ThumbnailPort
}

func NewBuilderAdapter(mapping domain.ResolvedMapping, cityCode string, thumbnails port.ThumbnailPort) *BuilderAdapter {
	return &BuilderAdapter{mapping: mapping, cityCode: cityCode, thumbnails: thumbnails}
}

// Build требует все числовые поля объекта. Этажи не меняются местами.
func (b *BuilderAdapter) Build(ctx context.Context, partition domain.Partition, raw domain.RawListing) domain.BuildResult {
	var a ad
	if err := json.Unmarshal(raw.Payload, &a); err != nil {
		return domain.Invalid(fmt.Errorf("varianti listing %s: %w", raw.AdID, err))
	}
	if a.ID.String() == "" {
		return domain.Invalid(domain.NewValidationError("id", "is empty"))
	}

	obj := a.Object
	switch {
	case obj.Area == nil:
		return domain.Invalid(domain.NewValidationError("area", "missing"))
	case obj.Price == nil:
		return domain.Invalid(domain.NewValidationError("price", "missing"))
	case obj.PricePerM == nil:
		return domain.Invalid(domain.NewValidationError("price_per_m", "missing"))
	case obj.RoomsCount == nil:
		return domain.Invalid(domain.NewValidationError("rooms", "missing"))
	case obj.Floor == nil:
		return domain.Invalid(domain.NewValidationError("floor", "missing"))
	case obj.FloorsCount == nil:
		return domain.Invalid(domain.NewValidationError("floors_total", "missing"))
	}

	flat := domain.Flat{
		Source:      domain.SourceVarianti,
		DealType:    b.mapping.DealType,
		City:        b.mapping.City(b.cityCode),
		District:    partition.Name,
		Street:      streetName(a.AddressName),
		Rooms:       *obj.RoomsCount,
		Area:        obj.Area.Round(1),
		Floor:       *obj.Floor,
		FloorsTotal: *obj.FloorsCount,
		Series:      b.series(obj.FlatBuildingType),
		URL:         fmt.Sprintf(listingURLFormat, a.ID.String()),
		PublishedAt: shared.FromUnixMillis(obj.DateCreate),
		Price:       *obj.Price,
		PricePerM2:  *obj.PricePerM,
	}
	if a.Latitude != nil {
		flat.Latitude = *a.Latitude
	}
	if a.Longitude != nil {
		flat.Longitude = *a.Longitude
	}

	var image string
	if len(a.Images) > 0 {
		image = a.Images[0].Small
	}
	return shared.FinalizeWithThumbnail(ctx, flat, b.thumbnails, image)
}

func (b *BuilderAdapter) series(buildingType *int) string {
	if buildingType == nil {
		return domain.Unknown
	}
	return b.mapping.Series(strconv.Itoa(*buildingType))
}

// streetName берет улицу и дом из "Город, Улица, Дом"
func streetName(addressName string) string {
	parts := strings.Split(addressName, ",")
	if len(parts) != 3 {
		return domain.Unknown
	}
	return strings.TrimSpace(parts[1]) + " " + strings.TrimSpace(parts[2])
}
