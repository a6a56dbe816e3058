package ss

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DaniilsFirgers/dzivoklitis/internal/adapters/platforms/shared"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/port"
)

// streetPrefix - сокращения вида "iela." и "prosp." перед названием улицы
var streetPrefix = regexp.MustCompile(`\b[A-Za-z]{1,7}\.\s*`)

// BuilderAdapter собирает каноническую квартиру из строки таблицы ss.lv
type BuilderAdapter struct {
	mapping    domain.ResolvedMapping
	cityCode   string
	thumbnails port.ThumbnailPort
	now        func() time.Time
}

func NewBuilderAdapter(mapping domain.ResolvedMapping, cityCode string, thumbnails port.ThumbnailPort) *BuilderAdapter {
	return &BuilderAdapter{
		mapping:    mapping,
		cityCode:   cityCode,
		thumbnails: thumbnails,
		now:        time.Now,
	}
}

func (b *BuilderAdapter) Build(ctx context.Context, partition domain.Partition, raw domain.RawListing) domain.BuildResult {
	var row listingRow
	if err := json.Unmarshal(raw.Payload, &row); err != nil {
		return domain.Invalid(fmt.Errorf("ss listing %s: %w", raw.AdID, err))
	}
	if len(row.Cells) != cellsPerRow {
		return domain.Invalid(domain.NewValidationError("cells", "expected %d, got %d", cellsPerRow, len(row.Cells)))
	}

	floor, floorsTotal, err := parseFloors(row.Cells[3])
	if err != nil {
		return domain.Invalid(err)
	}

	flat := domain.Flat{
		Source:      domain.SourceSS,
		DealType:    b.mapping.DealType,
		City:        b.mapping.City(b.cityCode),
		District:    partition.Name,
		Street:      cleanStreet(row.Cells[0]),
		Rooms:       shared.ParseInt(row.Cells[1]),
		Area:        shared.ParseDecimal(row.Cells[2]).Round(domain.PriceScale),
		Floor:       floor,
		FloorsTotal: floorsTotal,
		Series:      b.mapping.Series(row.Cells[4]),
		URL:         row.URL,
		PublishedAt: b.now().UTC(),
		Price:       b.parsePrice(row.Cells[6]),
		PricePerM2:  shared.ParseDecimal(shared.DigitsAndDots(row.Cells[5])),
	}
	flat.FixReversedFloors()

	return shared.FinalizeWithThumbnail(ctx, flat, b.thumbnails, row.ImageURL)
}

// parsePrice - у аренды в ячейке "350 €/mēn.", точку из "mēn." брать нельзя
func (b *BuilderAdapter) parsePrice(cell string) decimal.Decimal {
	if b.mapping.DealType == domain.DealTypeRent {
		return shared.ParseDecimal(shared.DigitsOnly(cell))
	}
	return shared.ParseDecimal(shared.DigitsAndDots(cell))
}

func cleanStreet(cell string) string {
	street := strings.TrimSpace(streetPrefix.ReplaceAllString(cell, ""))
	if street == "" {
		return domain.Unknown
	}
	return street
}

func parseFloors(cell string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(cell), "/")
	if len(parts) != 2 {
		return 0, 0, domain.NewValidationError("floor", "unexpected format %q", cell)
	}
	floor, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, domain.NewValidationError("floor", "unexpected format %q", cell)
	}
	total, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, domain.NewValidationError("floors_total", "unexpected format %q", cell)
	}
	return floor, total, nil
}
