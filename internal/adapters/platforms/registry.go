package platforms

import (
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/DaniilsFirgers/dzivoklitis/internal/adapters/platforms/city24"
	"github.com/DaniilsFirgers/dzivoklitis/internal/adapters/platforms/pp"
	"github.com/DaniilsFirgers/dzivoklitis/internal/adapters/platforms/ss"
	"github.com/DaniilsFirgers/dzivoklitis/internal/adapters/platforms/varianti"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/port"
)

// SourceOptions - параметры площадки из конфигурации обходчика
type SourceOptions struct {
	CityCode  string
	Timeframe domain.Timeframe
	// BaseURL переопределяет адрес площадки (тесты, зеркала)
	BaseURL     string
	WindowStart func() time.Time
}

// NewSource собирает загрузчик и билдер для пары площадка + тип сделки.
// collector общий для всех типов сделки одной площадки.
func NewSource(
	collector *colly.Collector,
	mapping domain.ResolvedMapping,
	opts SourceOptions,
	thumbnails port.ThumbnailPort,
) (port.ListingFetcherPort, port.FlatBuilderPort, error) {
	if opts.WindowStart == nil {
		return nil, nil, fmt.Errorf("source %s: window start is required", mapping.Source)
	}

	switch mapping.Source {
	case domain.SourceSS:
		return ss.NewFetcherAdapter(collector, opts.BaseURL, mapping, opts.CityCode, opts.Timeframe),
			ss.NewBuilderAdapter(mapping, opts.CityCode, thumbnails), nil
	case domain.SourceCity24:
		return city24.NewFetcherAdapter(collector, opts.BaseURL, mapping, opts.CityCode, opts.WindowStart),
			city24.NewBuilderAdapter(mapping, opts.CityCode, thumbnails), nil
	case domain.SourcePP:
		return pp.NewFetcherAdapter(collector, opts.BaseURL, mapping, opts.CityCode),
			pp.NewBuilderAdapter(mapping, opts.CityCode, thumbnails), nil
	case domain.SourceVarianti:
		return varianti.NewFetcherAdapter(collector, opts.BaseURL, mapping),
			varianti.NewBuilderAdapter(mapping, opts.CityCode, thumbnails), nil
	}
	return nil, nil, fmt.Errorf("%w: %s", domain.ErrUnknownSource, mapping.Source)
}
