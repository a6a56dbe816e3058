package port

import (
	"context"

	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
)

// ListingFetcherPort - загрузка страниц выдачи одной площадки для одного типа сделки
type ListingFetcherPort interface {
	Target() domain.CrawlTarget
	// Partitions - районы (или весь город), которые обходятся параллельно
	Partitions() []domain.Partition
	// NewestFirst - отдает ли площадка объявления от новых к старым
	NewestFirst() bool
	FetchPage(ctx context.Context, partition domain.Partition, page int) (*domain.ListingPage, error)
}

// FlatBuilderPort - сборка канонической квартиры из сырого объявления площадки
type FlatBuilderPort interface {
	Build(ctx context.Context, partition domain.Partition, raw domain.RawListing) domain.BuildResult
}

// ThumbnailPort - загрузка и уменьшение фото. Любая ошибка дает nil.
type ThumbnailPort interface {
	Thumbnail(ctx context.Context, imageURL string) []byte
}
