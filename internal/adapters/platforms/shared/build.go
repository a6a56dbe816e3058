package shared

import (
	"context"
	"sort"

	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/port"
)

// Partitions строит список районов для обхода из словаря площадки.
// Порядок детерминирован: по коду района.
func Partitions(districts map[string]string) []domain.Partition {
	codes := make([]string, 0, len(districts))
	for code := range districts {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	partitions := make([]domain.Partition, 0, len(codes))
	for _, code := range codes {
		partitions = append(partitions, domain.Partition{Code: code, Name: districts[code]})
	}
	return partitions
}

// FinalizeWithThumbnail валидирует квартиру и только для валидной скачивает фото
func FinalizeWithThumbnail(ctx context.Context, flat domain.Flat, thumbnails port.ThumbnailPort, imageURL string) domain.BuildResult {
	res := domain.Finalize(flat)
	if !res.IsOK() || thumbnails == nil || imageURL == "" {
		return res
	}
	built := res.Flat()
	built.Thumbnail = thumbnails.Thumbnail(ctx, imageURL)
	return domain.Ok(built)
}
