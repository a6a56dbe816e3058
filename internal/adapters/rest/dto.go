package rest

import (
	"time"

	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
)

type StartCrawlRequestDTO struct {
	Sources   []string `json:"sources"`
	DealTypes []string `json:"deal_types"`
}

type StartCrawlResponseDTO struct {
	RunID string `json:"run_id"`
}

type CrawlRunDTO struct {
	RunID      string            `json:"run_id"`
	Source     string            `json:"source"`
	DealType   string            `json:"deal_type"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Stats      domain.CrawlStats `json:"stats"`
}

func toCrawlRunDTO(run domain.CrawlRun) CrawlRunDTO {
	return CrawlRunDTO{
		RunID:      run.RunID.String(),
		Source:     string(run.Target.Source),
		DealType:   string(run.Target.DealType),
		StartedAt:  run.StartedAt.UTC(),
		FinishedAt: run.FinishedAt.UTC(),
		Stats:      run.Stats,
	}
}
