package usecase

import (
	"context"
	"fmt"

	"github.com/DaniilsFirgers/dzivoklitis/internal/contextkeys"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/port"
)

// NotifyMode - способ выбора получателей
type NotifyMode string

const (
	// NotifyModeFilters - поиск по фильтрам на стороне хранилища
	NotifyModeFilters NotifyMode = "filters"
	// NotifyModeMemory - все фильтры читаются и сравниваются в процессе
	NotifyModeMemory NotifyMode = "memory"
	// NotifyModeBroadcast - каждому активному пользователю
	NotifyModeBroadcast NotifyMode = "broadcast"
)

func ParseNotifyMode(s string) (NotifyMode, error) {
	switch NotifyMode(s) {
	case NotifyModeFilters, NotifyModeMemory, NotifyModeBroadcast:
		return NotifyMode(s), nil
	case "":
		return NotifyModeFilters, nil
	}
	return "", fmt.Errorf("unknown notify mode %q", s)
}

type MatchSubscribersUseCase struct {
	repo port.SubscriberRepositoryPort
	mode NotifyMode
}

func NewMatchSubscribersUseCase(repo port.SubscriberRepositoryPort, mode NotifyMode) *MatchSubscribersUseCase {
	return &MatchSubscribersUseCase{repo: repo, mode: mode}
}

// Execute никогда не возвращает ошибку: при сбое хранилища получателей просто нет
func (uc *MatchSubscribersUseCase) Execute(ctx context.Context, flat domain.Flat) []int64 {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "MatchSubscribers",
		"mode":     string(uc.mode),
		"flat_id":  flat.ID,
	})

	var (
		ids []int64
		err error
	)
	criteria := domain.CriteriaOf(flat)

	switch uc.mode {
	case NotifyModeBroadcast:
		ids, err = uc.repo.ListActiveUsers(ctx)
	case NotifyModeMemory:
		var filters []domain.Subscription
		filters, err = uc.repo.ListFilters(ctx)
		for _, f := range filters {
			if f.Matches(criteria) {
				ids = append(ids, f.TgUserID)
			}
		}
	default:
		ids, err = uc.repo.FindSubscribersForFilter(ctx, criteria)
	}

	if err != nil {
		logger.Error("Failed to look up subscribers", err, nil)
		return []int64{}
	}

	return uniqueIDs(ids)
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
