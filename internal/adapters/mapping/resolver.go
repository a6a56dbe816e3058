package mapping

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/port"
)

// Resolver превращает двухуровневый маппинг (код -> id справочника -> имя) в плоские словари площадки
type Resolver struct {
	table  *domain.MappingTable
	logger port.LoggerPort
}

func NewResolver(table *domain.MappingTable, logger port.LoggerPort) (*Resolver, error) {
	if table == nil {
		return nil, fmt.Errorf("mapping table cannot be nil")
	}
	return &Resolver{
		table:  table,
		logger: logger.WithFields(port.Fields{"component": "MappingResolver"}),
	}, nil
}

// Resolve строит словари площадки для заданного типа сделки.
// Коды с неизвестным id справочника отбрасываются с предупреждением.
// Если для типа сделки нет кода площадки, возвращается domain.ErrUnknownDealType.
func (r *Resolver) Resolve(source domain.Source, dealType domain.DealType) (domain.ResolvedMapping, error) {
	platform, ok := r.table.Platforms[source]
	if !ok {
		return domain.ResolvedMapping{}, fmt.Errorf("%w: %s", domain.ErrUnknownSource, source)
	}

	logger := r.logger.WithFields(port.Fields{"source": string(source)})
	resolved := domain.ResolvedMapping{
		Source:         source,
		DealType:       dealType,
		Cities:         r.resolveDict(logger, "cities", platform.Cities),
		Districts:      r.resolveDict(logger, "districts", platform.Districts),
		DealTypes:      r.resolveDict(logger, "deal_types", platform.DealTypes),
		BuildingSeries: r.resolveDict(logger, "building_series", platform.BuildingSeries),
	}

	code, err := reverseLookup(resolved.DealTypes, string(dealType))
	if err != nil {
		return domain.ResolvedMapping{}, fmt.Errorf("%s/%s: %w", source, dealType, err)
	}
	resolved.PlatformDealTypeCode = code

	return resolved, nil
}

func (r *Resolver) resolveDict(logger port.LoggerPort, name string, dict map[string]string) map[string]string {
	out := make(map[string]string, len(dict))
	for code, refID := range dict {
		canonical, ok := r.table.Reference[refID]
		if !ok {
			logger.Warn("Dropping external code with unknown reference id", port.Fields{
				"dictionary":   name,
				"code":         code,
				"reference_id": refID,
			})
			continue
		}
		out[code] = normalizeName(canonical)
	}
	return out
}

// reverseLookup ищет код площадки, чье каноническое имя совпадает с целевым.
// При нескольких кандидатах берется наименьший код, чтобы результат не зависел от порядка map.
func reverseLookup(dict map[string]string, target string) (string, error) {
	var candidates []string
	for code, name := range dict {
		if name == target {
			candidates = append(candidates, code)
		}
	}
	if len(candidates) == 0 {
		return "", domain.ErrUnknownDealType
	}
	sort.Strings(candidates)
	return candidates[0], nil
}

func normalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
