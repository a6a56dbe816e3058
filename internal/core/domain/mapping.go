package domain

// PlatformMapping - словари одной площадки: внешний код -> id из общего справочника
type PlatformMapping struct {
	Cities         map[string]string `json:"cities"`
	Districts      map[string]string `json:"districts"`
	DealTypes      map[string]string `json:"deal_types"`
	BuildingSeries map[string]string `json:"building_series"`
}

// MappingTable - весь файл маппинга: общий справочник и словари по площадкам
type MappingTable struct {
	Reference map[string]string          `json:"reference"`
	Platforms map[Source]PlatformMapping `json:"platforms"`
}

// ResolvedMapping - словари площадки, разрешенные сразу в канонические имена.
// Создается один раз при сборке адаптера и дальше только читается.
type ResolvedMapping struct {
	Source               Source
	DealType             DealType
	PlatformDealTypeCode string

	Cities         map[string]string
	Districts      map[string]string
	DealTypes      map[string]string
	BuildingSeries map[string]string
}

func lookup(dict map[string]string, code string) string {
	if name, ok := dict[code]; ok && name != "" {
		return name
	}
	return Unknown
}

func (m ResolvedMapping) City(code string) string {
	return lookup(m.Cities, code)
}

func (m ResolvedMapping) District(code string) string {
	return lookup(m.Districts, code)
}

func (m ResolvedMapping) Series(code string) string {
	return lookup(m.BuildingSeries, code)
}
