package domain

// ChangeKind - результат сравнения квартиры с сохраненной историей
type ChangeKind string

const (
	ChangeNew          ChangeKind = "new"
	ChangeUnchanged    ChangeKind = "unchanged"
	ChangePriceChanged ChangeKind = "price_changed"
)

// Classification - итог работы детектора изменений.
// Prior заполняется только для PriceChanged и отсортирован от новых к старым.
type Classification struct {
	Kind  ChangeKind
	Prior []PricePoint
}

// Notifiable - нужно ли оповещать подписчиков
func (c Classification) Notifiable() bool {
	return c.Kind == ChangeNew || c.Kind == ChangePriceChanged
}
