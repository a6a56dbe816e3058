package domain

// BuildResult - результат сборки канонической записи из сырого объявления.
// Либо Ok с квартирой, либо Invalid с причиной; исключений для пропуска записи нет.
type BuildResult struct {
	flat   *Flat
	reason error
}

func Ok(flat Flat) BuildResult {
	return BuildResult{flat: &flat}
}

func Invalid(reason error) BuildResult {
	if reason == nil {
		reason = NewValidationError("listing", "rejected without reason")
	}
	return BuildResult{reason: reason}
}

func (r BuildResult) IsOK() bool {
	return r.flat != nil
}

// Flat возвращает собранную квартиру. Для Invalid возвращается нулевое значение.
func (r BuildResult) Flat() Flat {
	if r.flat == nil {
		return Flat{}
	}
	return *r.flat
}

func (r BuildResult) Reason() error {
	return r.reason
}

// Finalize нормализует цену, проверяет инварианты, вычисляет ID и заворачивает квартиру в результат.
// Цена проверяется уже после округления: в базу попадает именно она.
func Finalize(flat Flat) BuildResult {
	flat.Price = NormalizePrice(flat.Price)
	if err := flat.Validate(); err != nil {
		return Invalid(err)
	}
	flat.AssignID()
	return Ok(flat)
}
