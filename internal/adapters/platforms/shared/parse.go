package shared

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	nonDigits       = regexp.MustCompile(`[^\d]`)
	nonDigitsOrDots = regexp.MustCompile(`[^\d.]`)
)

// ParseInt не падает на мусоре: нераспознанное значение дает 0, которое потом отсеет валидация
func ParseInt(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}

// ParseDecimal аналогично ParseInt: мусор дает ноль
func ParseDecimal(s string) decimal.Decimal {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return v
}

func DigitsOnly(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

func DigitsAndDots(s string) string {
	return nonDigitsOrDots.ReplaceAllString(s, "")
}

// ParseTimeUTC пробует несколько форматов дат площадок. Нулевое время, если ни один не подошел.
func ParseTimeUTC(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// FromUnixMillis переводит метку в миллисекундах в UTC. 0 дает нулевое время.
func FromUnixMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// FlexString принимает из JSON и строку, и число. null оставляет пустую строку.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	str := strings.TrimSpace(string(data))
	if str == "null" {
		*s = ""
		return nil
	}
	if strings.HasPrefix(str, `"`) {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	*s = FlexString(str)
	return nil
}

func (s FlexString) String() string {
	return strings.TrimSpace(string(s))
}
