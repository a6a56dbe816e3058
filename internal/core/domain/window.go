package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timeframe - окно обхода в формате площадки ss.lv: today, today-2, today-5
type Timeframe string

const DefaultTimeframe Timeframe = "today"

// DaysBack возвращает, на сколько дней назад от полуночи начинается окно
func (t Timeframe) DaysBack() (int, error) {
	s := strings.TrimSpace(string(t))
	if s == "" || s == "today" {
		return 0, nil
	}
	rest, ok := strings.CutPrefix(s, "today-")
	if !ok {
		return 0, fmt.Errorf("invalid timeframe %q", s)
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid timeframe %q", s)
	}
	return n, nil
}

// StartOfWindow - полночь по местному времени минус daysBack суток
func StartOfWindow(now time.Time, loc *time.Location, daysBack int) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()-daysBack, 0, 0, 0, 0, loc)
}
