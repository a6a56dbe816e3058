package domain

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// FlatID строит стабильный отпечаток квартиры по ее описательным атрибутам.
// Идентификатор объявления на площадке сюда не входит: он меняется при перепубликации.
func FlatID(source Source, dealType DealType, district, street, series string, rooms int, area decimal.Decimal, floor, floorsTotal int) string {
	parts := []string{
		normalizePart(string(source)),
		normalizePart(string(dealType)),
		normalizePart(district),
		normalizePart(street),
		normalizePart(series),
		strconv.Itoa(rooms),
		area.StringFixed(2),
		strconv.Itoa(floor),
		strconv.Itoa(floorsTotal),
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%x", sum)
}

func normalizePart(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	if s == "" {
		return "null"
	}
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
