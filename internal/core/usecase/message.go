package usecase

import (
	"fmt"
	"html"
	"strings"

	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
)

const (
	favouriteCallbackPrefix = "add_to_favorites:"
	historyDateLayout       = "02.01.2006"
)

// RenderNewListing - сообщение о новой квартире с кнопкой "в избранное"
func RenderNewListing(flat domain.Flat) (string, []domain.Action) {
	var b strings.Builder
	writeAttributes(&b, flat)

	actions := []domain.Action{
		{Label: "🔍 View listing", URL: flat.URL},
		{Label: "❤️ Add to favourites", CallbackData: favouriteCallbackPrefix + flat.ID},
	}
	return b.String(), actions
}

// RenderPriceChange - сообщение об изменении цены с историей от новых к старым.
// Первой строкой истории идет текущее наблюдение.
func RenderPriceChange(flat domain.Flat, prior []domain.PricePoint, observedAt string) (string, []domain.Action) {
	var b strings.Builder
	b.WriteString("🔥 <b>Price changed!</b> 🔥\n\n")
	writeAttributes(&b, flat)

	b.WriteString("\n<b>Price history</b>\n")
	fmt.Fprintf(&b, "%s - %s €\n", observedAt, flat.Price.StringFixedBank(0))
	for _, p := range prior {
		fmt.Fprintf(&b, "%s - %s €\n", p.RecordedAt.Format(historyDateLayout), p.Price.StringFixedBank(0))
	}

	actions := []domain.Action{
		{Label: "🔍 View listing", URL: flat.URL},
	}
	return strings.TrimRight(b.String(), "\n"), actions
}

func writeAttributes(b *strings.Builder, flat domain.Flat) {
	line := func(label, value string) {
		fmt.Fprintf(b, "<b>%s:</b> %s\n", label, html.EscapeString(value))
	}

	line("Source", string(flat.Source))
	line("City", flat.City)
	line("District", flat.District)
	line("Street", flat.Street)
	line("Series", flat.Series)
	line("Rooms", fmt.Sprintf("%d", flat.Rooms))
	line("Area", flat.Area.String()+" m²")
	line("Floor", fmt.Sprintf("%d/%d", flat.Floor, flat.FloorsTotal))
	line("Price per m²", flat.PricePerM2.StringFixedBank(0)+" €")
	line("Price", flat.Price.StringFixedBank(0)+" €")
}
