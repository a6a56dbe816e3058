package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/DaniilsFirgers/dzivoklitis/internal/contextkeys"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/port"
)

const (
	maxTextLength    = 4096
	maxCaptionLength = 1024
)

// sender - часть tgbotapi.BotAPI, которой пользуется адаптер
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// SinkAdapter доставляет оповещения через Telegram Bot API
type SinkAdapter struct {
	bot sender
}

var _ port.NotificationSinkPort = (*SinkAdapter)(nil)

// NewBot авторизуется по токену и проверяет его вызовом getMe
func NewBot(token string) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, errors.New("telegram: bot token is empty")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: failed to authorize bot: %w", err)
	}
	return bot, nil
}

func NewSinkAdapter(bot *tgbotapi.BotAPI) *SinkAdapter {
	return &SinkAdapter{bot: bot}
}

func (a *SinkAdapter) DeliverText(ctx context.Context, recipient int64, text string, actions []domain.Action) error {
	msg := tgbotapi.NewMessage(recipient, truncate(text, maxTextLength))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if markup, ok := keyboard(actions); ok {
		msg.ReplyMarkup = markup
	}
	return a.send(ctx, recipient, msg)
}

func (a *SinkAdapter) DeliverPhoto(ctx context.Context, recipient int64, photo []byte, caption string, actions []domain.Action) error {
	if len(photo) == 0 {
		return a.DeliverText(ctx, recipient, caption, actions)
	}
	msg := tgbotapi.NewPhoto(recipient, tgbotapi.FileBytes{Name: "flat.jpg", Bytes: photo})
	msg.Caption = truncate(caption, maxCaptionLength)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup, ok := keyboard(actions); ok {
		msg.ReplyMarkup = markup
	}
	return a.send(ctx, recipient, msg)
}

func (a *SinkAdapter) send(ctx context.Context, recipient int64, c tgbotapi.Chattable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "TelegramSink",
		"recipient": recipient,
	})
	if _, err := a.bot.Send(c); err != nil {
		var tgErr *tgbotapi.Error
		if errors.As(err, &tgErr) && tgErr.RetryAfter > 0 {
			logger.Warn("Telegram asked to slow down", port.Fields{"retry_after": tgErr.RetryAfter})
		}
		return fmt.Errorf("telegram: send to %d: %w", recipient, err)
	}
	logger.Debug("Message delivered", nil)
	return nil
}

// keyboard строит по одной кнопке в ряд
func keyboard(actions []domain.Action) (tgbotapi.InlineKeyboardMarkup, bool) {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(actions))
	for _, action := range actions {
		switch {
		case action.URL != "":
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL(action.Label, action.URL)))
		case action.CallbackData != "":
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(action.Label, action.CallbackData)))
		}
	}
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

// truncate укладывает HTML-текст в лимит Telegram. Режет по границе строки,
// чтобы не разорвать тег или сущность; без переводов строки отступает
// до начала незакрытого тега или сущности.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	head := string([]rune(s)[:limit-1])

	if i := strings.LastIndexByte(head, '\n'); i > 0 {
		return head[:i+1] + "…"
	}
	if i := strings.LastIndexByte(head, '<'); i > strings.LastIndexByte(head, '>') {
		head = head[:i]
	}
	if i := strings.LastIndexByte(head, '&'); i > strings.LastIndexByte(head, ';') {
		head = head[:i]
	}
	return head + "…"
}
