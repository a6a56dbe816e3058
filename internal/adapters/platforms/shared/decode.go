package shared

import (
	"context"
	"encoding/json"

	"github.com/DaniilsFirgers/dzivoklitis/internal/contextkeys"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/port"
)

// DecodeHead читает служебные поля объявления (id, дату). Ошибка только логируется:
// объявление все равно уходит билдеру, который отметит его как невалидное.
func DecodeHead(ctx context.Context, item json.RawMessage, head any) {
	if err := json.Unmarshal(item, head); err != nil {
		contextkeys.LoggerFromContext(ctx).Warn("Listing header could not be decoded", port.Fields{
			"error": err.Error(),
			"bytes": len(item),
		})
	}
}
