package thumbnail

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/gocolly/colly/v2"
	"github.com/nfnt/resize"

	"github.com/DaniilsFirgers/dzivoklitis/internal/adapters/platforms/shared"
	"github.com/DaniilsFirgers/dzivoklitis/internal/contextkeys"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/port"
)

// Размер превью в сообщении, пропорции сохраняются
const (
	MaxWidth    = 303
	MaxHeight   = 230
	jpegQuality = 85
)

// ThumbnailAdapter скачивает фото объявления и уменьшает его до превью
type ThumbnailAdapter struct {
	collector *colly.Collector
}

func NewThumbnailAdapter(collector *colly.Collector) *ThumbnailAdapter {
	return &ThumbnailAdapter{collector: collector}
}

// Thumbnail никогда не возвращает ошибку: без фото уйдет текстовое сообщение
func (a *ThumbnailAdapter) Thumbnail(ctx context.Context, imageURL string) []byte {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "ThumbnailAdapter"})

	body, err := shared.Fetch(ctx, a.collector, shared.Request{URL: imageURL})
	if err != nil {
		logger.Warn("Failed to download image", port.Fields{"url": imageURL, "error": err.Error()})
		return nil
	}

	out, err := Resize(body)
	if err != nil {
		logger.Warn("Failed to resize image", port.Fields{"url": imageURL, "error": err.Error()})
		return nil
	}
	return out
}

// Resize декодирует jpeg или png и кодирует уменьшенную копию в jpeg
func Resize(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	small := resize.Thumbnail(MaxWidth, MaxHeight, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, small, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
