package thumbnail

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DaniilsFirgers/dzivoklitis/internal/adapters/platforms/shared"
)

func samplePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestResizeKeepsAspectWithinBounds(t *testing.T) {
	out, err := Resize(samplePNG(t, 800, 600))
	if err != nil {
		t.Fatalf("resize: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("result is not jpeg: %v", err)
	}
	b := img.Bounds()
	if b.Dx() > MaxWidth || b.Dy() > MaxHeight {
		t.Errorf("thumbnail %dx%d exceeds %dx%d", b.Dx(), b.Dy(), MaxWidth, MaxHeight)
	}
	if b.Dx() != MaxWidth && b.Dy() != MaxHeight {
		t.Errorf("thumbnail %dx%d should touch one of the bounds", b.Dx(), b.Dy())
	}
}

func TestResizeRejectsGarbage(t *testing.T) {
	if _, err := Resize([]byte("not an image")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestThumbnail(t *testing.T) {
	pngBody := samplePNG(t, 400, 300)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(pngBody)
		case "/broken.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("truncated"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	collector, err := shared.NewCollector(shared.CollectorConfig{MaxConnsPerHost: 2, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("collector: %v", err)
	}
	a := NewThumbnailAdapter(collector)
	ctx := context.Background()

	if got := a.Thumbnail(ctx, srv.URL+"/ok.png"); len(got) == 0 {
		t.Error("expected thumbnail bytes")
	}
	if got := a.Thumbnail(ctx, srv.URL+"/broken.jpg"); got != nil {
		t.Error("undecodable image must give nil")
	}
	if got := a.Thumbnail(ctx, srv.URL+"/missing.jpg"); got != nil {
		t.Error("404 must give nil")
	}
}
