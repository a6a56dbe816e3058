package shared

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"

	"github.com/DaniilsFirgers/dzivoklitis/internal/contextkeys"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/port"
)

// Request описывает один запрос к площадке
type Request struct {
	URL     string
	Query   url.Values
	Body    []byte // не nil - POST
	Headers map[string]string
}

func (r Request) fullURL() (string, error) {
	u, err := url.Parse(r.URL)
	if err != nil {
		return "", err
	}
	if len(r.Query) > 0 {
		q := u.Query()
		for k, vs := range r.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Fetch выполняет запрос через одноразовый клон коллектора и возвращает тело ответа
func Fetch(ctx context.Context, parent *colly.Collector, req Request) ([]byte, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "PlatformFetcher"})

	target, err := req.fullURL()
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", req.URL, err)
	}

	// колбэки родителя в клон не копируются, поэтому расширения вешаются на каждый клон
	collector := parent.Clone()
	extensions.RandomUserAgent(collector)
	extensions.Referer(collector)

	var (
		body        []byte
		responseErr error
	)

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		r.Headers.Set("Accept-Language", "lv-LV,lv;q=0.9,en-US;q=0.8,en;q=0.7")
		if req.Body != nil {
			r.Headers.Set("Content-Type", "application/json")
		}
		for k, v := range req.Headers {
			r.Headers.Set(k, v)
		}
		logger.Debug("Making request", port.Fields{"url": r.URL.String()})
	})

	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	collector.OnError(func(r *colly.Response, err error) {
		responseErr = fmt.Errorf("request to %s failed with status %d: %w", r.Request.URL, r.StatusCode, err)
	})

	if req.Body != nil {
		err = collector.PostRaw(target, req.Body)
	} else {
		err = collector.Visit(target)
	}
	collector.Wait()

	if responseErr != nil {
		return nil, responseErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", target, err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if body == nil {
		return nil, fmt.Errorf("empty response from %s", target)
	}
	return body, nil
}
