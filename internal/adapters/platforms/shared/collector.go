package shared

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// CollectorConfig - сетевые ограничения одной площадки
type CollectorConfig struct {
	// MaxConnsPerHost - потолок одновременных соединений с хостом площадки
	MaxConnsPerHost int
	// RandomDelay - случайная пауза между запросами к площадке
	RandomDelay time.Duration
	// Timeout - таймаут одного HTTP-запроса
	Timeout time.Duration
}

// NewCollector создает родительский коллектор площадки.
// Клоны делят с ним HTTP-клиент и лимиты, поэтому потолок соединений общий для всех районов.
func NewCollector(cfg CollectorConfig) (*colly.Collector, error) {
	if cfg.MaxConnsPerHost <= 0 {
		cfg.MaxConnsPerHost = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	c := colly.NewCollector(colly.AllowURLRevisit())

	c.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		MaxIdleConnsPerHost: cfg.MaxConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})
	c.SetRequestTimeout(cfg.Timeout)

	err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.MaxConnsPerHost,
		RandomDelay: cfg.RandomDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set limit rule: %w", err)
	}

	return c, nil
}
