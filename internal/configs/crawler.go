package configs

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
)

// SourceConfig - настройки обхода одной площадки
type SourceConfig struct {
	Enabled         bool          `yaml:"enabled"`
	CityCode        string        `yaml:"city_code"`
	Timeframe       string        `yaml:"timeframe"`
	DealTypes       []string      `yaml:"deal_types"`
	Concurrency     int64         `yaml:"concurrency"`
	ItemConcurrency int           `yaml:"item_concurrency"`
	MaxConnsPerHost int           `yaml:"max_conns_per_host"`
	Retries         int           `yaml:"retries"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
	BaseURL         string        `yaml:"base_url"`
}

// CrawlerConfig - содержимое CRAWLER_CONFIG_PATH
type CrawlerConfig struct {
	Sources map[domain.Source]SourceConfig `yaml:"sources"`
}

// defaultMaxConnsPerHost - потолок одновременных соединений, который выдерживает каждая площадка
var defaultMaxConnsPerHost = map[domain.Source]int{
	domain.SourceSS:       2,
	domain.SourceCity24:   2,
	domain.SourcePP:       5,
	domain.SourceVarianti: 1,
}

var defaultCityCode = map[domain.Source]string{
	domain.SourceSS:       "riga",
	domain.SourceCity24:   "245396",
	domain.SourcePP:       "1",
	domain.SourceVarianti: "riga",
}

const (
	defaultConcurrency = 4
	defaultRetries     = 3
	defaultRetryDelay  = time.Second
)

func LoadCrawlerConfig(path string) (*CrawlerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read crawler config %s: %w", path, err)
	}
	return ParseCrawlerConfig(data)
}

// ParseCrawlerConfig разбирает YAML, подставляет значения по умолчанию и проверяет имена
func ParseCrawlerConfig(data []byte) (*CrawlerConfig, error) {
	var cfg CrawlerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse crawler config: %w", err)
	}

	for source, sc := range cfg.Sources {
		if _, err := domain.ParseSource(string(source)); err != nil {
			return nil, fmt.Errorf("crawler config: %w", err)
		}
		for _, dt := range sc.DealTypes {
			if _, err := domain.ParseDealType(dt); err != nil {
				return nil, fmt.Errorf("crawler config %s: %w", source, err)
			}
		}
		if _, err := domain.Timeframe(sc.Timeframe).DaysBack(); err != nil {
			return nil, fmt.Errorf("crawler config %s: %w", source, err)
		}
		cfg.Sources[source] = sc.withDefaults(source)
	}
	return &cfg, nil
}

func (sc SourceConfig) withDefaults(source domain.Source) SourceConfig {
	if sc.CityCode == "" {
		sc.CityCode = defaultCityCode[source]
	}
	if sc.Timeframe == "" {
		sc.Timeframe = string(domain.DefaultTimeframe)
	}
	if len(sc.DealTypes) == 0 {
		for _, dt := range domain.AllDealTypes {
			sc.DealTypes = append(sc.DealTypes, string(dt))
		}
	}
	if sc.Concurrency <= 0 {
		sc.Concurrency = defaultConcurrency
	}
	if sc.ItemConcurrency <= 0 {
		sc.ItemConcurrency = defaultConcurrency
	}
	if sc.MaxConnsPerHost <= 0 {
		sc.MaxConnsPerHost = defaultMaxConnsPerHost[source]
	}
	if sc.Retries <= 0 {
		sc.Retries = defaultRetries
	}
	if sc.RetryDelay <= 0 {
		sc.RetryDelay = defaultRetryDelay
	}
	return sc
}

// EnabledSources - включенные площадки в стабильном порядке
func (c *CrawlerConfig) EnabledSources() []domain.Source {
	out := make([]domain.Source, 0, len(c.Sources))
	for source, sc := range c.Sources {
		if sc.Enabled {
			out = append(out, source)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
