package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
)

func TestParseCrawlerConfigDefaults(t *testing.T) {
	cfg, err := ParseCrawlerConfig([]byte(`
sources:
  ss:
    enabled: true
    timeframe: today-5
  varianti:
    enabled: false
    deal_types: [Sell]
    retry_delay: 250ms
`))
	if err != nil {
		t.Fatalf("ParseCrawlerConfig: %v", err)
	}

	ss := cfg.Sources[domain.SourceSS]
	if ss.CityCode != "riga" || ss.Concurrency != 4 || ss.Retries != 3 || ss.RetryDelay != time.Second || ss.MaxConnsPerHost != 2 {
		t.Errorf("ss defaults = %+v", ss)
	}
	if len(ss.DealTypes) != 2 {
		t.Errorf("ss deal types = %v, want both", ss.DealTypes)
	}

	v := cfg.Sources[domain.SourceVarianti]
	if v.MaxConnsPerHost != 1 || v.RetryDelay != 250*time.Millisecond || v.Timeframe != "today" {
		t.Errorf("varianti = %+v", v)
	}

	if got := cfg.EnabledSources(); len(got) != 1 || got[0] != domain.SourceSS {
		t.Errorf("EnabledSources() = %v", got)
	}
}

func TestParseCrawlerConfigRejectsUnknownNames(t *testing.T) {
	tests := map[string]string{
		"unknown source":    "sources:\n  kufar:\n    enabled: true\n",
		"unknown deal type": "sources:\n  pp:\n    deal_types: [Lease]\n",
		"bad timeframe":     "sources:\n  ss:\n    timeframe: yesterday\n",
		"not yaml":          "sources: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseCrawlerConfig([]byte(doc)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBundledConfigFilesLoad(t *testing.T) {
	cfg, err := LoadCrawlerConfig(filepath.Join("..", "..", "configs", "crawler.yaml"))
	if err != nil {
		t.Fatalf("LoadCrawlerConfig: %v", err)
	}
	if len(cfg.EnabledSources()) != len(domain.AllSources) {
		t.Errorf("enabled sources = %v", cfg.EnabledSources())
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/flats")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_RATE", "20")
	t.Setenv("TELEGRAM_BUFFER", "not-a-duration")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_TTL", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.lv, ,http://b.lv")
	t.Setenv("RABBITMQ_ENABLED", "false")

	cfg, err := fromEnv()
	if err != nil {
		t.Fatalf("fromEnv: %v", err)
	}
	if cfg.Telegram.Rate != 20 || cfg.Telegram.Buffer != 100*time.Millisecond || cfg.Telegram.Window != time.Second {
		t.Errorf("telegram = %+v", cfg.Telegram)
	}
	if !cfg.Redis.Enabled || cfg.Redis.TTL != 30*time.Second || cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("redis = %+v", cfg.Redis)
	}
	if len(cfg.HTTP.AllowedOrigins) != 2 {
		t.Errorf("origins = %v", cfg.HTTP.AllowedOrigins)
	}
	if cfg.RabbitMQ.Enabled {
		t.Error("rabbitmq must stay disabled")
	}
}

func TestFromEnvRequiresSecrets(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	if _, err := fromEnv(); err == nil {
		t.Error("expected error without DATABASE_URL")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/flats")
	t.Setenv("RABBITMQ_ENABLED", "true")
	t.Setenv("RABBITMQ_URL", "")
	if _, err := fromEnv(); err == nil {
		t.Error("expected error when rabbitmq is enabled without URL")
	}
}

func TestLoadConfigWithoutEnvFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/flats")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	missing := filepath.Join(t.TempDir(), "absent.env")
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Fatal("temp file unexpectedly exists")
	}
	if _, err := LoadConfig(missing); err != nil {
		t.Errorf("LoadConfig with missing .env: %v", err)
	}
}
