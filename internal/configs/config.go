package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type DBConfig struct {
	URL      string
	MaxConns int32
}

type RabbitMQConfig struct {
	Enabled bool
	URL     string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type TelegramConfig struct {
	Token  string
	Rate   int
	Window time.Duration
	Buffer time.Duration
}

type HTTPConfig struct {
	Port           string
	AllowedOrigins []string
}

type StdoutLogConfig struct {
	Level string
}

type FluentBitConfig struct {
	Enabled bool
	Host    string
	Port    int
	Level   string
}

// AppConfig - вся конфигурация сервиса из окружения
type AppConfig struct {
	AppName             string
	Database            DBConfig
	RabbitMQ            RabbitMQConfig
	Redis               RedisConfig
	Telegram            TelegramConfig
	HTTP                HTTPConfig
	NotifyMode          string
	CrawlerConfigPath   string
	PlatformMappingPath string
	Timezone            string
	CrawlOnStart        bool
	HTTPTimeout         time.Duration
	FluentBit           FluentBitConfig
	StdoutLogger        StdoutLogConfig
}

// LoadConfig читает .env (если он есть) и переменные окружения
func LoadConfig(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath...)
	} else {
		err = godotenv.Load()
	}
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("could not load .env file (path: %v): %w", envPath, err)
	}

	return fromEnv()
}

func fromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.AppName = getEnvAsString("APP_NAME", "flats-service")

	cfg.Database.URL = os.Getenv("DATABASE_URL")
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	cfg.Database.MaxConns = int32(getEnvAsInt("DATABASE_MAX_CONNS", 0))

	cfg.Telegram.Token = os.Getenv("TELEGRAM_TOKEN")
	if cfg.Telegram.Token == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN environment variable is required")
	}
	cfg.Telegram.Rate = getEnvAsInt("TELEGRAM_RATE", 30)
	if cfg.Telegram.Rate <= 0 {
		return nil, fmt.Errorf("TELEGRAM_RATE must be positive, got %d", cfg.Telegram.Rate)
	}
	cfg.Telegram.Window = getEnvAsDuration("TELEGRAM_WINDOW", time.Second)
	cfg.Telegram.Buffer = getEnvAsDuration("TELEGRAM_BUFFER", 100*time.Millisecond)

	cfg.RabbitMQ.Enabled = getEnvAsBool("RABBITMQ_ENABLED", false)
	if cfg.RabbitMQ.Enabled {
		cfg.RabbitMQ.URL = os.Getenv("RABBITMQ_URL")
		if cfg.RabbitMQ.URL == "" {
			return nil, fmt.Errorf("RABBITMQ_URL environment variable is required when RABBITMQ_ENABLED is true")
		}
	}

	cfg.Redis.Enabled = getEnvAsBool("REDIS_ENABLED", false)
	if cfg.Redis.Enabled {
		cfg.Redis.Addr = getEnvAsString("REDIS_ADDR", "localhost:6379")
		cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
		cfg.Redis.DB = getEnvAsInt("REDIS_DB", 0)
		cfg.Redis.TTL = getEnvAsDuration("REDIS_TTL", 10*time.Minute)
	}

	cfg.HTTP.Port = getEnvAsString("HTTP_PORT", "8080")
	cfg.HTTP.AllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	cfg.NotifyMode = getEnvAsString("NOTIFY_MODE", "filters")
	cfg.CrawlerConfigPath = getEnvAsString("CRAWLER_CONFIG_PATH", "configs/crawler.yaml")
	cfg.PlatformMappingPath = getEnvAsString("PLATFORM_MAPPING_PATH", "configs/platform_mapping.json")
	cfg.Timezone = getEnvAsString("TIMEZONE", "Europe/Riga")
	cfg.CrawlOnStart = getEnvAsBool("CRAWL_ON_START", false)
	cfg.HTTPTimeout = getEnvAsDuration("HTTP_TIMEOUT", 10*time.Second)

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENT_BIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENT_BIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENT_BIT_ENABLED is true, but FLUENT_BIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}
		cfg.FluentBit.Port = getEnvAsInt("FLUENT_BIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENT_BIT_LOG_LEVEL", "info")
	}

	cfg.StdoutLogger.Level = getEnvAsString("STDOUT_LOG_LEVEL", "info")

	return cfg, nil
}

func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt при нечисловом значении пишет предупреждение и берет значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as int: %v. Using default value: %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueInt
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists || valStr == "" {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as bool: %v. Using default value: %t\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valBool
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valStr, exists := os.LookupEnv(key)
	if !exists || valStr == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as duration: %v. Using default value: %s\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
