package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/DaniilsFirgers/dzivoklitis/internal/adapters/dispatcher"
	logger_adapter "github.com/DaniilsFirgers/dzivoklitis/internal/adapters/logger"
	"github.com/DaniilsFirgers/dzivoklitis/internal/adapters/mapping"
	"github.com/DaniilsFirgers/dzivoklitis/internal/adapters/platforms"
	"github.com/DaniilsFirgers/dzivoklitis/internal/adapters/platforms/shared"
	postgres_adapter "github.com/DaniilsFirgers/dzivoklitis/internal/adapters/postgres"
	rabbitmq_adapter "github.com/DaniilsFirgers/dzivoklitis/internal/adapters/rabbitmq"
	"github.com/DaniilsFirgers/dzivoklitis/internal/adapters/rediscache"
	"github.com/DaniilsFirgers/dzivoklitis/internal/adapters/rest"
	"github.com/DaniilsFirgers/dzivoklitis/internal/adapters/telegram"
	"github.com/DaniilsFirgers/dzivoklitis/internal/adapters/thumbnail"
	"github.com/DaniilsFirgers/dzivoklitis/internal/configs"
	"github.com/DaniilsFirgers/dzivoklitis/internal/constants"
	"github.com/DaniilsFirgers/dzivoklitis/internal/contextkeys"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/port"
	usecases_port "github.com/DaniilsFirgers/dzivoklitis/internal/core/port/usecases"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/usecase"
	fluentlogger "github.com/DaniilsFirgers/dzivoklitis/pkg/fluent_logger"
	"github.com/DaniilsFirgers/dzivoklitis/pkg/postgres"
	"github.com/DaniilsFirgers/dzivoklitis/pkg/rabbitmq/rabbitmq_common"
	"github.com/DaniilsFirgers/dzivoklitis/pkg/rabbitmq/rabbitmq_producer"
)

const (
	shutdownTimeout     = 15 * time.Second
	thumbnailMaxConns   = 4
	dispatcherDrainWait = 5 * time.Second
)

// App - корень композиции сервиса
type App struct {
	config *configs.AppConfig
	logger port.LoggerPort

	ctx    context.Context
	cancel context.CancelFunc

	dbPool        *pgxpool.Pool
	redisClient   *redis.Client
	connManager   *rabbitmq_common.ConnectionManager
	eventProducer *rabbitmq_producer.Publisher
	fluentClient  *fluent.Fluent

	dispatcher    *dispatcher.Dispatcher
	orchestrateUC usecases_port.OrchestrateCrawlPort
	server        *rest.Server

	// nil, если RabbitMQ выключен
	crawlTasksListener port.EventListenerPort
}

// NewApp создает все зависимости и связывает их
func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	app := &App{config: appConfig}
	if err := app.initLogger(); err != nil {
		return nil, err
	}
	appLogger := app.logger.WithFields(port.Fields{"component": "app"})

	app.ctx, app.cancel = context.WithCancel(contextkeys.ContextWithLogger(context.Background(), app.logger))

	if err := app.build(appLogger); err != nil {
		appLogger.Error("Failed to initialize application", err, nil)
		app.closeResources()
		return nil, err
	}
	return app, nil
}

func (a *App) initLogger() error {
	cfg := a.config
	var activeLoggers []port.LoggerPort

	stdoutLogger := logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{
		Level:    logger_adapter.ParseLevel(cfg.StdoutLogger.Level),
		UseColor: true,
	})
	activeLoggers = append(activeLoggers, stdoutLogger)

	if cfg.FluentBit.Enabled {
		client, err := fluentlogger.NewClient(fluentlogger.Config{
			Host:      cfg.FluentBit.Host,
			Port:      cfg.FluentBit.Port,
			TagPrefix: cfg.AppName,
			Async:     true,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return fmt.Errorf("failed to create fluentbit client: %w", err)
		}
		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(client, logger_adapter.ParseLevel(cfg.FluentBit.Level))
		if err != nil {
			_ = client.Close()
			return err
		}
		a.fluentClient = client
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		return fmt.Errorf("failed to create multi-logger: %w", err)
	}
	a.logger = multiLogger.WithFields(port.Fields{"service_name": cfg.AppName})
	a.logger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers),
		"fluent_enabled": cfg.FluentBit.Enabled,
	})
	return nil
}

func (a *App) build(appLogger port.LoggerPort) error {
	cfg := a.config
	ctx := a.ctx

	notifyMode, err := usecase.ParseNotifyMode(cfg.NotifyMode)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	crawlerCfg, err := configs.LoadCrawlerConfig(cfg.CrawlerConfigPath)
	if err != nil {
		return err
	}
	mappingTable, err := mapping.LoadFile(cfg.PlatformMappingPath)
	if err != nil {
		return err
	}
	resolver, err := mapping.NewResolver(mappingTable, a.logger)
	if err != nil {
		return err
	}

	// --- хранилища ---
	a.dbPool, err = postgres.NewClient(ctx, postgres.Config{
		DatabaseURL: cfg.Database.URL,
		MaxConns:    cfg.Database.MaxConns,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	appLogger.Info("Successfully connected to PostgreSQL pool", nil)

	pgFlatRepo, err := postgres_adapter.NewFlatRepository(a.dbPool)
	if err != nil {
		return fmt.Errorf("failed to create flat repository: %w", err)
	}
	subscriberRepo, err := postgres_adapter.NewSubscriberRepository(a.dbPool)
	if err != nil {
		return fmt.Errorf("failed to create subscriber repository: %w", err)
	}
	crawlRunRepo, err := postgres_adapter.NewCrawlRunRepository(a.dbPool)
	if err != nil {
		return fmt.Errorf("failed to create crawl run repository: %w", err)
	}

	var flatRepo port.FlatRepositoryPort = pgFlatRepo
	if cfg.Redis.Enabled {
		a.redisClient, err = rediscache.NewClient(ctx, rediscache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		flatRepo = rediscache.NewFlatRepositoryCache(pgFlatRepo, a.redisClient, cfg.Redis.TTL)
		appLogger.Info("Redis flat cache enabled", port.Fields{"ttl": cfg.Redis.TTL.String()})
	}

	// --- оповещения ---
	bot, err := telegram.NewBot(cfg.Telegram.Token)
	if err != nil {
		return err
	}
	sink := telegram.NewSinkAdapter(bot)
	a.dispatcher = dispatcher.New(dispatcher.Config{
		Rate:   cfg.Telegram.Rate,
		Window: cfg.Telegram.Window,
		Buffer: cfg.Telegram.Buffer,
	})

	// --- события ---
	var events port.FlatEventsPublisherPort
	if cfg.RabbitMQ.Enabled {
		if err := a.initRabbitMQ(); err != nil {
			return err
		}
		eventsAdapter, err := rabbitmq_adapter.NewFlatEventsAdapter(a.eventProducer)
		if err != nil {
			return err
		}
		events = eventsAdapter
	}

	// --- use cases ---
	classifyUC := usecase.NewClassifyFlatUseCase(flatRepo)
	matchUC := usecase.NewMatchSubscribersUseCase(subscriberRepo, notifyMode)
	notifyUC := usecase.NewNotifySubscribersUseCase(a.dispatcher, sink)
	processUC := usecase.NewProcessFlatUseCase(classifyUC, matchUC, notifyUC, events)

	crawlers, err := a.buildCrawlers(crawlerCfg, resolver, loc, processUC)
	if err != nil {
		return err
	}
	orchestrateUC := usecase.NewOrchestrateCrawlUseCase(crawlers, crawlRunRepo)
	a.orchestrateUC = orchestrateUC
	lastRunsUC := usecase.NewLastCrawlRunsUseCase(crawlRunRepo)
	appLogger.Info("All use cases initialized", port.Fields{"crawlers": len(crawlers)})

	// --- входящие адаптеры ---
	if cfg.RabbitMQ.Enabled {
		listener, err := rabbitmq_adapter.NewCrawlTasksConsumerAdapter(
			rabbitmq_adapter.CrawlTasksConsumerConfig(cfg.RabbitMQ.URL),
			orchestrateUC,
			a.logger,
			a.connManager,
		)
		if err != nil {
			return err
		}
		a.crawlTasksListener = listener
	}

	handlers := rest.NewOpsHandlers(ctx, orchestrateUC, lastRunsUC, a.dispatcher)
	a.server = rest.NewServer(cfg.HTTP.Port, rest.NewRouter(handlers, a.logger, cfg.HTTP.AllowedOrigins), a.logger)
	return nil
}

func (a *App) initRabbitMQ() error {
	cfg := a.config
	connBridge := rabbitmq_adapter.NewPkgLoggerBridge(a.logger.WithFields(port.Fields{"component": "rabbitmq_conn_manager"}))

	connManager, err := rabbitmq_common.NewConnectionManager(a.ctx, rabbitmq_common.Config{URL: cfg.RabbitMQ.URL}, connBridge)
	if err != nil {
		return fmt.Errorf("failed to create connection manager: %w", err)
	}
	a.connManager = connManager

	producer, err := rabbitmq_producer.NewPublisher(rabbitmq_producer.PublisherConfig{
		Config:                   rabbitmq_common.Config{URL: cfg.RabbitMQ.URL},
		ExchangeName:             constants.ExchangeFlats,
		ExchangeType:             "topic",
		DurableExchange:          true,
		DeclareExchangeIfMissing: true,
		Logger:                   rabbitmq_adapter.NewPkgLoggerBridge(a.logger.WithFields(port.Fields{"component": "rabbitmq_producer"})),
	}, connManager)
	if err != nil {
		return fmt.Errorf("failed to create event producer: %w", err)
	}
	a.eventProducer = producer
	return nil
}

// buildCrawlers создает обходчик на каждую пару площадка + тип сделки.
// Пара без кода сделки в маппинге пропускается, остальные продолжают работать.
func (a *App) buildCrawlers(
	crawlerCfg *configs.CrawlerConfig,
	resolver *mapping.Resolver,
	loc *time.Location,
	processUC usecases_port.ProcessFlatPort,
) ([]usecases_port.CrawlSourcePort, error) {
	logger := a.logger.WithFields(port.Fields{"component": "app"})

	thumbCollector, err := shared.NewCollector(shared.CollectorConfig{
		MaxConnsPerHost: thumbnailMaxConns,
		Timeout:         a.config.HTTPTimeout,
	})
	if err != nil {
		return nil, err
	}
	thumbnails := thumbnail.NewThumbnailAdapter(thumbCollector)

	var crawlers []usecases_port.CrawlSourcePort
	for _, source := range crawlerCfg.EnabledSources() {
		sc := crawlerCfg.Sources[source]

		collector, err := shared.NewCollector(shared.CollectorConfig{
			MaxConnsPerHost: sc.MaxConnsPerHost,
			Timeout:         a.config.HTTPTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("collector for %s: %w", source, err)
		}

		daysBack, err := domain.Timeframe(sc.Timeframe).DaysBack()
		if err != nil {
			return nil, err
		}
		windowStart := func() time.Time {
			return domain.StartOfWindow(time.Now(), loc, daysBack)
		}

		for _, name := range sc.DealTypes {
			dealType, err := domain.ParseDealType(name)
			if err != nil {
				return nil, err
			}
			pairLogger := logger.WithFields(port.Fields{"source": string(source), "deal_type": name})

			resolved, err := resolver.Resolve(source, dealType)
			if err != nil {
				if errors.Is(err, domain.ErrUnknownDealType) || errors.Is(err, domain.ErrUnknownSource) {
					pairLogger.Warn("Crawler not configured", port.Fields{"reason": err.Error()})
					continue
				}
				return nil, err
			}

			fetcher, builder, err := platforms.NewSource(collector, resolved, platforms.SourceOptions{
				CityCode:    sc.CityCode,
				Timeframe:   domain.Timeframe(sc.Timeframe),
				BaseURL:     sc.BaseURL,
				WindowStart: windowStart,
			}, thumbnails)
			if err != nil {
				pairLogger.Warn("Crawler not configured", port.Fields{"reason": err.Error()})
				continue
			}

			crawlers = append(crawlers, usecase.NewCrawlSourceUseCase(fetcher, builder, processUC, usecase.CrawlConfig{
				Concurrency:     sc.Concurrency,
				ItemConcurrency: sc.ItemConcurrency,
				Attempts:        sc.Retries,
				RetryDelay:      sc.RetryDelay,
			}, windowStart))
			pairLogger.Info("Crawler configured", nil)
		}
	}

	if len(crawlers) == 0 {
		return nil, errors.New("no crawler could be configured")
	}
	return crawlers, nil
}

// Run запускает компоненты и ждет сигнала остановки
func (a *App) Run() error {
	defer a.closeResources()

	var wg sync.WaitGroup
	componentErrors := make(chan error, 2)

	a.dispatcher.Start(a.ctx)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.server.Start(); err != nil {
			componentErrors <- err
		}
	}()

	if a.crawlTasksListener != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			listenerLogger := a.logger.WithFields(port.Fields{"listener_name": "Crawl Tasks Listener"})
			listenerLogger.Info("Starting listener", nil)
			if err := a.crawlTasksListener.Start(a.ctx); err != nil {
				listenerLogger.Error("Listener stopped with an unexpected error", err, nil)
				componentErrors <- fmt.Errorf("crawl tasks listener: %w", err)
				return
			}
			listenerLogger.Info("Listener stopped", nil)
		}()
	}

	if a.config.CrawlOnStart {
		if _, err := a.orchestrateUC.Start(a.ctx, nil); err != nil {
			a.logger.Warn("Could not start initial crawl cycle", port.Fields{"error": err.Error()})
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Info("Application running. Waiting for signals", nil)
	select {
	case s := <-quit:
		a.logger.Warn("Received signal, shutting down", port.Fields{"signal": s.String()})
	case err := <-componentErrors:
		a.logger.Error("A critical component failed, shutting down", err, nil)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		a.logger.Error("Error stopping REST server", err, nil)
	}

	a.cancel()
	wg.Wait()

	select {
	case <-a.dispatcher.Done():
	case <-time.After(dispatcherDrainWait):
		a.logger.Warn("Dispatcher did not stop in time", nil)
	}
	a.logger.Info("Notifications at shutdown", port.Fields{"stats": a.dispatcher.Stats()})
	return nil
}

func (a *App) closeResources() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.crawlTasksListener != nil {
		if err := a.crawlTasksListener.Close(); err != nil {
			a.logger.Error("Error closing crawl tasks listener", err, nil)
		}
		a.crawlTasksListener = nil
	}
	if a.eventProducer != nil {
		if err := a.eventProducer.Close(); err != nil {
			a.logger.Error("Error closing event producer", err, nil)
		}
		a.eventProducer = nil
	}
	if a.connManager != nil {
		if err := a.connManager.Close(); err != nil {
			a.logger.Error("Error closing RabbitMQ connection manager", err, nil)
		}
		a.connManager = nil
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("Error closing Redis client", err, nil)
		}
		a.redisClient = nil
	}
	if a.dbPool != nil {
		a.dbPool.Close()
		a.dbPool = nil
		a.logger.Info("PostgreSQL pool closed", nil)
	}
	if a.fluentClient != nil {
		if err := a.fluentClient.Close(); err != nil {
			log.Printf("App: error closing fluent client: %v\n", err)
		}
		a.fluentClient = nil
	}
}
