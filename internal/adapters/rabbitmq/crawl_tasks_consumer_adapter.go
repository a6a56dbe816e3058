package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/DaniilsFirgers/dzivoklitis/internal/constants"
	"github.com/DaniilsFirgers/dzivoklitis/internal/contextkeys"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/port"
	usecases_port "github.com/DaniilsFirgers/dzivoklitis/internal/core/port/usecases"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/usecase"
	"github.com/DaniilsFirgers/dzivoklitis/pkg/rabbitmq/rabbitmq_common"
	"github.com/DaniilsFirgers/dzivoklitis/pkg/rabbitmq/rabbitmq_consumer"
)

// CrawlTasksConsumerAdapter запускает цикл обхода по командам из очереди
type CrawlTasksConsumerAdapter struct {
	consumer      *rabbitmq_consumer.Consumer
	orchestrateUC usecases_port.OrchestrateCrawlPort
	logger        port.LoggerPort
}

var _ port.EventListenerPort = (*CrawlTasksConsumerAdapter)(nil)

func NewCrawlTasksConsumerAdapter(
	consumerCfg rabbitmq_consumer.ConsumerConfig,
	orchestrateUC usecases_port.OrchestrateCrawlPort,
	logger port.LoggerPort,
	connManager *rabbitmq_common.ConnectionManager,
) (*CrawlTasksConsumerAdapter, error) {
	adapter := &CrawlTasksConsumerAdapter{
		orchestrateUC: orchestrateUC,
		logger:        logger.WithFields(port.Fields{"component": "CrawlTasksConsumer"}),
	}

	consumerCfg.Logger = NewPkgLoggerBridge(logger.WithFields(port.Fields{
		"component":    "rabbitmq_consumer",
		"consumer_tag": consumerCfg.ConsumerTag,
	}))

	consumer, err := rabbitmq_consumer.NewConsumer(consumerCfg, adapter.messageHandler, connManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create RabbitMQ consumer for crawl tasks: %w", err)
	}
	adapter.consumer = consumer
	return adapter, nil
}

// CrawlTasksConsumerConfig - топология очереди команд обхода
func CrawlTasksConsumerConfig(url string) rabbitmq_consumer.ConsumerConfig {
	cfg := rabbitmq_consumer.ConsumerConfig{
		QueueName:              constants.QueueCrawlTasks,
		DeclareQueue:           true,
		DurableQueue:           true,
		ExchangeNameForBind:    constants.ExchangeCrawlTasks,
		DeclareExchangeForBind: true,
		ExchangeTypeForBind:    "direct",
		DurableExchangeForBind: true,
		RoutingKeyForBind:      constants.RoutingKeyCrawlTasks,
		PrefetchCount:          1,
		ConsumerTag:            "flats_crawl_tasks_consumer",

		EnableRetryMechanism: true,
		RetryExchange:        constants.RetryExchangeForCrawlTasks,
		RetryQueue:           constants.QueueCrawlTasksRetryWait,
		RetryTTL:             constants.CrawlTasksRetryTTLMillis,
		FinalDLXExchange:     constants.FinalDLXExchangeForCrawlTasks,
		FinalDLQ:             constants.FinalDLQForCrawlTasks,
		FinalDLQRoutingKey:   constants.FinalDLQRoutingKeyForCrawlTasks,
		MaxRetries:           constants.CrawlTasksMaxRetries,
	}
	cfg.URL = url
	return cfg
}

func (a *CrawlTasksConsumerAdapter) messageHandler(ctx context.Context, d amqp.Delivery) error {
	traceID, ok := d.Headers[constants.HeaderTraceID].(string)
	if !ok || traceID == "" {
		traceID = uuid.New().String()
	}

	msgLogger := a.logger.WithFields(port.Fields{
		"trace_id":     traceID,
		"delivery_tag": d.DeliveryTag,
	})
	ctx = contextkeys.ContextWithLogger(ctx, msgLogger)
	ctx = contextkeys.ContextWithTraceID(ctx, traceID)

	return a.handleTask(ctx, d.Body)
}

func (a *CrawlTasksConsumerAdapter) handleTask(ctx context.Context, body []byte) error {
	logger := contextkeys.LoggerFromContext(ctx)

	var task CrawlTaskDTO
	if err := json.Unmarshal(body, &task); err != nil {
		logger.Error("Malformed crawl task, rejecting", err, nil)
		return fmt.Errorf("unmarshal crawl task: %v: %w", err, rabbitmq_consumer.ErrPermanent)
	}

	logger = logger.WithFields(port.Fields{"task_id": task.TaskID.String()})
	ctx = contextkeys.ContextWithLogger(ctx, logger)

	targets, err := domain.ResolveTargets(a.orchestrateUC.Targets(), task.Sources, task.DealTypes)
	if err != nil {
		logger.Error("Crawl task names nothing that can be crawled, rejecting", err, nil)
		return fmt.Errorf("%v: %w", err, rabbitmq_consumer.ErrPermanent)
	}

	logger.Info("Received crawl task", port.Fields{"targets": len(targets)})
	if _, err := a.orchestrateUC.Execute(ctx, targets); err != nil {
		if errors.Is(err, usecase.ErrCrawlInProgress) {
			logger.Info("Crawl cycle already running, task acknowledged", nil)
			return nil
		}
		return err
	}
	return nil
}

func (a *CrawlTasksConsumerAdapter) Start(ctx context.Context) error {
	return a.consumer.StartConsuming(ctx)
}

func (a *CrawlTasksConsumerAdapter) Close() error {
	return a.consumer.Close()
}
