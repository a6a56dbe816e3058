package constants

// Обменники
const (
	ExchangeFlats      = "flats_exchange"
	ExchangeCrawlTasks = "crawl_tasks_exchange"
)

// Имена очередей
const (
	QueueCrawlTasks          = "flats_crawl_tasks"
	QueueCrawlTasksRetryWait = "flats_crawl_tasks_retry_wait"
)

// Ключи маршрутизации
const (
	RoutingKeyFlatNew          = "flat.new"
	RoutingKeyFlatPriceChanged = "flat.price_changed"
	RoutingKeyCrawlTasks       = "crawl.tasks"
)

const (
	RetryExchangeForCrawlTasks      = "crawl_tasks_retry_exchange"
	FinalDLXExchangeForCrawlTasks   = "crawl_tasks_final_dlx"
	FinalDLQForCrawlTasks           = "crawl_tasks_final_dlq"
	FinalDLQRoutingKeyForCrawlTasks = "crawl_tasks.dlq.key"
	CrawlTasksRetryTTLMillis        = 30000
	CrawlTasksMaxRetries            = 3
)

// Заголовок для сквозного trace id
const HeaderTraceID = "x-trace-id"
