package kafka

// Topic definitions for Kafka event streaming
const (
	// Portfolio events
	TopicPortfolioBuilt = "portfolio.built"

	// Rebalance events
	TopicRebalanceCompleted = "rebalance.completed"
	TopicTradeExecuted      = "rebalance.trades"

	// Worker events
	TopicWorkerFailed = "workers.failures"
)
