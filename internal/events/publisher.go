package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"helios/internal/adapters/kafka"
	"helios/internal/domain/portfolio"
	"helios/internal/services/rebalance"
	"helios/pkg/logger"
)

// Publisher publishes lifecycle events to Kafka as JSON. Implements the
// rebalance controller's EventPublisher. Publishing is best effort; a
// broker outage never blocks a cycle.
type Publisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

// NewPublisher creates a new event publisher
func NewPublisher(producer *kafka.Producer) *Publisher {
	return &Publisher{
		producer: producer,
		log:      logger.Get().With("component", "event_publisher"),
	}
}

// BaseEvent carries fields common to all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
}

func newBaseEvent() BaseEvent {
	return BaseEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now(),
	}
}

// PortfolioBuiltEvent is emitted when a target portfolio is constructed
type PortfolioBuiltEvent struct {
	BaseEvent
	Portfolio *portfolio.Portfolio `json:"portfolio"`
	Analysis  portfolio.Analysis   `json:"analysis"`
}

// TradeExecutedEvent is emitted per issued trade instruction
type TradeExecutedEvent struct {
	BaseEvent
	Instruction portfolio.TradeInstruction `json:"instruction"`
	Success     bool                       `json:"success"`
	Error       string                     `json:"error,omitempty"`
}

// RebalanceCompletedEvent is emitted after a full rebalance cycle
type RebalanceCompletedEvent struct {
	BaseEvent
	Report *rebalance.CycleReport `json:"report"`
}

// WorkerFailedEvent is emitted when a background worker run fails
type WorkerFailedEvent struct {
	BaseEvent
	Worker string `json:"worker"`
	Error  string `json:"error"`
}

// PublishPortfolioBuilt publishes a portfolio built event
func (p *Publisher) PublishPortfolioBuilt(ctx context.Context, built *portfolio.Portfolio, analysis portfolio.Analysis) {
	event := PortfolioBuiltEvent{
		BaseEvent: newBaseEvent(),
		Portfolio: built,
		Analysis:  analysis,
	}
	p.publish(ctx, kafka.TopicPortfolioBuilt, built.ID.String(), event)
}

// PublishTradeExecuted publishes a trade executed event
func (p *Publisher) PublishTradeExecuted(ctx context.Context, instruction portfolio.TradeInstruction, execErr error) {
	event := TradeExecutedEvent{
		BaseEvent:   newBaseEvent(),
		Instruction: instruction,
		Success:     execErr == nil,
	}
	if execErr != nil {
		event.Error = execErr.Error()
	}
	p.publish(ctx, kafka.TopicTradeExecuted, instruction.Mint, event)
}

// PublishRebalanceCompleted publishes a rebalance completed event
func (p *Publisher) PublishRebalanceCompleted(ctx context.Context, report *rebalance.CycleReport) {
	event := RebalanceCompletedEvent{
		BaseEvent: newBaseEvent(),
		Report:    report,
	}
	p.publish(ctx, kafka.TopicRebalanceCompleted, report.Portfolio.ID.String(), event)
}

// PublishWorkerFailed publishes a worker failure event
func (p *Publisher) PublishWorkerFailed(ctx context.Context, worker string, workerErr error) {
	event := WorkerFailedEvent{
		BaseEvent: newBaseEvent(),
		Worker:    worker,
		Error:     workerErr.Error(),
	}
	p.publish(ctx, kafka.TopicWorkerFailed, worker, event)
}

func (p *Publisher) publish(ctx context.Context, topic, key string, event interface{}) {
	if err := p.producer.Publish(ctx, topic, key, event); err != nil {
		p.log.Warnw("Failed to publish event", "topic", topic, "error", err)
	}
}
