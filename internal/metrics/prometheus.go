package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "helios_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "helios_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// Market data collaborator metrics
	CollaboratorErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_collaborator_errors_total",
			Help: "Total number of failed collaborator fetches",
		},
		[]string{"collaborator"}, // market_data|news|sentiment|fear_greed
	)

	CollaboratorLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "helios_collaborator_latency_seconds",
			Help:    "External collaborator fetch latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"collaborator"},
	)

	// Rebalance metrics
	RebalanceCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_rebalance_cycles_total",
			Help: "Total number of rebalance cycles",
		},
		[]string{"status"}, // status: completed|skipped|error
	)

	RebalanceDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "helios_rebalance_duration_seconds",
			Help:    "Rebalance cycle duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	TradeInstructions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_trade_instructions_total",
			Help: "Total number of trade instructions issued",
		},
		[]string{"side", "status"}, // side: buy|sell, status: success|error
	)

	// Portfolio metrics
	PortfolioTokens = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "helios_portfolio_tokens",
			Help: "Number of tokens in the current portfolio",
		},
	)

	PortfoliosBuilt = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_portfolios_built_total",
			Help: "Total number of target portfolios built",
		},
		[]string{"risk_level"},
	)

	CandidatesFiltered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_candidates_filtered_total",
			Help: "Total candidates dropped during selection",
		},
		[]string{"reason"}, // invalid|risk_tolerance|low_confidence|diversification
	)

	// Market metrics
	MarketCondition = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "helios_market_condition",
			Help: "Current market condition (1 for the active condition, 0 otherwise)",
		},
		[]string{"condition"}, // bullish|bearish|neutral
	)

	CandidateAssets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "helios_candidate_assets",
			Help: "Number of candidate assets in the latest market snapshot",
		},
	)

	// AI metrics
	AICalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_ai_calls_total",
			Help: "Total number of AI extraction calls",
		},
		[]string{"model", "status"}, // status: success|error|fallback
	)

	AILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "helios_ai_latency_seconds",
			Help:    "AI call latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"model"},
	)

	// System metrics
	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_kafka_messages_total",
			Help: "Total Kafka messages produced",
		},
		[]string{"topic", "status"}, // status: success|error
	)

	RedisOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_redis_operations_total",
			Help: "Total Redis operations",
		},
		[]string{"operation", "status"},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	// Worker metrics
	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)
	prometheus.MustRegister(WorkerLastRun)

	// Collaborator metrics
	prometheus.MustRegister(CollaboratorErrors)
	prometheus.MustRegister(CollaboratorLatency)

	// Rebalance metrics
	prometheus.MustRegister(RebalanceCycles)
	prometheus.MustRegister(RebalanceDuration)
	prometheus.MustRegister(TradeInstructions)

	// Portfolio metrics
	prometheus.MustRegister(PortfolioTokens)
	prometheus.MustRegister(PortfoliosBuilt)
	prometheus.MustRegister(CandidatesFiltered)

	// Market metrics
	prometheus.MustRegister(MarketCondition)
	prometheus.MustRegister(CandidateAssets)

	// AI metrics
	prometheus.MustRegister(AICalls)
	prometheus.MustRegister(AILatency)

	// System metrics
	prometheus.MustRegister(KafkaMessages)
	prometheus.MustRegister(RedisOperations)
}

// Register registers an additional collector
func Register(c prometheus.Collector) error {
	return prometheus.Register(c)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordCollaboratorFetch records an external collaborator call
func RecordCollaboratorFetch(collaborator string, latency time.Duration, err error) {
	CollaboratorLatency.WithLabelValues(collaborator).Observe(latency.Seconds())
	if err != nil {
		CollaboratorErrors.WithLabelValues(collaborator).Inc()
	}
}

// RecordAICall records an AI extraction call
func RecordAICall(model string, latency time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	AICalls.WithLabelValues(model, status).Inc()
	AILatency.WithLabelValues(model).Observe(latency.Seconds())
}
