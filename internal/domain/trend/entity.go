package trend

import "time"

// TopicScore is one popularity sample for a tracked topic
type TopicScore struct {
	Topic           string    `json:"topic"`
	PopularityScore float64   `json:"popularity_score"` // 0-100
	SampledAt       time.Time `json:"sampled_at"`
}

// Point is the derived trend between the last two samples of a topic
type Point struct {
	Topic         string    `json:"topic"`
	CurrentScore  float64   `json:"current_score"`
	PreviousScore float64   `json:"previous_score"`
	Direction     Direction `json:"direction"`
	StrengthPct   float64   `json:"strength_pct"`
}

// Direction defines point-to-point trend direction
type Direction string

const (
	DirectionRising  Direction = "rising"
	DirectionFalling Direction = "falling"
	DirectionStable  Direction = "stable"
)

// Valid checks if direction is valid
func (d Direction) Valid() bool {
	switch d {
	case DirectionRising, DirectionFalling, DirectionStable:
		return true
	}
	return false
}

// String returns string representation
func (d Direction) String() string {
	return string(d)
}

// Shift defines how an indicator moved between observation windows
type Shift string

const (
	ShiftImproving Shift = "improving"
	ShiftDeclining Shift = "declining"
	ShiftStable    Shift = "stable"
)

// String returns string representation
func (s Shift) String() string {
	return string(s)
}

// SentimentSnapshot is one aggregated news-sentiment sample
type SentimentSnapshot struct {
	Interval    string    `json:"interval"` // "24h" or "48h"
	Total       int       `json:"total"`
	PositivePct float64   `json:"positive_pct"`
	NegativePct float64   `json:"negative_pct"`
	NeutralPct  float64   `json:"neutral_pct"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// FearGreedSnapshot is one fear/greed index sample with its day-over-day delta
type FearGreedSnapshot struct {
	TodayValue          float64   `json:"today_value"` // 0-100
	TodayClassification string    `json:"today_classification"`
	YesterdayValue      float64   `json:"yesterday_value"`
	Change              float64   `json:"change"`
	TrendClassification string    `json:"trend_classification"`
	RecordedAt          time.Time `json:"recorded_at"`
}

// FearGreedStats describes the fear/greed history: latest snapshot,
// historical mean and volatility, and the windowed shift
type FearGreedStats struct {
	Current    *FearGreedSnapshot `json:"current"`
	Mean       float64            `json:"mean"`
	Volatility float64            `json:"volatility"` // population std dev
	Shift      Shift              `json:"shift"`
}

// MarketCondition classifies the overall market
type MarketCondition string

const (
	ConditionBullish MarketCondition = "bullish"
	ConditionBearish MarketCondition = "bearish"
	ConditionNeutral MarketCondition = "neutral"
)

// Valid checks if market condition is valid
func (c MarketCondition) Valid() bool {
	switch c {
	case ConditionBullish, ConditionBearish, ConditionNeutral:
		return true
	}
	return false
}

// String returns string representation
func (c MarketCondition) String() string {
	return string(c)
}

// SummaryStats aggregates the current trend picture across all signals
type SummaryStats struct {
	RisingCount    int             `json:"rising_count"`
	FallingCount   int             `json:"falling_count"`
	StableCount    int             `json:"stable_count"`
	Condition      MarketCondition `json:"condition"`
	TopTopics      []string        `json:"top_topics"`
	FearGreedValue float64         `json:"fear_greed_value"`
	PositivePct    float64         `json:"positive_pct"`
}
