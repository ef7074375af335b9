package trend

import (
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// AnalyzerConfig contains thresholds for trend classification
type AnalyzerConfig struct {
	HistorySize       int     // samples kept per topic / indicator
	StableBandPct     float64 // |percent change| at or below this is stable
	SentimentShiftPts float64 // min positive-pct delta to leave stable
	FearGreedWindow   int     // window length for the shift comparison
	FearGreedShiftPts float64 // min window-average delta to leave stable
}

// DefaultAnalyzerConfig returns default configuration
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		HistorySize:       24,
		StableBandPct:     5.0,
		SentimentShiftPts: 2.0,
		FearGreedWindow:   3,
		FearGreedShiftPts: 5.0,
	}
}

// history is a fixed-capacity FIFO ring buffer; the oldest sample is
// evicted on overflow
type history[T any] struct {
	buf  []T
	head int
	size int
}

func newHistory[T any](capacity int) *history[T] {
	return &history[T]{buf: make([]T, capacity)}
}

func (h *history[T]) append(v T) {
	if h.size < len(h.buf) {
		h.buf[(h.head+h.size)%len(h.buf)] = v
		h.size++
		return
	}
	h.buf[h.head] = v
	h.head = (h.head + 1) % len(h.buf)
}

// values returns samples ordered oldest to newest
func (h *history[T]) values() []T {
	out := make([]T, h.size)
	for i := 0; i < h.size; i++ {
		out[i] = h.buf[(h.head+i)%len(h.buf)]
	}
	return out
}

func (h *history[T]) len() int {
	return h.size
}

// Analyzer maintains bounded time-series history for tracked topics and
// the two market-mood indicators, and derives directional signals from
// them. All state is in-memory; a restart degrades to "insufficient
// history" rather than corrupting anything.
type Analyzer struct {
	cfg AnalyzerConfig

	mu        sync.RWMutex
	topics    map[string]*history[TopicScore]
	sentiment *history[SentimentSnapshot]
	fearGreed *history[FearGreedSnapshot]
}

// NewAnalyzer creates a trend analyzer
func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	if cfg.HistorySize <= 0 {
		cfg = DefaultAnalyzerConfig()
	}
	return &Analyzer{
		cfg:       cfg,
		topics:    make(map[string]*history[TopicScore]),
		sentiment: newHistory[SentimentSnapshot](cfg.HistorySize),
		fearGreed: newHistory[FearGreedSnapshot](cfg.HistorySize),
	}
}

// RecordTopicScores appends each score to its topic's bounded history
func (a *Analyzer) RecordTopicScores(scores []TopicScore) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, s := range scores {
		h, ok := a.topics[s.Topic]
		if !ok {
			h = newHistory[TopicScore](a.cfg.HistorySize)
			a.topics[s.Topic] = h
		}
		h.append(s)
	}
}

// RecordSentiment appends a sentiment snapshot to the bounded history
func (a *Analyzer) RecordSentiment(s SentimentSnapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sentiment.append(s)
}

// RecordFearGreed appends a fear/greed snapshot to the bounded history
func (a *Analyzer) RecordFearGreed(s FearGreedSnapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fearGreed.append(s)
}

// ComputeTrends derives a trend point for every topic with at least two
// samples, sorted by descending absolute strength. Topics with shorter
// history are excluded, not an error.
func (a *Analyzer) ComputeTrends() []Point {
	a.mu.RLock()
	defer a.mu.RUnlock()

	points := make([]Point, 0, len(a.topics))
	for topic, h := range a.topics {
		if h.len() < 2 {
			continue
		}
		samples := h.values()
		current := samples[len(samples)-1].PopularityScore
		previous := samples[len(samples)-2].PopularityScore

		change := percentChange(current, previous)

		points = append(points, Point{
			Topic:         topic,
			CurrentScore:  current,
			PreviousScore: previous,
			Direction:     a.classify(change),
			StrengthPct:   change,
		})
	}

	sort.Slice(points, func(i, j int) bool {
		return math.Abs(points[i].StrengthPct) > math.Abs(points[j].StrengthPct)
	})
	return points
}

// SentimentTrend compares the positive share of the last two sentiment
// snapshots
func (a *Analyzer) SentimentTrend() Shift {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sentimentTrendLocked()
}

func (a *Analyzer) sentimentTrendLocked() Shift {
	if a.sentiment.len() < 2 {
		return ShiftStable
	}
	samples := a.sentiment.values()
	delta := samples[len(samples)-1].PositivePct - samples[len(samples)-2].PositivePct

	switch {
	case delta >= a.cfg.SentimentShiftPts:
		return ShiftImproving
	case delta <= -a.cfg.SentimentShiftPts:
		return ShiftDeclining
	default:
		return ShiftStable
	}
}

// FearGreedTrend returns the latest snapshot, the historical mean and
// population standard deviation (volatility), and the windowed shift
func (a *Analyzer) FearGreedTrend() FearGreedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.fearGreedTrendLocked()
}

func (a *Analyzer) fearGreedTrendLocked() FearGreedStats {
	stats := FearGreedStats{Shift: ShiftStable}
	if a.fearGreed.len() == 0 {
		return stats
	}

	samples := a.fearGreed.values()
	current := samples[len(samples)-1]
	stats.Current = &current

	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.TodayValue
	}
	stats.Mean = stat.Mean(values, nil)
	stats.Volatility = stat.PopStdDev(values, nil)

	// Shift: average of the newest window vs the window before it
	w := a.cfg.FearGreedWindow
	if len(values) >= 2*w {
		recent := stat.Mean(values[len(values)-w:], nil)
		prior := stat.Mean(values[len(values)-2*w:len(values)-w], nil)
		delta := recent - prior
		switch {
		case delta > a.cfg.FearGreedShiftPts:
			stats.Shift = ShiftImproving
		case delta < -a.cfg.FearGreedShiftPts:
			stats.Shift = ShiftDeclining
		}
	}

	return stats
}

// SummaryStats aggregates trend counts and classifies the overall market
// condition.
//
// Classification uses the weighted multi-signal vote: bullish when at
// least three of {fear/greed > 60, positive sentiment > 55, rising >
// falling, fear/greed shift improving} hold, bearish when at least three
// of the mirrored signals hold, neutral otherwise.
func (a *Analyzer) SummaryStats() SummaryStats {
	points := a.ComputeTrends()

	a.mu.RLock()
	defer a.mu.RUnlock()

	out := SummaryStats{Condition: ConditionNeutral}

	for _, p := range points {
		switch p.Direction {
		case DirectionRising:
			out.RisingCount++
		case DirectionFalling:
			out.FallingCount++
		default:
			out.StableCount++
		}
	}

	for i := 0; i < len(points) && i < 3; i++ {
		out.TopTopics = append(out.TopTopics, points[i].Topic)
	}

	fg := a.fearGreedTrendLocked()
	if fg.Current != nil {
		out.FearGreedValue = fg.Current.TodayValue
	}
	if a.sentiment.len() > 0 {
		samples := a.sentiment.values()
		out.PositivePct = samples[len(samples)-1].PositivePct
	}

	bullish := 0
	if fg.Current != nil && fg.Current.TodayValue > 60 {
		bullish++
	}
	if out.PositivePct > 55 {
		bullish++
	}
	if out.RisingCount > out.FallingCount {
		bullish++
	}
	if fg.Shift == ShiftImproving {
		bullish++
	}

	bearish := 0
	if fg.Current != nil && fg.Current.TodayValue < 40 {
		bearish++
	}
	if out.PositivePct < 45 && a.sentiment.len() > 0 {
		bearish++
	}
	if out.FallingCount > out.RisingCount {
		bearish++
	}
	if fg.Shift == ShiftDeclining {
		bearish++
	}

	switch {
	case bullish >= 3:
		out.Condition = ConditionBullish
	case bearish >= 3:
		out.Condition = ConditionBearish
	}

	return out
}

// classify maps a percent change to a direction. A change exactly on the
// band edge counts as stable.
func (a *Analyzer) classify(changePct float64) Direction {
	if math.Abs(changePct) <= a.cfg.StableBandPct {
		return DirectionStable
	}
	if changePct > 0 {
		return DirectionRising
	}
	return DirectionFalling
}

// percentChange handles the zero-previous edge: any growth from zero is
// treated as +100%, no growth as 0%
func percentChange(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - previous) / previous * 100
}
