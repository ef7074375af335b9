package ai

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"helios/internal/metrics"
	"helios/pkg/errors"
	"helios/pkg/logger"
)

// Config contains configuration for the topic extractor
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Model:   "gpt-4o-mini",
		Timeout: 30 * time.Second,
	}
}

// TopicExtractor extracts weighted crypto topics from news headlines
// using a chat model. Implements the news client's KeywordExtractor.
type TopicExtractor struct {
	cfg    Config
	client openai.Client // NewClient returns Client (not *Client)
	log    *logger.Logger
}

// NewTopicExtractor creates a topic extractor
func NewTopicExtractor(cfg Config) (*TopicExtractor, error) {
	if cfg.APIKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "openai API key not configured")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
	)

	return &TopicExtractor{
		cfg:    cfg,
		client: client,
		log:    logger.Get().With("component", "topic_extractor"),
	}, nil
}

const systemPrompt = `You extract trending crypto topics from news headlines.
Respond with a JSON object mapping each topic (lowercase, 1-2 words) to a
popularity score from 0 to 100 reflecting how prominent it is across the
headlines. Include at most 15 topics. Respond with JSON only.`

// ExtractTopics asks the model to score the topics mentioned across the
// given headlines
func (e *TopicExtractor) ExtractTopics(ctx context.Context, headlines []string) (map[string]float64, error) {
	if len(headlines) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	started := time.Now()
	completion, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(e.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(strings.Join(headlines, "\n")),
		},
	})
	metrics.RecordAICall(e.cfg.Model, time.Since(started), err)
	if err != nil {
		return nil, errors.Wrap(err, "openai chat completion")
	}

	if len(completion.Choices) == 0 {
		return nil, errors.Wrap(errors.ErrExternal, "empty completion")
	}

	weights, err := parseWeights(completion.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	e.log.Debugw("Extracted topics", "headlines", len(headlines), "topics", len(weights))
	return weights, nil
}

// parseWeights tolerates a fenced code block around the JSON object and
// clamps scores into [0,100]
func parseWeights(content string) (map[string]float64, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var weights map[string]float64
	if err := json.Unmarshal([]byte(content), &weights); err != nil {
		return nil, errors.Wrap(err, "parse topic weights")
	}

	for topic, score := range weights {
		if score < 0 {
			weights[topic] = 0
		}
		if score > 100 {
			weights[topic] = 100
		}
	}
	return weights, nil
}
