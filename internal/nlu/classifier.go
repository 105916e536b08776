// Package nlu calls the external intent/sentiment classifier service.
package nlu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/models"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/resilience"
)

// Classifier produces an intent/sentiment classification for a message.
type Classifier interface {
	Classify(ctx context.Context, text string) (*models.NLUResult, error)
}

// HTTPClassifier talks to the classifier service over HTTP:
// POST {"text": ...} returns {"intent", "intent_confidence", "sentiment",
// "sentiment_confidence"}.
type HTTPClassifier struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	retry   resilience.Config
	logger  *slog.Logger
}

// Option configures an HTTPClassifier.
type Option func(*HTTPClassifier)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClassifier) {
		h.client = c
	}
}

// WithRetry overrides the retry policy.
func WithRetry(cfg resilience.Config) Option {
	return func(h *HTTPClassifier) {
		h.retry = cfg
	}
}

// NewHTTPClassifier creates a classifier client for the given endpoint URL.
func NewHTTPClassifier(url string, timeout time.Duration, logger *slog.Logger, opts ...Option) *HTTPClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	h := &HTTPClassifier{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		breaker: resilience.NewCircuitBreaker("nlu-classifier"),
		retry:   resilience.DefaultConfig,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type classifyRequest struct {
	Text string `json:"text"`
}

// Classify sends the text to the classifier service. Transient failures are
// retried with backoff; a persistently failing service opens the breaker so
// turns degrade fast instead of stacking up timeouts.
func (h *HTTPClassifier) Classify(ctx context.Context, text string) (*models.NLUResult, error) {
	body, err := json.Marshal(classifyRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal classify request: %w", err)
	}

	var result models.NLUResult
	err = resilience.RetryWithBackoff(ctx, h.retry, func() error {
		_, err := h.breaker.Execute(func() (any, error) {
			return nil, h.doClassify(ctx, body, &result)
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	h.logger.Debug("nlu classification",
		"intent", result.Intent,
		"intent_confidence", result.IntentConfidence,
		"sentiment", result.Sentiment,
		"sentiment_confidence", result.SentimentConfidence)
	return &result, nil
}

func (h *HTTPClassifier) doClassify(ctx context.Context, body []byte, out *models.NLUResult) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("call classifier: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("classifier returned %d: %s", resp.StatusCode, snippet)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode classifier response: %w", err)
	}
	return nil
}
