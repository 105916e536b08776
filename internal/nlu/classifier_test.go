package nlu

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/models"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/resilience"
)

func TestClassify(t *testing.T) {
	t.Run("returns classification from service", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var req classifyRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "I want a refund for my order", req.Text)

			json.NewEncoder(w).Encode(models.NLUResult{
				Intent:              "request_refund",
				IntentConfidence:    0.97,
				Sentiment:           "negative",
				SentimentConfidence: 0.84,
			})
		}))
		defer srv.Close()

		c := NewHTTPClassifier(srv.URL, 5*time.Second, nil)
		result, err := c.Classify(context.Background(), "I want a refund for my order")
		require.NoError(t, err)
		assert.Equal(t, "request_refund", result.Intent)
		assert.InDelta(t, 0.97, result.IntentConfidence, 1e-9)
		assert.Equal(t, "negative", result.Sentiment)
	})

	t.Run("retries transient server errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				http.Error(w, "overloaded", http.StatusServiceUnavailable)
				return
			}
			json.NewEncoder(w).Encode(models.NLUResult{Intent: "track_order", IntentConfidence: 0.9})
		}))
		defer srv.Close()

		c := NewHTTPClassifier(srv.URL, 5*time.Second, nil,
			WithRetry(resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond}))

		result, err := c.Classify(context.Background(), "where is my order")
		require.NoError(t, err)
		assert.Equal(t, "track_order", result.Intent)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("fails after retries exhausted", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "broken", http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := NewHTTPClassifier(srv.URL, 5*time.Second, nil,
			WithRetry(resilience.Config{MaxRetries: 1, InitialBackoff: time.Millisecond}))

		_, err := c.Classify(context.Background(), "hello")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "classifier returned 500")
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		c := NewHTTPClassifier(srv.URL, 5*time.Second, nil,
			WithRetry(resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond}))
		_, err := c.Classify(ctx, "slow")
		require.Error(t, err)
	})
}
