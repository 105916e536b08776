package tools

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/db"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/escalate"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/models"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/refund"
)

// stubTool is a configurable tool for dispatcher tests.
type stubTool struct {
	name    string
	result  map[string]any
	err     error
	panics  bool
	lastArg map[string]any
}

func (s *stubTool) Name() string { return s.name }

func (s *stubTool) Definition() llms.Tool {
	return llms.Tool{Type: "function", Function: &llms.FunctionDefinition{Name: s.name}}
}

func (s *stubTool) Execute(_ context.Context, _ Turn, args map[string]any) (map[string]any, error) {
	s.lastArg = args
	if s.panics {
		panic("boom")
	}
	return s.result, s.err
}

// memOrderStore backs a real refund.Service in tool tests.
type memOrderStore struct {
	orders map[string]*models.Order
}

func (s *memOrderStore) GetOrder(_ context.Context, orderID string) (*models.Order, error) {
	o, ok := s.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", orderID, db.ErrNotFound)
	}
	copied := *o
	return &copied, nil
}

func (s *memOrderStore) MarkOrderRefunded(_ context.Context, orderID string, amount float64, reason string, at time.Time) (bool, error) {
	o, ok := s.orders[orderID]
	if !ok || o.RefundRequested == models.RefundProcessed {
		return false, nil
	}
	o.RefundRequested = models.RefundProcessed
	o.RefundAmount = &amount
	o.RefundReason = &reason
	o.RefundDate = &at
	return true, nil
}

type memAlertStore struct {
	alerts []*models.EscalationAlert
}

func (s *memAlertStore) InsertAlert(_ context.Context, alert *models.EscalationAlert) error {
	s.alerts = append(s.alerts, alert)
	return nil
}

func newRefundService(orders ...*models.Order) *refund.Service {
	store := &memOrderStore{orders: make(map[string]*models.Order)}
	for _, o := range orders {
		store.orders[o.OrderID] = o
	}
	return refund.NewService(store, nil)
}

func TestDispatcher(t *testing.T) {
	ctx := context.Background()
	turn := Turn{UserID: "user-1", MessageText: "hello"}

	t.Run("unknown tool returns structured error", func(t *testing.T) {
		d := NewDispatcher(nil)
		result := d.Dispatch(ctx, turn, "unknown_tool", nil)
		assert.Equal(t, map[string]any{"error": "Tool unknown_tool not available"}, result)
	})

	t.Run("handler error converted to error result", func(t *testing.T) {
		d := NewDispatcher(nil, &stubTool{name: "failing", err: errors.New("backend down")})
		result := d.Dispatch(ctx, turn, "failing", nil)
		assert.Equal(t, map[string]any{"error": "backend down"}, result)
	})

	t.Run("panic recovered into error result", func(t *testing.T) {
		d := NewDispatcher(nil, &stubTool{name: "panicky", panics: true})
		result := d.Dispatch(ctx, turn, "panicky", nil)
		assert.Equal(t, map[string]any{"error": "boom"}, result)
	})

	t.Run("successful result passed through", func(t *testing.T) {
		d := NewDispatcher(nil, &stubTool{name: "ok", result: map[string]any{"answer": 42.0}})
		result := d.Dispatch(ctx, turn, "ok", map[string]any{"in": "put"})
		assert.Equal(t, map[string]any{"answer": 42.0}, result)
	})

	t.Run("definitions cover all registered tools", func(t *testing.T) {
		d := NewDispatcher(nil, &stubTool{name: "a"}, &stubTool{name: "b"})
		defs := d.Definitions()
		require.Len(t, defs, 2)
		names := []string{defs[0].Function.Name, defs[1].Function.Name}
		assert.ElementsMatch(t, []string{"a", "b"}, names)
	})
}

func TestOrderLookupTool(t *testing.T) {
	ctx := context.Background()
	svc := newRefundService(&models.Order{
		OrderID:         "ORD000032",
		ProductCategory: "Personal Care",
		OrderValue:      1651,
		RefundRequested: models.RefundNotRequested,
	})
	tool := NewOrderLookupTool(svc)

	t.Run("returns order fields", func(t *testing.T) {
		result, err := tool.Execute(ctx, Turn{}, map[string]any{"order_id": "ord000032"})
		require.NoError(t, err)
		assert.Equal(t, "ORD000032", result["order_id"])
		assert.Equal(t, "Personal Care", result["product_category"])
		assert.Equal(t, 1651.0, result["order_value"])
	})

	t.Run("missing order is an error result not an error", func(t *testing.T) {
		result, err := tool.Execute(ctx, Turn{}, map[string]any{"order_id": "ORD999999"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"error": "Order ID not found."}, result)
	})

	t.Run("missing argument fails", func(t *testing.T) {
		_, err := tool.Execute(ctx, Turn{}, map[string]any{})
		require.Error(t, err)
	})
}

func TestRefundTools(t *testing.T) {
	ctx := context.Background()

	t.Run("eligibility for eligible order", func(t *testing.T) {
		tool := NewEligibilityTool(newRefundService(&models.Order{
			OrderID:         "ORD000032",
			ProductCategory: "Personal Care",
			OrderValue:      1651,
			RefundRequested: models.RefundNotRequested,
		}))

		result, err := tool.Execute(ctx, Turn{}, map[string]any{"order_id": "ORD000032"})
		require.NoError(t, err)
		assert.Equal(t, true, result["eligible"])
		assert.Equal(t, 82.55, result["shipping_fee"])
		assert.Equal(t, 1568.45, result["refund_amount"])
	})

	t.Run("eligibility for beverage order", func(t *testing.T) {
		tool := NewEligibilityTool(newRefundService(&models.Order{
			OrderID:         "ORD000003",
			ProductCategory: "Beverages",
			OrderValue:      250,
			RefundRequested: models.RefundNotRequested,
		}))

		result, err := tool.Execute(ctx, Turn{}, map[string]any{"order_id": "ORD000003"})
		require.NoError(t, err)
		assert.Equal(t, false, result["eligible"])
	})

	t.Run("process refund accepts quoted amount", func(t *testing.T) {
		tool := NewProcessRefundTool(newRefundService(&models.Order{
			OrderID:         "ORD000032",
			ProductCategory: "Personal Care",
			OrderValue:      1651,
			RefundRequested: models.RefundNotRequested,
		}))

		result, err := tool.Execute(ctx, Turn{}, map[string]any{
			"order_id": "ORD000032",
			"amount":   "1568.45",
			"reason":   "Damaged items",
		})
		require.NoError(t, err)
		assert.Equal(t, models.RefundStatusSuccess, result["status"])
		assert.Equal(t, 1568.45, result["amount_refunded"])
		assert.Contains(t, result["transaction_id"], "RFND_")
		assert.Contains(t, result["transaction_id"], "ORD000032")
	})
}

func TestEscalationToolInjectsUserID(t *testing.T) {
	ctx := context.Background()
	store := &memAlertStore{}
	tool := NewEscalationTool(escalate.NewService(store, nil, nil))

	// The model tries to escalate on behalf of another user; the injected
	// turn identity must win.
	result, err := tool.Execute(ctx, Turn{UserID: "real-user", MessageText: "I want a human"}, map[string]any{
		"reason":   "customer asked for an agent",
		"priority": "high",
		"user_id":  "spoofed-user",
	})
	require.NoError(t, err)
	assert.Equal(t, "success", result["status"])

	require.Len(t, store.alerts, 1)
	assert.Equal(t, "real-user", store.alerts[0].UserID)
	assert.Equal(t, "I want a human", store.alerts[0].LastMessage)
	assert.Equal(t, models.AlertPriorityHigh, store.alerts[0].Priority)
}
