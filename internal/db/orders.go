package db

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/models"
)

// GetOrder retrieves an order by its business id (e.g. "ORD000032").
// Returns ErrNotFound when no such order exists.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	results, err := surrealdb.Query[[]models.Order](ctx, c.db, `
		SELECT * FROM order_detail WHERE order_id = $order_id LIMIT 1
	`, map[string]any{"order_id": orderID})

	if err != nil {
		return nil, fmt.Errorf("get order: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	return &(*results)[0].Result[0], nil
}

// UpsertOrder creates or replaces an order keyed by order_id. Used by the
// seeding CLI and by tests.
func (c *Client) UpsertOrder(ctx context.Context, order *models.Order) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPSERT order_detail SET
			order_id = $order_id,
			platform = $platform,
			order_date_time = $order_date_time,
			product_category = $product_category,
			order_value = $order_value,
			delivery_time_minutes = $delivery_time_minutes,
			service_rating = $service_rating,
			customer_feedback = $customer_feedback,
			delivery_delay = $delivery_delay,
			refund_requested = $refund_requested
		WHERE order_id = $order_id
	`, map[string]any{
		"order_id":              order.OrderID,
		"platform":              order.Platform,
		"order_date_time":       order.OrderDateTime,
		"product_category":      order.ProductCategory,
		"order_value":           order.OrderValue,
		"delivery_time_minutes": order.DeliveryTimeMinutes,
		"service_rating":        order.ServiceRating,
		"customer_feedback":     order.CustomerFeedback,
		"delivery_delay":        order.DeliveryDelay,
		"refund_requested":      order.RefundRequested,
	})
	if err != nil {
		return fmt.Errorf("upsert order: %w", wrapQueryError(err))
	}
	return nil
}

// MarkOrderRefunded transitions an order to the Processed refund state in a
// single conditional update. The WHERE clause guards against double refunds:
// if the order was already processed (or does not exist) zero rows come back
// and the caller must distinguish the two cases with GetOrder.
// Returns true when the transition happened.
func (c *Client) MarkOrderRefunded(ctx context.Context, orderID string, amount float64, reason string, at time.Time) (bool, error) {
	results, err := surrealdb.Query[[]models.Order](ctx, c.db, `
		UPDATE order_detail SET
			refund_requested = $processed,
			refund_amount = $amount,
			refund_reason = $reason,
			refund_date = $date
		WHERE order_id = $order_id AND refund_requested != $processed
		RETURN AFTER
	`, map[string]any{
		"order_id":  orderID,
		"processed": models.RefundProcessed,
		"amount":    amount,
		"reason":    reason,
		"date":      at,
	})
	if err != nil {
		return false, fmt.Errorf("mark order refunded: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return false, nil
	}
	return len((*results)[0].Result) > 0, nil
}
