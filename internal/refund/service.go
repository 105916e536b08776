// Package refund implements refund eligibility and processing for orders.
package refund

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/db"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/models"
)

// ShippingFeeRate is withheld from every refund to cover return shipping.
const ShippingFeeRate = 0.05

// TransactionIDPrefix starts every refund transaction id.
const TransactionIDPrefix = "RFND"

// OrderStore is the subset of the order database the refund service needs.
type OrderStore interface {
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	MarkOrderRefunded(ctx context.Context, orderID string, amount float64, reason string, at time.Time) (bool, error)
}

// Service computes refund eligibility and applies refunds. Domain failures
// (unknown order, ineligible category, double refund) are structured results
// rather than errors, so the conversational layer can relay them to the user.
type Service struct {
	store  OrderStore
	logger *slog.Logger

	// injectable for deterministic transaction ids in tests
	now func() time.Time
}

// NewService creates a refund service over the given order store.
func NewService(store OrderStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// QueryOrder looks up an order by its normalized id.
func (s *Service) QueryOrder(ctx context.Context, orderID string) (*models.Order, error) {
	return s.store.GetOrder(ctx, orderID)
}

// CheckEligibility computes refund eligibility for an order. The result is
// always derived fresh from the current order record, never cached. Returns
// an error only for infrastructure failures; "order not found" is an
// ineligible result, not an error.
func (s *Service) CheckEligibility(ctx context.Context, orderID string) (*models.RefundEligibility, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return &models.RefundEligibility{
				Eligible: false,
				OrderID:  orderID,
				Reason:   "not_found",
				Message:  "Order ID not found.",
			}, nil
		}
		return nil, fmt.Errorf("check eligibility: %w", err)
	}

	if order.IsFoodAndBeverage() {
		return &models.RefundEligibility{
			Eligible:        false,
			OrderID:         order.OrderID,
			ProductCategory: order.ProductCategory,
			OrderValue:      order.OrderValue,
			Reason:          "food_and_beverage",
			Message: fmt.Sprintf("Refunds are not available for %s orders due to health and safety policy.",
				order.ProductCategory),
		}, nil
	}

	fee := round2(order.OrderValue * ShippingFeeRate)
	amount := round2(order.OrderValue - fee)
	return &models.RefundEligibility{
		Eligible:        true,
		OrderID:         order.OrderID,
		ProductCategory: order.ProductCategory,
		OrderValue:      order.OrderValue,
		ShippingFee:     fee,
		RefundAmount:    amount,
		Message: fmt.Sprintf("Order %s is eligible for a refund of %.2f (order value %.2f minus %.2f shipping fee).",
			order.OrderID, amount, order.OrderValue, fee),
	}, nil
}

// ProcessRefund applies a refund to an order. The Food & Beverage gate is
// re-enforced here even though CheckEligibility already applies it, so a
// direct call cannot bypass the policy. The actual state transition is a
// single conditional update in the store; losing that race reports "already
// refunded" exactly like a sequential double refund would.
func (s *Service) ProcessRefund(ctx context.Context, orderID string, amount float64, reason string) (*models.RefundResult, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return &models.RefundResult{
				Status:  models.RefundStatusFailed,
				OrderID: orderID,
				Error:   "Order ID not found.",
			}, nil
		}
		return nil, fmt.Errorf("process refund: %w", err)
	}

	if order.IsFoodAndBeverage() {
		return &models.RefundResult{
			Status:  models.RefundStatusFailed,
			OrderID: orderID,
			Error: fmt.Sprintf("Refunds are not available for %s orders due to health and safety policy.",
				order.ProductCategory),
		}, nil
	}

	if order.Refunded() {
		return &models.RefundResult{
			Status:  models.RefundStatusFailed,
			OrderID: orderID,
			Error:   "Order already refunded.",
		}, nil
	}

	now := s.now().UTC()
	updated, err := s.store.MarkOrderRefunded(ctx, orderID, amount, reason, now)
	if err != nil {
		return nil, fmt.Errorf("process refund: %w", err)
	}
	if !updated {
		// Lost a race with a concurrent refund of the same order.
		return &models.RefundResult{
			Status:  models.RefundStatusFailed,
			OrderID: orderID,
			Error:   "Order already refunded.",
		}, nil
	}

	txID := fmt.Sprintf("%s_%s_%s", TransactionIDPrefix, now.Format("20060102150405"), orderID)
	s.logger.Info("refund processed",
		"order_id", orderID,
		"amount", amount,
		"transaction_id", txID,
		"reason", reason)

	return &models.RefundResult{
		Status:         models.RefundStatusSuccess,
		TransactionID:  txID,
		OrderID:        orderID,
		AmountRefunded: amount,
		Message:        "Refund processed successfully.",
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
