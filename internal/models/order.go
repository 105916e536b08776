// Package models defines data structures for the resolution agent.
package models

import "time"

// Refund status values for Order.RefundRequested.
// "No" is the import default; the refund service only ever writes "Processed".
const (
	RefundNotRequested = "No"
	RefundProcessed    = "Processed"

	// RefundResult statuses
	RefundStatusSuccess = "success"
	RefundStatusFailed  = "failed"
)

// FoodAndBeverageCategories lists the product categories that can never be
// refunded (health and safety policy). Membership is an exact string match.
var FoodAndBeverageCategories = []string{
	"Beverages",
	"Snacks",
	"Dairy",
	"Fruits & Vegetables",
	"Grocery",
}

// IsFoodAndBeverage reports whether a product category falls under the
// non-refundable Food & Beverage policy.
func IsFoodAndBeverage(category string) bool {
	for _, c := range FoodAndBeverageCategories {
		if category == c {
			return true
		}
	}
	return false
}

// Order is a single order record as imported from the delivery analytics
// dataset, plus refund bookkeeping written by the refund service.
type Order struct {
	OrderID             string     `json:"order_id"`
	Platform            string     `json:"platform,omitempty"`
	OrderDateTime       string     `json:"order_date_time,omitempty"`
	ProductCategory     string     `json:"product_category"`
	OrderValue          float64    `json:"order_value"`
	DeliveryTimeMinutes int        `json:"delivery_time_minutes,omitempty"`
	ServiceRating       int        `json:"service_rating,omitempty"`
	CustomerFeedback    string     `json:"customer_feedback,omitempty"`
	DeliveryDelay       string     `json:"delivery_delay,omitempty"`
	RefundRequested     string     `json:"refund_requested"`
	RefundAmount        *float64   `json:"refund_amount,omitempty"`
	RefundReason        *string    `json:"refund_reason,omitempty"`
	RefundDate          *time.Time `json:"refund_date,omitempty"`
}

// Refunded reports whether a refund has already been processed for the order.
func (o *Order) Refunded() bool {
	return o.RefundRequested == RefundProcessed
}

// IsFoodAndBeverage reports whether the order's category falls under the
// non-refundable Food & Beverage policy.
func (o *Order) IsFoodAndBeverage() bool {
	return IsFoodAndBeverage(o.ProductCategory)
}

// RefundEligibility is the result of an eligibility check. It is derived from
// the current order state and never cached: order value or category could have
// changed between checks.
type RefundEligibility struct {
	Eligible        bool    `json:"eligible"`
	OrderID         string  `json:"order_id"`
	ProductCategory string  `json:"product_category,omitempty"`
	OrderValue      float64 `json:"order_value,omitempty"`
	ShippingFee     float64 `json:"shipping_fee,omitempty"`
	RefundAmount    float64 `json:"refund_amount,omitempty"`
	Reason          string  `json:"reason,omitempty"`
	Message         string  `json:"message"`
}

// RefundResult is returned by refund processing. Failures are values, not
// errors, so the conversational layer can phrase them for the user.
type RefundResult struct {
	Status         string  `json:"status"` // "success" or "failed"
	TransactionID  string  `json:"transaction_id,omitempty"`
	OrderID        string  `json:"order_id"`
	AmountRefunded float64 `json:"amount_refunded,omitempty"`
	Error          string  `json:"error,omitempty"`
	Message        string  `json:"message,omitempty"`
}
