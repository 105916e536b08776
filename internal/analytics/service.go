// Package analytics computes the dashboard's derived metrics from raw order,
// chat, and alert data. All aggregation happens in Go: the chat transcript
// carries mixed timestamp representations that SurrealQL cannot order, so the
// service fetches whole (bounded) tables and folds them in memory.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/models"
)

// Fetcher supplies raw rows for aggregation. *db.Client satisfies it.
type Fetcher interface {
	AllOrders(ctx context.Context) ([]models.Order, error)
	AllChatMessages(ctx context.Context) ([]models.ChatMessage, error)
	RecentChatMessages(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error)
	ListAlerts(ctx context.Context, status string) ([]models.EscalationAlert, error)
	AlertCounts(ctx context.Context) (total, pending int, err error)
	ResolveAlert(ctx context.Context, alertID string) (*models.EscalationAlert, error)
}

// ChatbotMetrics summarizes agent performance for the dashboard overview.
type ChatbotMetrics struct {
	UsersServed           int     `json:"users_served"`
	UsersToday            int     `json:"users_today"`
	TotalConversations    int     `json:"total_conversations"`
	AvgResponseTime       float64 `json:"avg_response_time"`
	HumanInterventionRate float64 `json:"human_intervention_rate"`
	AutoResolutionRate    float64 `json:"auto_resolution_rate"`
	PendingAlerts         int     `json:"pending_alerts"`
}

// CategoryCount is one bucket of a count-by-category breakdown.
type CategoryCount struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Amount   float64 `json:"amount,omitempty"`
}

// ReasonCount is one refund-reason bucket.
type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// RefundStatistics aggregates processed refunds.
type RefundStatistics struct {
	TotalRefunds int             `json:"total_refunds"`
	TotalAmount  float64         `json:"total_amount"`
	RefundRate   float64         `json:"refund_rate"`
	ByCategory   []CategoryCount `json:"by_category"`
	Reasons      []ReasonCount   `json:"reasons"`
}

// RatingCount is one service-rating bucket.
type RatingCount struct {
	Rating int `json:"rating"`
	Count  int `json:"count"`
}

// ServiceRatings aggregates customer service ratings across orders.
type ServiceRatings struct {
	AvgRating    float64       `json:"avg_rating"`
	TotalRatings int           `json:"total_ratings"`
	Distribution []RatingCount `json:"distribution"`
}

// OrderAnalytics aggregates the order catalogue itself.
type OrderAnalytics struct {
	TotalOrders       int             `json:"total_orders"`
	DelayedDeliveries int             `json:"delayed_deliveries"`
	DelayRate         float64         `json:"delay_rate"`
	AvgDeliveryTime   float64         `json:"avg_delivery_time"`
	AvgOrderValue     float64         `json:"avg_order_value"`
	ByPlatform        []CategoryCount `json:"by_platform"`
	ByCategory        []CategoryCount `json:"by_category"`
}

// Service computes dashboard metrics on demand. It holds no state beyond its
// data source; every call reads fresh rows.
type Service struct {
	fetcher Fetcher
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates an analytics service over the given data source.
func NewService(fetcher Fetcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{fetcher: fetcher, logger: logger, now: time.Now}
}

// ChatbotMetrics computes the overview metrics: distinct users, conversation
// count (message pairs), average user-to-bot response time, and intervention
// rates. Response samples outside (0s, 60s) are discarded; anything longer is
// a user walking away, not the bot responding.
func (s *Service) ChatbotMetrics(ctx context.Context) (*ChatbotMetrics, error) {
	msgs, err := s.fetcher.AllChatMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("chatbot metrics: %w", err)
	}

	users := map[string]struct{}{}
	usersToday := map[string]struct{}{}
	midnight := s.midnight()
	for _, m := range msgs {
		users[m.UserID] = struct{}{}
		if m.SortKey() >= midnight {
			usersToday[m.UserID] = struct{}{}
		}
	}

	total, pending, err := s.fetcher.AlertCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("chatbot metrics: %w", err)
	}

	interventionRate := 0.0
	if len(users) > 0 {
		interventionRate = float64(total) / float64(len(users)) * 100
	}

	return &ChatbotMetrics{
		UsersServed:           len(users),
		UsersToday:            len(usersToday),
		TotalConversations:    len(msgs) / 2,
		AvgResponseTime:       avgResponseTime(msgs),
		HumanInterventionRate: interventionRate,
		AutoResolutionRate:    100 - interventionRate,
		PendingAlerts:         pending,
	}, nil
}

// avgResponseTime averages the gap between each user message and the system
// reply that immediately follows it, per user, over the sane window.
func avgResponseTime(msgs []models.ChatMessage) float64 {
	byUser := map[string][]models.ChatMessage{}
	for _, m := range msgs {
		byUser[m.UserID] = append(byUser[m.UserID], m)
	}

	var sum float64
	var n int
	for _, conv := range byUser {
		for i := 0; i+1 < len(conv); i++ {
			if conv[i].From != models.RoleUser || conv[i+1].From != models.RoleSystem {
				continue
			}
			dt := conv[i+1].SortKey() - conv[i].SortKey()
			if dt > 0 && dt < 60 {
				sum += dt
				n++
			}
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// RefundStatistics aggregates processed refunds by category and by reason.
// Reasons are keyed on customer feedback keywords, not on the structured
// refund reason: the feedback text is what the original dataset carries.
func (s *Service) RefundStatistics(ctx context.Context) (*RefundStatistics, error) {
	orders, err := s.fetcher.AllOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("refund statistics: %w", err)
	}

	stats := &RefundStatistics{}
	byCategory := map[string]*CategoryCount{}
	reasons := map[string]int{}

	for i := range orders {
		o := &orders[i]
		if !o.Refunded() {
			continue
		}
		stats.TotalRefunds++
		stats.TotalAmount += o.OrderValue

		cat := o.ProductCategory
		if cat == "" {
			cat = "Unknown"
		}
		bucket, ok := byCategory[cat]
		if !ok {
			bucket = &CategoryCount{Category: cat}
			byCategory[cat] = bucket
		}
		bucket.Count++
		bucket.Amount += o.OrderValue

		reasons[refundReason(o.CustomerFeedback)]++
	}

	if len(orders) > 0 {
		stats.RefundRate = float64(stats.TotalRefunds) / float64(len(orders)) * 100
	}
	stats.ByCategory = sortedCategories(byCategory)
	stats.Reasons = sortedReasons(reasons)
	return stats, nil
}

// refundReason buckets free-text feedback into the dashboard's reason labels.
func refundReason(feedback string) string {
	f := strings.ToLower(feedback)
	switch {
	case strings.Contains(f, "missing"):
		return "Items Missing"
	case strings.Contains(f, "late"), strings.Contains(f, "delay"):
		return "Late Delivery"
	case strings.Contains(f, "damaged"):
		return "Damaged Items"
	default:
		return "Other"
	}
}

// ServiceRatings aggregates the 1-5 service ratings; zero means unrated and
// is excluded.
func (s *Service) ServiceRatings(ctx context.Context) (*ServiceRatings, error) {
	orders, err := s.fetcher.AllOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("service ratings: %w", err)
	}

	counts := map[int]int{}
	var sum, n int
	for i := range orders {
		r := orders[i].ServiceRating
		if r == 0 {
			continue
		}
		counts[r]++
		sum += r
		n++
	}

	out := &ServiceRatings{TotalRatings: n}
	if n > 0 {
		out.AvgRating = float64(sum) / float64(n)
	}
	for r, c := range counts {
		out.Distribution = append(out.Distribution, RatingCount{Rating: r, Count: c})
	}
	sort.Slice(out.Distribution, func(i, j int) bool {
		return out.Distribution[i].Rating < out.Distribution[j].Rating
	})
	return out, nil
}

// OrderAnalytics aggregates the whole order catalogue.
func (s *Service) OrderAnalytics(ctx context.Context) (*OrderAnalytics, error) {
	orders, err := s.fetcher.AllOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("order analytics: %w", err)
	}

	out := &OrderAnalytics{TotalOrders: len(orders)}
	byPlatform := map[string]*CategoryCount{}
	byCategory := map[string]*CategoryCount{}
	var deliverySum, deliveryN int
	var valueSum float64
	var valueN int

	for i := range orders {
		o := &orders[i]
		if o.DeliveryDelay == "Yes" {
			out.DelayedDeliveries++
		}
		if o.DeliveryTimeMinutes > 0 {
			deliverySum += o.DeliveryTimeMinutes
			deliveryN++
		}
		if o.OrderValue > 0 {
			valueSum += o.OrderValue
			valueN++
		}
		bump(byPlatform, orDefault(o.Platform, "Unknown"))
		bump(byCategory, orDefault(o.ProductCategory, "Unknown"))
	}

	if out.TotalOrders > 0 {
		out.DelayRate = float64(out.DelayedDeliveries) / float64(out.TotalOrders) * 100
	}
	if deliveryN > 0 {
		out.AvgDeliveryTime = float64(deliverySum) / float64(deliveryN)
	}
	if valueN > 0 {
		out.AvgOrderValue = valueSum / float64(valueN)
	}
	out.ByPlatform = sortedCategories(byPlatform)
	out.ByCategory = sortedCategories(byCategory)
	return out, nil
}

// RecentConversations returns the newest messages, oldest first, optionally
// filtered to a single user.
func (s *Service) RecentConversations(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = 20
	}
	msgs, err := s.fetcher.RecentChatMessages(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent conversations: %w", err)
	}
	return msgs, nil
}

// Alerts lists escalation alerts, newest first, optionally filtered by status.
func (s *Service) Alerts(ctx context.Context, status string) ([]models.EscalationAlert, error) {
	alerts, err := s.fetcher.ListAlerts(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, nil
}

// ResolveAlert marks a pending alert resolved. Resolving twice, or resolving
// an unknown id, fails with the store's not-found error.
func (s *Service) ResolveAlert(ctx context.Context, alertID string) (*models.EscalationAlert, error) {
	alert, err := s.fetcher.ResolveAlert(ctx, alertID)
	if err != nil {
		return nil, fmt.Errorf("resolve alert %s: %w", alertID, err)
	}
	s.logger.Info("alert resolved", "alert_id", alertID, "user_id", alert.UserID)
	return alert, nil
}

// midnight returns today's local midnight as a Unix-seconds sort key.
func (s *Service) midnight() float64 {
	now := s.now()
	y, m, d := now.Date()
	return float64(time.Date(y, m, d, 0, 0, 0, 0, now.Location()).Unix())
}

func bump(buckets map[string]*CategoryCount, key string) {
	b, ok := buckets[key]
	if !ok {
		b = &CategoryCount{Category: key}
		buckets[key] = b
	}
	b.Count++
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func sortedCategories(buckets map[string]*CategoryCount) []CategoryCount {
	out := make([]CategoryCount, 0, len(buckets))
	for _, b := range buckets {
		b.Amount = math.Round(b.Amount*100) / 100
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func sortedReasons(reasons map[string]int) []ReasonCount {
	out := make([]ReasonCount, 0, len(reasons))
	for r, c := range reasons {
		out = append(out, ReasonCount{Reason: r, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}
