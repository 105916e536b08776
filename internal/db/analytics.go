package db

import (
	"context"
	"fmt"
	"sort"

	"github.com/surrealdb/surrealdb.go"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/models"
)

// Data-access primitives for the dashboard. The derived metrics (response
// times, refund rates, reason buckets) live in internal/analytics; these
// functions only fetch and count. Aggregating over mixed-representation chat
// timestamps happens in Go, not in SurrealQL, for the same reason ChatHistory
// sorts in Go.

// AllOrders returns every order. The order table is bounded (a seeded
// catalogue), so the dashboard reads it whole and aggregates in memory.
func (c *Client) AllOrders(ctx context.Context) ([]models.Order, error) {
	results, err := surrealdb.Query[[]models.Order](ctx, c.db, `
		SELECT * FROM order_detail
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("all orders: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 {
		return []models.Order{}, nil
	}
	return (*results)[0].Result, nil
}

// AllChatMessages returns the full chat history sorted oldest first on the
// normalized sort key.
func (c *Client) AllChatMessages(ctx context.Context) ([]models.ChatMessage, error) {
	results, err := surrealdb.Query[[]models.ChatMessage](ctx, c.db, `
		SELECT * FROM chat_history
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("all chat messages: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 {
		return []models.ChatMessage{}, nil
	}

	msgs := (*results)[0].Result
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].SortKey() < msgs[j].SortKey()
	})
	return msgs, nil
}

// RecentChatMessages returns the newest messages across all users (or a
// single user when userID is non-empty), oldest first within the window.
func (c *Client) RecentChatMessages(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error) {
	sql := `SELECT * FROM chat_history`
	vars := map[string]any{}
	if userID != "" {
		sql = `SELECT * FROM chat_history WHERE user_id = $user_id`
		vars["user_id"] = userID
	}

	results, err := surrealdb.Query[[]models.ChatMessage](ctx, c.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("recent chat messages: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 {
		return []models.ChatMessage{}, nil
	}

	msgs := (*results)[0].Result
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].SortKey() < msgs[j].SortKey()
	})
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

// AlertCounts returns the total and pending alert counts.
func (c *Client) AlertCounts(ctx context.Context) (total, pending int, err error) {
	type countRow struct {
		Count int `json:"count"`
	}

	totalRes, err := surrealdb.Query[[]countRow](ctx, c.db, `
		SELECT count() AS count FROM alert GROUP ALL
	`, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("count alerts: %w", wrapQueryError(err))
	}

	pendingRes, err := surrealdb.Query[[]countRow](ctx, c.db, `
		SELECT count() AS count FROM alert WHERE status = $pending GROUP ALL
	`, map[string]any{"pending": models.AlertStatusPending})
	if err != nil {
		return 0, 0, fmt.Errorf("count pending alerts: %w", wrapQueryError(err))
	}

	if totalRes != nil && len(*totalRes) > 0 && len((*totalRes)[0].Result) > 0 {
		total = (*totalRes)[0].Result[0].Count
	}
	if pendingRes != nil && len(*pendingRes) > 0 && len((*pendingRes)[0].Result) > 0 {
		pending = (*pendingRes)[0].Result[0].Count
	}
	return total, pending, nil
}
