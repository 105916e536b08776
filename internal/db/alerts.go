package db

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/models"
)

// InsertAlert persists an escalation alert. Alerts are deliberately not
// deduplicated: every escalation request is a separate record for the
// support team.
func (c *Client) InsertAlert(ctx context.Context, alert *models.EscalationAlert) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		CREATE alert SET
			alert_id = $alert_id,
			user_id = $user_id,
			reason = $reason,
			last_message = $last_message,
			priority = $priority,
			status = $status,
			created_at = $created_at
	`, map[string]any{
		"alert_id":     alert.AlertID,
		"user_id":      alert.UserID,
		"reason":       alert.Reason,
		"last_message": alert.LastMessage,
		"priority":     alert.Priority,
		"status":       alert.Status,
		"created_at":   alert.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert alert: %w", wrapQueryError(err))
	}
	return nil
}

// ListAlerts returns alerts newest first. When status is non-empty only
// alerts in that status are returned.
func (c *Client) ListAlerts(ctx context.Context, status string) ([]models.EscalationAlert, error) {
	sql := `SELECT * FROM alert ORDER BY created_at DESC`
	vars := map[string]any{}
	if status != "" {
		sql = `SELECT * FROM alert WHERE status = $status ORDER BY created_at DESC`
		vars["status"] = status
	}

	results, err := surrealdb.Query[[]models.EscalationAlert](ctx, c.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.EscalationAlert{}, nil
	}
	return (*results)[0].Result, nil
}

// ResolveAlert marks a pending alert resolved. Returns ErrNotFound when the
// alert does not exist or was already resolved.
func (c *Client) ResolveAlert(ctx context.Context, alertID string) (*models.EscalationAlert, error) {
	results, err := surrealdb.Query[[]models.EscalationAlert](ctx, c.db, `
		UPDATE alert SET
			status = $resolved,
			resolved_at = $now
		WHERE alert_id = $alert_id AND status = $pending
		RETURN AFTER
	`, map[string]any{
		"alert_id": alertID,
		"pending":  models.AlertStatusPending,
		"resolved": models.AlertStatusResolved,
		"now":      time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("resolve alert: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("pending alert %s: %w", alertID, ErrNotFound)
	}
	return &(*results)[0].Result[0], nil
}
