// Package escalate records human-intervention requests as alerts.
package escalate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/models"
)

// AlertStore persists escalation alerts.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert *models.EscalationAlert) error
}

// Notifier is told about every new alert, e.g. to push it to connected
// dashboard clients. Must not block.
type Notifier interface {
	NotifyAlert(alert *models.EscalationAlert)
}

// Service creates escalation alerts. Repeated escalations for the same user
// create separate alerts on purpose: each represents a distinct trigger.
type Service struct {
	store    AlertStore
	notifier Notifier
	logger   *slog.Logger

	now func() time.Time
}

// NewService creates an escalation service. notifier may be nil.
func NewService(store AlertStore, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// RequestHumanIntervention records an alert for the support team. Priority
// defaults to medium; unknown priorities are coerced to medium rather than
// rejected, since the caller is usually the LLM.
func (s *Service) RequestHumanIntervention(ctx context.Context, userID, reason, lastMessage, priority string) (*models.AlertReceipt, error) {
	if !models.ValidPriority(priority) {
		priority = models.AlertPriorityMedium
	}

	alert := &models.EscalationAlert{
		AlertID:     uuid.New().String(),
		UserID:      userID,
		Reason:      reason,
		LastMessage: lastMessage,
		Priority:    priority,
		Status:      models.AlertStatusPending,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.store.InsertAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("request human intervention: %w", err)
	}

	s.logger.Info("escalation alert created",
		"alert_id", alert.AlertID,
		"user_id", userID,
		"priority", priority,
		"reason", reason)

	if s.notifier != nil {
		s.notifier.NotifyAlert(alert)
	}

	return &models.AlertReceipt{
		AlertID: alert.AlertID,
		Status:  "success",
	}, nil
}
