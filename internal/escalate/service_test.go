package escalate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/models"
)

type fakeAlertStore struct {
	mu      sync.Mutex
	alerts  []*models.EscalationAlert
	failing bool
}

func (s *fakeAlertStore) InsertAlert(_ context.Context, alert *models.EscalationAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errors.New("store unreachable")
	}
	s.alerts = append(s.alerts, alert)
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []*models.EscalationAlert
}

func (n *recordingNotifier) NotifyAlert(alert *models.EscalationAlert) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert)
}

func TestRequestHumanIntervention(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending alert and notifies", func(t *testing.T) {
		store := &fakeAlertStore{}
		notifier := &recordingNotifier{}
		svc := NewService(store, notifier, nil)
		svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

		receipt, err := svc.RequestHumanIntervention(ctx, "user-1", "negative sentiment", "this is terrible", models.AlertPriorityHigh)
		require.NoError(t, err)
		assert.Equal(t, "success", receipt.Status)
		assert.NotEmpty(t, receipt.AlertID)

		require.Len(t, store.alerts, 1)
		alert := store.alerts[0]
		assert.Equal(t, receipt.AlertID, alert.AlertID)
		assert.Equal(t, "user-1", alert.UserID)
		assert.Equal(t, models.AlertPriorityHigh, alert.Priority)
		assert.Equal(t, models.AlertStatusPending, alert.Status)
		assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), alert.CreatedAt)

		require.Len(t, notifier.alerts, 1)
		assert.Equal(t, receipt.AlertID, notifier.alerts[0].AlertID)
	})

	t.Run("unknown priority defaults to medium", func(t *testing.T) {
		store := &fakeAlertStore{}
		svc := NewService(store, nil, nil)

		_, err := svc.RequestHumanIntervention(ctx, "user-2", "customer asked for a human", "agent please", "urgent!!!")
		require.NoError(t, err)
		require.Len(t, store.alerts, 1)
		assert.Equal(t, models.AlertPriorityMedium, store.alerts[0].Priority)
	})

	t.Run("empty priority defaults to medium", func(t *testing.T) {
		store := &fakeAlertStore{}
		svc := NewService(store, nil, nil)

		_, err := svc.RequestHumanIntervention(ctx, "user-3", "repeat complaint", "still broken", "")
		require.NoError(t, err)
		require.Len(t, store.alerts, 1)
		assert.Equal(t, models.AlertPriorityMedium, store.alerts[0].Priority)
	})

	t.Run("no deduplication across repeated escalations", func(t *testing.T) {
		store := &fakeAlertStore{}
		svc := NewService(store, nil, nil)

		first, err := svc.RequestHumanIntervention(ctx, "user-4", "angry", "msg", models.AlertPriorityLow)
		require.NoError(t, err)
		second, err := svc.RequestHumanIntervention(ctx, "user-4", "angry", "msg", models.AlertPriorityLow)
		require.NoError(t, err)

		assert.NotEqual(t, first.AlertID, second.AlertID)
		assert.Len(t, store.alerts, 2)
	})

	t.Run("store failure surfaces as error", func(t *testing.T) {
		store := &fakeAlertStore{failing: true}
		svc := NewService(store, nil, nil)

		_, err := svc.RequestHumanIntervention(ctx, "user-5", "reason", "msg", models.AlertPriorityMedium)
		require.Error(t, err)
	})
}
