//go:build integration

// Package db provides integration tests for SurrealDB operations.
package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/models"
)

var testDB *Client
var testContainer testcontainers.Container

// TestMain sets up and tears down the SurrealDB container for all tests.
func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// Workaround: testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testDB, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := testDB.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testDB.Close(ctx)
	_ = testContainer.Terminate(ctx)

	os.Exit(code)
}

func seedOrder(t *testing.T, orderID, category string, value float64) {
	t.Helper()
	err := testDB.UpsertOrder(context.Background(), &models.Order{
		OrderID:         orderID,
		Platform:        "JioMart",
		ProductCategory: category,
		OrderValue:      value,
		RefundRequested: models.RefundNotRequested,
	})
	if err != nil {
		t.Fatalf("Failed to seed order %s: %v", orderID, err)
	}
}

func TestGetOrder(t *testing.T) {
	ctx := context.Background()
	seedOrder(t, "ORD900001", "Personal Care", 1651)

	order, err := testDB.GetOrder(ctx, "ORD900001")
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if order.ProductCategory != "Personal Care" {
		t.Errorf("Expected category 'Personal Care', got %q", order.ProductCategory)
	}
	if order.OrderValue != 1651 {
		t.Errorf("Expected value 1651, got %v", order.OrderValue)
	}
	if order.RefundRequested != models.RefundNotRequested {
		t.Errorf("Expected refund_requested %q, got %q", models.RefundNotRequested, order.RefundRequested)
	}

	_, err = testDB.GetOrder(ctx, "ORD999999")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing order, got %v", err)
	}
}

func TestUpsertOrderIsIdempotent(t *testing.T) {
	ctx := context.Background()
	seedOrder(t, "ORD900002", "Snacks", 300)
	// Re-seeding the same id must update, not duplicate.
	seedOrder(t, "ORD900002", "Snacks", 450)

	order, err := testDB.GetOrder(ctx, "ORD900002")
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if order.OrderValue != 450 {
		t.Errorf("Expected updated value 450, got %v", order.OrderValue)
	}
}

func TestMarkOrderRefunded(t *testing.T) {
	ctx := context.Background()
	seedOrder(t, "ORD900003", "Electronics", 2000)

	now := time.Now().UTC().Truncate(time.Second)
	updated, err := testDB.MarkOrderRefunded(ctx, "ORD900003", 1900, "Customer request", now)
	if err != nil {
		t.Fatalf("MarkOrderRefunded failed: %v", err)
	}
	if !updated {
		t.Fatal("Expected first refund to update the order")
	}

	order, err := testDB.GetOrder(ctx, "ORD900003")
	if err != nil {
		t.Fatalf("GetOrder after refund failed: %v", err)
	}
	if order.RefundRequested != models.RefundProcessed {
		t.Errorf("Expected status %q, got %q", models.RefundProcessed, order.RefundRequested)
	}
	if order.RefundAmount == nil || *order.RefundAmount != 1900 {
		t.Errorf("Expected refund amount 1900, got %v", order.RefundAmount)
	}

	// Second attempt must not match the conditional update.
	updated, err = testDB.MarkOrderRefunded(ctx, "ORD900003", 1900, "Customer request", now)
	if err != nil {
		t.Fatalf("Second MarkOrderRefunded failed: %v", err)
	}
	if updated {
		t.Error("Expected second refund attempt to update zero rows")
	}

	// Unknown order also updates zero rows.
	updated, err = testDB.MarkOrderRefunded(ctx, "ORD999998", 10, "x", now)
	if err != nil {
		t.Fatalf("MarkOrderRefunded for unknown order failed: %v", err)
	}
	if updated {
		t.Error("Expected refund of unknown order to update zero rows")
	}
}

func TestChatHistoryOrdering(t *testing.T) {
	ctx := context.Background()
	userID := "user-history-test"

	// Mixed timestamp representations, inserted out of order.
	messages := []models.ChatMessage{
		{UserID: userID, From: "system", To: userID, Text: "second", Timestamp: "2025-06-01T10:00:05"},
		{UserID: userID, From: "user", To: "page", Text: "first", Timestamp: float64(1748772000)}, // 2025-06-01T10:00:00Z
		{UserID: userID, From: "user", To: "page", Text: "third", Timestamp: time.Date(2025, 6, 1, 10, 0, 10, 0, time.UTC)},
	}
	for i := range messages {
		if err := testDB.InsertChatMessage(ctx, &messages[i]); err != nil {
			t.Fatalf("InsertChatMessage failed: %v", err)
		}
	}

	history, err := testDB.ChatHistory(ctx, userID, 0)
	if err != nil {
		t.Fatalf("ChatHistory failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(history))
	}
	if history[0].Text != "first" || history[1].Text != "second" || history[2].Text != "third" {
		t.Errorf("Messages out of order: %q, %q, %q", history[0].Text, history[1].Text, history[2].Text)
	}

	// Limit keeps the newest tail.
	tail, err := testDB.ChatHistory(ctx, userID, 2)
	if err != nil {
		t.Fatalf("ChatHistory with limit failed: %v", err)
	}
	if len(tail) != 2 || tail[0].Text != "second" {
		t.Errorf("Expected last 2 messages starting at 'second', got %v", tail)
	}
}

func TestAlertLifecycle(t *testing.T) {
	ctx := context.Background()

	alert := &models.EscalationAlert{
		AlertID:     uuid.New().String(),
		UserID:      "user-alert-test",
		Reason:      "negative sentiment",
		LastMessage: "this is unacceptable",
		Priority:    models.AlertPriorityHigh,
		Status:      models.AlertStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := testDB.InsertAlert(ctx, alert); err != nil {
		t.Fatalf("InsertAlert failed: %v", err)
	}

	pending, err := testDB.ListAlerts(ctx, models.AlertStatusPending)
	if err != nil {
		t.Fatalf("ListAlerts failed: %v", err)
	}
	found := false
	for _, a := range pending {
		if a.AlertID == alert.AlertID {
			found = true
		}
	}
	if !found {
		t.Fatal("Expected inserted alert in pending list")
	}

	resolved, err := testDB.ResolveAlert(ctx, alert.AlertID)
	if err != nil {
		t.Fatalf("ResolveAlert failed: %v", err)
	}
	if resolved.Status != models.AlertStatusResolved {
		t.Errorf("Expected status resolved, got %q", resolved.Status)
	}
	if resolved.ResolvedAt == nil {
		t.Error("Expected resolved_at to be set")
	}

	// Resolving twice fails with ErrNotFound (no longer pending).
	_, err = testDB.ResolveAlert(ctx, alert.AlertID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on double resolve, got %v", err)
	}
}

func TestAlertCounts(t *testing.T) {
	ctx := context.Background()

	total, pending, err := testDB.AlertCounts(ctx)
	if err != nil {
		t.Fatalf("AlertCounts failed: %v", err)
	}
	if total < pending {
		t.Errorf("Total %d cannot be less than pending %d", total, pending)
	}
}
