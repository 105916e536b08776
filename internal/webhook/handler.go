// Package webhook implements the Messenger webhook boundary: subscription
// verification, inbound message ingress, and reply delivery.
package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/models"
)

// Responder produces the reply for one inbound message. It never fails;
// degraded turns come back as apology text.
type Responder interface {
	HandleTurn(ctx context.Context, userID, messageText string) (string, []models.ToolInvocation)
}

// MessageStore persists the chat transcript.
type MessageStore interface {
	InsertChatMessage(ctx context.Context, msg *models.ChatMessage) error
}

// Sender delivers outbound messages to the user.
type Sender interface {
	Send(ctx context.Context, recipientID, text string) error
}

// Handler is the webhook HTTP boundary.
type Handler struct {
	verifyToken string
	responder   Responder
	store       MessageStore
	sender      Sender
	turnTimeout time.Duration
	logger      *slog.Logger
}

// NewHandler creates the webhook handler.
func NewHandler(verifyToken string, responder Responder, store MessageStore, sender Sender, turnTimeout time.Duration, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if turnTimeout <= 0 {
		turnTimeout = 60 * time.Second
	}
	return &Handler{
		verifyToken: verifyToken,
		responder:   responder,
		store:       store,
		sender:      sender,
		turnTimeout: turnTimeout,
		logger:      logger,
	}
}

// Verify answers the platform's GET subscription handshake: echo
// hub.challenge when the mode and token match, 403 otherwise.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(challenge))
		return
	}

	h.logger.Warn("webhook verification failed", "mode", mode)
	http.Error(w, "Verification token mismatch", http.StatusForbidden)
}

// Inbound payload shapes. Only the fields the bot acts on are decoded.
type payload struct {
	Entry []entry `json:"entry"`
}

type entry struct {
	Messaging []messaging `json:"messaging"`
}

type messaging struct {
	Sender   participant `json:"sender"`
	Message  *message    `json:"message"`
	Reaction *reaction   `json:"reaction"`
}

type participant struct {
	ID string `json:"id"`
}

type message struct {
	Text string `json:"text"`
}

type reaction struct {
	Emoji string `json:"emoji"`
}

// Receive handles inbound webhook deliveries. The platform only needs a 200;
// processing failures are logged, never surfaced as HTTP errors, so the
// platform does not retry messages the bot already answered with an apology.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	var data payload
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		h.logger.Warn("undecodable webhook payload", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	for _, e := range data.Entry {
		for _, m := range e.Messaging {
			h.processEvent(r.Context(), m)
		}
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) processEvent(ctx context.Context, m messaging) {
	switch {
	case m.Message != nil && m.Sender.ID != "" && m.Message.Text != "":
		h.processMessage(ctx, m.Sender.ID, m.Message.Text)
	case m.Reaction != nil && m.Sender.ID != "":
		h.logger.Info("received reaction", "user_id", m.Sender.ID, "emoji", m.Reaction.Emoji)
		h.deliver(ctx, m.Sender.ID, "Received your reaction: "+m.Reaction.Emoji)
	default:
		h.logger.Warn("unhandled webhook event")
	}
}

func (h *Handler) processMessage(ctx context.Context, userID, text string) {
	ctx, cancel := context.WithTimeout(ctx, h.turnTimeout)
	defer cancel()

	h.persist(ctx, &models.ChatMessage{
		UserID:    userID,
		From:      models.RoleUser,
		To:        models.RoleSystem,
		Text:      text,
		Timestamp: time.Now().UTC(),
	})

	reply, invocations := h.responder.HandleTurn(ctx, userID, text)
	h.logger.Info("turn complete", "user_id", userID, "tool_calls", len(invocations))

	h.persist(ctx, &models.ChatMessage{
		UserID:    userID,
		From:      models.RoleSystem,
		To:        userID,
		Text:      reply,
		Timestamp: time.Now().UTC(),
	})

	h.deliver(ctx, userID, reply)
}

func (h *Handler) persist(ctx context.Context, msg *models.ChatMessage) {
	if err := h.store.InsertChatMessage(ctx, msg); err != nil {
		// A lost transcript entry is not worth failing the reply over.
		h.logger.Error("persisting chat message failed", "user_id", msg.UserID, "error", err)
	}
}

func (h *Handler) deliver(ctx context.Context, userID, text string) {
	if err := h.sender.Send(ctx, userID, text); err != nil {
		h.logger.Error("sending reply failed", "user_id", userID, "error", err)
	}
}
