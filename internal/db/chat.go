package db

import (
	"context"
	"fmt"
	"sort"

	"github.com/surrealdb/surrealdb.go"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/models"
)

// InsertChatMessage appends a message to the user's chat history.
func (c *Client) InsertChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		CREATE chat_history SET
			user_id = $user_id,
			from = $from,
			to = $to,
			text = $text,
			timestamp = $timestamp
	`, map[string]any{
		"user_id":   msg.UserID,
		"from":      msg.From,
		"to":        msg.To,
		"text":      msg.Text,
		"timestamp": msg.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("insert chat message: %w", wrapQueryError(err))
	}
	return nil
}

// ChatHistory returns the most recent messages for a user, oldest first.
// Stored timestamps are not uniform (datetimes, RFC 3339 strings and numeric
// epochs all occur), so ordering happens in Go on the normalized sort key
// rather than in the database.
func (c *Client) ChatHistory(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error) {
	results, err := surrealdb.Query[[]models.ChatMessage](ctx, c.db, `
		SELECT * FROM chat_history WHERE user_id = $user_id
	`, map[string]any{"user_id": userID})

	if err != nil {
		return nil, fmt.Errorf("chat history: %w", wrapQueryError(err))
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

// HistoryEntries maps raw chat messages into role/content pairs for prompt
// assembly. Messages sent by the bot carry from == "system" and become the
// assistant role; everything else is the user.
func HistoryEntries(msgs []models.ChatMessage) []models.HistoryEntry {
	entries := make([]models.HistoryEntry, 0, len(msgs))
	for _, m := range msgs {
		role := models.RoleUser
		if m.From == models.RoleSystem {
			role = "assistant"
		}
		entries = append(entries, models.HistoryEntry{Role: role, Content: m.Text})
	}
	return entries
}
