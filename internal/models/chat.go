package models

import "time"

// Chat roles as stored in chat_history. The webhook boundary writes "user"
// for inbound messages and "system" for bot replies, matching the original
// Messenger integration.
const (
	RoleUser   = "user"
	RoleSystem = "system"
)

// ChatMessage is a persisted, append-only chat transcript entry.
type ChatMessage struct {
	UserID    string `json:"user_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Text      string `json:"text"`
	Timestamp any    `json:"timestamp"`
}

// SortKey converts the message timestamp to elapsed seconds from the Unix
// epoch. Historical records carry timestamps in mixed representations (RFC3339
// strings, datetimes, numeric epochs); all of them must order consistently.
// Unparseable timestamps sort first.
func (m *ChatMessage) SortKey() float64 {
	return TimestampSortKey(m.Timestamp)
}

// TimestampSortKey maps a timestamp of any stored representation onto a
// numeric sort key (Unix seconds). Returns 0 for missing or malformed values.
func TimestampSortKey(ts any) float64 {
	switch v := ts.(type) {
	case time.Time:
		return float64(v.Unix()) + float64(v.Nanosecond())/1e9
	case *time.Time:
		if v == nil {
			return 0
		}
		return TimestampSortKey(*v)
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return TimestampSortKey(t)
		}
		// Legacy records written without a zone.
		if t, err := time.Parse("2006-01-02T15:04:05", v); err == nil {
			return TimestampSortKey(t.UTC())
		}
		return 0
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case uint64:
		return float64(v)
	default:
		return 0
	}
}

// HistoryEntry is a role-tagged turn formatted for the LLM context.
type HistoryEntry struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}
