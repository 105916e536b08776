// Package convstate tracks per-user conversation state: the cached NLU
// result, slot-filling status, and entities extracted so far.
//
// The store is the single owner of this state. Orchestrator turns never hold
// a private copy across calls; every mutation goes through the store so that
// concurrent turns for the same user observe a consistent sequence. All
// operations are total: an unknown user id means "new user", never an error.
package convstate

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/models"
)

// NLUStaleAfter is the session gap after which a cached NLU result is
// considered stale. A message arriving this long after the previous one is
// treated as a new session needing fresh triage; anything sooner reuses the
// cached classification instead of re-running the model.
const NLUStaleAfter = 24 * time.Hour

// State is a snapshot of one user's conversation state. Mutating a snapshot
// has no effect on the store.
type State struct {
	CachedNLU            *models.NLUResult
	NLUTimestamp         *time.Time
	LastMessageTimestamp *time.Time
	WaitingFor           string
	PendingAction        string
	LastBotQuestion      string
	ExtractedInfo        map[string]string
}

// userState is the store-owned record. Guarded by its own mutex so turns for
// different users never contend.
type userState struct {
	mu    sync.Mutex
	state State
}

// Store holds conversation state keyed by opaque user id.
type Store struct {
	mu     sync.RWMutex
	users  map[string]*userState
	logger *slog.Logger

	// now is swapped in tests to simulate session gaps.
	now func() time.Time
}

// NewStore creates an empty conversation state store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		users:  make(map[string]*userState),
		logger: logger,
		now:    time.Now,
	}
}

// user returns the record for userID, creating it lazily.
func (s *Store) user(userID string) *userState {
	s.mu.RLock()
	u, ok := s.users[userID]
	s.mu.RUnlock()
	if ok {
		return u
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok = s.users[userID]; ok {
		return u
	}
	u = &userState{state: State{ExtractedInfo: make(map[string]string)}}
	s.users[userID] = u
	return u
}

// Get returns a copy of the user's current state, initializing defaults for
// unknown users.
func (s *Store) Get(userID string) State {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	return copyState(u.state)
}

// ShouldRunNLU reports whether NLU analysis is needed for the user's next
// message: true when no cached result exists, or when the previous message is
// NLUStaleAfter or more in the past.
//
// Ordering contract: the check reads the timestamp of the *previous* message,
// so callers must evaluate it before UpdateMessageTimestamp commits the
// current message's time. BeginTurn does both under one lock.
func (s *Store) ShouldRunNLU(userID string) bool {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	return s.staleLocked(&u.state)
}

func (s *Store) staleLocked(st *State) bool {
	if st.CachedNLU == nil {
		return true
	}
	if st.LastMessageTimestamp != nil && s.now().Sub(*st.LastMessageTimestamp) >= NLUStaleAfter {
		return true
	}
	return false
}

// BeginTurn atomically evaluates NLU staleness against the previous message
// timestamp, commits the current message's timestamp, and returns whether the
// classifier should run plus the state snapshot for the turn.
func (s *Store) BeginTurn(userID string) (runNLU bool, snapshot State) {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	runNLU = s.staleLocked(&u.state)
	now := s.now()
	u.state.LastMessageTimestamp = &now
	return runNLU, copyState(u.state)
}

// UpdateNLU caches a classification result and stamps it with the current time.
func (s *Store) UpdateNLU(userID string, result models.NLUResult) {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	now := s.now()
	u.state.CachedNLU = &result
	u.state.NLUTimestamp = &now
	s.logger.Info("cached NLU result", "user_id", userID, "intent", result.Intent, "sentiment", result.Sentiment)
}

// CachedNLU returns the cached classification, or nil.
func (s *Store) CachedNLU(userID string) *models.NLUResult {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state.CachedNLU == nil {
		return nil
	}
	r := *u.state.CachedNLU
	return &r
}

// UpdateMessageTimestamp records that a message was received now. Must be
// called once per inbound message, after the staleness check for that message
// (see ShouldRunNLU).
func (s *Store) UpdateMessageTimestamp(userID string) {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	now := s.now()
	u.state.LastMessageTimestamp = &now
}

// SetWaiting marks that the conversation is blocked on one piece of
// information. At most one waiting slot is active per user; a second call
// replaces the first.
func (s *Store) SetWaiting(userID, waitingFor, pendingAction, question string) {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	u.state.WaitingFor = waitingFor
	u.state.PendingAction = pendingAction
	u.state.LastBotQuestion = question
	s.logger.Info("waiting for slot", "user_id", userID, "waiting_for", waitingFor, "pending_action", pendingAction)
}

// ClearWaiting drops the waiting slot, pending action, and last question.
func (s *Store) ClearWaiting(userID string) {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	u.state.WaitingFor = ""
	u.state.PendingAction = ""
	u.state.LastBotQuestion = ""
}

// AddExtractedInfo stores an extracted slot value, last write wins per key.
func (s *Store) AddExtractedInfo(userID, key, value string) {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	u.state.ExtractedInfo[key] = value
	s.logger.Debug("extracted info", "user_id", userID, "key", key, "value", value)
}

// GetExtractedInfo returns a previously extracted value, with ok reporting
// whether the key exists.
func (s *Store) GetExtractedInfo(userID, key string) (string, bool) {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	v, ok := u.state.ExtractedInfo[key]
	return v, ok
}

// Clear drops all state for a user. A subsequent Get reinitializes defaults.
func (s *Store) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
}

// Summarize produces a human-readable digest of the waiting state and
// extracted info for inclusion in LLM context. Returns "" when nothing is
// pending.
func (s *Store) Summarize(userID string) string {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	var parts []string
	if u.state.WaitingFor != "" {
		parts = append(parts, fmt.Sprintf("You previously asked for %s.", u.state.WaitingFor))
		parts = append(parts, fmt.Sprintf("Last question: %q", u.state.LastBotQuestion))
		parts = append(parts, fmt.Sprintf("Pending action: %s", u.state.PendingAction))
	}

	if len(u.state.ExtractedInfo) > 0 {
		keys := make([]string, 0, len(u.state.ExtractedInfo))
		for k := range u.state.ExtractedInfo {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		kv := make([]string, 0, len(keys))
		for _, k := range keys {
			kv = append(kv, fmt.Sprintf("%s=%s", k, u.state.ExtractedInfo[k]))
		}
		parts = append(parts, "Information collected: "+strings.Join(kv, ", "))
	}

	if len(parts) == 0 {
		return ""
	}
	return "[CONVERSATION CONTEXT]\n" + strings.Join(parts, "\n") + "\n"
}

func copyState(st State) State {
	out := st
	if st.CachedNLU != nil {
		nlu := *st.CachedNLU
		out.CachedNLU = &nlu
	}
	if st.NLUTimestamp != nil {
		ts := *st.NLUTimestamp
		out.NLUTimestamp = &ts
	}
	if st.LastMessageTimestamp != nil {
		ts := *st.LastMessageTimestamp
		out.LastMessageTimestamp = &ts
	}
	out.ExtractedInfo = make(map[string]string, len(st.ExtractedInfo))
	for k, v := range st.ExtractedInfo {
		out.ExtractedInfo[k] = v
	}
	return out
}
