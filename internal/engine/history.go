package engine

import (
	"strings"
	"time"
)

// Role is the engine's three-way view of who authored a turn.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleAssistant  Role = "assistant"
	RoleHumanAgent Role = "human-agent"
)

// DefaultWindowLimit bounds the history window when no limit is configured.
const DefaultWindowLimit = 6

// RawTurn is one persisted chat message as the store hands it over.
// Sender is the storage-specific label ("customer", "bot", "agent", ...).
type RawTurn struct {
	Sender  string
	Content string
	SentAt  time.Time
}

// Turn is one normalized message inside a HistoryWindow.
type Turn struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// HistoryWindow holds the most recent turns of a session, oldest first.
type HistoryWindow []Turn

// BuildWindow takes the full time-ordered turn log of a session and returns
// the last limit turns with storage roles normalized. An empty log yields an
// empty window; downstream scoring treats that as "no context".
func BuildWindow(log []RawTurn, limit int) HistoryWindow {
	if limit <= 0 {
		limit = DefaultWindowLimit
	}
	if len(log) > limit {
		log = log[len(log)-limit:]
	}

	window := make(HistoryWindow, 0, len(log))
	for _, raw := range log {
		window = append(window, Turn{
			Role:      normalizeRole(raw.Sender),
			Content:   raw.Content,
			Timestamp: raw.SentAt,
		})
	}
	return window
}

func normalizeRole(sender string) Role {
	switch strings.ToLower(strings.TrimSpace(sender)) {
	case "customer", "user":
		return RoleCustomer
	case "assistant", "bot", "ai":
		return RoleAssistant
	default:
		return RoleHumanAgent
	}
}

// customerTurns counts customer messages inside the window.
func (w HistoryWindow) customerTurns() int {
	n := 0
	for _, t := range w {
		if t.Role == RoleCustomer {
			n++
		}
	}
	return n
}

// assistantTurnsContaining counts assistant messages whose content contains
// any of the given phrases (case-insensitive).
func (w HistoryWindow) assistantTurnsContaining(phrases []string) int {
	n := 0
	for _, t := range w {
		if t.Role != RoleAssistant {
			continue
		}
		if containsAny(strings.ToLower(t.Content), phrases) {
			n++
		}
	}
	return n
}
