package model

import (
	"context"
	"time"
)

// Turn is one classified command as persisted in the session history.
type Turn struct {
	SessionID  string        `json:"session_id"`
	Transcript string        `json:"transcript"`
	Record     IntentRecord  `json:"record"`
	Source     Source        `json:"source"`
	Latency    time.Duration `json:"latency"`
	At         time.Time     `json:"at"`
}

// HistoryPage is the newest turns of a session plus how many are stored.
type HistoryPage struct {
	SessionID string `json:"session_id"`
	Turns     []Turn `json:"turns"`
	Total     int    `json:"total"`
}

type HistoryRepository interface {
	// Append stores a turn at the end of the session history.
	Append(ctx context.Context, sessionID string, turn Turn) error

	// Recent returns up to limit of the newest turns, oldest first. limit <= 0 returns all.
	Recent(ctx context.Context, sessionID string, limit int) ([]Turn, error)

	// Count returns the number of stored turns.
	Count(ctx context.Context, sessionID string) (int, error)

	// Clear removes the session history.
	Clear(ctx context.Context, sessionID string) error
}
