package state

import "time"

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Session stores conversation state and collected answers for a user.
type Session struct {
	State     State
	Data      map[string]string
	UpdatedAt time.Time
}

// Manager orchestrates user sessions and FSM state transitions.
type Manager interface {
	// Get returns a copy of the user's session, or an idle one.
	Get(userID int64) Session
	SetValue(userID int64, key, value string)
	Value(userID int64, key string) (string, bool)
	Clear(userID int64)

	// Dialog state
	SetState(userID int64, st State)
	GetState(userID int64) State
	InProgress(userID int64) bool

	// Len reports how many non-idle sessions are held.
	Len() int
	// Stale lists users whose sessions were not touched since before cutoff.
	// It does not remove them.
	Stale(cutoff time.Time) []int64
}
