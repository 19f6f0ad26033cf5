package pairing

import (
	"errors"
	"time"

	"github.com/park285/playdate-bot/internal/domain"
)

// State is the lifecycle of an online session.
type State string

const (
	StateLobby  State = "lobby"
	StateActive State = "active"
	StateClosed State = "closed"
)

// Session is stored as JSON in Redis under pd:session:<id>.
type Session struct {
	ID        string          `json:"id"`
	Code      string          `json:"code"`
	Game      domain.GameKind `json:"game"`
	State     State           `json:"state"`
	HostID    string          `json:"host_id"`
	HostRoom  string          `json:"host_room"`
	GuestID   string          `json:"guest_id,omitempty"`
	GuestRoom string          `json:"guest_room,omitempty"`
	CreatedAt time.Time       `json:"created_at"`

	// CurrentState is the last payload published by either side.
	CurrentState []byte    `json:"current_state,omitempty"`
	LastUpdated  time.Time `json:"last_updated,omitempty"`
}

// Seat maps a participant to a local seat: the host plays player1.
func (s *Session) Seat(userID string) (domain.PlayerID, bool) {
	switch userID {
	case s.HostID:
		return domain.Player1, true
	case s.GuestID:
		if s.GuestID == "" {
			return "", false
		}
		return domain.Player2, true
	}
	return "", false
}

type CreateResult struct {
	Session *Session
	// QR is a PNG of the join code.
	QR []byte
}

// Update is one published game state.
type Update struct {
	SessionID string    `json:"session_id"`
	From      string    `json:"from"`
	Payload   []byte    `json:"payload"`
	At        time.Time `json:"at"`
}

var (
	ErrInvalidArgs  = errors.New("invalid arguments")
	ErrSessionGone  = errors.New("session not found or expired")
	ErrFull         = errors.New("session already has two participants")
	ErrNotLobby     = errors.New("session is not waiting for a partner")
	ErrNotMember    = errors.New("not a participant of this session")
)
