package session

import (
	"time"

	"github.com/LerianStudio/lib-pawn/pawn/authz"
)

// State is the lifecycle state of the manager.
type State string

const (
	StateUnauthenticated State = "UNAUTHENTICATED"
	StateActive          State = "ACTIVE"
	StateWarning         State = "WARNING"
	StateRefreshing      State = "REFRESHING"
	StateExpired         State = "EXPIRED"
)

// Reason explains a state change.
type Reason string

const (
	ReasonAuthenticated  Reason = "AUTHENTICATED"
	ReasonResumed        Reason = "RESUMED"
	ReasonExpiringSoon   Reason = "EXPIRING_SOON"
	ReasonRefreshStarted Reason = "REFRESH_STARTED"
	ReasonRefreshed      Reason = "REFRESHED"
	ReasonRefreshFailed  Reason = "REFRESH_FAILED"
	ReasonTimedOut       Reason = "TIMED_OUT"
	ReasonLoggedOut      Reason = "LOGGED_OUT"
)

// Session is an authenticated staff session.
type Session struct {
	ID           string           `json:"id"`
	Credential   authz.Credential `json:"credential"`
	Token        string           `json:"token"`
	RefreshToken string           `json:"refreshToken,omitempty"`
	IssuedAt     time.Time        `json:"issuedAt"`
	ExpiresAt    time.Time        `json:"expiresAt"`
	Refreshable  bool             `json:"refreshable"`
}

// Remaining is the time left at now. It is negative once expired.
func (s Session) Remaining(now time.Time) time.Duration {
	return s.ExpiresAt.Sub(now)
}

// Event describes one state change.
type Event struct {
	From      State     `json:"from"`
	To        State     `json:"to"`
	Reason    Reason    `json:"reason"`
	SessionID string    `json:"sessionId,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
	At        time.Time `json:"at"`
}

// Ended reports whether the event destroyed the session.
func (e Event) Ended() bool {
	return e.To == StateExpired || (e.To == StateUnauthenticated && e.Reason == ReasonLoggedOut)
}
