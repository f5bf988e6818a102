package service

import (
	"biteswipe/internal/model"
	"context"
	"time"
)

// Catalog supplies candidate restaurants
type Catalog interface {
	FetchCandidates(ctx context.Context, loc model.Location, radius float64) ([]*model.Restaurant, error)
	// FetchCandidate returns (nil, nil) when the id is unknown
	FetchCandidate(ctx context.Context, id string) (*model.Restaurant, error)
}

// IdentityStore answers questions about users owned by the account service
type IdentityStore interface {
	Exists(ctx context.Context, id string) (bool, error)
	GetDisplayName(ctx context.Context, id string) (string, bool, error)
}

// Notifier delivers a message to one user. Delivery is best-effort: an error
// is logged by the caller and never undoes the change that triggered it.
type Notifier interface {
	Notify(ctx context.Context, userID, message string, payload map[string]interface{}) error
}

// Scheduler arms a one-shot forced completion for a session
type Scheduler interface {
	Schedule(sessionID string, at time.Time)
	// Cancel disarms the session's timer, if any
	Cancel(sessionID string)
}

// Notification types carried in payload["type"]
const (
	NotificationSessionInvite    = "session_invite"
	NotificationSessionCompleted = "session_completed"
)
