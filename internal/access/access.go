// Package access decides who may change a destination's subscription.
package access

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"relay_bot/internal/model"
)

// AdminLister returns the user ids of a chat's administrators.
type AdminLister interface {
	Administrators(ctx context.Context, chatID int64) ([]int64, error)
}

// Gate checks mutation rights. Lookup failures deny access.
type Gate struct {
	owners []int64
	lister AdminLister
	log    *slog.Logger
}

// NewGate creates a Gate. owners are global administrators allowed
// everywhere.
func NewGate(owners []int64, lister AdminLister, log *slog.Logger) *Gate {
	return &Gate{owners: owners, lister: lister, log: log}
}

// IsOwner reports whether userID is a global administrator.
func (g *Gate) IsOwner(userID int64) bool {
	return slices.Contains(g.owners, userID)
}

// IsAuthorized reports whether actorID may manage chatID. An actor id equal
// to the chat id is an anonymous administrator posting as the chat itself.
func (g *Gate) IsAuthorized(ctx context.Context, chatID, actorID int64) bool {
	if g.IsOwner(actorID) || actorID == chatID {
		return true
	}

	admins, err := g.lister.Administrators(ctx, chatID)
	if err != nil {
		g.log.Warn("admin check failed", "chat_id", chatID, "user_id", actorID, "error", err)
		return false
	}
	return slices.Contains(admins, actorID)
}

// Check is IsAuthorized as an error wrapping model.ErrPermissionDenied.
func (g *Gate) Check(ctx context.Context, chatID, actorID int64) error {
	if !g.IsAuthorized(ctx, chatID, actorID) {
		return fmt.Errorf("%w: user %d in chat %d", model.ErrPermissionDenied, actorID, chatID)
	}
	return nil
}
