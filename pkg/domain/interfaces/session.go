package interfaces

import (
	"context"

	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

// SessionRepository defines the interface for Session data persistence
type SessionRepository interface {
	// Put creates or replaces a session
	Put(ctx context.Context, session *model.Session) error

	// Get retrieves a session by ID. A missing session is reported with an
	// error wrapping model.ErrSessionNotFound.
	Get(ctx context.Context, id model.SessionID) (*model.Session, error)

	// List returns all sessions sorted by UpdatedAt desc
	List(ctx context.Context) ([]*model.Session, error)

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id model.SessionID) error
}
