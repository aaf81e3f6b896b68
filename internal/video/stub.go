package video

import (
	"context"

	"github.com/google/uuid"
)

// Stub hands out locally generated session ids. Used in development and
// tests when no provider credentials are configured.
type Stub struct{}

// CreateSession returns a fresh random session id.
func (Stub) CreateSession(ctx context.Context) (string, error) {
	return "stub-session-" + uuid.NewString(), nil
}
