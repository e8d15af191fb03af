package shared

import (
	"context"

	"github.com/google/uuid"
)

// AccessPolicy is the opaque gating predicate (roles, inductions, risk
// assessments) owned by the surrounding platform.
type AccessPolicy interface {
	IsAvailableForUser(ctx context.Context, resourceID, userID uuid.UUID) (bool, error)
}

// Notifier is fire-and-forget: failures are logged by callers and never roll
// back the operation that triggered them.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind string, payload map[string]any) error
}
