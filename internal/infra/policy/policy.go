package policy

import (
	"context"

	"labbook/internal/infra"
	"labbook/internal/infra/db"
	"labbook/internal/usecase/shared"

	"github.com/google/uuid"
)

// PostgresAccessPolicy gates booking on the resource being active and, when
// the resource requires a training, the user having completed it. Richer
// rules (risk assessments, group membership) plug in behind the same port.
type PostgresAccessPolicy struct {
	db db.DBTX
}

func NewPostgresAccessPolicy(dbtx db.DBTX) *PostgresAccessPolicy {
	return &PostgresAccessPolicy{db: dbtx}
}

func (p *PostgresAccessPolicy) IsAvailableForUser(ctx context.Context, resourceID, userID uuid.UUID) (bool, error) {
	const q = `
		SELECT r.is_active,
		       r.required_training IS NULL
		       OR EXISTS (
		           SELECT 1 FROM user_trainings ut
		           WHERE ut.user_id = $2 AND ut.training = r.required_training
		       )
		FROM resources r
		WHERE r.id = $1`

	var active, trained bool
	err := p.db.QueryRow(ctx, q, resourceID, userID).Scan(&active, &trained)
	if err != nil {
		if infra.IsNoRows(err) {
			return false, nil
		}
		return false, infra.WrapRepoErr("failed to evaluate access policy", err)
	}
	return active && trained, nil
}

var _ shared.AccessPolicy = (*PostgresAccessPolicy)(nil)
