package readstore

import (
	"context"

	"labbook/internal/infra"
	"labbook/internal/infra/db"
	"labbook/internal/usecase/shared"

	"github.com/google/uuid"
)

type ResourceReadStore struct {
	db db.DBTX
}

func NewResourceReadStore(dbtx db.DBTX) *ResourceReadStore {
	return &ResourceReadStore{db: dbtx}
}

func (r *ResourceReadStore) FindByID(ctx context.Context, id uuid.UUID) (*shared.ResourceSnapshot, error) {
	const q = `
		SELECT id, name, resource_type, capacity, is_active, required_training
		FROM resources
		WHERE id = $1`

	var snap shared.ResourceSnapshot
	err := r.db.QueryRow(ctx, q, id).Scan(
		&snap.ID, &snap.Name, &snap.ResourceType, &snap.Capacity,
		&snap.IsActive, &snap.RequiredTraining,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("resource not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find resource by ID", err)
	}
	return &snap, nil
}

func (r *ResourceReadStore) FindByType(ctx context.Context, resourceType string, activeOnly bool) ([]shared.ResourceSnapshot, error) {
	const q = `
		SELECT id, name, resource_type, capacity, is_active, required_training
		FROM resources
		WHERE resource_type = $1 AND (NOT $2 OR is_active)
		ORDER BY name`

	rows, err := r.db.Query(ctx, q, resourceType, activeOnly)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find resources by type", err)
	}
	defer rows.Close()

	var out []shared.ResourceSnapshot
	for rows.Next() {
		var snap shared.ResourceSnapshot
		if err := rows.Scan(&snap.ID, &snap.Name, &snap.ResourceType, &snap.Capacity, &snap.IsActive, &snap.RequiredTraining); err != nil {
			return nil, infra.WrapRepoErr("failed to scan resource", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read resources", err)
	}
	return out, nil
}
