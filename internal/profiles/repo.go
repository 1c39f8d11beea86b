// Package profiles reads and creates customer profile rows.
package profiles

import (
	"context"
	"fmt"

	"github.com/angelmondragon/printshop-backend/pkg/backend"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/google/uuid"
)

type Repository struct {
	tables backend.Tables
}

func NewRepository(tables backend.Tables) (*Repository, error) {
	if tables == nil {
		return nil, fmt.Errorf("backend tables are required")
	}
	return &Repository{tables: tables}, nil
}

// ByIdentity fetches exactly one profile owned by identityID.
func (r *Repository) ByIdentity(ctx context.Context, identityID uuid.UUID) (*models.CustomerProfile, error) {
	var profile models.CustomerProfile
	err := r.tables.Select(ctx, models.TableCustomerProfiles, backend.Query{
		Filter: backend.Eq("identity_id", identityID.String()),
		Single: true,
	}, &profile)
	if err != nil {
		return nil, backend.AsRemote(err, "could not load the profile")
	}
	return &profile, nil
}

// Create inserts the profile and overwrites it with the stored row.
func (r *Repository) Create(ctx context.Context, profile *models.CustomerProfile) error {
	if profile == nil {
		return fmt.Errorf("profile is required")
	}
	n, err := r.tables.Insert(ctx, models.TableCustomerProfiles, profile)
	if err != nil {
		return backend.AsRemote(err, "could not create the profile")
	}
	if n == 0 {
		return pkgerrors.Invariant("insert returned no data")
	}
	return nil
}
