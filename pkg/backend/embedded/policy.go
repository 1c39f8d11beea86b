package embedded

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/angelmondragon/printshop-backend/pkg/backend"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type operation string

const (
	opSelect operation = "select"
	opInsert operation = "insert"
	opUpdate operation = "update"
	opDelete operation = "delete"
)

// caller is the principal behind a table call.
type caller struct {
	identityID uuid.UUID
	profile    *models.CustomerProfile
}

func (c caller) isAdmin() bool {
	return c.profile.IsAdmin()
}

// profileID is zero for callers without a profile, which matches no order.
func (c caller) profileID() int64 {
	if c.profile == nil {
		return 0
	}
	return c.profile.ID
}

func (s *Service) resolveCaller(ctx context.Context) (caller, error) {
	token, _ := backend.AccessTokenFromContext(ctx)
	claims, err := s.authenticate(ctx, token)
	if err != nil {
		return caller{}, err
	}
	identityID, err := claims.IdentityID()
	if err != nil {
		return caller{}, errBadJWT
	}

	c := caller{identityID: identityID}
	var profile models.CustomerProfile
	err = s.db.DB().WithContext(ctx).
		Table(models.TableCustomerProfiles).
		Where("identity_id = ?", identityID).
		Take(&profile).Error
	switch {
	case err == nil:
		c.profile = &profile
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return caller{}, err
	}
	return c, nil
}

func permissionDenied(table string) *backend.Error {
	return backend.NewError(http.StatusForbidden, "42501", fmt.Sprintf("permission denied for table %s", table))
}

func rowViolation(table string) *backend.Error {
	return backend.NewError(http.StatusForbidden, "42501", fmt.Sprintf("new row violates row-level security policy for table %q", table))
}

func unknownTable(table string) *backend.Error {
	return backend.NewError(http.StatusNotFound, "42P01", fmt.Sprintf("relation \"public.%s\" does not exist", table))
}

var exposedTables = map[string]struct{}{
	models.TableCustomerProfiles: {},
	models.TableMaterials:        {},
	models.TableOrders:           {},
	models.TableOrderItems:       {},
}

// scope returns the row restriction applied to c for op on table. Admins see
// every row; customers see their own profile and orders. Materials are
// readable by everyone and writable by admins only.
func (s *Service) scope(c caller, table string, op operation) (func(*gorm.DB) *gorm.DB, error) {
	if _, ok := exposedTables[table]; !ok {
		return nil, unknownTable(table)
	}
	all := func(tx *gorm.DB) *gorm.DB { return tx }
	if c.isAdmin() {
		return all, nil
	}

	switch table {
	case models.TableCustomerProfiles:
		if op != opSelect {
			return nil, permissionDenied(table)
		}
		return func(tx *gorm.DB) *gorm.DB {
			return tx.Where("identity_id = ?", c.identityID)
		}, nil
	case models.TableMaterials:
		if op != opSelect {
			return nil, permissionDenied(table)
		}
		return all, nil
	case models.TableOrders:
		if op == opUpdate {
			return nil, permissionDenied(table)
		}
		return func(tx *gorm.DB) *gorm.DB {
			return tx.Where("customer_id = ?", c.profileID())
		}, nil
	default:
		if op != opSelect {
			return nil, permissionDenied(table)
		}
		return func(tx *gorm.DB) *gorm.DB {
			owned := s.db.DB().Table(models.TableOrders).Select("id").Where("customer_id = ?", c.profileID())
			return tx.Where("order_id IN (?)", owned)
		}, nil
	}
}

// checkInsert enforces ownership of the rows a customer writes.
func (s *Service) checkInsert(ctx context.Context, c caller, table string, rows any) error {
	if _, ok := exposedTables[table]; !ok {
		return unknownTable(table)
	}
	if c.isAdmin() {
		return nil
	}

	switch table {
	case models.TableCustomerProfiles:
		profiles, ok := asProfiles(rows)
		if !ok {
			return fmt.Errorf("unexpected row type %T for %s", rows, table)
		}
		for _, p := range profiles {
			if p.IdentityID != c.identityID || (p.Role != "" && p.Role != enums.RoleCustomer) {
				return rowViolation(table)
			}
		}
		return nil
	case models.TableOrders:
		orders, ok := asOrders(rows)
		if !ok {
			return fmt.Errorf("unexpected row type %T for %s", rows, table)
		}
		for _, o := range orders {
			if c.profile == nil || o.CustomerID != c.profile.ID {
				return rowViolation(table)
			}
		}
		return nil
	case models.TableOrderItems:
		items, ok := asOrderItems(rows)
		if !ok {
			return fmt.Errorf("unexpected row type %T for %s", rows, table)
		}
		ids := map[int64]struct{}{}
		for _, it := range items {
			ids[it.OrderID] = struct{}{}
		}
		if len(ids) == 0 {
			return nil
		}
		list := make([]int64, 0, len(ids))
		for id := range ids {
			list = append(list, id)
		}
		var owned int64
		err := s.db.DB().WithContext(ctx).
			Table(models.TableOrders).
			Where("id IN ? AND customer_id = ?", list, c.profileID()).
			Count(&owned).Error
		if err != nil {
			return err
		}
		if int(owned) != len(list) {
			return rowViolation(table)
		}
		return nil
	default:
		return permissionDenied(table)
	}
}

func asProfiles(rows any) ([]models.CustomerProfile, bool) {
	switch v := rows.(type) {
	case *models.CustomerProfile:
		return []models.CustomerProfile{*v}, true
	case *[]models.CustomerProfile:
		return *v, true
	}
	return nil, false
}

func asOrders(rows any) ([]models.Order, bool) {
	switch v := rows.(type) {
	case *models.Order:
		return []models.Order{*v}, true
	case *[]models.Order:
		return *v, true
	}
	return nil, false
}

func asOrderItems(rows any) ([]models.OrderItem, bool) {
	switch v := rows.(type) {
	case *models.OrderItem:
		return []models.OrderItem{*v}, true
	case *[]models.OrderItem:
		return *v, true
	}
	return nil, false
}
