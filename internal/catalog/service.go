// Package catalog lists the printable materials and lets admins manage them.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/printshop-backend/pkg/backend"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

// SuggestedTypes are offered by the admin material form; any non-empty type is accepted.
var SuggestedTypes = []string{"PLA", "ABS", "PETG", "TPU"}

// MaterialInput is the admin material form.
type MaterialInput struct {
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	Color        string          `json:"color"`
	PricePerGram decimal.Decimal `json:"price_per_gram"`
	StockGrams   *int            `json:"stock_grams,omitempty"`
}

func (in MaterialInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return pkgerrors.Validation("name is required")
	case strings.TrimSpace(in.Type) == "":
		return pkgerrors.Validation("type is required")
	case strings.TrimSpace(in.Color) == "":
		return pkgerrors.Validation("color is required")
	case !in.PricePerGram.IsPositive():
		return pkgerrors.Validation("price_per_gram must be greater than zero")
	case in.StockGrams != nil && *in.StockGrams < 0:
		return pkgerrors.Validation("stock_grams cannot be negative")
	}
	return nil
}

type Service interface {
	List(ctx context.Context) ([]models.Material, error)
	Create(ctx context.Context, in MaterialInput) ([]models.Material, error)
	Delete(ctx context.Context, materialID int64, confirmed bool) ([]models.Material, error)
}

type service struct {
	tables backend.Tables
	logg   *logger.Logger
}

func NewService(tables backend.Tables, logg *logger.Logger) (Service, error) {
	if tables == nil {
		return nil, fmt.Errorf("backend tables are required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{tables: tables, logg: logg}, nil
}

// List returns every material ordered by name.
func (s *service) List(ctx context.Context) ([]models.Material, error) {
	materials := []models.Material{}
	err := s.tables.Select(ctx, models.TableMaterials, backend.Query{
		Order: []backend.OrderBy{{Column: "name"}},
	}, &materials)
	if err != nil {
		return nil, backend.AsRemote(err, "could not load materials")
	}
	return materials, nil
}

// Create inserts a material and returns the re-fetched catalog.
func (s *service) Create(ctx context.Context, in MaterialInput) ([]models.Material, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	material := models.Material{
		Name:         strings.TrimSpace(in.Name),
		Type:         strings.TrimSpace(in.Type),
		Color:        strings.TrimSpace(in.Color),
		PricePerGram: in.PricePerGram,
	}
	if in.StockGrams != nil {
		material.StockGrams = *in.StockGrams
	}

	if _, err := s.tables.Insert(ctx, models.TableMaterials, &material); err != nil {
		return nil, backend.AsRemote(err, "could not create the material")
	}
	s.logg.Info(s.logg.WithField(ctx, "material_id", material.ID), "catalog.material_created")
	return s.List(ctx)
}

// Delete removes a material once the admin has confirmed it, then returns
// the re-fetched catalog.
func (s *service) Delete(ctx context.Context, materialID int64, confirmed bool) ([]models.Material, error) {
	if materialID <= 0 {
		return nil, pkgerrors.Validation("material id is required")
	}
	if !confirmed {
		return nil, pkgerrors.Validation("deleting a material requires confirmation")
	}
	if err := s.tables.Delete(ctx, models.TableMaterials, backend.Eq("id", materialID)); err != nil {
		return nil, backend.AsRemote(err, "could not delete the material")
	}
	s.logg.Info(s.logg.WithField(ctx, "material_id", materialID), "catalog.material_deleted")
	return s.List(ctx)
}
