package embedded

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/angelmondragon/printshop-backend/pkg/backend"
	"github.com/angelmondragon/printshop-backend/pkg/db"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

var modelFor = map[string]func() any{
	models.TableCustomerProfiles: func() any { return &models.CustomerProfile{} },
	models.TableMaterials:        func() any { return &models.Material{} },
	models.TableOrders:           func() any { return &models.Order{} },
	models.TableOrderItems:       func() any { return &models.OrderItem{} },
}

type tableService struct {
	s *Service

	schemas sync.Map
}

var _ backend.Tables = (*tableService)(nil)

func (t *tableService) Select(ctx context.Context, table string, q backend.Query, dest any) error {
	if err := validateTable(table); err != nil {
		return err
	}
	if err := q.Validate(); err != nil {
		return err
	}
	c, err := t.s.resolveCaller(ctx)
	if err != nil {
		return err
	}
	restrict, err := t.s.scope(c, table, opSelect)
	if err != nil {
		return err
	}

	tx := t.s.db.DB().WithContext(ctx).Table(table).Scopes(restrict, withFilter(q.Filter))
	if len(q.Columns) > 0 {
		tx = tx.Select(q.Columns)
	}
	for _, o := range q.Order {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: o.Column}, Desc: o.Desc})
	}
	if len(q.Embeds) > 0 {
		tx, err = t.preload(tx, dest, q.Embeds)
		if err != nil {
			return err
		}
	}

	if q.Single {
		if err := tx.Take(dest).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return backend.NewError(http.StatusNotFound, "PGRST116", "JSON object requested, multiple (or no) rows returned")
			}
			return translate(err)
		}
		return nil
	}
	return translate(tx.Find(dest).Error)
}

// Insert writes rows and reloads them so store defaults come back.
func (t *tableService) Insert(ctx context.Context, table string, rows any) (int, error) {
	if err := validateTable(table); err != nil {
		return 0, err
	}
	rv := reflect.ValueOf(rows)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return 0, fmt.Errorf("insert %s: rows must be a non-nil pointer", table)
	}
	c, err := t.s.resolveCaller(ctx)
	if err != nil {
		return 0, err
	}
	if err := t.s.checkInsert(ctx, c, table, rows); err != nil {
		return 0, err
	}

	count := 1
	if rv.Elem().Kind() == reflect.Slice {
		count = rv.Elem().Len()
		if count == 0 {
			return 0, nil
		}
	}

	conn := t.s.db.DB().WithContext(ctx)
	if err := conn.Table(table).Omit(clause.Associations).Create(rows).Error; err != nil {
		return 0, translate(err)
	}

	if rv.Elem().Kind() == reflect.Slice {
		for i := 0; i < count; i++ {
			if err := conn.Table(table).Take(rv.Elem().Index(i).Addr().Interface()).Error; err != nil {
				return 0, translate(err)
			}
		}
		return count, nil
	}
	if err := conn.Table(table).Take(rows).Error; err != nil {
		return 0, translate(err)
	}
	return count, nil
}

func (t *tableService) Update(ctx context.Context, table string, patch map[string]any, filter backend.Filter) error {
	if err := validateTable(table); err != nil {
		return err
	}
	if filter.IsEmpty() {
		return backend.ErrEmptyFilter
	}
	if err := filter.Validate(); err != nil {
		return err
	}
	if len(patch) == 0 {
		return nil
	}
	for col := range patch {
		if !backend.ValidIdentifier(col) {
			return fmt.Errorf("invalid column %q", col)
		}
	}
	c, err := t.s.resolveCaller(ctx)
	if err != nil {
		return err
	}
	restrict, err := t.s.scope(c, table, opUpdate)
	if err != nil {
		return err
	}

	err = t.s.db.DB().WithContext(ctx).
		Model(modelFor[table]()).
		Scopes(restrict, withFilter(filter)).
		Updates(patch).Error
	return translate(err)
}

func (t *tableService) Delete(ctx context.Context, table string, filter backend.Filter) error {
	if err := validateTable(table); err != nil {
		return err
	}
	if filter.IsEmpty() {
		return backend.ErrEmptyFilter
	}
	if err := filter.Validate(); err != nil {
		return err
	}
	c, err := t.s.resolveCaller(ctx)
	if err != nil {
		return err
	}
	restrict, err := t.s.scope(c, table, opDelete)
	if err != nil {
		return err
	}

	err = t.s.db.DB().WithContext(ctx).
		Scopes(restrict, withFilter(filter)).
		Delete(modelFor[table]()).Error
	return translate(err)
}

// preload resolves each embed against the GORM relationships of the row type.
// Restricted column lists always keep the keys the join needs.
func (t *tableService) preload(tx *gorm.DB, dest any, embeds []backend.Embed) (*gorm.DB, error) {
	rowType := reflect.TypeOf(dest)
	for rowType.Kind() == reflect.Pointer || rowType.Kind() == reflect.Slice {
		rowType = rowType.Elem()
	}
	sch, err := schema.Parse(reflect.New(rowType).Interface(), &t.schemas, tx.NamingStrategy)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rowType.Name(), err)
	}

	for _, e := range embeds {
		field := fieldForJSON(rowType, e.Relation)
		rel, ok := sch.Relationships.Relations[field]
		if !ok || rel.FieldSchema.Table != e.Table {
			return nil, backend.NewError(http.StatusBadRequest, "PGRST200",
				fmt.Sprintf("Could not find a relationship between '%s' and '%s'", sch.Table, e.Table))
		}

		cols := e.Columns
		if len(cols) > 0 {
			cols = withKeyColumns(rel, cols)
		}
		tx = tx.Preload(field, func(p *gorm.DB) *gorm.DB {
			if len(cols) == 0 {
				return p
			}
			return p.Select(cols)
		})
	}
	return tx, nil
}

func fieldForJSON(rowType reflect.Type, name string) string {
	for i := 0; i < rowType.NumField(); i++ {
		f := rowType.Field(i)
		tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if tag == name {
			return f.Name
		}
	}
	return ""
}

func withKeyColumns(rel *schema.Relationship, cols []string) []string {
	out := make([]string, 0, len(cols)+len(rel.References))
	seen := map[string]struct{}{}
	add := func(col string) {
		if _, ok := seen[col]; ok || col == "" {
			return
		}
		seen[col] = struct{}{}
		out = append(out, col)
	}
	for _, ref := range rel.References {
		if ref.OwnPrimaryKey {
			add(ref.ForeignKey.DBName)
		} else if ref.PrimaryKey != nil {
			add(ref.PrimaryKey.DBName)
		}
	}
	for _, col := range cols {
		add(col)
	}
	return out
}

func withFilter(f backend.Filter) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		for _, c := range f.Conditions() {
			tx = tx.Where(clause.Eq{Column: clause.Column{Name: c.Column}, Value: c.Value})
		}
		return tx
	}
}

func validateTable(table string) error {
	if !backend.ValidIdentifier(table) {
		return fmt.Errorf("invalid table %q", table)
	}
	return nil
}

// translate maps store failures onto the error shapes of the hosted row API.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case db.IsForeignKeyViolation(err):
		return &backend.Error{Status: http.StatusConflict, Code: "23503", Message: err.Error()}
	case db.IsUniqueViolation(err, ""):
		return &backend.Error{Status: http.StatusConflict, Code: "23505", Message: err.Error()}
	case errors.Is(err, gorm.ErrRecordNotFound):
		return backend.NewError(http.StatusNotFound, "PGRST116", "JSON object requested, multiple (or no) rows returned")
	default:
		return &backend.Error{Status: http.StatusBadRequest, Message: err.Error()}
	}
}
