package hosted

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/angelmondragon/printshop-backend/pkg/backend"
)

type tablesAPI struct {
	c *Client
}

func (t *tablesAPI) rows(ctx context.Context, table string) (*resty.Request, string, error) {
	if !backend.ValidIdentifier(table) {
		return nil, "", fmt.Errorf("invalid table %q", table)
	}
	token, _ := backend.AccessTokenFromContext(ctx)
	return t.c.request(ctx, token), restPrefix + "/" + table, nil
}

func (t *tablesAPI) Select(ctx context.Context, table string, q backend.Query, dest any) error {
	if err := q.Validate(); err != nil {
		return err
	}
	req, path, err := t.rows(ctx, table)
	if err != nil {
		return err
	}

	params := filterParams(q.Filter)
	params.Set("select", selectClause(q))
	if len(q.Order) > 0 {
		params.Set("order", orderClause(q.Order))
	}
	req.SetQueryParamsFromValues(params)
	if q.Single {
		req.SetHeader("Accept", mediaSingleObject)
	}

	resp, err := req.Get(path)
	if err != nil {
		return transportError(err)
	}
	if resp.IsError() {
		return decodeRestError(resp)
	}
	if err := json.Unmarshal(resp.Body(), dest); err != nil {
		return fmt.Errorf("decoding %s rows: %w", table, err)
	}
	return nil
}

func (t *tablesAPI) Insert(ctx context.Context, table string, rows any) (int, error) {
	target := reflect.ValueOf(rows)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return 0, fmt.Errorf("insert into %s: rows must be a non-nil pointer", table)
	}
	req, path, err := t.rows(ctx, table)
	if err != nil {
		return 0, err
	}

	resp, err := req.
		SetHeader(headerPrefer, "return=representation").
		SetBody(rows).
		Post(path)
	if err != nil {
		return 0, transportError(err)
	}
	if resp.IsError() {
		return 0, decodeRestError(resp)
	}

	var returned []json.RawMessage
	if err := json.Unmarshal(resp.Body(), &returned); err != nil {
		return 0, fmt.Errorf("decoding %s insert response: %w", table, err)
	}
	if len(returned) == 0 {
		return 0, nil
	}
	if target.Elem().Kind() == reflect.Slice {
		if err := json.Unmarshal(resp.Body(), rows); err != nil {
			return 0, fmt.Errorf("decoding %s insert response: %w", table, err)
		}
		return len(returned), nil
	}
	if err := json.Unmarshal(returned[0], rows); err != nil {
		return 0, fmt.Errorf("decoding %s insert response: %w", table, err)
	}
	return len(returned), nil
}

func (t *tablesAPI) Update(ctx context.Context, table string, patch map[string]any, filter backend.Filter) error {
	if filter.IsEmpty() {
		return backend.ErrEmptyFilter
	}
	if err := filter.Validate(); err != nil {
		return err
	}
	req, path, err := t.rows(ctx, table)
	if err != nil {
		return err
	}
	resp, err := req.
		SetQueryParamsFromValues(filterParams(filter)).
		SetHeader(headerPrefer, "return=minimal").
		SetBody(patch).
		Patch(path)
	if err != nil {
		return transportError(err)
	}
	if resp.IsError() {
		return decodeRestError(resp)
	}
	return nil
}

func (t *tablesAPI) Delete(ctx context.Context, table string, filter backend.Filter) error {
	if filter.IsEmpty() {
		return backend.ErrEmptyFilter
	}
	if err := filter.Validate(); err != nil {
		return err
	}
	req, path, err := t.rows(ctx, table)
	if err != nil {
		return err
	}
	resp, err := req.
		SetQueryParamsFromValues(filterParams(filter)).
		Delete(path)
	if err != nil {
		return transportError(err)
	}
	if resp.IsError() {
		return decodeRestError(resp)
	}
	return nil
}

func filterParams(filter backend.Filter) url.Values {
	params := url.Values{}
	for _, c := range filter.Conditions() {
		params.Add(c.Column, "eq."+formatValue(c.Value))
	}
	return params
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// selectClause renders columns and embeds, e.g. "*,customer:customer_profiles(name)".
func selectClause(q backend.Query) string {
	parts := []string{"*"}
	if len(q.Columns) > 0 {
		parts = append([]string(nil), q.Columns...)
	}
	for _, e := range q.Embeds {
		cols := "*"
		if len(e.Columns) > 0 {
			cols = strings.Join(e.Columns, ",")
		}
		parts = append(parts, fmt.Sprintf("%s:%s(%s)", e.Relation, e.Table, cols))
	}
	return strings.Join(parts, ",")
}

func orderClause(order []backend.OrderBy) string {
	parts := make([]string, 0, len(order))
	for _, o := range order {
		dir := "asc"
		if o.Desc {
			dir = "desc"
		}
		parts = append(parts, o.Column+"."+dir)
	}
	return strings.Join(parts, ",")
}
