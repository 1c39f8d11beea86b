package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct{ status int }

func (f fakeRemote) Error() string     { return "remote said no" }
func (f fakeRemote) RemoteStatus() int { return f.status }

func TestDumpCollectsChainAndRemoteStatus(t *testing.T) {
	err := Wrap(CodeRemoteCall, fmt.Errorf("insert order_items: %w", fakeRemote{status: 409}), "remote said no")

	d := Dump(err)

	assert.Equal(t, CodeRemoteCall, d.Code)
	assert.Equal(t, 409, d.RemoteStatus)
	require.Len(t, d.Chain, 3)
}

func TestDumpExtractsPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23503", ConstraintName: "order_items_material_id_fkey", TableName: "order_items"}
	d := Dump(fmt.Errorf("create items: %w", pgErr))

	assert.Equal(t, "23503", d.PGCode)
	assert.Equal(t, "order_items_material_id_fkey", d.PGConstraint)
	assert.Equal(t, "order_items", d.PGTable)
}

func TestDumpNil(t *testing.T) {
	assert.Equal(t, ErrorDump{}, Dump(nil))
	assert.Empty(t, Dump(stdErrors.New("x")).Code)
}
