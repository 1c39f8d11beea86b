package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	for _, status := range OrderStatuses() {
		parsed, err := ParseOrderStatus(status.String())
		require.NoError(t, err)
		assert.Equal(t, status, parsed)
		assert.True(t, parsed.IsValid())
	}

	_, err := ParseOrderStatus("shipped")
	assert.Error(t, err)
	assert.False(t, OrderStatus("shipped").IsValid())
}

func TestOrderStatusLabel(t *testing.T) {
	assert.Equal(t, "in production", OrderStatusInProduction.Label())
	assert.Equal(t, "pending", OrderStatusPending.Label())
}

func TestOrderStatusesReturnsCopy(t *testing.T) {
	statuses := OrderStatuses()
	statuses[0] = "tampered"
	assert.Equal(t, OrderStatusPending, OrderStatuses()[0])
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	_, err = ParseRole("owner")
	assert.Error(t, err)
	assert.False(t, Role("").IsValid())
}
