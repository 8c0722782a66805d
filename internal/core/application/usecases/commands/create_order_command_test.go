package commands_test

import (
	"strings"
	"testing"

	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreateOrderCommand_ValidInput(t *testing.T) {
	id := kernel.NewUUID()

	cmd, err := commands.NewCreateOrderCommand(id, "Laptop", 2)

	require.NoError(t, err)
	require.NoError(t, cmd.Validate())
	assert.Equal(t, id, cmd.OrderID())
	assert.Equal(t, "Laptop", cmd.ItemName())
	assert.Equal(t, 2, cmd.Quantity())
}

func TestNewCreateOrderCommand_InvalidInput(t *testing.T) {
	cases := []struct {
		name     string
		itemName string
		quantity int
		field    string
	}{
		{"empty item name", "", 5, "item_name"},
		{"item name too long", strings.Repeat("b", 101), 5, "item_name"},
		{"zero quantity", "Laptop", 0, "quantity"},
		{"quantity too large", "Laptop", 1001, "quantity"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := commands.NewCreateOrderCommand(kernel.NewUUID(), tc.itemName, tc.quantity)

			require.Error(t, err)
			assert.True(t, errs.IsValidation(err))
			assert.Contains(t, errs.Fields(err), tc.field)
		})
	}
}

func TestNewCreateOrderCommand_InvalidOrderID(t *testing.T) {
	_, err := commands.NewCreateOrderCommand(kernel.UUID{}, "Laptop", 2)

	require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
}

func TestCreateOrderCommand_ZeroValue(t *testing.T) {
	var cmd commands.CreateOrderCommand

	require.ErrorIs(t, cmd.Validate(), commands.ErrCreateOrderCommandIsNotConstructed)
}
