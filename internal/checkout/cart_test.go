package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(key, name string, price int64, qty int) CartItem {
	return CartItem{
		BusinessKey: key,
		Name:        name,
		UnitPrice:   decimal.NewFromInt(price),
		Quantity:    qty,
	}
}

func TestCartAddItemMergesDuplicateBusinessKey(t *testing.T) {
	cart := NewCart()
	require.NoError(t, cart.AddItem(item("TKT-001", "Jakarta-Bali", 1_000_000, 2)))
	require.NoError(t, cart.AddItem(item("TKT-001", "Jakarta-Bali", 1_000_000, 1)))

	assert.Equal(t, 1, cart.Len(), "same business key must not create a second entry")
	assert.Equal(t, 3, cart.TotalItems())
	assert.True(t, cart.TotalPrice().Equal(decimal.NewFromInt(3_000_000)))
}

func TestCartKeepsInsertionOrder(t *testing.T) {
	cart := NewCart()
	require.NoError(t, cart.AddItem(item("TKT-002", "Hotel", 500_000, 1)))
	require.NoError(t, cart.AddItem(item("TKT-001", "Flight", 1_000_000, 1)))
	require.NoError(t, cart.AddItem(item("TKT-002", "Hotel", 500_000, 2)))

	items := cart.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "TKT-002", items[0].BusinessKey)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "TKT-001", items[1].BusinessKey)
}

func TestCartRemoveItemReindexes(t *testing.T) {
	cart := NewCart()
	require.NoError(t, cart.AddItem(item("A", "First", 100, 1)))
	require.NoError(t, cart.AddItem(item("B", "Second", 200, 1)))
	require.NoError(t, cart.AddItem(item("C", "Third", 300, 1)))

	items := cart.Items()
	cart.RemoveItem(items[0].ID)
	require.Equal(t, 2, cart.Len())

	// The survivor's key must still merge, not append.
	require.NoError(t, cart.AddItem(item("C", "Third", 300, 4)))
	assert.Equal(t, 2, cart.Len())
	assert.Equal(t, 6, cart.TotalItems())
}

func TestCartRemoveUnknownIDIsNoop(t *testing.T) {
	cart := NewCart()
	require.NoError(t, cart.AddItem(item("A", "First", 100, 1)))
	cart.RemoveItem("nope")
	assert.Equal(t, 1, cart.Len())
}

func TestCartClear(t *testing.T) {
	cart := NewCart()
	require.NoError(t, cart.AddItem(item("A", "First", 100, 1)))
	cart.Clear()
	assert.Equal(t, 0, cart.Len())
	assert.True(t, cart.TotalPrice().IsZero())

	// Cleared carts accept the same key as a fresh entry.
	require.NoError(t, cart.AddItem(item("A", "First", 100, 2)))
	assert.Equal(t, 2, cart.TotalItems())
}

func TestCartRejectsInvalidItems(t *testing.T) {
	cart := NewCart()
	assert.Error(t, cart.AddItem(item("", "No key", 100, 1)))
	assert.Error(t, cart.AddItem(item("A", "", 100, 1)))
	assert.Error(t, cart.AddItem(item("A", "Zero qty", 100, 0)))
	assert.Error(t, cart.AddItem(CartItem{
		BusinessKey: "A", Name: "Negative", UnitPrice: decimal.NewFromInt(-1), Quantity: 1,
	}))
	assert.Equal(t, 0, cart.Len())
}

func TestRegistryOneCartPerActor(t *testing.T) {
	reg := NewRegistry()
	a := reg.CartFor("alice")
	b := reg.CartFor("bob")
	require.NoError(t, a.AddItem(item("A", "First", 100, 1)))

	assert.Same(t, a, reg.CartFor("alice"))
	assert.Equal(t, 0, b.Len(), "carts are independent per actor")

	reg.Drop("alice")
	assert.Equal(t, 0, reg.CartFor("alice").Len(), "dropped cart is replaced fresh")
}
