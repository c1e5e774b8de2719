package checkout

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is the session-owned ordered collection of items awaiting checkout.
// It is an explicit object passed into the coordinator, never ambient state,
// so independent carts can coexist in tests and sessions.
type Cart struct {
	mu    sync.Mutex
	items []CartItem
	index map[string]int // business key -> position in items
}

// NewCart constructs an empty cart.
func NewCart() *Cart {
	return &Cart{index: make(map[string]int)}
}

// AddItem appends the item, or merges quantity into the existing entry when
// the business key is already present. Order of first insertion is kept.
func (c *Cart) AddItem(item CartItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if pos, ok := c.index[item.BusinessKey]; ok {
		c.items[pos].Quantity += item.Quantity
		return nil
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	c.index[item.BusinessKey] = len(c.items)
	c.items = append(c.items, item)
	return nil
}

// RemoveItem deletes the entry with the given cart-local id. Removing an
// unknown id is a no-op.
func (c *Cart) RemoveItem(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for pos, item := range c.items {
		if item.ID != id {
			continue
		}
		c.items = append(c.items[:pos], c.items[pos+1:]...)
		delete(c.index, item.BusinessKey)
		for i := pos; i < len(c.items); i++ {
			c.index[c.items[i].BusinessKey] = i
		}
		return
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.index = make(map[string]int)
}

// Items returns a copy of the cart contents in insertion order.
func (c *Cart) Items() []CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// TotalItems is the sum of all quantities.
func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, item := range c.items {
		total += item.Quantity
	}
	return total
}

// TotalPrice is the sum of unit price times quantity over all items.
func (c *Cart) TotalPrice() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.Total())
	}
	return total
}

// Len reports the number of distinct entries.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Registry tracks one cart per actor for the HTTP surface. Carts live for
// the session and are dropped on checkout success or explicit clear.
type Registry struct {
	mu    sync.Mutex
	carts map[string]*Cart
}

// NewRegistry constructs an empty cart registry.
func NewRegistry() *Registry {
	return &Registry{carts: make(map[string]*Cart)}
}

// CartFor returns the actor's cart, creating it on first use.
func (r *Registry) CartFor(actorID string) *Cart {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.carts[actorID]
	if !ok {
		cart = NewCart()
		r.carts[actorID] = cart
	}
	return cart
}

// Drop discards the actor's cart.
func (r *Registry) Drop(actorID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, actorID)
}
