package orderbook

import (
	"github.com/rishav/algo-engine/internal/model"
	"github.com/shopspring/decimal"
)

// OrderNode is a node in the circular doubly-linked list of orders
// resting at a price level. The ring is anchored by BookLevel.root, a
// sentinel that never holds an Order: an empty level is just
// root.next == root.prev == &root, so Append/Remove/PopFront never
// special-case "removing the only node" or "removing the head/tail"
// the way a nil-terminated list must.
type OrderNode struct {
	Order *model.Order
	prev  *OrderNode
	next  *OrderNode
	level *BookLevel
}

// Next returns the next node in time priority, or nil once the ring
// wraps back to the sentinel.
func (n *OrderNode) Next() *OrderNode {
	if n.next == &n.level.root {
		return nil
	}
	return n.next
}

// BookLevel represents all resting orders at a single price, adapted
// from order-matching-engine's PriceLevel to key on model.Price and
// carry model.Quantity depth instead of int64 cents/shares.
//
// Orders at the same price are stored in arrival order (FIFO) on a
// circular list rather than a head/tail pair; TotalQty is not tracked
// incrementally but recomputed by walking the ring whenever the
// resting set changes, so it can never drift from what the orders
// actually hold.
type BookLevel struct {
	Price    model.Price
	root     OrderNode
	count    int
	TotalQty model.Quantity
}

// NewBookLevel creates a new empty price level.
func NewBookLevel(price model.Price) *BookLevel {
	lvl := &BookLevel{Price: price, TotalQty: model.NewQuantity(decimal.Zero, price.Precision())}
	lvl.root.next = &lvl.root
	lvl.root.prev = &lvl.root
	lvl.root.level = lvl
	return lvl
}

func (pl *BookLevel) Count() int    { return pl.count }
func (pl *BookLevel) IsEmpty() bool { return pl.count == 0 }

// Head returns the first order node (highest time priority), or nil if
// the level is empty.
func (pl *BookLevel) Head() *OrderNode {
	if pl.count == 0 {
		return nil
	}
	return pl.root.next
}

// Append adds an order just before the sentinel, i.e. at the tail of
// time priority. Returns the OrderNode for O(1) removal later.
func (pl *BookLevel) Append(order *model.Order) *OrderNode {
	node := &OrderNode{Order: order, level: pl}
	node.prev = pl.root.prev
	node.next = &pl.root
	pl.root.prev.next = node
	pl.root.prev = node

	pl.count++
	pl.recalc()
	return node
}

// Remove splices a node out of the ring. Time complexity: O(1).
func (pl *BookLevel) Remove(node *OrderNode) {
	if node == nil || node.level != pl {
		return
	}

	node.prev.next = node.next
	node.next.prev = node.prev
	node.prev = nil
	node.next = nil
	node.level = nil

	pl.count--
	pl.recalc()
}

// PopFront removes and returns the order with the highest time
// priority. Returns nil if the level is empty.
func (pl *BookLevel) PopFront() *model.Order {
	if pl.count == 0 {
		return nil
	}
	node := pl.root.next
	order := node.Order
	pl.Remove(node)
	return order
}

// RefreshQuantity recomputes TotalQty after a fill reduced a resting
// order's leaves quantity in place, without removing it from the ring.
func (pl *BookLevel) RefreshQuantity() {
	pl.recalc()
}

// recalc rebuilds TotalQty by summing every resting order's current
// leaves quantity. Recomputing rather than maintaining a running total
// with Add/Sub at each mutation means TotalQty is always derived from
// the orders actually on the ring, never an independently-tracked
// number that could drift out of sync with them.
func (pl *BookLevel) recalc() {
	total := model.NewQuantity(decimal.Zero, pl.Price.Precision())
	for n := pl.root.next; n != &pl.root; n = n.next {
		total = total.Add(n.Order.LeavesQty())
	}
	pl.TotalQty = total
}

// Orders returns a slice of all orders at this level in time priority.
// Allocates; intended for snapshots/reporting, not the hot path.
func (pl *BookLevel) Orders() []*model.Order {
	result := make([]*model.Order, 0, pl.count)
	for n := pl.root.next; n != &pl.root; n = n.next {
		result = append(result, n.Order)
	}
	return result
}
