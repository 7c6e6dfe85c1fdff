// Package orderbook implements the price-level limit order book.
//
// A Ladder is one side of the book: levels ordered by price, each level
// a FIFO queue of resting orders. An OrderBook pairs a bid ladder and an
// ask ladder and detects crossed/locked books. Adapted from
// order-matching-engine's int64-cents RBTree book to key on
// model.Price/model.Quantity and operate on model.Order instead of a
// stripped-down order record.
package orderbook

import (
	"github.com/rishav/algo-engine/internal/apperrors"
	"github.com/rishav/algo-engine/internal/message"
	"github.com/rishav/algo-engine/internal/model"
	"github.com/shopspring/decimal"
)

// Fill is one execution produced by walking a ladder against an
// incoming order. Prices and quantities carry the ladder's configured
// precision.
type Fill struct {
	RestingOrder *model.Order
	Price        model.Price
	Qty          model.Quantity
}

// Ladder is one side of an order book: either the bid side (reverse,
// best = highest price) or the ask side (best = lowest price).
type Ladder struct {
	reverse        bool
	pricePrecision uint8
	sizePrecision  uint8
	tree           *RBTree
	byOrder        map[model.ClientOrderID]*OrderNode
}

// NewLadder creates an empty ladder. reverse == true orders levels
// descending (bids); reverse == false orders ascending (asks).
func NewLadder(reverse bool, pricePrecision, sizePrecision uint8) *Ladder {
	return &Ladder{
		reverse:        reverse,
		pricePrecision: pricePrecision,
		sizePrecision:  sizePrecision,
		tree:           NewRBTree(reverse),
		byOrder:        make(map[model.ClientOrderID]*OrderNode),
	}
}

func (l *Ladder) PricePrecision() uint8 { return l.pricePrecision }
func (l *Ladder) SizePrecision() uint8  { return l.sizePrecision }

// Add inserts order into the ladder, creating its price level if
// absent, preserving time priority. Returns an error if the order is
// already present.
func (l *Ladder) Add(order *model.Order) error {
	if _, exists := l.byOrder[order.ClientOrderID]; exists {
		return apperrors.New(apperrors.KindBookIntegrity, "order "+string(order.ClientOrderID)+" already on ladder")
	}

	level := l.tree.Get(order.Price)
	if level == nil {
		level = NewBookLevel(order.Price)
		l.tree.Insert(level)
	}

	node := level.Append(order)
	l.byOrder[order.ClientOrderID] = node
	return nil
}

// Update adjusts a resting order's volume after a partial fill,
// removing the order (and its level, if now empty) when volume reaches
// zero.
func (l *Ladder) Update(order *model.Order) error {
	node, exists := l.byOrder[order.ClientOrderID]
	if !exists {
		return apperrors.New(apperrors.KindNotFound, "order "+string(order.ClientOrderID)+" not on ladder")
	}

	level := node.level
	level.RefreshQuantity()

	if order.LeavesQty().IsZero() {
		return l.Delete(order)
	}
	return nil
}

// Delete removes order from the ladder, dropping its level if the
// level becomes empty.
func (l *Ladder) Delete(order *model.Order) error {
	node, exists := l.byOrder[order.ClientOrderID]
	if !exists {
		return apperrors.New(apperrors.KindNotFound, "order "+string(order.ClientOrderID)+" not on ladder")
	}

	level := node.level
	level.Remove(node)
	delete(l.byOrder, order.ClientOrderID)

	if level.IsEmpty() {
		l.tree.Delete(level.Price)
	}
	return nil
}

// Top returns the best level, or nil if the ladder is empty.
func (l *Ladder) Top() *BookLevel {
	return l.tree.Best()
}

// Levels returns all levels in natural ladder order (ascending for
// asks, descending for bids).
func (l *Ladder) Levels() []*BookLevel {
	out := make([]*BookLevel, 0, l.tree.Size())
	l.tree.ForEach(func(lvl *BookLevel) bool {
		out = append(out, lvl)
		return true
	})
	return out
}

// Prices returns the price of each level in natural ladder order.
func (l *Ladder) Prices() []model.Price {
	levels := l.Levels()
	out := make([]model.Price, len(levels))
	for i, lvl := range levels {
		out[i] = lvl.Price
	}
	return out
}

// Volumes returns the total resting volume of each level in natural
// ladder order.
func (l *Ladder) Volumes() []model.Quantity {
	levels := l.Levels()
	out := make([]model.Quantity, len(levels))
	for i, lvl := range levels {
		out[i] = lvl.TotalQty
	}
	return out
}

// Exposures returns, for each level i in natural ladder order, the
// cumulative sum of price*volume across levels [0, i].
func (l *Ladder) Exposures() []decimal.Decimal {
	levels := l.Levels()
	out := make([]decimal.Decimal, len(levels))
	running := decimal.Zero
	for i, lvl := range levels {
		running = running.Add(lvl.Price.Mul(lvl.TotalQty))
		out[i] = running
	}
	return out
}

// SimulateOrderFills walks the ladder in natural order while the
// incoming order's price crosses each level, taking liquidity from
// resting orders in time priority. It does not mutate the ladder; the
// caller applies returned fills via Update/Delete.
//
// A market order crosses unconditionally (walks every level until its
// quantity is exhausted or the ladder is empty).
func (l *Ladder) SimulateOrderFills(side model.Side, price model.Price, isMarket bool, qty model.Quantity) []Fill {
	var fills []Fill
	remaining := qty

	l.tree.ForEach(func(level *BookLevel) bool {
		if !isMarket && !crosses(side, price, level.Price) {
			return false
		}

		for node := level.Head(); node != nil && remaining.IsPositive(); node = node.Next() {
			resting := node.Order
			take := remaining.Min(resting.LeavesQty())
			fills = append(fills, Fill{
				RestingOrder: resting,
				Price:        model.NewPrice(level.Price.Decimal(), l.pricePrecision),
				Qty:          model.NewQuantity(take.Decimal(), l.sizePrecision),
			})
			remaining = remaining.Sub(take)
		}

		return remaining.IsPositive()
	})

	return fills
}

// crosses reports whether an incoming order at `price` on `side`
// crosses a resting level at `levelPrice`. BUY crosses asks at
// levelPrice <= price; SELL crosses bids at levelPrice >= price.
func crosses(side model.Side, price, levelPrice model.Price) bool {
	if side == model.SideBuy {
		return levelPrice.LessOrEqual(price)
	}
	return levelPrice.GreaterOrEqual(price)
}

// OrderBook pairs a bid ladder and an ask ladder for one instrument.
type OrderBook struct {
	Instrument model.InstrumentID
	Bids       *Ladder
	Asks       *Ladder
}

// NewOrderBook creates an empty two-sided book for instrument at the
// given precisions.
func NewOrderBook(instrument model.InstrumentID, pricePrecision, sizePrecision uint8) *OrderBook {
	return &OrderBook{
		Instrument: instrument,
		Bids:       NewLadder(true, pricePrecision, sizePrecision),
		Asks:       NewLadder(false, pricePrecision, sizePrecision),
	}
}

// LadderFor returns the ladder an order of the given side rests on:
// buys rest on the bid ladder, sells rest on the ask ladder.
func (ob *OrderBook) LadderFor(side model.Side) *Ladder {
	if side == model.SideBuy {
		return ob.Bids
	}
	return ob.Asks
}

// OppositeLadder returns the ladder an order of the given side walks
// against: buys walk the ask ladder, sells walk the bid ladder.
func (ob *OrderBook) OppositeLadder(side model.Side) *Ladder {
	if side == model.SideBuy {
		return ob.Asks
	}
	return ob.Bids
}

// CheckIntegrity detects a crossed or locked book (best_bid >=
// best_ask) without mutating either ladder. Returns a BookIntegrity
// event when crossed, or nil when the book is sound.
func (ob *OrderBook) CheckIntegrity(nowNs int64) *message.Event {
	bestBid := ob.Bids.Top()
	bestAsk := ob.Asks.Top()
	if bestBid == nil || bestAsk == nil {
		return nil
	}
	if bestBid.Price.LessThan(bestAsk.Price) {
		return nil
	}
	evt := message.NewBookIntegrityEvent(nowNs, ob.Instrument, bestBid.Price, bestAsk.Price, "crossed book: best_bid >= best_ask")
	return &evt
}
