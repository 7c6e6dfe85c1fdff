// account.go adapts distributed-system-design's settlement.ClearingHouse
// Account{ID, Cash, Holdings} into the spec's per-currency balance model:
// each currency tracks total/free/locked independently instead of a
// single cash figure, and positions are tracked per-instrument with
// average price and realized P&L rather than as settlement holdings.
// The clearing house's T+2 net settlement machinery has no place in a
// backtest venue that settles every fill immediately, so it is not
// carried here; see DESIGN.md.
package execution

import (
	"sync"

	"github.com/rishav/algo-engine/internal/apperrors"
	"github.com/rishav/algo-engine/internal/model"
	"github.com/shopspring/decimal"
)

// Balance is a per-currency ledger entry. Invariant: Free + Locked ==
// Total at all times.
type Balance struct {
	Total  decimal.Decimal
	Free   decimal.Decimal
	Locked decimal.Decimal
}

func (b Balance) check() error {
	if !b.Free.Add(b.Locked).Equal(b.Total) {
		return apperrors.New(apperrors.KindValidation, "balance invariant violated: free+locked != total")
	}
	return nil
}

// Position tracks a single account's net exposure in one instrument.
type Position struct {
	Instrument   model.InstrumentID
	Side         model.Side
	Quantity     model.Quantity
	AvgPx        model.Price
	RealizedPnL  decimal.Decimal
}

// Account holds one trading account's currency balances and per-
// instrument positions, mutated only through Deposit, ApplyFill and
// Lock/Unlock.
type Account struct {
	mu        sync.Mutex
	ID        model.AccountID
	balances  map[string]*Balance
	positions map[model.InstrumentID]*Position
}

func NewAccount(id model.AccountID) *Account {
	return &Account{
		ID:        id,
		balances:  make(map[string]*Balance),
		positions: make(map[model.InstrumentID]*Position),
	}
}

// Deposit credits currency with amount, free and unlocked.
func (a *Account) Deposit(currency string, amount decimal.Decimal) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b := a.balanceLocked(currency)
	b.Total = b.Total.Add(amount)
	b.Free = b.Free.Add(amount)
}

func (a *Account) Balance(currency string) Balance {
	a.mu.Lock()
	defer a.mu.Unlock()
	return *a.balanceLocked(currency)
}

func (a *Account) Position(inst model.InstrumentID) (Position, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.positions[inst]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// Positions returns a snapshot of every instrument this account holds
// a nonzero-history position in, for end-of-run reporting.
func (a *Account) Positions() map[model.InstrumentID]Position {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[model.InstrumentID]Position, len(a.positions))
	for inst, p := range a.positions {
		out[inst] = *p
	}
	return out
}

func (a *Account) balanceLocked(currency string) *Balance {
	b, ok := a.balances[currency]
	if !ok {
		b = &Balance{}
		a.balances[currency] = b
	}
	return b
}

// Lock reserves amount of currency from free into locked, for an order
// resting on the book. Returns an error if free balance is insufficient.
func (a *Account) Lock(currency string, amount decimal.Decimal) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	b := a.balanceLocked(currency)
	if b.Free.LessThan(amount) {
		return apperrors.New(apperrors.KindOrderDenied, "insufficient free balance in "+currency)
	}
	b.Free = b.Free.Sub(amount)
	b.Locked = b.Locked.Add(amount)
	return b.check()
}

// Unlock releases amount of currency back from locked to free, e.g. on
// order cancellation or expiry.
func (a *Account) Unlock(currency string, amount decimal.Decimal) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	b := a.balanceLocked(currency)
	if b.Locked.LessThan(amount) {
		amount = b.Locked
	}
	b.Locked = b.Locked.Sub(amount)
	b.Free = b.Free.Add(amount)
	return b.check()
}

// ApplyFill updates the account's position and quote-currency balance
// for a single fill of qty at px in instrument, on side side. Realized
// P&L accrues when the fill reduces or flips an existing position;
// average price is recomputed when it extends one.
func (a *Account) ApplyFill(inst model.InstrumentID, quoteCurrency string, side model.Side, px model.Price, qty model.Quantity) {
	a.mu.Lock()
	defer a.mu.Unlock()

	pos, ok := a.positions[inst]
	if !ok {
		pos = &Position{Instrument: inst, Side: side, Quantity: model.NewQuantity(decimal.Zero, qty.Precision()), AvgPx: px}
		a.positions[inst] = pos
	}

	notional := px.Decimal().Mul(qty.Decimal())
	b := a.balanceLocked(quoteCurrency)

	switch {
	case pos.Quantity.IsZero() || pos.Side == side:
		// Opening or extending a position: blend the average price.
		totalQty := pos.Quantity.Decimal().Add(qty.Decimal())
		if totalQty.IsPositive() {
			weighted := pos.AvgPx.Decimal().Mul(pos.Quantity.Decimal()).Add(notional)
			pos.AvgPx = model.NewPrice(weighted.Div(totalQty), px.Precision())
		}
		pos.Side = side
		pos.Quantity = model.NewQuantity(totalQty, qty.Precision())
		a.settleCash(b, side, notional)
	default:
		// Reducing or flipping: realize P&L on the closed portion.
		closeQty := qty.Min(pos.Quantity)
		pnlPerUnit := pos.AvgPx.Decimal().Sub(px.Decimal())
		if pos.Side == model.SideBuy {
			pnlPerUnit = px.Decimal().Sub(pos.AvgPx.Decimal())
		}
		pos.RealizedPnL = pos.RealizedPnL.Add(pnlPerUnit.Mul(closeQty.Decimal()))
		pos.Quantity = pos.Quantity.Sub(closeQty)
		a.settleCash(b, side, px.Decimal().Mul(closeQty.Decimal()))

		leftover := qty.Sub(closeQty)
		if leftover.IsPositive() {
			pos.Side = side
			pos.Quantity = leftover
			pos.AvgPx = px
			a.settleCash(b, side, px.Decimal().Mul(leftover.Decimal()))
		}
	}
}

// settleCash moves notional between free balance and position exposure:
// a buy spends quote currency, a sell receives it. Backtest accounts are
// not margined, so this is a direct cash transfer.
func (a *Account) settleCash(b *Balance, side model.Side, notional decimal.Decimal) {
	if side == model.SideBuy {
		b.Total = b.Total.Sub(notional)
		b.Free = b.Free.Sub(notional)
	} else {
		b.Total = b.Total.Add(notional)
		b.Free = b.Free.Add(notional)
	}
}

// AccountStore holds every account known to the execution engine,
// created lazily on first reference.
type AccountStore struct {
	mu       sync.Mutex
	accounts map[model.AccountID]*Account
}

func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[model.AccountID]*Account)}
}

func (s *AccountStore) Get(id model.AccountID) *Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		acc = NewAccount(id)
		s.accounts[id] = acc
	}
	return acc
}

// Snapshot returns every account known to the store, for end-of-run
// reporting.
func (s *AccountStore) Snapshot() map[model.AccountID]*Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[model.AccountID]*Account, len(s.accounts))
	for id, acc := range s.accounts {
		out[id] = acc
	}
	return out
}
