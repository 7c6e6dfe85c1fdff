package persistence

import (
	"context"
	"fmt"

	"github.com/rishav/algo-engine/internal/execution"
	"github.com/rishav/algo-engine/internal/model"
	"github.com/rishav/algo-engine/internal/serialization"
	"github.com/shopspring/decimal"
)

const discPosition = "POSITION"

func positionRecordID(accountID model.AccountID, inst model.InstrumentID) string {
	return fmt.Sprintf("%s/%s.%s", accountID, inst.Symbol, inst.Venue)
}

func decodePositionSide(s string) (model.Side, error) {
	switch s {
	case model.SideBuy.String():
		return model.SideBuy, nil
	case model.SideSell.String():
		return model.SideSell, nil
	default:
		return 0, fmt.Errorf("unknown side %q", s)
	}
}

// PersistPosition writes one account's position in one instrument,
// indexed at asOfNs (the fill's timestamp that produced this state).
func (s *Store) PersistPosition(ctx context.Context, accountID model.AccountID, pos execution.Position, asOfNs int64) error {
	r := serialization.NewRecord(discPosition)
	r.PutString("account_id", string(accountID))
	r.PutString("symbol", pos.Instrument.Symbol)
	r.PutString("venue", pos.Instrument.Venue)
	r.PutString("side", pos.Side.String())
	r.PutString("quantity", pos.Quantity.String())
	r.PutInt64("quantity_precision", int64(pos.Quantity.Precision()))
	r.PutString("avg_px", pos.AvgPx.String())
	r.PutInt64("avg_px_precision", int64(pos.AvgPx.Precision()))
	r.PutString("realized_pnl", pos.RealizedPnL.String())

	return s.Put(ctx, KindPosition, positionRecordID(accountID, pos.Instrument), asOfNs, r.Encode())
}

// RecoveredPosition is a position record read back out of the store,
// paired with the account it belongs to.
type RecoveredPosition struct {
	AccountID model.AccountID
	Position  execution.Position
}

// RecoverPositions replays every persisted position in ascending
// as-of-timestamp order.
func (s *Store) RecoverPositions(ctx context.Context) ([]RecoveredPosition, error) {
	records, err := s.Recover(ctx, KindPosition)
	if err != nil {
		return nil, err
	}

	out := make([]RecoveredPosition, 0, len(records))
	for _, rec := range records {
		r, err := serialization.Decode(rec.Data)
		if err != nil {
			return nil, err
		}

		accountID, _ := r.GetString("account_id")
		symbol, _ := r.GetString("symbol")
		venue, _ := r.GetString("venue")
		sideStr, _ := r.GetString("side")
		qtyStr, _ := r.GetString("quantity")
		qtyPrec, _ := r.GetInt64("quantity_precision")
		avgPxStr, _ := r.GetString("avg_px")
		avgPxPrec, _ := r.GetInt64("avg_px_precision")
		pnlStr, _ := r.GetString("realized_pnl")

		side, err := decodePositionSide(sideStr)
		if err != nil {
			return nil, err
		}
		qtyDec, err := decimal.NewFromString(qtyStr)
		if err != nil {
			return nil, err
		}
		avgPxDec, err := decimal.NewFromString(avgPxStr)
		if err != nil {
			return nil, err
		}
		pnlDec, err := decimal.NewFromString(pnlStr)
		if err != nil {
			return nil, err
		}

		out = append(out, RecoveredPosition{
			AccountID: model.AccountID(accountID),
			Position: execution.Position{
				Instrument:  model.InstrumentID{Symbol: symbol, Venue: venue},
				Side:        side,
				Quantity:    model.NewQuantity(qtyDec, uint8(qtyPrec)),
				AvgPx:       model.NewPrice(avgPxDec, uint8(avgPxPrec)),
				RealizedPnL: pnlDec,
			},
		})
	}
	return out, nil
}
