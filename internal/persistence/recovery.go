package persistence

import (
	"context"

	"github.com/rishav/algo-engine/internal/model"
	"github.com/rishav/algo-engine/internal/serialization"
)

// PersistOrder writes order's current state keyed by its client order
// id, indexed at its last event timestamp so Recover replays orders in
// the sequence their last state change happened.
func (s *Store) PersistOrder(ctx context.Context, o *model.Order) error {
	ts := o.LastEventNs
	if ts == 0 {
		ts = o.InitTimestampNs
	}
	return s.Put(ctx, KindOrder, string(o.ClientOrderID), ts, serialization.EncodeOrder(o))
}

// ForgetOrder drops a terminal order from the store; terminal orders
// never need to be replayed into a freshly recovered engine.
func (s *Store) ForgetOrder(ctx context.Context, id model.ClientOrderID) error {
	return s.Delete(ctx, KindOrder, string(id))
}

// RecoverOrders replays every persisted order in ascending
// last-event-timestamp order, decoding each with the same Record codec
// the live engine uses to serialize commands and events.
func (s *Store) RecoverOrders(ctx context.Context) ([]*model.Order, error) {
	records, err := s.Recover(ctx, KindOrder)
	if err != nil {
		return nil, err
	}
	orders := make([]*model.Order, 0, len(records))
	for _, rec := range records {
		o, err := serialization.DecodeOrder(rec.Data)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}
