package dataengine

import (
	"time"

	"github.com/rishav/algo-engine/internal/model"
)

// barAggregator builds OHLCV bars from trade ticks, bucketed by a
// BarSpec's step+unit window (time-based, LAST-price aggregation) the
// way nautilus_trader's trade-driven bar aggregators do. Bid/ask-driven
// aggregation methods are accepted in BarSpec but not distinguished here:
// every bar is built from trade prices, since DeliverTradeTick is the
// engine's only aggregation input.
type barAggregator struct {
	open     map[model.BarType]*model.Bar
	bucketNs map[model.BarType]int64
}

func newBarAggregator() *barAggregator {
	return &barAggregator{
		open:     make(map[model.BarType]*model.Bar),
		bucketNs: make(map[model.BarType]int64),
	}
}

// windowNs returns spec's aggregation window in nanoseconds, or 0 for an
// unrecognized unit (aggregation is then skipped for that BarType).
func windowNs(spec model.BarSpec) int64 {
	var unit int64
	switch spec.Unit {
	case "SECOND":
		unit = int64(time.Second)
	case "MINUTE":
		unit = int64(time.Minute)
	case "HOUR":
		unit = int64(time.Hour)
	case "DAY":
		unit = int64(24 * time.Hour)
	default:
		return 0
	}
	return unit * int64(spec.Step)
}

func bucketStart(window, tsNs int64) int64 {
	return (tsNs / window) * window
}

// onTrade folds t into every subscribed BarType's in-progress bar for
// t.Instrument and returns any bars that closed because t's timestamp
// crossed into a new bucket.
func (a *barAggregator) onTrade(t model.TradeTick, subscribed []model.BarType) []model.Bar {
	var closed []model.Bar
	for _, bt := range subscribed {
		if bt.Instrument != t.Instrument {
			continue
		}
		window := windowNs(bt.Spec)
		if window <= 0 {
			continue
		}
		start := bucketStart(window, t.TimestampNs)

		bar, open := a.open[bt]
		if open && a.bucketNs[bt] != start {
			closed = append(closed, *bar)
			open = false
		}
		if !open {
			bar = &model.Bar{Type: bt, Open: t.Price, High: t.Price, Low: t.Price, Close: t.Price, Volume: t.Size}
			a.bucketNs[bt] = start
		} else {
			if t.Price.GreaterThan(bar.High) {
				bar.High = t.Price
			}
			if t.Price.LessThan(bar.Low) {
				bar.Low = t.Price
			}
			bar.Close = t.Price
			bar.Volume = bar.Volume.Add(t.Size)
		}
		bar.TimestampNs = start + window
		a.open[bt] = bar
	}
	return closed
}

// subscribedBarTypes lists every BarType the engine currently has at
// least one subscriber for.
func (d *DataEngine) subscribedBarTypes() []model.BarType {
	types := make([]model.BarType, 0, len(d.barSubs))
	for bt, subs := range d.barSubs {
		if len(subs) > 0 {
			types = append(types, bt)
		}
	}
	return types
}
