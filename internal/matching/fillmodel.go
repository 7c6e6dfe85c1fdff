package matching

import "math/rand"

// FillModelConfig configures the matching engine's simulated liquidity
// behavior for backtesting: real venues don't guarantee a resting limit
// fills the instant it is touched, or that a stop triggers the instant
// price reaches it, so the engine draws from a seeded PRNG to decide.
//
// No example in the retrieved pack ships a deterministic-fill/PRNG
// abstraction (that concern is domain-specific to backtest simulation),
// so this is built directly on math/rand: the only requirement is a
// seedable, reproducible source, which math/rand.New(rand.NewSource(seed))
// satisfies exactly and no pack dependency offers anything narrower or
// better suited.
type FillModelConfig struct {
	ProbFillAtLimit float64 // P(a resting limit fills when touched)
	ProbFillAtStop  float64 // P(a stop triggers when price touches)
	ProbSlippage    float64 // P(market/stop order slips one tick adverse)
	Seed            int64
}

// FillModel draws deterministic yes/no outcomes from a seeded PRNG.
// Given an identical seed and identical input event order, the
// sequence of draws - and therefore the emitted event sequence - is
// bit-identical across runs.
type FillModel struct {
	cfg FillModelConfig
	rng *rand.Rand
}

func NewFillModel(cfg FillModelConfig) *FillModel {
	return &FillModel{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

func (m *FillModel) FillsAtLimit() bool { return m.draw(m.cfg.ProbFillAtLimit) }
func (m *FillModel) TriggersAtStop() bool { return m.draw(m.cfg.ProbFillAtStop) }
func (m *FillModel) Slips() bool          { return m.draw(m.cfg.ProbSlippage) }

func (m *FillModel) draw(prob float64) bool {
	if prob >= 1 {
		return true
	}
	if prob <= 0 {
		return false
	}
	return m.rng.Float64() < prob
}
