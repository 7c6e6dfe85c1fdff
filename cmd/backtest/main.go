// Command backtest replays a historical tick feed through the engine
// and prints the resulting fill and account report. It is an example
// driver over the core packages, not part of their public contract.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rishav/algo-engine/internal/backtest"
	"github.com/rishav/algo-engine/internal/clock"
	"github.com/rishav/algo-engine/internal/config"
	"github.com/rishav/algo-engine/internal/dataengine"
	"github.com/rishav/algo-engine/internal/execution"
	"github.com/rishav/algo-engine/internal/logging"
	"github.com/rishav/algo-engine/internal/matching"
	"github.com/rishav/algo-engine/internal/model"
	"github.com/spf13/cobra"
)

func main() {
	var configPath, feedPath string

	root := &cobra.Command{
		Use:   "backtest",
		Short: "Run the algo engine against a recorded tick feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, feedPath)
		},
	}
	root.Flags().StringVar(&configPath, "config", "backtest.yaml", "path to engine config")
	root.Flags().StringVar(&feedPath, "feed", "", "path to a JSON feed file (array of FeedItem)")
	root.MarkFlagRequired("feed")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, feedPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := logging.Setup(cfg.Logging.Level, cfg.Logging.Pretty)
	log.Info().Str("venue", cfg.Venue.Name).Msg("starting backtest")

	registry := model.NewInstrumentRegistry()
	for _, symbol := range cfg.Venue.Instruments {
		inst := model.InstrumentID{Symbol: symbol, Venue: cfg.Venue.Name}
		tick, err := model.ParsePrice("0.00001", 5)
		if err != nil {
			return err
		}
		if err := registry.Register(model.Instrument{
			ID: inst, QuoteCurrency: "USD", PricePrecision: 5, SizePrecision: 2, TickSize: tick,
		}); err != nil {
			return fmt.Errorf("register instrument %s: %w", symbol, err)
		}
	}

	clk := clock.NewTestClock()
	fillModel := matching.NewFillModel(matching.FillModelConfig{
		ProbFillAtLimit: cfg.FillModel.ProbFillAtLimit,
		ProbFillAtStop:  cfg.FillModel.ProbFillAtStop,
		ProbSlippage:    cfg.FillModel.ProbSlippage,
		Seed:            cfg.FillModel.Seed,
	})
	matchingEngine := matching.NewEngine(clk, registry, fillModel)
	for _, symbol := range cfg.Venue.Instruments {
		if err := matchingEngine.AddInstrument(model.InstrumentID{Symbol: symbol, Venue: cfg.Venue.Name}); err != nil {
			return err
		}
	}

	accounts := execution.NewAccountStore()
	risk := execution.NewRiskChecker(execution.DefaultRiskConfig())
	execEngine := execution.NewExecutionEngine(matchingEngine, risk, accounts)

	dataEng := dataengine.NewDataEngine()
	if err := dataEng.Start(); err != nil {
		return fmt.Errorf("start data engine: %w", err)
	}
	defer dataEng.Stop()

	feed, err := loadFeed(feedPath)
	if err != nil {
		return fmt.Errorf("load feed: %w", err)
	}

	engine := backtest.NewEngine(clk, dataEng, execEngine, matchingEngine, accounts)
	report := engine.Run(feed)

	log.Info().Int("fills", report.FillCount).Int("events", len(report.Events)).Msg("backtest complete")
	return json.NewEncoder(os.Stdout).Encode(reportSummary(report))
}

// feedFile mirrors backtest.FeedItem for JSON loading; the engine's
// own type carries model.Price/model.Quantity values that don't round
// trip through encoding/json without a precision hint, so the CLI
// parses the plain-string wire format itself.
type feedFile struct {
	TimestampNs int64 `json:"timestamp_ns"`
	Quote       *struct {
		Instrument string `json:"instrument"`
		Venue      string `json:"venue"`
		Bid        string `json:"bid"`
		Ask        string `json:"ask"`
		Precision  uint8  `json:"precision"`
	} `json:"quote"`
	Trade *struct {
		Instrument string `json:"instrument"`
		Venue      string `json:"venue"`
		Price      string `json:"price"`
		Size       string `json:"size"`
		Precision  uint8  `json:"precision"`
		Aggressor  string `json:"aggressor_side"`
	} `json:"trade"`
}

func loadFeed(path string) ([]backtest.FeedItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw []feedFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	items := make([]backtest.FeedItem, 0, len(raw))
	for _, r := range raw {
		item := backtest.FeedItem{TimestampNs: r.TimestampNs}
		switch {
		case r.Quote != nil:
			bid, err := model.ParsePrice(r.Quote.Bid, r.Quote.Precision)
			if err != nil {
				return nil, err
			}
			ask, err := model.ParsePrice(r.Quote.Ask, r.Quote.Precision)
			if err != nil {
				return nil, err
			}
			item.Quote = &model.QuoteTick{
				Instrument:  model.InstrumentID{Symbol: r.Quote.Instrument, Venue: r.Quote.Venue},
				BidPrice:    bid,
				AskPrice:    ask,
				TimestampNs: r.TimestampNs,
			}
		case r.Trade != nil:
			px, err := model.ParsePrice(r.Trade.Price, r.Trade.Precision)
			if err != nil {
				return nil, err
			}
			qty, err := model.ParseQuantity(r.Trade.Size, 2)
			if err != nil {
				return nil, err
			}
			side := model.SideBuy
			if r.Trade.Aggressor == "SELL" {
				side = model.SideSell
			}
			item.Trade = &model.TradeTick{
				Instrument:    model.InstrumentID{Symbol: r.Trade.Instrument, Venue: r.Trade.Venue},
				Price:         px,
				Size:          qty,
				AggressorSide: side,
				TimestampNs:   r.TimestampNs,
			}
		}
		items = append(items, item)
	}
	return items, nil
}

type accountSummary struct {
	AccountID string            `json:"account_id"`
	Positions map[string]string `json:"positions"`
}

func reportSummary(r backtest.Report) map[string]any {
	accounts := make([]accountSummary, 0, len(r.Accounts))
	for id, acc := range r.Accounts {
		positions := make(map[string]string)
		for inst, pos := range acc.Positions() {
			positions[inst.Symbol+"."+inst.Venue] = pos.Side.String() + " " + pos.Quantity.String() + "@" + pos.AvgPx.String()
		}
		accounts = append(accounts, accountSummary{AccountID: string(id), Positions: positions})
	}
	return map[string]any{
		"fill_count":  r.FillCount,
		"event_count": len(r.Events),
		"accounts":    accounts,
	}
}
