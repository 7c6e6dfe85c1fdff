// Command live wires the engine to a real venue over wsadapter,
// processes events until interrupted, and exits cleanly. It is an
// example driver over the core packages, not part of their public
// contract.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rishav/algo-engine/internal/adapters/wsadapter"
	"github.com/rishav/algo-engine/internal/clock"
	"github.com/rishav/algo-engine/internal/config"
	"github.com/rishav/algo-engine/internal/dataengine"
	"github.com/rishav/algo-engine/internal/execution"
	"github.com/rishav/algo-engine/internal/logging"
	"github.com/rishav/algo-engine/internal/matching"
	"github.com/rishav/algo-engine/internal/message"
	"github.com/rishav/algo-engine/internal/metrics"
	"github.com/rishav/algo-engine/internal/model"
	"github.com/rishav/algo-engine/internal/persistence"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "live",
		Short: "Run the algo engine against a live venue connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	root.Flags().StringVar(&configPath, "config", "live.yaml", "path to engine config")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := logging.Setup(cfg.Logging.Level, cfg.Logging.Pretty)

	registry := model.NewInstrumentRegistry()
	for _, symbol := range cfg.Venue.Instruments {
		tick, err := model.ParsePrice("0.00001", 5)
		if err != nil {
			return err
		}
		if err := registry.Register(model.Instrument{
			ID: model.InstrumentID{Symbol: symbol, Venue: cfg.Venue.Name}, QuoteCurrency: "USD",
			PricePrecision: 5, SizePrecision: 2, TickSize: tick,
		}); err != nil {
			return err
		}
	}

	clk := clock.NewLiveClock()
	fillModel := matching.NewFillModel(matching.FillModelConfig{
		ProbFillAtLimit: cfg.FillModel.ProbFillAtLimit, ProbFillAtStop: cfg.FillModel.ProbFillAtStop,
		ProbSlippage: cfg.FillModel.ProbSlippage, Seed: cfg.FillModel.Seed,
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

	if cfg.Metrics.Enabled {
		registryProm := prometheus.NewRegistry()
		collector := metrics.New(registryProm)
		matchingEngine.SetMetrics(collector)
		execEngine.SetMetrics(collector)
		dataEng.SetMetrics(collector)
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler(registryProm))
			log.Info().Str("addr", cfg.Metrics.Addr).Msg("serving metrics")
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	if err := dataEng.Start(); err != nil {
		return fmt.Errorf("start data engine: %w", err)
	}
	defer dataEng.Stop()

	var store *persistence.Store
	if cfg.Store.Enabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Store.Addr, Password: cfg.Store.Password, DB: cfg.Store.DB})
		store = persistence.New(rdb)
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Store.Timeout)
		orders, err := store.RecoverOrders(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("recover orders: %w", err)
		}
		log.Info().Int("count", len(orders)).Msg("recovered orders from persistence")
	}

	adapter := wsadapter.New(wsadapter.Config{
		URL: cfg.Adapter.URL, ReconnectMinDelay: cfg.Adapter.ReconnectMinDelay, ReconnectMaxDelay: cfg.Adapter.ReconnectMaxDelay,
	}, log)

	adapter.OnData(func(v any) {
		dataEng.Send(func() {
			// Venue-specific decode of v into QuoteTick/TradeTick/Bar is
			// left to a real wire schema; this example driver only
			// proves the callback reaches the run loop.
		})
	})
	adapter.OnEvent(func(evt message.Event) {
		if store != nil && evt.Type == message.EventOrderFilled {
			if order, ok := execEngine.OrderByClientID(evt.OrderFilled.ClientOrderID); ok {
				ctx, cancel := context.WithTimeout(context.Background(), cfg.Store.Timeout)
				_ = store.PersistOrder(ctx, order)
				cancel()
			}
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = adapter.Connect(ctx)
	cancel()
	if err != nil {
		return fmt.Errorf("connect adapter: %w", err)
	}
	defer adapter.Disconnect()

	for _, symbol := range cfg.Venue.Instruments {
		inst := model.InstrumentID{Symbol: symbol, Venue: cfg.Venue.Name}
		if err := adapter.SubscribeQuoteTicks(inst); err != nil {
			return err
		}
		if err := adapter.SubscribeTradeTicks(inst); err != nil {
			return err
		}
	}

	log.Info().Msg("live engine running, press ctrl-c to stop")
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("shutdown signal received, draining run loops")

	<-dataEng.Drain()
	return nil
}
