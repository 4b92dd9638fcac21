package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"patronchain/config"
	"patronchain/core/events"
	"patronchain/core/state"
	"patronchain/gateway"
	"patronchain/native/patronage"
	"patronchain/observability/logging"
	"patronchain/storage"
)

const envVar = "PATRON_ENV"

// slogEmitter forwards ledger events to the structured logger.
type slogEmitter struct {
	log *slog.Logger
}

func (e slogEmitter) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	e.log.Info("ledger event", "type", evt.EventType())
}

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv(envVar))
	logger := logging.Setup("patrond", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "ledger"))
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	if err := bootstrap(manager, cfg, logger); err != nil {
		logger.Error("failed to bootstrap ledger state", slog.Any("error", err))
		os.Exit(1)
	}

	engine := patronage.NewEngine()
	engine.SetState(manager)
	engine.SetEmitter(slogEmitter{log: logger})

	server := gateway.New(engine, manager, logger)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("gateway listening", "address", cfg.ListenAddress)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("gateway server stopped", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
}

// bootstrap seeds params and genesis balances when the database is empty.
// On subsequent boots the persisted params win over the config file.
func bootstrap(manager *state.Manager, cfg *config.Config, logger *slog.Logger) error {
	defaults, err := cfg.GenesisParams()
	if err != nil {
		return err
	}
	params, created, err := manager.EnsureParams(defaults)
	if err != nil {
		return err
	}
	if !created {
		logger.Info("loaded ledger params",
			"feeRateBps", params.FeeRateBps,
			"clock", params.Clock)
		return nil
	}
	balances, err := cfg.GenesisBalances()
	if err != nil {
		return err
	}
	for addr, amount := range balances {
		if err := manager.Credit(addr, amount); err != nil {
			return err
		}
	}
	logger.Info("initialised genesis state",
		"feeRateBps", params.FeeRateBps,
		"allocations", len(balances))
	return nil
}
