package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"peerlend/config"
	"peerlend/core"
	"peerlend/core/state"
	"peerlend/crypto"
	"peerlend/native/assetreg"
	"peerlend/native/bank"
	"peerlend/native/common"
	"peerlend/native/lending"
	"peerlend/native/userreg"
	"peerlend/observability/logging"
	"peerlend/rpc"
	"peerlend/storage"
)

func main() {
	configPath := flag.String("config", "./config.toml", "path to the TOML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Setup("plnd", "").Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup("plnd", cfg.Environment)

	var db storage.Database
	if cfg.DataDir == ":memory:" {
		db = storage.NewMemDB()
	} else {
		leveldb, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
		if err != nil {
			logger.Error("open state database", "error", err)
			os.Exit(1)
		}
		db = leveldb
	}
	defer db.Close()

	manager := state.NewManager(db)
	ledger := bank.NewLedger(manager)
	pauses := common.StaticPauses(cfg.PauseMap())

	lendEngine := lending.NewEngine(cfg.LendingParams())
	lendEngine.SetPauses(pauses)
	if cfg.Lending.CollateralPriceBps > 0 {
		lendEngine.SetOracle(lending.StaticOracle{PriceBps: cfg.Lending.CollateralPriceBps})
	}

	userEngine := userreg.NewEngine()
	userEngine.SetPauses(pauses)
	assetEngine := assetreg.NewEngine()
	assetEngine.SetPauses(pauses)

	programID := crypto.ProgramAddress(cfg.NetworkName)
	processor := core.NewProcessor(programID, lendEngine, userEngine, assetEngine)
	node := core.NewNode(programID, manager, ledger, processor)
	node.SetLogger(logger)

	logger.Info("node ready",
		"network", cfg.NetworkName,
		"program", programID.String(),
		"data_dir", cfg.DataDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := rpc.NewServer(node, logger)
	if err := server.ListenAndServe(ctx, cfg.RPCAddress); err != nil {
		logger.Error("rpc server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
