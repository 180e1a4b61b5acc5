// Package main provides the dice roller service binary that serves roll-string
// evaluation over HTTP and gRPC.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/diceroller/internal/config"
	"github.com/cory-johannsen/diceroller/internal/dice"
	"github.com/cory-johannsen/diceroller/internal/grpcapi"
	"github.com/cory-johannsen/diceroller/internal/httpapi"
	"github.com/cory-johannsen/diceroller/internal/observability"
	"github.com/cory-johannsen/diceroller/internal/scripting"
	"github.com/cory-johannsen/diceroller/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	if err := run(context.Background(), *configPath); err != nil {
		log.Fatalf("dice server: %v", err)
	}
}

// run wires the server from the config at configPath and blocks until ctx is
// cancelled, a termination signal arrives, or a service fails. Deferred
// cleanup always runs before it returns.
func run(ctx context.Context, configPath string) error {
	start := time.Now()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	evaluator := dice.NewEvaluator(cfg.Dice.NewSource(), cfg.Dice.EvaluatorOptions()...)
	roller := dice.NewLoggedRoller(evaluator, logger)

	logger.Info("starting dice server",
		zap.String("mode", cfg.Server.Mode),
		zap.String("source", cfg.Dice.Source),
		zap.Int("max_dice", cfg.Dice.MaxDice),
		zap.String("default_expression", cfg.Dice.DefaultExpression),
	)

	var macros httpapi.MacroExpander
	if cfg.Scripting.MacroDir != "" {
		mgr := scripting.NewManager(logger, cfg.Scripting.InstructionLimit)
		defer mgr.Close()
		if err := mgr.LoadDir(cfg.Scripting.MacroDir); err != nil {
			logger.Error("loading roll macros", zap.Error(err))
			return fmt.Errorf("loading roll macros: %w", err)
		}
		macros = mgr
	}

	lifecycle := server.NewLifecycle(logger, cfg.HTTP.ShutdownTimeout)

	if cfg.Server.RunsHTTP() {
		handlers := httpapi.NewHandlers(roller.Roll, macros, cfg.Dice.DefaultExpression, logger)
		lifecycle.Add("http", httpapi.NewServer(cfg.HTTP, httpapi.NewRouter(handlers, logger), logger))
	}
	if cfg.Server.RunsGRPC() {
		svc := grpcapi.NewService(roller.Roll, cfg.Dice.DefaultExpression, logger)
		lifecycle.Add("grpc", grpcapi.NewServer(cfg.GRPC, svc, logger))
	}

	logger.Info("dice server initialised",
		zap.String("http_addr", cfg.HTTP.Addr()),
		zap.String("grpc_addr", cfg.GRPC.Addr()),
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("dice server exited", zap.Error(err))
		return err
	}
	return nil
}
