package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/common"

	"graphhub/config"
	"graphhub/core"
	"graphhub/core/genesis"
	"graphhub/core/state"
	"graphhub/observability/logging"
	telemetry "graphhub/observability/otel"
	"graphhub/rpc"
	"graphhub/storage"
)

const genesisPathEnv = "GRAPHHUB_GENESIS"

// version is overridden at build time with -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		slog.Error("graphd exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("graphd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "./config.toml", "Path to the configuration file")
	genesisFlag := fs.String("genesis", "", "Path to the YAML genesis file (overrides GRAPHHUB_GENESIS and config GenesisFile)")
	allowMigrate := fs.Bool("allow-migrate", false, "Start even if the stored state schema version differs")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	opts := []logging.Option{logging.WithLevel(logging.ParseLevel(cfg.LogLevel))}
	if cfg.LogFile != "" {
		opts = append(opts, logging.WithFile(cfg.LogFile))
	}
	logger := logging.Setup("graphd", cfg.Env, opts...)

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "graphd",
		ServiceVersion: version,
		Environment:    cfg.Env,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		Headers:        telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Traces:         cfg.Telemetry.Traces,
		Metrics:        cfg.Telemetry.Metrics,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	mgr, err := state.Open(db)
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	if err := mgr.EnsureVersion(*allowMigrate); err != nil {
		return err
	}
	hub := core.NewHub(mgr, core.HubConfig{
		Domain:          cfg.Domain(),
		KnownDeployment: cfg.Known(),
		Logger:          logger,
	})

	genesisPath := resolveGenesisPath(*genesisFlag, cfg.GenesisFile, os.LookupEnv)
	if genesisPath != "" {
		spec, err := genesis.LoadSpec(genesisPath)
		if err != nil {
			return fmt.Errorf("load genesis: %w", err)
		}
		if spec.ChainID != cfg.ChainID {
			return fmt.Errorf("genesis chainId %d does not match config ChainID %d", spec.ChainID, cfg.ChainID)
		}
		receipt, err := hub.InitGenesis(spec)
		if err != nil {
			return fmt.Errorf("apply genesis: %w", err)
		}
		if receipt != nil {
			logger.Info("genesis applied", "root", receipt.Root.Hex(), "height", receipt.Height)
		}
	}
	gov, err := hub.Governance()
	if err != nil {
		return fmt.Errorf("read governance: %w", err)
	}
	if gov == (common.Address{}) {
		return errors.New("hub has no governance; provide a genesis file")
	}

	root, height := hub.Head()
	logger.Info("hub ready",
		"chainId", cfg.ChainID,
		"hub", cfg.HubAddress,
		"root", root.Hex(),
		"height", height)

	server := rpc.NewServer(hub, rpc.ServerConfig{
		RateLimit: rpc.RateLimit{
			RequestsPerMinute: float64(cfg.RateLimit.RequestsPerMinute),
			Burst:             int(cfg.RateLimit.Burst),
		},
		Logger: logger,
	})
	if err := server.Serve(ctx, cfg.RPCAddress); err != nil {
		return fmt.Errorf("rpc server: %w", err)
	}
	logger.Info("graphd stopped")
	return nil
}

func resolveGenesisPath(flagValue, configValue string, lookup func(string) (string, bool)) string {
	if trimmed := strings.TrimSpace(flagValue); trimmed != "" {
		return trimmed
	}
	if value, ok := lookup(genesisPathEnv); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(configValue)
}
