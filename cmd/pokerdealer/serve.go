package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/pokerdealer/cmd/pokerdealer/shared"
	"github.com/lox/pokerdealer/internal/dealer"
	"github.com/lox/pokerdealer/internal/handlog"
	"github.com/lox/pokerdealer/internal/server"
	"golang.org/x/sync/errgroup"
)

// ServeCmd runs the HTTP and WebSocket dealer service
type ServeCmd struct {
	Config   string `short:"c" default:"pokerdealer.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" help:"Host to bind to (overrides config)"`
	Port     int    `short:"p" help:"Port to bind to (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	Debug    bool   `help:"Enable debug logging"`
	Insecure bool   `help:"Allow noop permit validation and no operator secret (development only)"`
}

func (c *ServeCmd) Run() error {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}
	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if c.Debug {
		cfg.Server.LogLevel = "debug"
	}
	if c.Insecure {
		cfg.Auth.Insecure = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := shared.SetupLogger(cfg.Level())
	ctx := shared.SetupSignalHandler(logger)
	if cfg.Insecure() {
		logger.Warn("Running without full authentication, private hand data is exposed",
			"auth", cfg.Auth.Mode, "operator_secret", cfg.Auth.OperatorSecret != "")
	}

	st, err := cfg.OpenStore(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	archive := handlog.NewWriter(cfg.HandLog.Dir, nil, logger)
	engine := dealer.New(st, logger, dealer.WithAuditSink(archive))

	if err := ensureInstantiated(ctx, engine, cfg.Dealer, logger); err != nil {
		return err
	}

	s := server.NewServer(cfg.Address(), engine, logger,
		server.WithViewer(cfg.Validator()),
		server.WithOperatorSecret(cfg.Auth.OperatorSecret),
	)

	logger.Info("Starting pokerdealer",
		"address", cfg.Address(),
		"storage", cfg.Storage.Driver,
		"auth", cfg.Auth.Mode,
		"hand_log", cfg.HandLog.Dir,
		"version", version)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(s.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func loadConfig(path string) (*server.Config, error) {
	cfg, err := server.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// ensureInstantiated writes the configured owner on first start. An existing
// store keeps its owner; a mismatch is only logged.
func ensureInstantiated(ctx context.Context, engine *dealer.Engine, settings server.DealerSettings, logger *log.Logger) error {
	ok, err := engine.Instantiated(ctx)
	if err != nil {
		return fmt.Errorf("check instantiation: %w", err)
	}
	if !ok {
		if err := engine.Instantiate(ctx, settings.Owner, settings.ContractAddress); err != nil {
			return fmt.Errorf("instantiate: %w", err)
		}
		logger.Info("Instantiated dealer", "owner", settings.Owner, "contract", settings.ContractAddress)
		return nil
	}

	stored, err := engine.Config(ctx)
	if err != nil {
		return err
	}
	if stored.Owner != settings.Owner || stored.ContractAddress != settings.ContractAddress {
		logger.Warn("Stored dealer configuration differs from file, keeping stored values",
			"owner", stored.Owner, "contract", stored.ContractAddress)
	}
	return nil
}
