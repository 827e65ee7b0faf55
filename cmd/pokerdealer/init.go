package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/lox/pokerdealer/cmd/pokerdealer/shared"
	"github.com/lox/pokerdealer/internal/dealer"
	"github.com/lox/pokerdealer/internal/server"
)

// InitCmd instantiates a store without starting the service
type InitCmd struct {
	Config   string `short:"c" default:"pokerdealer.hcl" help:"Path to HCL configuration file"`
	Owner    string `help:"Operator identity (overrides config)"`
	Contract string `help:"Permit audience (overrides config)"`
}

func (c *InitCmd) Run() error {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}
	if c.Owner != "" {
		cfg.Dealer.Owner = c.Owner
	}
	if c.Contract != "" {
		cfg.Dealer.ContractAddress = c.Contract
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return c.run(shared.SetupSignalHandler(nil), cfg, os.Stdout)
}

func (c *InitCmd) run(ctx context.Context, cfg *server.Config, out io.Writer) error {
	st, err := cfg.OpenStore(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	logger := shared.SetupLogger(cfg.Level())
	engine := dealer.New(st, logger)

	err = engine.Instantiate(ctx, cfg.Dealer.Owner, cfg.Dealer.ContractAddress)
	if errors.Is(err, dealer.ErrAlreadyInstantiated) {
		stored, cerr := engine.Config(ctx)
		if cerr != nil {
			return cerr
		}
		_, _ = fmt.Fprintf(out, "already instantiated: owner=%s contract=%s\n", stored.Owner, stored.ContractAddress)
		return nil
	}
	if err != nil {
		return err
	}

	counter, err := engine.Counter(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "instantiated: owner=%s contract=%s counter=%s\n",
		cfg.Dealer.Owner, cfg.Dealer.ContractAddress, counter)
	return nil
}
