package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/lox/pokerdealer/internal/handlog"
)

// HandCmd prints an archived hand log as JSON
type HandCmd struct {
	Dir   string `default:"hands" help:"Hand log directory"`
	Table uint32 `arg:"" help:"Table id"`
	Hand  uint32 `arg:"" help:"Hand reference"`
}

func (c *HandCmd) Run() error {
	return c.run(os.Stdout)
}

func (c *HandCmd) run(out io.Writer) error {
	rec, err := handlog.NewWriter(c.Dir, nil, nil).Read(c.Table, c.Hand)
	if err != nil {
		return fmt.Errorf("read hand %d at table %d: %w", c.Hand, c.Table, err)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
