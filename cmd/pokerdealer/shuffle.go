package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lox/pokerdealer/internal/deck"
)

// ShuffleCmd prints the deck produced by a shuffle seed, top card last
type ShuffleCmd struct {
	Seed uint64 `arg:"" help:"64-bit shuffle seed"`
}

func (c *ShuffleCmd) Run() error {
	return c.run(os.Stdout)
}

func (c *ShuffleCmd) run(out io.Writer) error {
	d := deck.New()
	d.Shuffle(c.Seed)
	_, err := fmt.Fprintln(out, strings.Join(deck.Strings(d.Cards()), " "))
	return err
}
