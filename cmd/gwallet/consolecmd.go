package main

import (
	"fmt"
	"io"

	"gopkg.in/urfave/cli.v1"

	"github.com/luminachain/go-lumina/cmd/console"
	"github.com/luminachain/go-lumina/cmd/utils"
	"github.com/luminachain/go-lumina/node"
)

var consoleCommand = cli.Command{
	Action:   consoleAction,
	Name:     "console",
	Usage:    "Start the interactive wallet console (default)",
	Category: "CONSOLE COMMANDS",
	Description: `
The console is an interactive shell for managing the wallet. Type 'help' inside it for
the list of commands.`,
}

func consoleAction(ctx *cli.Context) error {
	if args := ctx.Args(); len(args) > 0 {
		return fmt.Errorf("invalid command: %q", args[0])
	}

	n, err := newNode(ctx)
	if err != nil {
		return err
	}
	if err := n.Start(); err != nil {
		return err
	}
	defer n.Stop()

	c := console.New(func(p console.Prompter, out io.Writer) *console.Handler {
		return console.NewHandler(n, p, out)
	}, n.Config().DataDir)
	defer c.Stop()

	c.Welcome()
	c.Interactive()
	return nil
}

func newNode(ctx *cli.Context) (*node.Node, error) {
	cfg, err := utils.LoadConfig(ctx)
	if err != nil {
		return nil, err
	}
	return node.New(cfg, nil)
}
