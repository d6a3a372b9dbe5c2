package main

import (
	"fmt"
	"strings"

	"github.com/peterh/liner"
	"github.com/pkg/errors"
	"gopkg.in/urfave/cli.v1"

	"github.com/luminachain/go-lumina/node"
)

var accountCommand = cli.Command{
	Name:     "account",
	Usage:    "Manage the wallet identity",
	Category: "ACCOUNT COMMANDS",
	Subcommands: []cli.Command{
		{
			Name:   "new",
			Usage:  "Create a new wallet and print its seed phrase",
			Action: accountNew,
		},
		{
			Name:      "recover",
			Usage:     "Recover a wallet from its seed phrase",
			ArgsUsage: "<12 seed words>",
			Action:    accountRecover,
		},
		{
			Name:   "info",
			Usage:  "Print the wallet address and state",
			Action: accountInfo,
		},
		{
			Name:   "seed",
			Usage:  "Print the seed phrase after re-entering the password",
			Action: accountSeed,
		},
	},
}

// terminalPrompter reads passwords from the terminal for one-shot commands.
type terminalPrompter struct{}

func (terminalPrompter) PasswordPrompt(prompt string) (string, error) {
	line := liner.NewLiner()
	defer line.Close()
	return line.PasswordPrompt(prompt)
}

func newPassword() (string, error) {
	p := terminalPrompter{}
	pw, err := p.PasswordPrompt("New password: ")
	if err != nil {
		return "", err
	}
	again, err := p.PasswordPrompt("Repeat password: ")
	if err != nil {
		return "", err
	}
	if pw != again {
		return "", errors.New("passwords do not match")
	}
	return pw, nil
}

// withNode starts a node for the duration of fn.
func withNode(ctx *cli.Context, fn func(n *node.Node) error) error {
	n, err := newNode(ctx)
	if err != nil {
		return err
	}
	if err := n.Start(); err != nil {
		return err
	}
	defer n.Stop()
	return fn(n)
}

func accountNew(ctx *cli.Context) error {
	return withNode(ctx, func(n *node.Node) error {
		pw, err := newPassword()
		if err != nil {
			return err
		}
		mnemonic, addr, err := n.Wallet().Create(pw)
		if err != nil {
			return err
		}
		if _, err := n.FundFromFaucet(); err != nil {
			log.Warn("devnet faucet failed", "err", err)
		}
		fmt.Println("Address:", addr)
		fmt.Println("Seed phrase:", mnemonic)
		fmt.Println("WARNING: Write the seed phrase down and keep it secret.")
		return nil
	})
}

func accountRecover(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return errors.New("usage: account recover <12 seed words>")
	}
	phrase := strings.Join(ctx.Args(), " ")
	return withNode(ctx, func(n *node.Node) error {
		pw, err := newPassword()
		if err != nil {
			return err
		}
		addr, err := n.Wallet().Recover(phrase, pw)
		if err != nil {
			return err
		}
		fmt.Println("Recovered address:", addr)
		return nil
	})
}

func accountInfo(ctx *cli.Context) error {
	return withNode(ctx, func(n *node.Node) error {
		st := n.Status()
		if !st.Initialized {
			fmt.Println("No wallet in", n.Config().DataDir)
			return nil
		}
		fmt.Println("Address:", st.Address)
		fmt.Println("Created:", n.Wallet().CreatedAt())
		fmt.Println("Applied height:", st.Cursor.CurrentHeight)
		fmt.Println("Transactions:", len(n.Wallet().History()))
		fmt.Println("Pending transfers:", st.PendingCount)
		return nil
	})
}

func accountSeed(ctx *cli.Context) error {
	return withNode(ctx, func(n *node.Node) error {
		pw, err := terminalPrompter{}.PasswordPrompt("Password: ")
		if err != nil {
			return err
		}
		phrase, err := n.Wallet().SeedPhrase(pw)
		if err != nil {
			return err
		}
		fmt.Println("Seed phrase:", phrase)
		return nil
	})
}
