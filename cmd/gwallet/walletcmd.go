package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/urfave/cli.v1"

	"github.com/luminachain/go-lumina/cmd/utils"
	"github.com/luminachain/go-lumina/common/types"
	"github.com/luminachain/go-lumina/node"
)

var (
	balanceCommand = cli.Command{
		Name:     "balance",
		Usage:    "Print balances after synchronizing",
		Category: "WALLET COMMANDS",
		Action:   balanceAction,
	}
	transferCommand = cli.Command{
		Name:      "transfer",
		Usage:     "Send funds and wait for the ledger to confirm",
		ArgsUsage: "<address> <amount>",
		Flags:     []cli.Flag{utils.TokenFlag},
		Category:  "WALLET COMMANDS",
		Action:    transferAction,
	}
	historyCommand = cli.Command{
		Name:     "history",
		Usage:    "List transactions, newest first",
		Flags:    []cli.Flag{utils.CountFlag},
		Category: "WALLET COMMANDS",
		Action:   historyAction,
	}
	syncCommand = cli.Command{
		Name:     "sync",
		Usage:    "Synchronize with the ledger",
		Category: "NETWORK COMMANDS",
		Action:   syncAction,
	}
	executeCommand = cli.Command{
		Name:      "execute",
		Usage:     "Execute a smart contract function",
		ArgsUsage: "<contract_address> <function> [args...]",
		Category:  "CONTRACT COMMANDS",
		Action:    executeAction,
	}
)

func printProgress(progress float64, message string) {
	fmt.Printf("[%5.1f%%] %s\n", progress*100, message)
}

// syncNode refreshes and blocks until the run ends.
func syncNode(n *node.Node) error {
	stopped, err := utils.StartNode(n)
	if err != nil {
		return err
	}
	if err := n.Refresh(printProgress); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- n.Syncer().Wait() }()
	select {
	case err := <-done:
		return err
	case <-stopped:
		return errors.New("interrupted")
	}
}

func syncAction(ctx *cli.Context) error {
	n, err := newNode(ctx)
	if err != nil {
		return err
	}
	defer n.Stop()
	if err := syncNode(n); err != nil {
		return err
	}
	c := n.Syncer().Cursor()
	fmt.Printf("Synced to height %d (%s)\n", c.CurrentHeight, c.Status)
	return nil
}

func balanceAction(ctx *cli.Context) error {
	n, err := newNode(ctx)
	if err != nil {
		return err
	}
	defer n.Stop()
	if err := syncNode(n); err != nil {
		log.Warn("sync failed, showing local balances", "err", err)
	}
	balances := n.Wallet().Balances()
	if len(balances) == 0 {
		fmt.Println("0 " + types.LumaTokenSymbol)
	}
	for _, token := range types.SortedSymbols(balances) {
		fmt.Println(balances[token].Format(types.GetTokenInfo(token).Decimals), token)
	}
	return nil
}

func transferAction(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return errors.New("usage: transfer <address> <amount>")
	}
	token := strings.ToUpper(ctx.String(utils.TokenFlag.Name))
	amount, err := types.ParseAmount(ctx.Args().Get(1), types.GetTokenInfo(token).Decimals)
	if err != nil {
		return err
	}

	n, err := newNode(ctx)
	if err != nil {
		return err
	}
	defer n.Stop()
	if err := syncNode(n); err != nil {
		return err
	}

	pw, err := terminalPrompter{}.PasswordPrompt("Password: ")
	if err != nil {
		return err
	}
	if err := n.Wallet().Unlock(pw, 0); err != nil {
		return err
	}
	id, err := n.Wallet().Transfer(ctx.Args().Get(0), amount, token)
	if err != nil {
		return err
	}
	fmt.Println("Transaction:", id)

	if err := n.Refresh(printProgress); err != nil {
		return err
	}
	if err := n.Syncer().Wait(); err != nil {
		return err
	}
	tx, err := n.Wallet().Transaction(id)
	if err != nil {
		return err
	}
	fmt.Println("Status:", tx.Status)
	return nil
}

func historyAction(ctx *cli.Context) error {
	return withNode(ctx, func(n *node.Node) error {
		txs := n.Wallet().History()
		count := ctx.Int(utils.CountFlag.Name)
		for i := len(txs) - 1; i >= 0 && len(txs)-i <= count; i-- {
			tx := txs[i]
			fmt.Printf("%s %-8s %-9s %s %s -> %s\n", tx.ID, tx.Kind, tx.Status,
				tx.Amount.Format(types.GetTokenInfo(tx.Token).Decimals)+" "+tx.Token, tx.From, tx.To)
		}
		return nil
	})
}

func executeAction(ctx *cli.Context) error {
	if ctx.NArg() < 2 {
		return errors.New("usage: execute <contract_address> <function> [args...]")
	}
	args := ctx.Args()
	return withNode(ctx, func(n *node.Node) error {
		res, err := n.Gateway().Execute(context.Background(), args[0], args[1], args[2:])
		if err != nil {
			return err
		}
		fmt.Println("Result:", res.Output)
		fmt.Println("Transaction:", res.TxID)
		fmt.Println("Gas estimate:", res.GasEstimate.Format(types.GetTokenInfo(types.LumaTokenSymbol).Decimals), types.LumaTokenSymbol)
		return nil
	})
}
