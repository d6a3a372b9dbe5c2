// Package console implements the interactive wallet shell.
package console

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"sort"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"

	"github.com/luminachain/go-lumina/cmd/params"
	walleterrors "github.com/luminachain/go-lumina/common/errors"
	"github.com/luminachain/go-lumina/common/types"
	"github.com/luminachain/go-lumina/ledger"
	"github.com/luminachain/go-lumina/net"
	"github.com/luminachain/go-lumina/node"
)

// Result is what a command reports back to the shell.
type Result struct {
	Success bool
	Message string
}

func ok(format string, a ...interface{}) Result {
	return Result{Success: true, Message: fmt.Sprintf(format, a...)}
}

func fail(format string, a ...interface{}) Result {
	return Result{Success: false, Message: fmt.Sprintf(format, a...)}
}

// Prompter reads secrets without echoing them.
type Prompter interface {
	PasswordPrompt(prompt string) (string, error)
}

type CommandFunc func(args []string) Result

type command struct {
	name        string
	category    string
	description string
	fn          CommandFunc
}

var categoryOrder = []string{"Basic", "Wallet", "Contract", "Network", "Misc"}

// Handler dispatches shell commands to the node.
type Handler struct {
	node     *node.Node
	prompt   Prompter
	commands map[string]*command
	log      log15.Logger

	outMu    sync.Mutex // progress is written from the sync and event goroutines
	progress io.Writer
}

// NewHandler registers the default commands. Sync progress lines and wallet notices go
// to progress, which may be nil.
func NewHandler(n *node.Node, prompt Prompter, progress io.Writer) *Handler {
	if progress == nil {
		progress = ioutil.Discard
	}
	h := &Handler{
		node:     n,
		prompt:   prompt,
		progress: progress,
		commands: make(map[string]*command),
		log:      log15.New("module", "cmd/console"),
	}
	h.registerDefaults()
	n.SetNotifier(func(notice node.Notice) {
		h.notice("%s", notice.Message)
	})
	return h
}

// notice writes an asynchronous line to the progress writer.
func (h *Handler) notice(format string, args ...interface{}) {
	h.outMu.Lock()
	defer h.outMu.Unlock()
	fmt.Fprintf(h.progress, format+"\n", args...)
}

func (h *Handler) Register(name, category, description string, fn CommandFunc) {
	h.commands[name] = &command{name: name, category: category, description: description, fn: fn}
	h.log.Debug("registered command", "name", name)
}

func (h *Handler) registerDefaults() {
	h.Register("welcome", "Basic", "Display welcome message", h.welcome)
	h.Register("help", "Basic", "Display help information: help [command]", h.help)
	h.Register("version", "Basic", "Display wallet version information", h.version)

	h.Register("create", "Wallet", "Create a new wallet and show its seed phrase", h.create)
	h.Register("recover", "Wallet", "Recover a wallet: recover <12 seed words>", h.recover)
	h.Register("wallet_info", "Wallet", "Display wallet information", h.walletInfo)
	h.Register("balance", "Wallet", "Display wallet balance: balance [token]", h.balance)
	h.Register("transfer", "Wallet", "Transfer funds to another address: transfer <address> <amount> [token]", h.transfer)
	h.Register("history", "Wallet", "List transactions, newest first: history [count]", h.history)
	h.Register("seed", "Wallet", "Display wallet seed phrase (WARNING: sensitive information)", h.seed)
	h.Register("unlock", "Wallet", "Unlock signing: unlock [minutes]", h.unlock)
	h.Register("lock", "Wallet", "Forget the signing key", h.lock)

	h.Register("execute", "Contract", "Execute a smart contract: execute <contract_address> <function> [args...]", h.execute)

	h.Register("refresh", "Network", "Refresh wallet by synchronizing with the network", h.refresh)
	h.Register("stop", "Network", "Stop a running synchronization", h.stop)
	h.Register("status", "Network", "Display network status and synchronization information", h.status)

	h.Register("donate", "Misc", "Donate to the LuminaChain development team: donate [amount] [confirm]", h.donate)
}

// ParseLine splits input into a command and its arguments. It reports false for blank input.
func ParseLine(input string) (string, []string, bool) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return "", nil, false
	}
	return fields[0], fields[1:], true
}

// Execute runs a command. Failures, including panics in a command, are reported in the
// result.
func (h *Handler) Execute(name string, args []string) (res Result) {
	cmd, found := h.commands[name]
	if !found {
		return fail("Unknown command: %s. Type 'help' for a list of commands.", name)
	}
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("command panicked", "command", name, "panic", r)
			res = fail("Command execution failed: %v", r)
		}
	}()
	h.log.Debug("executing command", "command", name)
	res = cmd.fn(args)
	if !res.Success {
		h.log.Warn("command failed", "command", name)
	}
	return res
}

func (h *Handler) IsRegistered(name string) bool {
	_, found := h.commands[name]
	return found
}

// Commands lists the registered command names in sorted order.
func (h *Handler) Commands() []string {
	names := make([]string, 0, len(h.commands))
	for name := range h.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// describe maps an error to a message for the user.
func describe(err error) string {
	switch walleterrors.KindOf(err) {
	case walleterrors.KindAuthentication:
		return "Incorrect password."
	case walleterrors.KindInsufficientFunds:
		return "Insufficient funds."
	case walleterrors.KindNetwork:
		return "Network error: " + err.Error() + ". Check your network connection."
	}
	switch {
	case errors.Is(err, walleterrors.ErrLocked):
		return "Wallet is locked. Type 'unlock' first."
	case errors.Is(err, walleterrors.ErrWalletNotInitialized):
		return "Wallet is not initialized. Type 'create' or 'recover' first."
	case errors.Is(err, walleterrors.ErrWalletExists):
		return "A wallet already exists in this data directory."
	}
	return err.Error()
}

func formatAmount(a types.Amount, token string) string {
	return a.Format(types.GetTokenInfo(token).Decimals) + " " + token
}

func (h *Handler) welcome([]string) Result {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  Welcome to LuminaChain Wallet v" + params.Version + "\n")
	b.WriteString("  Type 'help' to see available commands\n")
	if !h.node.Wallet().Initialized() {
		b.WriteString("  No wallet found. Type 'create' or 'recover <seed words>' to get started\n")
	}
	return ok("%s", b.String())
}

func (h *Handler) help(args []string) Result {
	if len(args) > 0 {
		cmd, found := h.commands[args[0]]
		if !found {
			return fail("Unknown command: %s", args[0])
		}
		return ok("%s: %s", cmd.name, cmd.description)
	}

	byCategory := make(map[string][]*command)
	for _, name := range h.Commands() {
		cmd := h.commands[name]
		byCategory[cmd.category] = append(byCategory[cmd.category], cmd)
	}

	var b strings.Builder
	b.WriteString("Available commands:\n")
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	for _, category := range categoryOrder {
		cmds := byCategory[category]
		if len(cmds) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s commands:\n", category)
		for _, cmd := range cmds {
			fmt.Fprintf(w, "  %s\t%s\n", cmd.name, cmd.description)
		}
	}
	w.Flush()
	b.WriteString("\nType 'exit' to quit.")
	return ok("%s", b.String())
}

func (h *Handler) version([]string) Result {
	return ok("LuminaChain Wallet v%s\nLicensed under MIT License", params.Version)
}

func (h *Handler) readNewPassword() (string, error) {
	pw, err := h.prompt.PasswordPrompt("New password: ")
	if err != nil {
		return "", err
	}
	again, err := h.prompt.PasswordPrompt("Repeat password: ")
	if err != nil {
		return "", err
	}
	if pw != again {
		return "", errors.New("passwords do not match")
	}
	return pw, nil
}

func (h *Handler) fund() string {
	id, err := h.node.FundFromFaucet()
	if err != nil {
		return "\nDevnet faucet failed: " + describe(err)
	}
	if id.IsZero() {
		return ""
	}
	return "\nDevnet faucet sent " + formatAmount(types.Amount(h.node.Config().DevnetFaucet), types.LumaTokenSymbol) + ". Type 'refresh' to see it."
}

func (h *Handler) create([]string) Result {
	if h.node.Wallet().Initialized() {
		return fail("%s", describe(walleterrors.ErrWalletExists))
	}
	pw, err := h.readNewPassword()
	if err != nil {
		return fail("%s", describe(err))
	}
	mnemonic, addr, err := h.node.Wallet().Create(pw)
	if err != nil {
		return fail("Wallet creation failed: %s", describe(err))
	}
	return ok("Wallet created.\n  Address: %s\n  Seed phrase: %s\n\nWARNING: Write the seed phrase down and keep it secret. It is the only way to recover this wallet.%s",
		addr, mnemonic, h.fund())
}

func (h *Handler) recover(args []string) Result {
	if len(args) == 0 {
		return fail("Usage: recover <12 seed words>")
	}
	if h.node.Wallet().Initialized() {
		return fail("%s", describe(walleterrors.ErrWalletExists))
	}
	pw, err := h.readNewPassword()
	if err != nil {
		return fail("%s", describe(err))
	}
	addr, err := h.node.Wallet().Recover(strings.Join(args, " "), pw)
	if err != nil {
		return fail("Wallet recovery failed: %s", describe(err))
	}
	return ok("Wallet recovered.\n  Address: %s\nType 'refresh' to load its history.%s", addr, h.fund())
}

func (h *Handler) walletInfo([]string) Result {
	w := h.node.Wallet()
	if !w.Initialized() {
		return fail("%s", describe(walleterrors.ErrWalletNotInitialized))
	}
	var b strings.Builder
	b.WriteString("Wallet Information:\n")
	fmt.Fprintf(&b, "  Address: %s\n", w.Address())
	fmt.Fprintf(&b, "  Balance: %s\n", formatAmount(w.Balance(types.LumaTokenSymbol), types.LumaTokenSymbol))
	fmt.Fprintf(&b, "  Transactions: %d (%d pending)\n", len(w.History()), w.PendingCount())
	fmt.Fprintf(&b, "  Created: %s\n", w.CreatedAt().Format(time.RFC3339))
	fmt.Fprintf(&b, "  Unlocked: %s", yesNo(w.IsUnlocked()))
	return ok("%s", b.String())
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func (h *Handler) balance(args []string) Result {
	w := h.node.Wallet()
	if !w.Initialized() {
		return fail("%s", describe(walleterrors.ErrWalletNotInitialized))
	}
	if len(args) > 0 {
		token := strings.ToUpper(args[0])
		if !types.IsValidTokenSymbol(token) {
			return fail("Invalid token: %s", args[0])
		}
		return ok("Balance: %s", formatAmount(w.Balance(token), token))
	}

	balances := w.Balances()
	if len(balances) == 0 {
		return ok("Balance: %s", formatAmount(0, types.LumaTokenSymbol))
	}
	var b strings.Builder
	b.WriteString("Balance:")
	for _, token := range types.SortedSymbols(balances) {
		fmt.Fprintf(&b, "\n  %s", formatAmount(balances[token], token))
	}
	return ok("%s", b.String())
}

// ensureUnlocked prompts for the password when the signing key is not cached.
func (h *Handler) ensureUnlocked() error {
	w := h.node.Wallet()
	if !w.Initialized() {
		return walleterrors.ErrWalletNotInitialized
	}
	if w.IsUnlocked() {
		return nil
	}
	pw, err := h.prompt.PasswordPrompt("Password: ")
	if err != nil {
		return err
	}
	return w.Unlock(pw, 0)
}

func (h *Handler) transfer(args []string) Result {
	if len(args) < 2 {
		return fail("Usage: transfer <address> <amount> [token]")
	}
	token := types.LumaTokenSymbol
	if len(args) > 2 {
		token = strings.ToUpper(args[2])
	}
	if !types.IsValidTokenSymbol(token) {
		return fail("Invalid token: %s", args[2])
	}
	amount, err := types.ParseAmount(args[1], types.GetTokenInfo(token).Decimals)
	if err != nil {
		return fail("Invalid amount: %s", args[1])
	}
	if amount.Sign() <= 0 {
		return fail("Amount must be positive")
	}
	if h.node.Syncer().Status() != net.Synced {
		h.notice("Warning: Wallet is not synchronized with the network. The balance may be out of date.")
	}
	if err := h.ensureUnlocked(); err != nil {
		return fail("%s", describe(err))
	}

	id, err := h.node.Wallet().Transfer(args[0], amount, token)
	if err != nil {
		return fail("Transfer failed: %s", describe(err))
	}
	return ok("Transferred %s to %s\n  Transaction: %s (pending, type 'refresh' to submit)", formatAmount(amount, token), args[0], id)
}

func (h *Handler) history(args []string) Result {
	w := h.node.Wallet()
	if !w.Initialized() {
		return fail("%s", describe(walleterrors.ErrWalletNotInitialized))
	}
	limit := 20
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fail("Invalid count: %s", args[0])
		}
		limit = n
	}

	txs := w.History()
	if len(txs) == 0 {
		return ok("No transactions.")
	}
	self := w.Address()
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tKIND\tSTATUS\tAMOUNT\tCOUNTERPARTY\tID")
	for i := len(txs) - 1; i >= 0 && len(txs)-i <= limit; i-- {
		tx := txs[i]
		amount := formatAmount(tx.Amount, tx.Token)
		counterparty := tx.To
		switch {
		case tx.Kind == ledger.KindContract:
			amount = "-"
		case tx.To == self:
			amount = "+" + amount
			counterparty = tx.From
		default:
			amount = "-" + amount
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			time.Unix(tx.Timestamp, 0).Format("2006-01-02 15:04:05"),
			tx.Kind, tx.Status, amount, counterparty, tx.ID.String()[:16])
	}
	tw.Flush()
	return ok("%s", strings.TrimRight(b.String(), "\n"))
}

func (h *Handler) seed(args []string) Result {
	w := h.node.Wallet()
	if !w.Initialized() {
		return fail("%s", describe(walleterrors.ErrWalletNotInitialized))
	}
	if len(args) == 0 || args[0] != "confirm" {
		return fail("WARNING: This command will display your seed phrase, which can be used to access your wallet.\n" +
			"Anyone with access to your seed phrase can steal your funds.\n" +
			"To confirm, type: seed confirm")
	}
	pw, err := h.prompt.PasswordPrompt("Password: ")
	if err != nil {
		return fail("%s", describe(err))
	}
	phrase, err := w.SeedPhrase(pw)
	if err != nil {
		return fail("%s", describe(err))
	}
	return ok("Seed phrase: %s\n\nWARNING: Keep this seed phrase secret and secure!", phrase)
}

func (h *Handler) unlock(args []string) Result {
	w := h.node.Wallet()
	if !w.Initialized() {
		return fail("%s", describe(walleterrors.ErrWalletNotInitialized))
	}
	var ttl time.Duration
	if len(args) > 0 {
		minutes, err := strconv.Atoi(args[0])
		if err != nil || minutes <= 0 {
			return fail("Invalid duration: %s", args[0])
		}
		ttl = time.Duration(minutes) * time.Minute
	}
	pw, err := h.prompt.PasswordPrompt("Password: ")
	if err != nil {
		return fail("%s", describe(err))
	}
	if err := w.Unlock(pw, ttl); err != nil {
		return fail("%s", describe(err))
	}
	return ok("Wallet unlocked.")
}

func (h *Handler) lock([]string) Result {
	if !h.node.Wallet().Initialized() {
		return fail("%s", describe(walleterrors.ErrWalletNotInitialized))
	}
	h.node.Wallet().Lock()
	return ok("Wallet locked.")
}

func (h *Handler) execute(args []string) Result {
	if len(args) < 2 {
		return fail("Usage: execute <contract_address> <function> [args...]")
	}
	res, err := h.node.Gateway().Execute(context.Background(), args[0], args[1], args[2:])
	if err != nil {
		if walleterrors.KindOf(err) == walleterrors.KindContract {
			return fail("Contract execution failed: %s", err.Error())
		}
		return fail("%s", describe(err))
	}
	return ok("Contract execution result: %s\n  Transaction: %s\n  Gas estimate: %s",
		res.Output, res.TxID, formatAmount(res.GasEstimate, types.LumaTokenSymbol))
}

func (h *Handler) refresh([]string) Result {
	err := h.node.Refresh(func(progress float64, message string) {
		h.notice("[%5.1f%%] %s", progress*100, message)
	})
	if err != nil {
		return fail("Failed to refresh wallet: %s", describe(err))
	}
	return ok("Synchronization started. Type 'status' to follow it or 'stop' to cancel.")
}

func (h *Handler) stop([]string) Result {
	if err := h.node.Syncer().Stop(); err != nil {
		if errors.Is(err, walleterrors.ErrNotSyncing) {
			return fail("Synchronization is not running.")
		}
		return fail("%s", describe(err))
	}
	return ok("Synchronization stopped at height %d.", h.node.Syncer().Cursor().CurrentHeight)
}

func (h *Handler) status([]string) Result {
	st := h.node.Status()
	var b strings.Builder
	b.WriteString("Network Status:\n")
	fmt.Fprintf(&b, "  Endpoint: %s\n", h.endpoint())
	fmt.Fprintf(&b, "  Blockchain Height: %d\n", st.Cursor.LatestKnownHeight)
	fmt.Fprintf(&b, "  Wallet Height: %d\n", st.Cursor.CurrentHeight)
	fmt.Fprintf(&b, "  State: %s (%.1f%%)\n", st.SyncState, st.Progress*100)
	fmt.Fprintf(&b, "  Synchronized: %s\n", yesNo(st.SyncState == net.Synced))
	fmt.Fprintf(&b, "  Pending transfers: %d", st.PendingCount)
	if st.LastSyncError != nil {
		fmt.Fprintf(&b, "\n  Last error: %s", describe(st.LastSyncError))
	}
	return ok("%s", b.String())
}

func (h *Handler) endpoint() string {
	if e := h.node.Config().NetworkEndpoint; e != "" {
		return e
	}
	return node.DevnetEndpoint
}

func (h *Handler) donate(args []string) Result {
	amount := types.Amount(100000000)
	if len(args) > 0 {
		var err error
		amount, err = types.ParseAmount(args[0], types.GetTokenInfo(types.LumaTokenSymbol).Decimals)
		if err != nil {
			return fail("Invalid donation amount: %s", args[0])
		}
		if amount.Sign() <= 0 {
			return fail("Donation amount must be positive")
		}
	}
	formatted := amount.Format(types.GetTokenInfo(types.LumaTokenSymbol).Decimals)
	if len(args) < 2 || args[1] != "confirm" {
		return ok("You are about to donate %s %s to the LuminaChain development team.\nTo confirm, type: donate %s confirm",
			formatted, types.LumaTokenSymbol, formatted)
	}
	if err := h.ensureUnlocked(); err != nil {
		return fail("%s", describe(err))
	}
	if _, err := h.node.Wallet().Donate(amount); err != nil {
		return fail("Donation failed: %s", describe(err))
	}
	return ok("Thank you for your donation of %s %s to the LuminaChain development team!", formatted, types.LumaTokenSymbol)
}
