package console

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"
)

const (
	prompt      = "lumina> "
	historyFile = "console_history"
)

// Console is the interactive read-eval-print loop around a Handler.
type Console struct {
	handler *Handler
	line    *liner.State
	out     io.Writer
	histDir string

	success *color.Color
	failure *color.Color
}

// New puts the terminal in raw mode. Stop restores it.
func New(newHandler func(Prompter, io.Writer) *Handler, histDir string) *Console {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	c := &Console{
		line:    line,
		out:     color.Output,
		histDir: histDir,
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
	}
	c.handler = newHandler(line, c.out)
	line.SetCompleter(c.complete)
	c.loadHistory()
	return c
}

func (c *Console) complete(input string) []string {
	var out []string
	for _, name := range c.handler.Commands() {
		if strings.HasPrefix(name, input) {
			out = append(out, name)
		}
	}
	return out
}

func (c *Console) historyPath() string {
	if c.histDir == "" {
		return ""
	}
	return filepath.Join(c.histDir, historyFile)
}

func (c *Console) loadHistory() {
	path := c.historyPath()
	if path == "" {
		return
	}
	if f, err := os.Open(path); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

func (c *Console) saveHistory() {
	path := c.historyPath()
	if path == "" {
		return
	}
	if f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600); err == nil {
		c.line.WriteHistory(f)
		f.Close()
	}
}

func (c *Console) print(res Result) {
	if res.Success {
		fmt.Fprintln(c.out, res.Message)
		return
	}
	c.failure.Fprintln(c.out, res.Message)
}

func (c *Console) Welcome() {
	res := c.handler.Execute("welcome", nil)
	c.success.Fprintln(c.out, res.Message)
}

// Interactive reads commands until exit, EOF or Ctrl-C.
func (c *Console) Interactive() {
	for {
		input, err := c.line.Prompt(prompt)
		if err == liner.ErrPromptAborted || err == io.EOF {
			fmt.Fprintln(c.out)
			break
		}
		if err != nil {
			c.failure.Fprintln(c.out, err)
			break
		}
		name, args, ok := ParseLine(input)
		if !ok {
			continue
		}
		// seed phrases stay out of the history file
		if name != "recover" {
			c.line.AppendHistory(strings.TrimSpace(input))
		}
		if name == "exit" || name == "quit" {
			break
		}
		c.print(c.handler.Execute(name, args))
	}
	fmt.Fprintln(c.out, "Exiting LuminaChain Wallet. Goodbye!")
}

// Stop saves the history and restores the terminal.
func (c *Console) Stop() error {
	c.saveHistory()
	return c.line.Close()
}
