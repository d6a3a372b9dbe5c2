package utils

import (
	"gopkg.in/urfave/cli.v1"

	"github.com/luminachain/go-lumina/common"
	"github.com/luminachain/go-lumina/config"
)

var (
	// Config settings
	ConfigFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "Wallet configuration file (key = value)",
		Value: common.DefaultConfigFile,
	}

	// General settings
	DataDirFlag = DirectoryFlag{
		Name:  "datadir",
		Usage: "Directory for the wallet database and logs",
	}

	LogLvlFlag = cli.StringFlag{
		Name:  "loglevel",
		Usage: "log level (debug|info|warn|error|crit)",
	}

	// Network settings
	EndpointFlag = cli.StringFlag{
		Name:  "endpoint",
		Usage: "Ledger endpoint to synchronize with",
	}

	DevNetFlag = cli.BoolFlag{
		Name:  "devnet",
		Usage: "Use the in-process development ledger",
	}

	// Command settings
	TokenFlag = cli.StringFlag{
		Name:  "token",
		Usage: "Token symbol",
		Value: "LMT",
	}

	CountFlag = cli.IntFlag{
		Name:  "count",
		Usage: "Number of entries to show",
		Value: 20,
	}
)

// LoadConfig reads the file named by --config and applies the global flags on top.
func LoadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx.GlobalString(ConfigFileFlag.Name))
	if err != nil {
		return nil, err
	}
	if dir := ctx.GlobalString(DataDirFlag.Name); dir != "" {
		cfg.DataDir = dir
	}
	if lvl := ctx.GlobalString(LogLvlFlag.Name); lvl != "" {
		cfg.LogLevel = lvl
	}
	if endpoint := ctx.GlobalString(EndpointFlag.Name); endpoint != "" {
		cfg.NetworkEndpoint = endpoint
	}
	if ctx.GlobalBool(DevNetFlag.Name) {
		cfg.Devnet = true
	}
	return cfg, cfg.Validate()
}

// MergeFlags concatenates flag sets.
func MergeFlags(flagsSet ...[]cli.Flag) []cli.Flag {
	mergeFlags := []cli.Flag{}
	for _, flags := range flagsSet {
		mergeFlags = append(mergeFlags, flags...)
	}
	return mergeFlags
}
