package main

import (
	"fmt"
	"runtime"

	"gopkg.in/urfave/cli.v1"

	"github.com/luminachain/go-lumina/cmd/params"
)

var versionCommand = cli.Command{
	Action:    versionAction,
	Name:      "version",
	Usage:     "Print version numbers",
	ArgsUsage: " ",
	Category:  "MISCELLANEOUS COMMANDS",
}

func versionAction(ctx *cli.Context) error {
	fmt.Printf("LuminaChain Wallet %s\n", params.VersionWithCommit())
	fmt.Printf("go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return nil
}
