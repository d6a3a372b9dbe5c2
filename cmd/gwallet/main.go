// gwallet is the command-line client of the LuminaChain wallet.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/inconshreveable/log15"
	"gopkg.in/urfave/cli.v1"

	"github.com/luminachain/go-lumina/cmd/params"
	"github.com/luminachain/go-lumina/cmd/utils"
)

var (
	log = log15.New("module", "gwallet/main")

	app = cli.NewApp()

	configFlags = []cli.Flag{
		utils.ConfigFileFlag,
	}
	generalFlags = []cli.Flag{
		utils.DataDirFlag,
		utils.LogLvlFlag,
	}
	netFlags = []cli.Flag{
		utils.EndpointFlag,
		utils.DevNetFlag,
	}
)

func init() {
	app.Name = filepath.Base(os.Args[0])
	app.Version = params.VersionWithCommit()
	app.Compiled = time.Now()
	app.Usage = "the LuminaChain wallet cli application"
	app.Copyright = "Copyright 2023 LuminaChain Development Team"

	app.Commands = []cli.Command{
		consoleCommand,
		accountCommand,
		balanceCommand,
		transferCommand,
		historyCommand,
		syncCommand,
		executeCommand,
		versionCommand,
	}
	sort.Sort(cli.CommandsByName(app.Commands))

	app.Flags = utils.MergeFlags(configFlags, generalFlags, netFlags)
	app.Action = consoleAction
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
