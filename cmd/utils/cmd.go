package utils

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/inconshreveable/log15"

	"github.com/luminachain/go-lumina/node"
)

// StartNode starts n and stops it on SIGINT or SIGTERM. The returned channel is closed
// once the node has been stopped by a signal.
func StartNode(n *node.Node) (<-chan struct{}, error) {
	if err := n.Start(); err != nil {
		return nil, fmt.Errorf("error starting wallet node: %v", err)
	}

	stopped := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(c)
		<-c
		log15.Info("Got interrupt, shutting down...")
		if err := n.Stop(); err != nil {
			log15.Warn("stop node", "err", err)
		}
		close(stopped)
	}()
	return stopped, nil
}

// Fatalf prints an error and exits with status 1.
func Fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Fatal: "+format+"\n", args...)
	os.Exit(1)
}
