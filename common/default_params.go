package common

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
)

const (
	DefaultConfigFile = "lumina_wallet.conf"
	DefaultLogLevel   = "info"
)

// DefaultDataDir is $HOME/.lumina_wallet
func DefaultDataDir() string {
	home := HomeDir()
	if home != "" {
		return filepath.Join(home, ".lumina_wallet")
	}
	return ""
}

// TestDataDir is the testdata dir at the module root.
func TestDataDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filepath.Dir(filename)), "testdata")
}

func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}
