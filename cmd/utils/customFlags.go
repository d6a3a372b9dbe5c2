package utils

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/luminachain/go-lumina/common"
)

// dirValue is a flag.Value that stores an absolute, home-expanded path.
type dirValue string

func (d *dirValue) String() string { return string(*d) }

func (d *dirValue) Set(s string) error {
	*d = dirValue(expandPath(s))
	return nil
}

// DirectoryFlag is a cli.Flag whose value has "~" and environment
// variables expanded, e.g. ~/.lumina_wallet -> /home/username/.lumina_wallet
type DirectoryFlag struct {
	Name  string
	Value string
	Usage string
}

func (f DirectoryFlag) names() []string {
	var out []string
	for _, name := range strings.Split(f.Name, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func (f DirectoryFlag) String() string {
	var parts []string
	for _, name := range f.names() {
		dash := "--"
		if len(name) == 1 {
			dash = "-"
		}
		parts = append(parts, dash+name)
	}
	def := ""
	if f.Value != "" {
		def = fmt.Sprintf(" %q", f.Value)
	}
	return fmt.Sprintf("%s%s\t%s", strings.Join(parts, ", "), def, f.Usage)
}

func (f DirectoryFlag) Apply(set *flag.FlagSet) {
	v := dirValue(f.Value)
	for _, name := range f.names() {
		set.Var(&v, name, f.Usage)
	}
}

func (f DirectoryFlag) GetName() string { return f.Name }

func expandPath(p string) string {
	if strings.HasPrefix(p, "~/") || strings.HasPrefix(p, "~\\") {
		if home := common.HomeDir(); home != "" {
			p = home + p[1:]
		}
	}
	return filepath.Clean(os.ExpandEnv(p))
}
