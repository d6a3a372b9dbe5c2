package utils

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminachain/go-lumina/common"
)

func TestDirectoryFlag_Expand(t *testing.T) {
	f := DirectoryFlag{Name: "datadir, d", Usage: "data"}
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	f.Apply(set)

	require.NoError(t, set.Parse([]string{"-d", "~/wallet/../w"}))
	assert.Equal(t, filepath.Join(common.HomeDir(), "w"), set.Lookup("datadir").Value.String())
	assert.Equal(t, "datadir, d", f.GetName())
	assert.Equal(t, "--datadir, -d\tdata", f.String())
}

func TestExpandPath_Env(t *testing.T) {
	os.Setenv("LUMINA_TEST_DIR", "/tmp/lumina")
	defer os.Unsetenv("LUMINA_TEST_DIR")
	assert.Equal(t, "/tmp/lumina/data", expandPath("$LUMINA_TEST_DIR/data/"))
}
