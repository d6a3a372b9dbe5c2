package common

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/inconshreveable/log15"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminachain/go-lumina/common/fileutils"
)

func TestSetupLogging_File(t *testing.T) {
	dir := fileutils.CreateTempDir()
	defer os.RemoveAll(dir)

	closer, err := SetupLogging(dir, filepath.Join("logs", "wallet.log"), "warn")
	require.NoError(t, err)

	logger := log15.New("module", "test")
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)
	require.NoError(t, closer.Close())

	data, err := ioutil.ReadFile(filepath.Join(dir, "logs", "wallet.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "shown")
	assert.Contains(t, string(data), "module=test")
	assert.NotContains(t, string(data), "hidden")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, log15.LvlDebug, parseLevel("debug"))
	assert.Equal(t, log15.LvlInfo, parseLevel("loud"))
}
