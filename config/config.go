package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/magiconair/properties"
	"github.com/pkg/errors"

	"github.com/luminachain/go-lumina/common"
)

// Environment variables overriding file values.
const (
	EnvDataDir         = "LUMINA_DATADIR"
	EnvNetworkEndpoint = "LUMINA_NETWORK_ENDPOINT"
	EnvLogLevel        = "LUMINA_LOG_LEVEL"
)

type Config struct {
	DataDir         string `properties:"data_dir,default="`
	LogLevel        string `properties:"log_level,default=info"`
	LogFile         string `properties:"log_file,default="`
	NetworkEndpoint string `properties:"network_endpoint,default="`

	Sync     Sync     `properties:"sync"`
	Wallet   Wallet   `properties:"wallet"`
	Contract Contract `properties:"contract"`

	Devnet       bool  `properties:"devnet,default=false"`
	DevnetFaucet int64 `properties:"devnet.faucet,default=0"`

	// File is where the config was loaded from and where Save writes by default.
	File string `properties:"-"`
}

type Sync struct {
	BatchSize      int           `properties:"batch_size,default=100"`
	RequestTimeout time.Duration `properties:"request_timeout,default=10s"`
	MaxRetries     int           `properties:"max_retries,default=3"`
	RetryBackoff   time.Duration `properties:"retry_backoff,default=500ms"`
	// AutoInterval is a cron expression such as "@every 1m". Empty disables periodic sync.
	AutoInterval string `properties:"auto_interval,default="`
}

type Wallet struct {
	UnlockTimeout time.Duration `properties:"unlock_timeout,default=5m"`
	LightScrypt   bool          `properties:"light_scrypt,default=false"`
}

type Contract struct {
	Dir     string        `properties:"dir,default=contracts"`
	Timeout time.Duration `properties:"timeout,default=2s"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	c, err := decode(properties.NewProperties())
	if err != nil {
		panic(err)
	}
	return c
}

func decode(p *properties.Properties) (*Config, error) {
	c := new(Config)
	if err := p.Decode(c); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	return c, nil
}

// Load reads path, which may be missing, then applies a .env file next to it and the
// process environment. An empty data dir resolves to common.DefaultDataDir.
func Load(path string) (*Config, error) {
	p := properties.NewProperties()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			p, err = properties.LoadFile(path, properties.UTF8)
			if err != nil {
				return nil, errors.Wrapf(err, "load %s", path)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "stat %s", path)
		}
		envFile := filepath.Join(filepath.Dir(path), ".env")
		if _, err := os.Stat(envFile); err == nil {
			// variables already set in the environment are kept
			if err := godotenv.Load(envFile); err != nil {
				return nil, errors.Wrapf(err, "load %s", envFile)
			}
		}
	}

	c, err := decode(p)
	if err != nil {
		return nil, err
	}
	c.File = path
	c.applyEnv()
	if c.DataDir == "" {
		c.DataDir = common.DefaultDataDir()
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv(EnvDataDir); ok {
		c.DataDir = v
	}
	if v, ok := os.LookupEnv(EnvNetworkEndpoint); ok {
		c.NetworkEndpoint = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.LogLevel = v
	}
}

func (c *Config) Validate() error {
	if c.Sync.BatchSize <= 0 {
		return errors.Errorf("sync.batch_size must be positive, got %d", c.Sync.BatchSize)
	}
	if c.Sync.MaxRetries < 0 {
		return errors.Errorf("sync.max_retries must not be negative, got %d", c.Sync.MaxRetries)
	}
	if c.Sync.RequestTimeout <= 0 || c.Contract.Timeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	if c.DevnetFaucet < 0 {
		return errors.Errorf("devnet.faucet must not be negative, got %d", c.DevnetFaucet)
	}
	return nil
}

// ContractDir resolves a relative contract dir against the data dir.
func (c *Config) ContractDir() string {
	if filepath.IsAbs(c.Contract.Dir) {
		return c.Contract.Dir
	}
	return filepath.Join(c.DataDir, c.Contract.Dir)
}

func (c *Config) properties() *properties.Properties {
	p := properties.NewProperties()
	p.MustSet("data_dir", c.DataDir)
	p.MustSet("log_level", c.LogLevel)
	p.MustSet("log_file", c.LogFile)
	p.MustSet("network_endpoint", c.NetworkEndpoint)
	p.MustSet("sync.batch_size", strconv.Itoa(c.Sync.BatchSize))
	p.MustSet("sync.request_timeout", c.Sync.RequestTimeout.String())
	p.MustSet("sync.max_retries", strconv.Itoa(c.Sync.MaxRetries))
	p.MustSet("sync.retry_backoff", c.Sync.RetryBackoff.String())
	p.MustSet("sync.auto_interval", c.Sync.AutoInterval)
	p.MustSet("wallet.unlock_timeout", c.Wallet.UnlockTimeout.String())
	p.MustSet("wallet.light_scrypt", strconv.FormatBool(c.Wallet.LightScrypt))
	p.MustSet("contract.dir", c.Contract.Dir)
	p.MustSet("contract.timeout", c.Contract.Timeout.String())
	p.MustSet("devnet", strconv.FormatBool(c.Devnet))
	p.MustSet("devnet.faucet", strconv.FormatInt(c.DevnetFaucet, 10))
	return p
}

// Save writes the config to path, or to c.File when path is empty.
func (c *Config) Save(path string) error {
	if path == "" {
		path = c.File
	}
	if path == "" {
		return errors.New("no config file")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Wrap(err, "create config dir")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	if _, err := c.properties().Write(f, properties.UTF8); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "close %s", path)
	}
	c.File = path
	return nil
}

// SetNetworkEndpoint updates the endpoint and persists it.
func (c *Config) SetNetworkEndpoint(endpoint string) error {
	c.NetworkEndpoint = endpoint
	return c.Save("")
}
