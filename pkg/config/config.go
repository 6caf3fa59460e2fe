/*
Package config defines the top level configuration of a pft-go instance
and its YAML file format.
*/
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/postfiat-dev/pft-go/pkg/encoding/address"
	"github.com/postfiat-dev/pft-go/pkg/storage"
	"gopkg.in/yaml.v3"
)

// Version is the version of the client, set at build time.
var Version string

// Well-known defaults of the public task network.
const (
	DefaultNode        = "r4yc85M1hwsegVGZ1pawpZPwj65SVs8PzD"
	DefaultTokenIssuer = "rnQUEEg8yyjrwk9FhyXpKavHyCRJM9BDMW"
	DefaultCurrency    = "PFT"
)

// Config is the top level struct representing the client configuration.
type Config struct {
	RPC     RPC                     `yaml:"RPC"`
	Account Account                 `yaml:"Account"`
	Token   Token                   `yaml:"Token"`
	Sync    Sync                    `yaml:"Sync"`
	Monitor Monitor                 `yaml:"Monitor"`
	DB      storage.DBConfiguration `yaml:"DB"`
	Logger  Logger                  `yaml:"Logger"`
	// Prometheus configures the metrics endpoint of the monitor.
	Prometheus Metrics `yaml:"Prometheus"`
}

// RPC holds the ledger gateway endpoints and timeouts.
type RPC struct {
	// Endpoint is the HTTP JSON-RPC endpoint used for queries and
	// submissions.
	Endpoint string `yaml:"Endpoint"`
	// WSEndpoints is the websocket endpoint pool the live subscription
	// rotates through.
	WSEndpoints    []string      `yaml:"WSEndpoints"`
	DialTimeout    time.Duration `yaml:"DialTimeout"`
	RequestTimeout time.Duration `yaml:"RequestTimeout"`
}

// Account identifies the local account and its counterparty node.
type Account struct {
	// Address is the local account the history belongs to.
	Address string `yaml:"Address"`
	// User is the actor name carried in outgoing memos.
	User string `yaml:"User"`
	// Node is the counterparty issuing tasks and rewards.
	Node string `yaml:"Node"`
}

// Token identifies the protocol token.
type Token struct {
	Currency   string `yaml:"Currency"`
	Issuer     string `yaml:"Issuer"`
	TrustLimit string `yaml:"TrustLimit"`
}

// Sync shapes the history synchronization.
type Sync struct {
	PageLimit     int           `yaml:"PageLimit"`
	MaxPages      int           `yaml:"MaxPages"`
	RetryAttempts int           `yaml:"RetryAttempts"`
	RetryDelay    time.Duration `yaml:"RetryDelay"`
}

// Monitor shapes the live subscription loop.
type Monitor struct {
	Backoff    time.Duration `yaml:"Backoff"`
	TriggerCap int           `yaml:"TriggerCap"`
}

// Metrics describes the monitoring service endpoint.
type Metrics struct {
	Enabled bool   `yaml:"Enabled"`
	Address string `yaml:"Address"`
}

// Logger holds the logging settings.
type Logger struct {
	// Level is a zap level name, "info" when empty.
	Level string `yaml:"Level"`
}

// Load reads, parses and validates the configuration from the given
// file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	return Unmarshal(data)
}

// Unmarshal parses and validates serialized configuration data.
func Unmarshal(data []byte) (Config, error) {
	cfg := Config{
		Account: Account{Node: DefaultNode},
		Token: Token{
			Currency:   DefaultCurrency,
			Issuer:     DefaultTokenIssuer,
			TrustLimit: "100000000",
		},
		DB: storage.DBConfiguration{Type: "inmemory"},
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("unable to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for completeness.
func (c Config) Validate() error {
	if c.RPC.Endpoint == "" {
		return fmt.Errorf("no RPC endpoint configured")
	}
	if !address.IsValid(c.Account.Address) {
		return fmt.Errorf("invalid account address: %q", c.Account.Address)
	}
	if !address.IsValid(c.Account.Node) {
		return fmt.Errorf("invalid node address: %q", c.Account.Node)
	}
	if !address.IsValid(c.Token.Issuer) {
		return fmt.Errorf("invalid token issuer: %q", c.Token.Issuer)
	}
	return nil
}
