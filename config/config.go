package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"okinoko-arena/contract"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ARENA_"

type Log struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Config is the client configuration. Values are layered as defaults,
// then the YAML file, then ARENA_* environment variables.
type Config struct {
	RPCURL          string        `yaml:"rpc_url" env:"RPC_URL"`
	ContractAddress string        `yaml:"contract_address" env:"CONTRACT_ADDRESS"`
	KeystoreDir     string        `yaml:"keystore_dir" env:"KEYSTORE_DIR"`
	Passphrase      string        `yaml:"-" env:"PASSPHRASE"`
	IPFSGateway     string        `yaml:"ipfs_gateway" env:"IPFS_GATEWAY"`
	ToastDelay      time.Duration `yaml:"toast_delay" env:"TOAST_DELAY"`
	MetricsAddr     string        `yaml:"metrics_addr" env:"METRICS_ADDR"`
	Log             Log           `yaml:"log" envPrefix:"LOG_"`
}

func Default() Config {
	return Config{
		RPCURL:      "ws://127.0.0.1:8546",
		IPFSGateway: contract.DefaultGateway,
		ToastDelay:  5 * time.Second,
		Log:         Log{Level: "info", Format: "console"},
	}
}

// Load reads path when it is not empty and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv applies ARENA_* variables onto target.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if !common.IsHexAddress(c.ContractAddress) {
		errs = append(errs, fmt.Errorf("contract_address %q is not a hex address", c.ContractAddress))
	}
	if err := checkRPCURL(c.RPCURL); err != nil {
		errs = append(errs, err)
	}
	if c.ToastDelay < 0 {
		errs = append(errs, errors.New("toast_delay must not be negative"))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: want console or json", c.Log.Format))
	}
	return errors.Join(errs...)
}

// checkRPCURL accepts endpoints that can carry log subscriptions.
func checkRPCURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("rpc_url %q is not a url", raw)
	}
	switch u.Scheme {
	case "ws", "wss":
		return nil
	case "":
		if strings.HasSuffix(u.Path, ".ipc") {
			return nil
		}
	}
	return fmt.Errorf("rpc_url %q: want a ws, wss or ipc endpoint", raw)
}

// Contract returns the parsed contract address. Call Validate first.
func (c Config) Contract() common.Address { return common.HexToAddress(c.ContractAddress) }
