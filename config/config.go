package config

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"virtual-swap/pkg/amount"
	"virtual-swap/pkg/deadline"
	"virtual-swap/pkg/gas"
	"virtual-swap/pkg/slippage"
	"virtual-swap/pkg/types"
)

const (
	configName = ".virtual-swap"
	envPrefix  = "VIRTUAL_SWAP"
)

// Config holds the application configuration
type Config struct {
	RPCURL                string            `mapstructure:"rpc_url"`
	PrivateKey            string            `mapstructure:"private_key"`
	ChainID               int64             `mapstructure:"chain_id"`
	BridgeAddress         string            `mapstructure:"bridge_address"`
	GasLimit              uint64            `mapstructure:"gas_limit"`
	StoragePath           string            `mapstructure:"storage_path"`
	ExplorerURL           string            `mapstructure:"explorer_url"`
	HighImpactThreshold   string            `mapstructure:"high_impact_threshold"` // percent
	RequireAckForWithdraw bool              `mapstructure:"require_ack_for_withdraw"`
	Preferences           Preferences       `mapstructure:"preferences"`
	Prices                map[string]string `mapstructure:"prices"`
	OneClick              OneClickConfig    `mapstructure:"oneclick"`
	Assets                []types.Asset     `mapstructure:"assets"`
}

// OneClickConfig configures the live price feed
type OneClickConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	JWTToken string `mapstructure:"jwt_token"`
	Chain    string `mapstructure:"chain"`
}

// Preferences are the user's transaction settings
type Preferences struct {
	Slippage       string `mapstructure:"slippage" default:"ONE" validate:"oneof=ONE_TENTH ONE CUSTOM"`
	SlippageCustom string `mapstructure:"slippage_custom" validate:"required_if=Slippage CUSTOM"`
	Deadline       string `mapstructure:"deadline" default:"TWENTY" validate:"oneof=TEN TWENTY THIRTY FORTY CUSTOM"`
	DeadlineCustom int    `mapstructure:"deadline_custom" validate:"required_if=Deadline CUSTOM,gte=0"`
	Gas            string `mapstructure:"gas" default:"FAST" validate:"oneof=STANDARD FAST INSTANT CUSTOM"`
	GasCustom      string `mapstructure:"gas_custom" validate:"required_if=Gas CUSTOM"`
}

// Resolved is the typed form of Preferences
type Resolved struct {
	Slippage slippage.Tolerance
	Deadline deadline.Selection
	Gas      gas.Selection
}

var (
	globalConfig *Config
	validate     = validator.New()
)

// Load reads configuration from environment variables and the config file
// in $HOME or the working directory
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	globalConfig = cfg
	return cfg, nil
}

// LoadFile reads configuration from a specific file
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	globalConfig = cfg
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("rpc_url", "")
	v.SetDefault("private_key", "")
	v.SetDefault("chain_id", 1)
	v.SetDefault("bridge_address", "")
	v.SetDefault("gas_limit", 0)
	v.SetDefault("storage_path", "")
	v.SetDefault("explorer_url", "https://etherscan.io")
	v.SetDefault("high_impact_threshold", "5")
	v.SetDefault("require_ack_for_withdraw", false)
	v.SetDefault("preferences.slippage", "")
	v.SetDefault("preferences.slippage_custom", "")
	v.SetDefault("preferences.deadline", "")
	v.SetDefault("preferences.deadline_custom", 0)
	v.SetDefault("preferences.gas", "")
	v.SetDefault("preferences.gas_custom", "")
	v.SetDefault("oneclick.enabled", false)
	v.SetDefault("oneclick.jwt_token", "")
	v.SetDefault("oneclick.chain", "eth")

	// Read from environment variables, e.g. VIRTUAL_SWAP_PREFERENCES_SLIPPAGE
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Preferences.Normalize(); err != nil {
		return nil, err
	}
	if _, err := cfg.ImpactThreshold(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Normalize fills defaults, upper-cases preset names and validates the result
func (p *Preferences) Normalize() error {
	p.Slippage = strings.ToUpper(strings.TrimSpace(p.Slippage))
	p.Deadline = strings.ToUpper(strings.TrimSpace(p.Deadline))
	p.Gas = strings.ToUpper(strings.TrimSpace(p.Gas))

	if err := defaults.Set(p); err != nil {
		return fmt.Errorf("failed to apply preference defaults: %w", err)
	}
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid preferences: %w", err)
	}
	return nil
}

// Resolve converts the preferences to typed selections
func (p Preferences) Resolve() (Resolved, error) {
	tol, err := slippage.FromPreferences(p.Slippage, p.SlippageCustom)
	if err != nil {
		return Resolved{}, err
	}
	dl, err := deadline.FromPreferences(p.Deadline, p.DeadlineCustom)
	if err != nil {
		return Resolved{}, err
	}
	g, err := gas.FromPreferences(p.Gas, p.GasCustom)
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{Slippage: tol, Deadline: dl, Gas: g}, nil
}

// ImpactThreshold returns the high price impact threshold as an 18-decimal fraction
func (c *Config) ImpactThreshold() (*big.Int, error) {
	// percent to fraction is two extra decimal places
	t, err := amount.Parse(c.HighImpactThreshold, amount.RatePrecision-2)
	if err != nil {
		return nil, fmt.Errorf("invalid high_impact_threshold: %w", err)
	}
	return t, nil
}

// ValidateChain checks the settings needed to send settlement transactions
func (c *Config) ValidateChain() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc_url not set. Please set %s_RPC_URL or add it to %s.yaml", envPrefix, configName)
	}
	if c.PrivateKey == "" {
		return fmt.Errorf("private_key not set. Please set %s_PRIVATE_KEY or add it to %s.yaml", envPrefix, configName)
	}
	if c.BridgeAddress == "" {
		return fmt.Errorf("bridge_address not set. Please set %s_BRIDGE_ADDRESS or add it to %s.yaml", envPrefix, configName)
	}
	return nil
}

// AssetTable builds the token table with configured overrides
func (c *Config) AssetTable() (*types.AssetTable, error) {
	return types.NewAssetTable(c.Assets)
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
