// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	Contracts ContractsConfig `mapstructure:"contracts"`
	Pool      PoolConfig      `mapstructure:"pool"`
	Deposit   DepositConfig   `mapstructure:"deposit"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	QuoteAPI  QuoteAPIConfig  `mapstructure:"quote_api"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// EthereumConfig holds Ethereum node configuration.
type EthereumConfig struct {
	HTTPURL        string        `mapstructure:"http_url"`
	WebSocketURL   string        `mapstructure:"websocket_url"`
	ChainID        uint64        `mapstructure:"chain_id"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	RequestsPerMin int           `mapstructure:"requests_per_min"`
}

// ContractsConfig holds protocol contract addresses.
type ContractsConfig struct {
	Permit2Address         string `mapstructure:"permit2_address"`
	PositionManagerAddress string `mapstructure:"position_manager_address"`
	FactoryAddress         string `mapstructure:"factory_address"`
}

// Permit2AddressHex returns the Permit2 address as common.Address.
func (c *ContractsConfig) Permit2AddressHex() common.Address {
	return common.HexToAddress(c.Permit2Address)
}

// PositionManagerAddressHex returns the position manager address as common.Address.
func (c *ContractsConfig) PositionManagerAddressHex() common.Address {
	return common.HexToAddress(c.PositionManagerAddress)
}

// FactoryAddressHex returns the factory address as common.Address.
func (c *ContractsConfig) FactoryAddressHex() common.Address {
	return common.HexToAddress(c.FactoryAddress)
}

// PoolConfig identifies the pool the orchestrator deposits into.
type PoolConfig struct {
	PoolAddress   string `mapstructure:"pool_address"`
	Token0Symbol  string `mapstructure:"token0_symbol"`
	Token1Symbol  string `mapstructure:"token1_symbol"`
	FeeTier       int    `mapstructure:"fee_tier"`
	TickSpacing   int    `mapstructure:"tick_spacing"`
}

// PoolAddressHex returns the pool address as common.Address.
func (c *PoolConfig) PoolAddressHex() common.Address {
	return common.HexToAddress(c.PoolAddress)
}

// DepositConfig holds deposit orchestration settings.
type DepositConfig struct {
	SlippageBps     int           `mapstructure:"slippage_bps"`
	Deadline        time.Duration `mapstructure:"deadline"`
	PermitExpiry    time.Duration `mapstructure:"permit_expiry"`
	QuoteDebounce   time.Duration `mapstructure:"quote_debounce"`
	ReceiptTimeout  time.Duration `mapstructure:"receipt_timeout"`
	ReceiptInterval time.Duration `mapstructure:"receipt_interval"`
	TUIMode         bool          `mapstructure:"-"` // Set at runtime, not from config file
}

// SlippageRatio returns the slippage tolerance as a decimal fraction.
func (c *DepositConfig) SlippageRatio() decimal.Decimal {
	return decimal.NewFromInt(int64(c.SlippageBps)).Div(decimal.NewFromInt(10000))
}

// WalletConfig holds the signing key. The key is only ever read from
// the environment, never from a config file on disk.
type WalletConfig struct {
	PrivateKey string `mapstructure:"private_key"`
}

// QuoteAPIConfig holds the optional HTTP quote service configuration.
// When disabled, paired amounts are computed locally from pool state.
type QuoteAPIConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("LPD")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "LPD_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "LPD_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "LPD_LOG_LEVEL", "LOG_LEVEL")

	// Ethereum
	v.BindEnv("ethereum.http_url", "LPD_ETH_HTTP_URL", "ETH_HTTP_URL")
	v.BindEnv("ethereum.websocket_url", "LPD_ETH_WS_URL", "ETH_WS_URL")
	v.BindEnv("ethereum.chain_id", "LPD_ETH_CHAIN_ID", "ETH_CHAIN_ID")

	// Contracts
	v.BindEnv("contracts.permit2_address", "LPD_PERMIT2", "PERMIT2_ADDRESS")
	v.BindEnv("contracts.position_manager_address", "LPD_POSITION_MANAGER", "POSITION_MANAGER_ADDRESS")
	v.BindEnv("contracts.factory_address", "LPD_FACTORY", "FACTORY_ADDRESS")

	// Pool
	v.BindEnv("pool.pool_address", "LPD_POOL_ADDRESS", "POOL_ADDRESS")
	v.BindEnv("pool.token0_symbol", "LPD_TOKEN0")
	v.BindEnv("pool.token1_symbol", "LPD_TOKEN1")

	// Wallet
	v.BindEnv("wallet.private_key", "LPD_WALLET_KEY", "WALLET_PRIVATE_KEY")

	// Quote API
	v.BindEnv("quote_api.enabled", "LPD_QUOTE_API_ENABLED")
	v.BindEnv("quote_api.base_url", "LPD_QUOTE_API_URL")

	// Telemetry
	v.BindEnv("telemetry.enabled", "LPD_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "LPD_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "LPD_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "lp-deposit")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Ethereum defaults
	v.SetDefault("ethereum.chain_id", 1)
	v.SetDefault("ethereum.initial_backoff", "1s")
	v.SetDefault("ethereum.max_backoff", "30s")
	v.SetDefault("ethereum.requests_per_min", 300)

	// Mainnet contract defaults
	v.SetDefault("contracts.permit2_address", "0x000000000022D473030F116dDEE9F6B43aC78BA3")
	v.SetDefault("contracts.position_manager_address", "0xC36442b4a4522E871399CD717aBDD847Ab11FE88")
	v.SetDefault("contracts.factory_address", "0x1F98431c8aD98523631AE4a59f267346ea31F984")

	// Pool defaults: WETH/USDC 0.3%
	v.SetDefault("pool.token0_symbol", "WETH")
	v.SetDefault("pool.token1_symbol", "USDC")
	v.SetDefault("pool.fee_tier", 3000)
	v.SetDefault("pool.tick_spacing", 60)

	// Deposit defaults
	v.SetDefault("deposit.slippage_bps", 50) // 0.5%
	v.SetDefault("deposit.deadline", "20m")
	v.SetDefault("deposit.permit_expiry", "720h") // 30 days
	v.SetDefault("deposit.quote_debounce", "300ms")
	v.SetDefault("deposit.receipt_timeout", "5m")
	v.SetDefault("deposit.receipt_interval", "4s")

	// Quote API defaults
	v.SetDefault("quote_api.enabled", false)
	v.SetDefault("quote_api.timeout", "10s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "lp-deposit")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Ethereum.HTTPURL == "" {
		return fmt.Errorf("ethereum.http_url is required")
	}
	if !common.IsHexAddress(c.Contracts.Permit2Address) {
		return fmt.Errorf("invalid contracts.permit2_address: %s", c.Contracts.Permit2Address)
	}
	if !common.IsHexAddress(c.Contracts.PositionManagerAddress) {
		return fmt.Errorf("invalid contracts.position_manager_address: %s", c.Contracts.PositionManagerAddress)
	}
	if c.Pool.PoolAddress != "" && !common.IsHexAddress(c.Pool.PoolAddress) {
		return fmt.Errorf("invalid pool.pool_address: %s", c.Pool.PoolAddress)
	}
	if c.Pool.Token0Symbol == "" || c.Pool.Token1Symbol == "" {
		return fmt.Errorf("pool token symbols are required")
	}
	if c.Pool.TickSpacing <= 0 {
		return fmt.Errorf("pool.tick_spacing must be positive")
	}
	if c.QuoteAPI.Enabled && c.QuoteAPI.BaseURL == "" {
		return fmt.Errorf("quote_api.base_url is required when quote_api.enabled")
	}
	return nil
}
