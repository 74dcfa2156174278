package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"YieldSentinel/internal/collector"
	"YieldSentinel/internal/model"
	"YieldSentinel/internal/scheduler"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when neither --config nor CONFIG_PATH is given.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	App struct {
		Env string `yaml:"env"`
	} `yaml:"app"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Chain struct {
		RPCURL  string        `yaml:"rpc_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"chain"`
	Scan struct {
		Schedule   string `yaml:"schedule"`
		RunOnStart *bool  `yaml:"run_on_start"`
	} `yaml:"scan"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	// WalletAddress seeds the watched address when none is stored yet.
	WalletAddress string        `yaml:"wallet_address"`
	Tokens        []model.Token `yaml:"tokens"`
	Proxy         string        `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// ResolvePath picks the config file: explicit flag, then CONFIG_PATH, then DefaultPath.
func ResolvePath(flag string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("APP_ENV"); v != "" {
		c.App.Env = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("RPC_URL"); v != "" {
		c.Chain.RPCURL = v
	}
	if v := os.Getenv("RPC_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("RPC_TIMEOUT: %w", err)
		}
		c.Chain.Timeout = d
	}
	if v := os.Getenv("SCHEDULER_INTERVAL_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("SCHEDULER_INTERVAL_SECONDS: %q is not a positive integer", v)
		}
		c.Scan.Schedule = fmt.Sprintf("@every %ds", n)
	}
	// An explicit schedule wins over the interval shortcut.
	if v := os.Getenv("SCAN_SCHEDULE"); v != "" {
		c.Scan.Schedule = v
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RUN_ON_START: %w", err)
		}
		c.Scan.RunOnStart = &b
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("WALLET_ADDRESS"); v != "" {
		c.WalletAddress = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "development"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/yield_sentinel.db"
	}
	if c.Chain.RPCURL == "" {
		c.Chain.RPCURL = "https://ethereum.publicnode.com"
	}
	if c.Chain.Timeout == 0 {
		c.Chain.Timeout = 15 * time.Second
	}
	if c.Scan.Schedule == "" {
		c.Scan.Schedule = scheduler.DefaultSchedule
	}
	if c.Scan.RunOnStart == nil {
		on := true
		c.Scan.RunOnStart = &on
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
}

// RunOnStart reports whether the loop scans immediately on start.
func (c *Config) RunOnStart() bool {
	return c.Scan.RunOnStart == nil || *c.Scan.RunOnStart
}

// TelegramEnabled reports whether the bot should run.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != ""
}

// TelegramChatID parses the configured chat id.
func (c *Config) TelegramChatID() (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Telegram.ChatID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram.chat_id %q is not numeric", c.Telegram.ChatID)
	}
	return id, nil
}

// Validate checks that all required fields are set and well formed.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.Chain.RPCURL)
	switch {
	case c.Chain.RPCURL == "":
		errs = append(errs, errors.New("chain.rpc_url is required"))
	case err != nil || u.Host == "":
		errs = append(errs, fmt.Errorf("chain.rpc_url %q is not a valid URL", c.Chain.RPCURL))
	case u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "ws" && u.Scheme != "wss":
		errs = append(errs, fmt.Errorf("chain.rpc_url scheme %q is not supported", u.Scheme))
	}
	if c.Chain.Timeout <= 0 {
		errs = append(errs, errors.New("chain.timeout must be positive"))
	}
	if _, err := scheduler.ParseSchedule(c.Scan.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("scan.schedule: %w", err))
	}
	if c.Database.SQLitePath == "" {
		errs = append(errs, errors.New("database.sqlite_path is required"))
	}
	if c.TelegramEnabled() {
		if _, err := c.TelegramChatID(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.WalletAddress != "" {
		if _, err := collector.ParseAddress(c.WalletAddress); err != nil {
			errs = append(errs, fmt.Errorf("wallet_address: %w", err))
		}
	}
	for i, t := range c.Tokens {
		if t.Symbol == "" {
			errs = append(errs, fmt.Errorf("tokens[%d].symbol is required", i))
		}
		if t.Kind == model.KindERC20 {
			if _, err := collector.ParseAddress(t.Contract); err != nil {
				errs = append(errs, fmt.Errorf("tokens[%d].contract: %w", i, err))
			}
		} else if t.Kind != model.KindNative {
			errs = append(errs, fmt.Errorf("tokens[%d].kind %q must be native or erc20", i, t.Kind))
		}
	}
	return errors.Join(errs...)
}
