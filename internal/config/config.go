// Package config loads the dashboard configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"StockDash/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr           string        `yaml:"addr"`
		ReadTimeout    time.Duration `yaml:"read_timeout"`
		WriteTimeout   time.Duration `yaml:"write_timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
		TemplatesDir   string        `yaml:"templates_dir"`
		SecureCookies  bool          `yaml:"secure_cookies"`
	} `yaml:"server"`
	DataSource struct {
		Provider       string        `yaml:"provider"` // "yahoo" or "mock"
		DefaultSymbol  string        `yaml:"default_symbol"`
		DefaultDays    int           `yaml:"default_days"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		MaxRetries     int           `yaml:"max_retries"`
		RetryDelay     time.Duration `yaml:"retry_delay"`
	} `yaml:"data_source"`
	Live struct {
		TickerInterval time.Duration `yaml:"ticker_interval"`
		IndexInterval  time.Duration `yaml:"index_interval"`
		StagnantAfter  time.Duration `yaml:"stagnant_after"`
	} `yaml:"live"`
	Forecast struct {
		DefaultHorizon int    `yaml:"default_horizon"`
		Seed           uint64 `yaml:"seed"`
	} `yaml:"forecast"`
	Storage struct {
		Driver      string `yaml:"driver"` // "json" or "postgres"
		DataDir     string `yaml:"data_dir"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"storage"`
	Auth struct {
		TokenTTL   time.Duration `yaml:"token_ttl"`
		BcryptCost int           `yaml:"bcrypt_cost"`
		SessionTTL time.Duration `yaml:"session_ttl"`
		BaseURL    string        `yaml:"base_url"`
	} `yaml:"auth"`
	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
	} `yaml:"smtp"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Translate struct {
		Endpoint string `yaml:"endpoint"`
		Email    string `yaml:"email"`
	} `yaml:"translate"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		CleanupCron string        `yaml:"cleanup_cron"`
		MoversCron  string        `yaml:"movers_cron"`
		PruneCron   string        `yaml:"prune_cron"`
		Retention   time.Duration `yaml:"retention"`
	} `yaml:"schedule"`
	Indices []model.IndexTicker `yaml:"indices"`
	Proxy   string              `yaml:"proxy"`
}

// DefaultIndices is the index strip shown when none are configured.
var DefaultIndices = []model.IndexTicker{
	{Name: "Nifty 50", Ticker: "^NSEI"},
	{Name: "Nifty Bank", Ticker: "^NSEBANK"},
	{Name: "Sensex", Ticker: "^BSESN"},
	{Name: "Finnifty", Ticker: "NIFTY_FIN_SERVICE.NS"},
	{Name: "Nifty 100", Ticker: "^CNX100"},
	{Name: "S&P 500", Ticker: "^GSPC"},
	{Name: "Dow Jones", Ticker: "^DJI"},
}

// Load reads config from a YAML file, then applies environment variable overrides.
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

	// Environment variable overrides
	setString(&cfg.Server.Addr, "HTTP_ADDR")
	setString(&cfg.DataSource.Provider, "DATA_PROVIDER")
	setString(&cfg.Storage.Driver, "STORAGE_DRIVER")
	setString(&cfg.Storage.DataDir, "DATA_DIR")
	setString(&cfg.Storage.PostgresDSN, "DATABASE_URL")
	setString(&cfg.Auth.BaseURL, "BASE_URL")
	setString(&cfg.SMTP.Host, "SMTP_HOST")
	setString(&cfg.SMTP.Username, "SMTP_USERNAME")
	setString(&cfg.SMTP.Password, "SMTP_PASSWORD")
	setString(&cfg.SMTP.From, "SMTP_FROM")
	setString(&cfg.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&cfg.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	setString(&cfg.Translate.Email, "TRANSLATE_EMAIL")
	setString(&cfg.Database.SQLitePath, "SQLITE_PATH")
	setString(&cfg.Proxy, "HTTPS_PROXY")
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.SMTP.Port = port
		}
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = strings.Split(v, ",")
	}

	cfg.applyDefaults()
	return cfg, nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.DataSource.DefaultSymbol == "" {
		c.DataSource.DefaultSymbol = "SPY"
	}
	if c.DataSource.DefaultDays == 0 {
		c.DataSource.DefaultDays = 3000
	}
	if c.DataSource.RequestTimeout == 0 {
		c.DataSource.RequestTimeout = 20 * time.Second
	}
	if c.DataSource.MaxRetries == 0 {
		c.DataSource.MaxRetries = 2
	}
	if c.DataSource.RetryDelay == 0 {
		c.DataSource.RetryDelay = time.Second
	}
	if c.Live.TickerInterval == 0 {
		c.Live.TickerInterval = 15 * time.Second
	}
	if c.Live.IndexInterval == 0 {
		c.Live.IndexInterval = time.Second
	}
	if c.Live.StagnantAfter == 0 {
		c.Live.StagnantAfter = 5 * time.Minute
	}
	if c.Forecast.DefaultHorizon == 0 {
		c.Forecast.DefaultHorizon = 5
	}
	if c.Forecast.Seed == 0 {
		c.Forecast.Seed = 7
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "json"
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Auth.SessionTTL == 0 {
		c.Auth.SessionTTL = 12 * time.Hour
	}
	if c.Auth.BaseURL == "" {
		c.Auth.BaseURL = "http://localhost" + c.Server.Addr
		if !strings.HasPrefix(c.Server.Addr, ":") {
			c.Auth.BaseURL = "http://" + c.Server.Addr
		}
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.From == "" {
		c.SMTP.From = c.SMTP.Username
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/stockdash.db"
	}
	if c.Schedule.CleanupCron == "" {
		c.Schedule.CleanupCron = "0 0 * * * *"
	}
	if c.Schedule.MoversCron == "" {
		c.Schedule.MoversCron = "0 */5 * * * *"
	}
	if c.Schedule.PruneCron == "" {
		c.Schedule.PruneCron = "0 30 3 * * *"
	}
	if c.Schedule.Retention == 0 {
		c.Schedule.Retention = 90 * 24 * time.Hour
	}
	if len(c.Indices) == 0 {
		c.Indices = append([]model.IndexTicker(nil), DefaultIndices...)
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	default:
		return fmt.Errorf("data_source.provider must be yahoo or mock, got %q", c.DataSource.Provider)
	}
	switch c.Storage.Driver {
	case "json":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("storage.driver must be json or postgres, got %q", c.Storage.Driver)
	}
	if c.DataSource.DefaultDays <= 0 {
		return fmt.Errorf("data_source.default_days must be positive")
	}
	if c.Forecast.DefaultHorizon <= 0 {
		return fmt.Errorf("forecast.default_horizon must be positive")
	}
	if c.Live.StagnantAfter < c.Live.TickerInterval {
		return fmt.Errorf("live.stagnant_after must be at least live.ticker_interval")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	for _, ix := range c.Indices {
		if ix.Name == "" || ix.Ticker == "" {
			return fmt.Errorf("indices entries need both name and ticker")
		}
	}
	return nil
}

// MailEnabled reports whether reset links can be mailed.
func (c *Config) MailEnabled() bool { return c.SMTP.Host != "" }

// TelegramEnabled reports whether operator notifications are configured.
func (c *Config) TelegramEnabled() bool { return c.Telegram.BotToken != "" }
