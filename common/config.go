package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type ConfigDB struct {
	Driver    string `json:"driver"` // postgres or sqlite
	Path      string `json:"path"`   // sqlite file
	IP        string `json:"ip"`
	User      string `json:"user"`
	Password  string `json:"password"`
	Name      string `json:"db"`
	UseSocket bool   `json:"use_socket"`
}

type ConfigCoin struct {
	APIBase        string `json:"api_base"`
	ClientID       string `json:"client_id"`
	ClientSecret   string `json:"client_secret"`
	TokenURL       string `json:"token_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	MaxRetries     int    `json:"max_retries"`
}

type ConfigMaintenance struct {
	IntervalMinutes int `json:"interval_minutes"`
}

type ConfigStr struct {
	DB                     *ConfigDB          `json:"db"`
	Coin                   *ConfigCoin        `json:"coin"`
	Maintenance            *ConfigMaintenance `json:"maintenance"`
	Port                   string             `json:"port"`
	BotToken               string             `json:"bot_token"`
	AdminToken             string             `json:"admin_token"`
	Debug                  bool               `json:"debug"`
	LogLevel               string             `json:"log_level"`
	FrontendTimeoutSeconds int                `json:"frontend_timeout_seconds"`
}

var Config *ConfigStr

// LoadConfig reads .env (if present) and the JSON config at path. Environment
// variables override the file for secrets and deployment specific values.
func LoadConfig(path string) (*ConfigStr, error) {
	_ = godotenv.Load()

	cfg := &ConfigStr{}

	f, err := os.Open(path)
	switch {
	case err == nil:
		err = json.NewDecoder(f).Decode(cfg)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// env only
	default:
		return nil, err
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	Config = cfg
	return cfg, nil
}

func applyEnv(cfg *ConfigStr) {
	if cfg.DB == nil {
		cfg.DB = &ConfigDB{}
	}
	if cfg.Coin == nil {
		cfg.Coin = &ConfigCoin{}
	}
	if cfg.Maintenance == nil {
		cfg.Maintenance = &ConfigMaintenance{}
	}

	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.BotToken = v
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		cfg.AdminToken = v
	}
	if v := os.Getenv("COIN_API_BASE"); v != "" {
		cfg.Coin.APIBase = v
	}
	if v := os.Getenv("COIN_CLIENT_SECRET"); v != "" {
		cfg.Coin.ClientSecret = v
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.DB.Driver = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DB.Path = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.DB.Password = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
}

func applyDefaults(cfg *ConfigStr) {
	if cfg.DB.Driver == "" {
		cfg.DB.Driver = "sqlite"
	}
	if cfg.DB.Driver == "sqlite" && cfg.DB.Path == "" {
		cfg.DB.Path = "file:database.db?_pragma=journal_mode(WAL)"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = Ternary(cfg.Debug, "debug", "info")
	}
	if cfg.FrontendTimeoutSeconds <= 0 {
		cfg.FrontendTimeoutSeconds = 10
	}
	if cfg.Coin.TimeoutSeconds <= 0 {
		cfg.Coin.TimeoutSeconds = 15
	}
	if cfg.Coin.MaxRetries < 0 {
		cfg.Coin.MaxRetries = 0
	}
	if cfg.Maintenance.IntervalMinutes <= 0 {
		cfg.Maintenance.IntervalMinutes = 5
	}
}

func (cfg *ConfigStr) Validate() error {
	switch cfg.DB.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported db driver %q", cfg.DB.Driver)
	}
	if cfg.Coin.ClientID != "" && cfg.Coin.TokenURL == "" {
		return errors.New("coin.token_url is required when coin.client_id is set")
	}
	return nil
}

func (cfg *ConfigStr) FrontendTimeout() time.Duration {
	return time.Duration(cfg.FrontendTimeoutSeconds) * time.Second
}

func (cfg *ConfigStr) PaymentTimeout() time.Duration {
	return time.Duration(cfg.Coin.TimeoutSeconds) * time.Second
}

func (cfg *ConfigStr) MaintenanceInterval() time.Duration {
	return time.Duration(cfg.Maintenance.IntervalMinutes) * time.Minute
}
