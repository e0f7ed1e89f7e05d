package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "adapta/internal/shared/config"
)

type Config struct {
	Server      sharedConfig.ServerConfig      `mapstructure:"server"`
	Database    sharedConfig.DatabaseConfig    `mapstructure:"database"`
	Logger      sharedConfig.LoggerConfig      `mapstructure:"logger"`
	Redis       sharedConfig.RedisConfig       `mapstructure:"redis"`
	Provider    sharedConfig.ProviderConfig    `mapstructure:"provider"`
	Session     sharedConfig.SessionConfig     `mapstructure:"session"`
	Entitlement sharedConfig.EntitlementConfig `mapstructure:"entitlement"`
	Cookie      sharedConfig.CookieConfig      `mapstructure:"cookie"`
	Timezone    string                         `mapstructure:"timezone"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables
func Load(env string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	viper.SetEnvPrefix("ADAPTA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional; env vars and defaults carry a dev setup.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		viper.Set("server.mode", env)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("server.base_url", "http://localhost:8080")
	viper.SetDefault("server.frontend_callback_url", "http://localhost:3000/callback")

	// Database defaults
	viper.SetDefault("database.driver", "mysql")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "root")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "adapta_dev")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Identity provider defaults (must be configured per deployment)
	viper.SetDefault("provider.client_id", "")
	viper.SetDefault("provider.client_secret", "")
	viper.SetDefault("provider.redirect_url", "http://localhost:8080/callback")
	viper.SetDefault("provider.scopes", []string{"openid", "profile", "email"})
	viper.SetDefault("provider.signup_hint_key", "screen_hint")
	viper.SetDefault("provider.signup_hint_value", "signup")
	viper.SetDefault("provider.timeout_seconds", 30)

	// Session defaults
	viper.SetDefault("session.store_secret", "change-me-in-production")
	viper.SetDefault("session.state_ttl_minutes", 10)
	viper.SetDefault("session.jwt.secret", "change-me-in-production")
	viper.SetDefault("session.jwt.access_exp_minutes", 15)
	viper.SetDefault("session.jwt.refresh_exp_days", 7)

	// Entitlement defaults
	viper.SetDefault("entitlement.default_monthly_limit", 10)
	viper.SetDefault("entitlement.invite_click_reward", 1)
	viper.SetDefault("entitlement.weekly_click_reward_cap", 5)
	viper.SetDefault("entitlement.invite_registration_bonus", 3)

	// Cookie defaults
	viper.SetDefault("cookie.domain", "")
	viper.SetDefault("cookie.path", "/")
	viper.SetDefault("cookie.secure", false)
	viper.SetDefault("cookie.same_site", "Lax")

	viper.SetDefault("timezone", "UTC")
}
