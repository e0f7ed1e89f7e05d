package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host                string   `mapstructure:"host"`
	Port                int      `mapstructure:"port"`
	Mode                string   `mapstructure:"mode"`
	BaseURL             string   `mapstructure:"base_url"`
	AllowedOrigins      []string `mapstructure:"allowed_origins"`
	FrontendCallbackURL string   `mapstructure:"frontend_callback_url"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	if d.Driver == "sqlite" {
		return d.Database
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ProviderConfig describes the external identity provider endpoints. The
// provider is treated as a black box; only the OAuth2/OIDC surface is assumed.
type ProviderConfig struct {
	ClientID       string   `mapstructure:"client_id"`
	ClientSecret   string   `mapstructure:"client_secret"`
	AuthURL        string   `mapstructure:"auth_url"`
	TokenURL       string   `mapstructure:"token_url"`
	UserInfoURL    string   `mapstructure:"userinfo_url"`
	LogoutURL      string   `mapstructure:"logout_url"`
	RedirectURL    string   `mapstructure:"redirect_url"`
	Scopes         []string `mapstructure:"scopes"`
	SignupHintKey  string   `mapstructure:"signup_hint_key"`
	SignupHintVal  string   `mapstructure:"signup_hint_value"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
}

func (p *ProviderConfig) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

type JWTConfig struct {
	Secret           string `mapstructure:"secret"`
	AccessExpMinutes int    `mapstructure:"access_exp_minutes"`
	RefreshExpDays   int    `mapstructure:"refresh_exp_days"`
}

// SessionConfig covers the local session machinery: the encrypted envelope
// store, state TTL for in-flight login attempts, and local token issuance.
type SessionConfig struct {
	StoreSecret     string    `mapstructure:"store_secret"`
	StateTTLMinutes int       `mapstructure:"state_ttl_minutes"`
	JWT             JWTConfig `mapstructure:"jwt"`
}

func (s *SessionConfig) StateTTL() time.Duration {
	if s.StateTTLMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(s.StateTTLMinutes) * time.Minute
}

// EntitlementConfig holds the consumable quota defaults.
type EntitlementConfig struct {
	DefaultMonthlyLimit     int `mapstructure:"default_monthly_limit"`
	InviteClickReward       int `mapstructure:"invite_click_reward"`
	WeeklyClickRewardCap    int `mapstructure:"weekly_click_reward_cap"`
	InviteRegistrationBonus int `mapstructure:"invite_registration_bonus"`
}

type CookieConfig struct {
	Domain   string `mapstructure:"domain"`
	Path     string `mapstructure:"path"`
	Secure   bool   `mapstructure:"secure"`
	SameSite string `mapstructure:"same_site"`
}
