package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env     string `yaml:"app_env"`
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		ReadTimeout        string   `yaml:"read_timeout"`
		WriteTimeout       string   `yaml:"write_timeout"`
	} `yaml:"server"`

	Storage struct {
		Postgres struct {
			DSN             string `yaml:"dsn"`
			MaxOpenConns    int    `yaml:"max_open_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis: backend para sesiones y limiters secundarios.
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		From               string `yaml:"from"`
		TLS                string `yaml:"tls"`                  // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"` // sólo dev
		Timeout            string `yaml:"timeout"`
	} `yaml:"smtp"`

	Email struct {
		BaseURL        string `yaml:"base_url"`
		DebugEchoLinks bool   `yaml:"debug_echo_links"`
	} `yaml:"email"`

	Auth struct {
		Session struct {
			TTL string `yaml:"ttl"`
		} `yaml:"session"`
		Verify struct {
			TTL string `yaml:"ttl"`
		} `yaml:"verify"`
		Reset struct {
			TTL string `yaml:"ttl"`
		} `yaml:"reset"`
		Lockout struct {
			Threshold int    `yaml:"threshold"`
			Duration  string `yaml:"duration"`
		} `yaml:"lockout"`
	} `yaml:"auth"`

	Rate struct {
		Enabled bool `yaml:"enabled"`

		Forgot struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"forgot"`

		Resend struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"resend"`
	} `yaml:"rate"`

	Events struct {
		// redis | nop
		Kind string `yaml:"kind"`
	} `yaml:"events"`

	Security struct {
		PasswordPolicy struct {
			MinLength     int  `yaml:"min_length"`
			RequireUpper  bool `yaml:"require_upper"`
			RequireLower  bool `yaml:"require_lower"`
			RequireDigit  bool `yaml:"require_digit"`
			RequireSymbol bool `yaml:"require_symbol"`
		} `yaml:"password_policy"`
	} `yaml:"security"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	c.applyEnv()
	return &c, nil
}

// FromEnv construye una configuración sin archivo YAML, solo defaults + env.
func FromEnv() *Config {
	c := &Config{}
	c.applyDefaults()
	c.applyEnv()
	return c
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.Name == "" {
		c.App.Name = "identity-service"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "30s"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "2m"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "ids:"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.TLS == "" {
		c.SMTP.TLS = "auto"
	}
	if c.SMTP.Timeout == "" {
		c.SMTP.Timeout = "5s"
	}
	if c.Email.BaseURL == "" {
		c.Email.BaseURL = "http://localhost:8080"
	}
	if c.Auth.Session.TTL == "" {
		c.Auth.Session.TTL = "24h"
	}
	if c.Auth.Verify.TTL == "" {
		c.Auth.Verify.TTL = "24h"
	}
	if c.Auth.Reset.TTL == "" {
		c.Auth.Reset.TTL = "24h"
	}
	if c.Auth.Lockout.Threshold == 0 {
		c.Auth.Lockout.Threshold = 5
	}
	if c.Auth.Lockout.Duration == "" {
		c.Auth.Lockout.Duration = "30m"
	}
	if c.Rate.Forgot.Limit == 0 {
		c.Rate.Forgot.Limit = 3
	}
	if c.Rate.Forgot.Window == "" {
		c.Rate.Forgot.Window = "1h"
	}
	if c.Rate.Resend.Limit == 0 {
		c.Rate.Resend.Limit = 3
	}
	if c.Rate.Resend.Window == "" {
		c.Rate.Resend.Window = "1h"
	}
	if c.Events.Kind == "" {
		c.Events.Kind = "nop"
	}
	if c.Security.PasswordPolicy.MinLength == 0 {
		c.Security.PasswordPolicy.MinLength = 8
		c.Security.PasswordPolicy.RequireUpper = true
		c.Security.PasswordPolicy.RequireLower = true
		c.Security.PasswordPolicy.RequireDigit = true
		c.Security.PasswordPolicy.RequireSymbol = true
	}
}

// applyEnv pisa valores con variables de entorno (12-factor).
func (c *Config) applyEnv() {
	setStr(&c.App.Env, "APP_ENV")
	setStr(&c.Server.Addr, "SERVER_ADDR")
	if v := strings.TrimSpace(os.Getenv("SERVER_CORS_ALLOWED_ORIGINS")); v != "" {
		c.Server.CORSAllowedOrigins = splitCSV(v)
	}
	setStr(&c.Storage.Postgres.DSN, "POSTGRES_DSN")
	setInt(&c.Storage.Postgres.MaxOpenConns, "POSTGRES_MAX_OPEN_CONNS")
	setStr(&c.Cache.Kind, "CACHE_KIND")
	setStr(&c.Cache.Redis.Addr, "REDIS_ADDR")
	setInt(&c.Cache.Redis.DB, "REDIS_DB")
	setStr(&c.SMTP.Host, "SMTP_HOST")
	setInt(&c.SMTP.Port, "SMTP_PORT")
	setStr(&c.SMTP.Username, "SMTP_USERNAME")
	setStr(&c.SMTP.Password, "SMTP_PASSWORD")
	setStr(&c.SMTP.From, "SMTP_FROM")
	setStr(&c.SMTP.TLS, "SMTP_TLS")
	setStr(&c.Email.BaseURL, "EMAIL_BASE_URL")
	setBool(&c.Email.DebugEchoLinks, "EMAIL_DEBUG_ECHO_LINKS")
	setStr(&c.Auth.Session.TTL, "SESSION_TTL")
	setStr(&c.Auth.Verify.TTL, "VERIFY_TTL")
	setStr(&c.Auth.Reset.TTL, "RESET_TTL")
	setInt(&c.Auth.Lockout.Threshold, "LOCKOUT_THRESHOLD")
	setStr(&c.Auth.Lockout.Duration, "LOCKOUT_DURATION")
	setBool(&c.Rate.Enabled, "RATE_ENABLED")
	setStr(&c.Events.Kind, "EVENTS_KIND")
}

// Dur parsea una duración con fallback.
func Dur(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil && d > 0 {
		return d
	}
	return def
}

func setStr(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
