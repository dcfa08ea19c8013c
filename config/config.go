// Package config loads the service configuration from an optional YAML file
// and SHOWROOM_* environment variables, in that order of precedence.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
	Email    EmailConfig    `yaml:"email"`
	Notify   NotifyConfig   `yaml:"notify"`
	Storage  StorageConfig  `yaml:"storage"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	Env            string        `yaml:"env"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// AdminConfig is the single back-office credential.
type AdminConfig struct {
	Email         string `yaml:"email"`
	PasswordHash  string `yaml:"password_hash"`
	SessionSecret string `yaml:"session_secret"`
	SecureCookie  bool   `yaml:"secure_cookie"`
}

type EmailConfig struct {
	// Provider is one of mailgun, smtp or log.
	Provider       string `yaml:"provider"`
	From           string `yaml:"from"`
	AdminRecipient string `yaml:"admin_recipient"`
	MailgunDomain  string `yaml:"mailgun_domain"`
	MailgunAPIKey  string `yaml:"mailgun_api_key"`
	SMTPHost       string `yaml:"smtp_host"`
	SMTPPort       int    `yaml:"smtp_port"`
	SMTPUser       string `yaml:"smtp_user"`
	SMTPPassword   string `yaml:"smtp_password"`
}

type NotifyConfig struct {
	// FunctionURL, when set, makes order submission call the notification
	// function over HTTP instead of in process.
	FunctionURL string        `yaml:"function_url"`
	Timeout     time.Duration `yaml:"timeout"`
	// Secret is sent by the function client and required by the function
	// endpoint. The endpoint is not mounted without one.
	Secret string `yaml:"secret"`
}

type StorageConfig struct {
	BasePath string `yaml:"base_path"`
	BaseURL  string `yaml:"base_url"`
	MaxSize  int64  `yaml:"max_size"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":8080",
			Env:          "production",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Log: LogConfig{Level: "info"},
		Email: EmailConfig{
			Provider: "log",
			From:     "Oakhaus Showroom <no-reply@oakhaus.example>",
			SMTPPort: 587,
		},
		Notify: NotifyConfig{Timeout: 10 * time.Second},
		Storage: StorageConfig{
			BasePath: "./uploads",
			BaseURL:  "/media",
			MaxSize:  10 << 20,
		},
	}
}

// Load reads path (skipped when empty or missing) over the defaults, then
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, errors.Wrapf(err, "parse config file %s", path)
			}
		case os.IsNotExist(err):
		default:
			return cfg, errors.Wrapf(err, "read config file %s", path)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate checks the settings the service cannot start without.
func (c Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("database dsn is required")
	}
	switch c.Email.Provider {
	case "log":
	case "mailgun":
		if c.Email.MailgunDomain == "" || c.Email.MailgunAPIKey == "" {
			return errors.New("mailgun provider needs mailgun_domain and mailgun_api_key")
		}
	case "smtp":
		if c.Email.SMTPHost == "" {
			return errors.New("smtp provider needs smtp_host")
		}
	default:
		return errors.Errorf("unknown email provider %q", c.Email.Provider)
	}
	if c.Notify.FunctionURL != "" && c.Notify.Secret == "" {
		return errors.New("notify secret is required when function_url is set")
	}
	if c.Admin.Email != "" && c.Admin.SessionSecret == "" {
		return errors.New("admin session_secret is required when an admin is configured")
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	var convErr error
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok {
			d, err := cast.ToDurationE(v)
			if err != nil && convErr == nil {
				convErr = errors.Wrapf(err, "env %s", key)
			}
			*dst = d
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := cast.ToIntE(v)
			if err != nil && convErr == nil {
				convErr = errors.Wrapf(err, "env %s", key)
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			b, err := cast.ToBoolE(v)
			if err != nil && convErr == nil {
				convErr = errors.Wrapf(err, "env %s", key)
			}
			*dst = b
		}
	}

	str("SHOWROOM_ADDR", &cfg.Server.Addr)
	str("SHOWROOM_ENV", &cfg.Server.Env)
	dur("SHOWROOM_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	dur("SHOWROOM_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	if v, ok := lookup("SHOWROOM_ALLOWED_ORIGINS"); ok {
		cfg.Server.AllowedOrigins = splitList(v)
	}

	str("SHOWROOM_DATABASE_DSN", &cfg.Database.DSN)
	// DATABASE_URL is the name most hosting platforms inject.
	if cfg.Database.DSN == "" {
		str("DATABASE_URL", &cfg.Database.DSN)
	}

	str("SHOWROOM_LOG_LEVEL", &cfg.Log.Level)
	str("SHOWROOM_LOG_FILE", &cfg.Log.File)

	str("SHOWROOM_ADMIN_EMAIL", &cfg.Admin.Email)
	str("SHOWROOM_ADMIN_PASSWORD_HASH", &cfg.Admin.PasswordHash)
	str("SHOWROOM_SESSION_SECRET", &cfg.Admin.SessionSecret)
	boolean("SHOWROOM_SECURE_COOKIE", &cfg.Admin.SecureCookie)

	str("SHOWROOM_EMAIL_PROVIDER", &cfg.Email.Provider)
	str("SHOWROOM_EMAIL_FROM", &cfg.Email.From)
	str("SHOWROOM_EMAIL_ADMIN_RECIPIENT", &cfg.Email.AdminRecipient)
	str("SHOWROOM_MAILGUN_DOMAIN", &cfg.Email.MailgunDomain)
	str("SHOWROOM_MAILGUN_API_KEY", &cfg.Email.MailgunAPIKey)
	str("SHOWROOM_SMTP_HOST", &cfg.Email.SMTPHost)
	integer("SHOWROOM_SMTP_PORT", &cfg.Email.SMTPPort)
	str("SHOWROOM_SMTP_USER", &cfg.Email.SMTPUser)
	str("SHOWROOM_SMTP_PASSWORD", &cfg.Email.SMTPPassword)

	str("SHOWROOM_NOTIFY_FUNCTION_URL", &cfg.Notify.FunctionURL)
	dur("SHOWROOM_NOTIFY_TIMEOUT", &cfg.Notify.Timeout)
	str("SHOWROOM_NOTIFY_SECRET", &cfg.Notify.Secret)

	str("SHOWROOM_STORAGE_PATH", &cfg.Storage.BasePath)
	str("SHOWROOM_STORAGE_URL", &cfg.Storage.BaseURL)
	if v, ok := lookup("SHOWROOM_STORAGE_MAX_SIZE"); ok {
		n, err := cast.ToInt64E(v)
		if err != nil && convErr == nil {
			convErr = errors.Wrap(err, "env SHOWROOM_STORAGE_MAX_SIZE")
		}
		cfg.Storage.MaxSize = n
	}

	return convErr
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
