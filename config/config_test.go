package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(env map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := applyEnv(&cfg, mapLookup(map[string]string{
		"SHOWROOM_ADDR":             ":9090",
		"DATABASE_URL":              "postgres://localhost/showroom",
		"SHOWROOM_READ_TIMEOUT":     "5s",
		"SHOWROOM_SMTP_PORT":        "2525",
		"SHOWROOM_SECURE_COOKIE":    "true",
		"SHOWROOM_ALLOWED_ORIGINS":  "https://a.example, https://b.example,",
		"SHOWROOM_STORAGE_MAX_SIZE": "1024",
		"SHOWROOM_NOTIFY_SECRET":    "s3cret",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "postgres://localhost/showroom", cfg.Database.DSN)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 2525, cfg.Email.SMTPPort)
	assert.True(t, cfg.Admin.SecureCookie)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, int64(1024), cfg.Storage.MaxSize)
	assert.Equal(t, "s3cret", cfg.Notify.Secret)
}

func TestApplyEnvPrefersShowroomDSN(t *testing.T) {
	cfg := Default()
	err := applyEnv(&cfg, mapLookup(map[string]string{
		"SHOWROOM_DATABASE_DSN": "postgres://primary",
		"DATABASE_URL":          "postgres://fallback",
	}))
	require.NoError(t, err)
	assert.Equal(t, "postgres://primary", cfg.Database.DSN)
}

func TestApplyEnvRejectsBadNumbers(t *testing.T) {
	cfg := Default()
	err := applyEnv(&cfg, mapLookup(map[string]string{"SHOWROOM_SMTP_PORT": "not-a-port"}))
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":7000"
  env: development
database:
  dsn: postgres://file/showroom
email:
  provider: smtp
  smtp_host: mail.example
  admin_recipient: owner@example.com
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "smtp", cfg.Email.Provider)
	assert.Equal(t, 587, cfg.Email.SMTPPort, "defaults survive a partial file")
	assert.Equal(t, "./uploads", cfg.Storage.BasePath)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults with dsn", mutate: func(c *Config) {}},
		{name: "missing dsn", mutate: func(c *Config) { c.Database.DSN = "" }, wantErr: true},
		{name: "mailgun without key", mutate: func(c *Config) { c.Email.Provider = "mailgun" }, wantErr: true},
		{name: "smtp without host", mutate: func(c *Config) { c.Email.Provider = "smtp" }, wantErr: true},
		{name: "unknown provider", mutate: func(c *Config) { c.Email.Provider = "pigeon" }, wantErr: true},
		{name: "admin without secret", mutate: func(c *Config) { c.Admin.Email = "admin@example.com" }, wantErr: true},
		{name: "function url without secret", mutate: func(c *Config) { c.Notify.FunctionURL = "https://fn.example/send" }, wantErr: true},
		{name: "function url with secret", mutate: func(c *Config) {
			c.Notify.FunctionURL = "https://fn.example/send"
			c.Notify.Secret = "s3cret"
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.Database.DSN = "postgres://localhost/showroom"
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
