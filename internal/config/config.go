package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode      Mode   `yaml:"mode"`
	HTTPAddr  string `yaml:"http_addr"`
	PublicURL string `yaml:"public_url"`

	DBDriver string `yaml:"db_driver"` // sqlite|postgres|memory
	DBDSN    string `yaml:"db_dsn"`
	SiteID   string `yaml:"site_id"`

	BlobBasePath string `yaml:"blob_base_path"` // exports land here

	AuthHMACSecret  string `yaml:"auth_hmac_secret"`
	EnableLocalAuth bool   `yaml:"enable_local_auth"`

	AdminUser     string `yaml:"admin_user"`
	AdminPassHash string `yaml:"admin_pass_hash"` // bcrypt

	CORSOriginsOnline  []string `yaml:"cors_origins_online"`
	CORSOriginsOffline []string `yaml:"cors_origins_offline"`

	SessionTTL time.Duration `yaml:"session_ttl"`
}

// Defaults returns the configuration used when neither file nor env sets a key.
func Defaults() Config {
	return Config{
		Mode:               ModeOffline,
		HTTPAddr:           ":8080",
		DBDriver:           "sqlite",
		SiteID:             "local",
		BlobBasePath:       "./data",
		AuthHMACSecret:     "supersecret-dev-key",
		EnableLocalAuth:    true,
		AdminUser:          "admin",
		AdminPassHash:      "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji",
		CORSOriginsOnline:  []string{"https://qbank.mindengage.ai"},
		CORSOriginsOffline: []string{"http://localhost:3000", "http://localhost:3010"},
		SessionTTL:         2 * time.Hour,
	}
}

// Load reads an optional YAML file over the defaults, then applies env vars.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv is Load without a file.
func FromEnv() (Config, error) { return Load("") }

func (c *Config) applyEnv() error {
	c.Mode = Mode(envOr("MODE", string(c.Mode)))
	c.HTTPAddr = envOr("HTTP_ADDR", c.HTTPAddr)
	c.PublicURL = envOr("PUBLIC_URL", c.PublicURL)
	c.DBDriver = envOr("DB_DRIVER", c.DBDriver)
	c.DBDSN = envOr("DB_DSN", c.DBDSN)
	c.SiteID = envOr("SITE_ID", c.SiteID)
	c.BlobBasePath = envOr("BLOB_BASE_PATH", c.BlobBasePath)
	c.AuthHMACSecret = envOr("AUTH_HMAC_SECRET", c.AuthHMACSecret)
	c.EnableLocalAuth = envBool("ENABLE_LOCAL_AUTH", c.EnableLocalAuth)
	c.AdminUser = envOr("ADMIN_USER", c.AdminUser)
	c.AdminPassHash = envOr("ADMIN_PASS_HASH", c.AdminPassHash)
	c.CORSOriginsOnline = csvOr("CORS_ORIGINS_ONLINE", c.CORSOriginsOnline)
	c.CORSOriginsOffline = csvOr("CORS_ORIGINS_OFFLINE", c.CORSOriginsOffline)
	ttl, err := durationOr("SESSION_TTL", c.SessionTTL)
	if err != nil {
		return err
	}
	c.SessionTTL = ttl
	return nil
}

func (c Config) Validate() error {
	switch c.Mode {
	case ModeOffline, ModeOnline:
	default:
		return fmt.Errorf("config: unknown mode %q", c.Mode)
	}
	switch c.DBDriver {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("config: unsupported db driver %q", c.DBDriver)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("config: session ttl must be positive, got %s", c.SessionTTL)
	}
	if c.Mode == ModeOnline && c.AuthHMACSecret == Defaults().AuthHMACSecret {
		return fmt.Errorf("config: AUTH_HMAC_SECRET must be set in online mode")
	}
	if c.Mode == ModeOnline && c.EnableLocalAuth && c.AdminUser != "" &&
		c.AdminPassHash == Defaults().AdminPassHash {
		return fmt.Errorf("config: ADMIN_PASS_HASH must be set in online mode")
	}
	return nil
}

// CORSOrigins returns the allowed origins for the current mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func csvOr(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
func durationOr(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", k, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive, got %s", k, v)
	}
	return d, nil
}
