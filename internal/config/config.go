package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port     string
	DBDriver string
	DBDSN    string

	UploadDir      string
	UploadURL      string
	UploadMaxBytes int64
	BodyLimit      int

	SessionTTL   time.Duration
	ItemsPerPage int
	StaticDir    string

	LogLevel string
	LogFile  string

	LoginRateMax    int
	LoginRateWindow time.Duration

	WooCommerce WooCommerce
}

// WooCommerce holds the legacy catalog proxy settings. An empty StoreURL
// disables the proxy routes.
type WooCommerce struct {
	StoreURL       string
	ConsumerKey    string
	ConsumerSecret string
	APIVersion     string
	Timeout        time.Duration
}

func (w WooCommerce) Enabled() bool { return w.StoreURL != "" }

func defaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db_driver", "mysql")
	v.SetDefault("db_dsn", "root:@tcp(localhost:3306)/alugserv_db?charset=utf8mb4&loc=UTC")
	v.SetDefault("upload_dir", "./uploads")
	v.SetDefault("upload_url", "/uploads")
	v.SetDefault("upload_max_bytes", 5<<20)
	v.SetDefault("body_limit", 8<<20)
	v.SetDefault("session_ttl", "168h")
	v.SetDefault("items_per_page", 12)
	v.SetDefault("static_dir", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("login_rate_max", 10)
	v.SetDefault("login_rate_window", "10m")
	v.SetDefault("wc_store_url", "")
	v.SetDefault("wc_consumer_key", "")
	v.SetDefault("wc_consumer_secret", "")
	v.SetDefault("wc_api_version", "wc/v3")
	v.SetDefault("wc_timeout", "30s")
}

// Load reads .env (if present), the optional config file and the process
// environment, in increasing order of precedence.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	defaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	cfg := Config{
		Port:            v.GetString("port"),
		DBDriver:        strings.ToLower(v.GetString("db_driver")),
		DBDSN:           v.GetString("db_dsn"),
		UploadDir:       v.GetString("upload_dir"),
		UploadURL:       strings.TrimRight(v.GetString("upload_url"), "/"),
		UploadMaxBytes:  v.GetInt64("upload_max_bytes"),
		BodyLimit:       v.GetInt("body_limit"),
		SessionTTL:      v.GetDuration("session_ttl"),
		ItemsPerPage:    v.GetInt("items_per_page"),
		StaticDir:       v.GetString("static_dir"),
		LogLevel:        v.GetString("log_level"),
		LogFile:         v.GetString("log_file"),
		LoginRateMax:    v.GetInt("login_rate_max"),
		LoginRateWindow: v.GetDuration("login_rate_window"),
		WooCommerce: WooCommerce{
			StoreURL:       strings.TrimRight(v.GetString("wc_store_url"), "/"),
			ConsumerKey:    v.GetString("wc_consumer_key"),
			ConsumerSecret: v.GetString("wc_consumer_secret"),
			APIVersion:     v.GetString("wc_api_version"),
			Timeout:        v.GetDuration("wc_timeout"),
		},
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DBDriver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want mysql or sqlite)", c.DBDriver)
	}
	if c.DBDSN == "" {
		return errors.New("DB_DSN is empty")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.ItemsPerPage <= 0 {
		return errors.New("ITEMS_PER_PAGE must be positive")
	}
	return nil
}

// Fields is the loggable subset; the DSN and WooCommerce secrets are left out.
func (c Config) Fields() map[string]any {
	return map[string]any{
		"port":        c.Port,
		"db_driver":   c.DBDriver,
		"upload_dir":  c.UploadDir,
		"upload_url":  c.UploadURL,
		"static_dir":  c.StaticDir,
		"log_file":    c.LogFile,
		"session_ttl": c.SessionTTL.String(),
		"woocommerce": c.WooCommerce.Enabled(),
	}
}
