package config

import (
	"errors"
	"flag"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server-side settings
	DatabaseDSN string `env:"DATABASE_URI"`
	AuthSecret  string `env:"AUTH_SECRET"`
	DataDir     string `env:"DATA_DIR"`

	// Shared settings
	BaseURL     string `env:"BASE_URL"`
	EnableHTTPS bool   `env:"ENABLE_HTTPS"`
	TLSCertFile string `env:"TLS_CERT_FILE"`
	TLSKeyFile  string `env:"TLS_KEY_FILE"`

	// Admin: адрес для копий и уведомлений, список действующих секретов (ротация через запятую)
	AdminEmail   string   `env:"ADMIN_EMAIL"`
	AdminSecrets []string `env:"ADMIN_SECRETS" envSeparator:","`

	// SMTP; без хоста/логина уведомления только логируются
	SMTPHost      string        `env:"SMTP_HOST"`
	SMTPPort      int           `env:"SMTP_PORT"`
	SMTPUser      string        `env:"SMTP_USER"`
	SMTPPassword  string        `env:"SMTP_PASSWORD"`
	SMTPFrom      string        `env:"SMTP_FROM"`
	NotifyTimeout time.Duration `env:"NOTIFY_TIMEOUT"`

	SignatureMaxKB int `env:"SIGNATURE_MAX_KB"`

	ServerURL string `env:"-"`
	Version   bool   `env:"-"` // show version and exit (flag only)
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// flags работают ТОЛЬКО если переменные из env не заданы
	adminSecrets := strings.Join(cfg.AdminSecrets, ",")
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД (postgres://... или путь к файлу SQLite)")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет для подписи JWT")
	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "каталог данных")
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "address of the server (host:port)")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "serve HTTPS (requires -tls-cert and -tls-key)")
	flag.StringVar(&cfg.TLSCertFile, "tls-cert", cfg.TLSCertFile, "файл сертификата TLS")
	flag.StringVar(&cfg.TLSKeyFile, "tls-key", cfg.TLSKeyFile, "файл ключа TLS")
	flag.StringVar(&cfg.AdminEmail, "admin-email", cfg.AdminEmail, "e-mail администратора")
	flag.StringVar(&adminSecrets, "admin-secrets", adminSecrets, "секреты администратора через запятую")
	flag.StringVar(&cfg.SMTPHost, "smtp-host", cfg.SMTPHost, "SMTP server host")
	flag.IntVar(&cfg.SMTPPort, "smtp-port", cfg.SMTPPort, "SMTP server port")
	flag.IntVar(&cfg.SignatureMaxKB, "signature-max-kb", cfg.SignatureMaxKB, "максимальный размер изображения подписи, КБ")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show version and exit")

	flag.Parse()

	cfg.AdminSecrets = splitSecrets(adminSecrets)

	// Defaults
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = "dev-secret-key"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = filepath.Join(cfg.DataDir, "biomass.sqlite")
	}
	// validate BaseURL: must be in "address:port" (no scheme, no path). Otherwise use default.
	hostPortRe := regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:8081"
	}
	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
	}
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 587
	}
	if cfg.SMTPFrom == "" {
		cfg.SMTPFrom = cfg.SMTPUser
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 10 * time.Second
	}
	if cfg.SignatureMaxKB <= 0 {
		cfg.SignatureMaxKB = 512
	}

	return cfg
}

// Validate проверяет согласованность настроек перед запуском сервера.
func (c *Config) Validate() error {
	if c.EnableHTTPS && (c.TLSCertFile == "" || c.TLSKeyFile == "") {
		return errors.New("HTTPS enabled but TLS_CERT_FILE or TLS_KEY_FILE is not set")
	}
	return nil
}

// SMTPConfigured сообщает, достаточно ли настроек для реальной отправки почты.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SMTPUser != "" && c.SMTPPassword != ""
}

// SignatureMaxBytes лимит размера изображения подписи в байтах.
func (c *Config) SignatureMaxBytes() int {
	return c.SignatureMaxKB * 1024
}

func splitSecrets(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
