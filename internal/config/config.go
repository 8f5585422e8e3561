package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "WEEDWATCH_"

// ErrMissingSecret is returned when a required credential resolves to an empty value.
var ErrMissingSecret = errors.New("missing secret")

var validate = validator.New()

type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server"`
	Database      DatabaseConfig       `koanf:"database"`
	Storage       StorageConfig        `koanf:"storage"`
	Report        ReportConfig         `koanf:"report"`
	Mail          MailConfig           `koanf:"mail"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port            string        `koanf:"port" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"required"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes" validate:"gt=0"`
}

type DatabaseConfig struct {
	Driver       string `koanf:"driver" validate:"required,oneof=sqlite postgres"`
	Path         string `koanf:"path" validate:"required_if=Driver sqlite"`
	URL          string `koanf:"url" validate:"required_if=Driver postgres"`
	MaxOpenConns int    `koanf:"max_open_conns" validate:"gte=0"`
}

type StorageConfig struct {
	Backend string    `koanf:"backend" validate:"required,oneof=local s3"`
	RawDir  string    `koanf:"raw_dir" validate:"required_if=Backend local"`
	S3      *S3Config `koanf:"s3" validate:"required_if=Backend s3"`
}

// S3Config points the raw store at an S3-compatible bucket (Akave O3, MinIO, AWS).
type S3Config struct {
	Endpoint      string `koanf:"endpoint" validate:"required"`
	Region        string `koanf:"region"`
	Bucket        string `koanf:"bucket" validate:"required"`
	Prefix        string `koanf:"prefix"`
	AccessKey     string `koanf:"access_key" validate:"required"`
	SecretKey     string `koanf:"secret_key"`
	SecretKeyFile string `koanf:"secret_key_file"`
}

type ReportConfig struct {
	OutputDir       string        `koanf:"output_dir" validate:"required"`
	Format          string        `koanf:"format" validate:"required,oneof=html geojson"`
	CategoriesFile  string        `koanf:"categories_file"`
	CenterLatitude  float64       `koanf:"center_latitude" validate:"gte=-90,lte=90"`
	CenterLongitude float64       `koanf:"center_longitude" validate:"gte=-180,lte=180"`
	Zoom            int           `koanf:"zoom" validate:"gte=0,lte=22"`
	Popup           string        `koanf:"popup"`
	MaxRetries      int           `koanf:"max_retries" validate:"gte=0"`
	BaseDelay       time.Duration `koanf:"base_delay" validate:"gt=0"`
	MaxDelay        time.Duration `koanf:"max_delay" validate:"gtefield=BaseDelay"`
}

type MailConfig struct {
	Host         string        `koanf:"host" validate:"required,hostname|ip"`
	Port         int           `koanf:"port" validate:"required,gt=0,lt=65536"`
	Username     string        `koanf:"username" validate:"required"`
	Password     string        `koanf:"password"`
	PasswordFile string        `koanf:"password_file"`
	From         string        `koanf:"from" validate:"required,email"`
	To           string        `koanf:"to" validate:"required,email"`
	Subject      string        `koanf:"subject" validate:"required"`
	Body         string        `koanf:"body"`
	Timeout      time.Duration `koanf:"timeout" validate:"gt=0"`
}

// Default returns the configuration used when no environment overrides are set.
func Default() *Config {
	return &Config{
		Primary: Primary{Env: "development"},
		Server: ServerConfig{
			Port:            "5000",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "location.db",
		},
		Storage: StorageConfig{
			Backend: "local",
			RawDir:  "LocationData",
		},
		Report: ReportConfig{
			OutputDir:       ".",
			Format:          "html",
			CenterLatitude:  35.8936,
			CenterLongitude: 128.8500,
			Zoom:            12,
			Popup:           "Location",
			MaxRetries:      3,
			BaseDelay:       30 * time.Second,
			MaxDelay:        10 * time.Minute,
		},
		Mail: MailConfig{
			Host:    "smtp.gmail.com",
			Port:    587,
			Subject: "Daegu Maps",
			Body:    DefaultMailBody("html"),
			Timeout: 30 * time.Second,
		},
		Observability: DefaultObservabilityConfig(),
	}
}

// DefaultMailBody is the stock mail text for maps rendered in format.
func DefaultMailBody(format string) string {
	kind := "HTML"
	if format == "geojson" {
		kind = "GeoJSON"
	}
	return "Attached are the Daegu Maps " + kind + " files."
}

// envKey maps WEEDWATCH_SERVER__PORT to server.port.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Load reads .env (when present) and WEEDWATCH_* variables on top of Default.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Observability is a pointer so an explicitly empty section can be told apart.
	if cfg.Observability == nil {
		cfg.Observability = DefaultObservabilityConfig()
	}
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "weedwatch"
	}
	cfg.Observability.Environment = cfg.Primary.Env

	// The relay account doubles as the sender unless one is given.
	if cfg.Mail.From == "" {
		cfg.Mail.From = cfg.Mail.Username
	}

	return cfg, nil
}

// ValidateServer checks the sections the ingestion service needs.
func (c *Config) ValidateServer() error {
	for _, section := range []any{c.Primary, c.Server, c.Database, c.Storage} {
		if err := validate.Struct(section); err != nil {
			return err
		}
	}
	return c.Observability.Validate()
}

// ValidateReport checks the sections the reporting job needs. Mail is checked
// separately so maps can be rendered without a relay.
func (c *Config) ValidateReport() error {
	for _, section := range []any{c.Primary, c.Database, c.Report} {
		if err := validate.Struct(section); err != nil {
			return err
		}
	}
	return c.Observability.Validate()
}

func (c *Config) ValidateMail() error {
	return validate.Struct(c.Mail)
}

// SMTPPassword resolves the relay password from the environment or a mounted secret file.
func (m MailConfig) SMTPPassword() (string, error) {
	return resolveSecret("mail.password", m.Password, m.PasswordFile)
}

func (s S3Config) ResolvedSecretKey() (string, error) {
	return resolveSecret("storage.s3.secret_key", s.SecretKey, s.SecretKeyFile)
}

func resolveSecret(name, value, file string) (string, error) {
	if value != "" {
		return value, nil
	}
	if file != "" {
		raw, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read %s file: %w", name, err)
		}
		value = strings.TrimSpace(string(raw))
	}
	if value == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingSecret, name)
	}
	return value, nil
}
