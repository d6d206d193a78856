package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Sheets locates the remote tabular feeds and the write endpoint.
type Sheets struct {
	BaseURL        string
	SheetID        string
	ProvidersSheet string
	OriginsSheet   string
	SpeciesSheet   string
	LedgerSheet    string
	WriteURL       string
	HTTPTimeout    time.Duration
}

// Registration tunes the form workflow.
type Registration struct {
	// PricePolicy is "enforced" (price and origin derived, read-only) or
	// "permissive" (derived values may be overridden by the agent).
	PricePolicy     string
	Confirm         bool
	AutoReacquire   bool
	LocationTimeout time.Duration
}

// History selects the local history backend.
type History struct {
	Driver     string // memory | sqlite | redis
	SQLitePath string
	Key        string
}

// RedisConfig holds connection settings for the optional Redis history store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Photos selects where catch photos are archived after submission.
type Photos struct {
	Driver      string // none | memory | gcs | s3
	Bucket      string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
	PreviewSize int

	// S3AccessKeyID and S3SecretAccessKey pin static credentials, as MinIO
	// needs. When empty the default AWS chain is used.
	S3AccessKeyID     string
	S3SecretAccessKey string

	// GCSCredentialsJSON overrides application default credentials.
	GCSCredentialsJSON string
}

// Notify selects the outbound notification channels.
type Notify struct {
	Channels       []string // whatsapp, kafka
	WhatsAppNumber string
	KafkaBrokers   []string
	KafkaTopic     string
}

// Logging controls the slog handler.
type Logging struct {
	Format string // json | text
	Level  string
}

// Config is the full process configuration.
type Config struct {
	Server       Server
	Sheets       Sheets
	Registration Registration
	History      History
	Redis        RedisConfig
	Photos       Photos
	Notify       Notify
	Logging      Logging
}

// FromEnv builds a Config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func FromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Server: Server{
			Addr:         env("EHOPA_ADDR", ":8080"),
			ReadTimeout:  envDuration("EHOPA_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: envDuration("EHOPA_WRITE_TIMEOUT", 60*time.Second),
		},
		Sheets: Sheets{
			BaseURL:        strings.TrimRight(env("EHOPA_SHEETS_BASE_URL", "https://docs.google.com"), "/"),
			SheetID:        os.Getenv("EHOPA_SHEET_ID"),
			ProvidersSheet: env("EHOPA_SHEET_PROVIDERS", "Lista de Provedores"),
			OriginsSheet:   env("EHOPA_SHEET_ORIGINS", "Pontos de Pescado"),
			SpeciesSheet:   env("EHOPA_SHEET_SPECIES", "Espécies"),
			LedgerSheet:    env("EHOPA_SHEET_LEDGER", "GERAL"),
			WriteURL:       os.Getenv("EHOPA_SHEET_WRITE_URL"),
			HTTPTimeout:    envDuration("EHOPA_SHEETS_TIMEOUT", 20*time.Second),
		},
		Registration: Registration{
			PricePolicy:     env("EHOPA_PRICE_POLICY", "enforced"),
			Confirm:         envBool("EHOPA_CONFIRM_BEFORE_SUBMIT", true),
			AutoReacquire:   envBool("EHOPA_AUTO_REACQUIRE_LOCATION", true),
			LocationTimeout: envDuration("EHOPA_LOCATION_TIMEOUT", 15*time.Second),
		},
		History: History{
			Driver:     env("EHOPA_HISTORY_DRIVER", "sqlite"),
			SQLitePath: env("EHOPA_HISTORY_SQLITE_PATH", "ehopa_history.db"),
			Key:        env("EHOPA_HISTORY_KEY", "ehopa_history"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("EHOPA_REDIS_URL"),
			PoolSize:     envInt("EHOPA_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("EHOPA_REDIS_MIN_IDLE", 1),
			DialTimeout:  envDuration("EHOPA_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("EHOPA_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("EHOPA_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Photos: Photos{
			Driver:             env("EHOPA_PHOTOS_DRIVER", "none"),
			Bucket:             os.Getenv("EHOPA_PHOTOS_BUCKET"),
			S3Region:           os.Getenv("EHOPA_PHOTOS_S3_REGION"),
			S3Endpoint:         os.Getenv("EHOPA_PHOTOS_S3_ENDPOINT"),
			S3PathStyle:        envBool("EHOPA_PHOTOS_S3_PATH_STYLE", false),
			PreviewSize:        envInt("EHOPA_PHOTOS_PREVIEW_SIZE", 256),
			GCSCredentialsJSON: os.Getenv("EHOPA_GCS_CREDENTIALS_JSON"),
			S3AccessKeyID:      os.Getenv("EHOPA_PHOTOS_S3_ACCESS_KEY_ID"),
			S3SecretAccessKey:  os.Getenv("EHOPA_PHOTOS_S3_SECRET_ACCESS_KEY"),
		},
		Notify: Notify{
			Channels:       envList("EHOPA_NOTIFY", []string{"whatsapp"}),
			WhatsAppNumber: os.Getenv("EHOPA_WHATSAPP_NUMBER"),
			KafkaBrokers:   envList("EHOPA_KAFKA_BROKERS", nil),
			KafkaTopic:     env("EHOPA_KAFKA_TOPIC", "ehopa.registrations"),
		},
		Logging: Logging{
			Format: env("EHOPA_LOG_FORMAT", "json"),
			Level:  env("EHOPA_LOG_LEVEL", "info"),
		},
	}

	return cfg, cfg.Validate()
}

// Validate rejects impossible combinations early.
func (c Config) Validate() error {
	if c.Sheets.SheetID == "" {
		return errors.New("EHOPA_SHEET_ID is required")
	}
	if c.Sheets.WriteURL == "" {
		return errors.New("EHOPA_SHEET_WRITE_URL is required")
	}
	switch c.Registration.PricePolicy {
	case "enforced", "permissive":
	default:
		return fmt.Errorf("unknown price policy %q", c.Registration.PricePolicy)
	}
	switch c.History.Driver {
	case "memory", "sqlite":
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("EHOPA_REDIS_URL is required for the redis history driver")
		}
	default:
		return fmt.Errorf("unknown history driver %q", c.History.Driver)
	}
	switch c.Photos.Driver {
	case "none", "memory":
	case "gcs", "s3":
		if c.Photos.Bucket == "" {
			return fmt.Errorf("EHOPA_PHOTOS_BUCKET is required for the %s photo driver", c.Photos.Driver)
		}
	default:
		return fmt.Errorf("unknown photo driver %q", c.Photos.Driver)
	}
	for _, ch := range c.Notify.Channels {
		switch ch {
		case "whatsapp":
		case "kafka":
			if len(c.Notify.KafkaBrokers) == 0 {
				return errors.New("EHOPA_KAFKA_BROKERS is required for the kafka notifier")
			}
		default:
			return fmt.Errorf("unknown notify channel %q", ch)
		}
	}
	return nil
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
