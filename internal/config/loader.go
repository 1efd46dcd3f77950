package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/example/room-booking/internal/errs"
)

// Prefix is prepended to every environment variable read by Load.
const Prefix = "BOOKING"

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	LockBackendLocal = "local"
	LockBackendRedis = "redis"
)

// ErrInvalidConfig marks every error returned by Validate.
var ErrInvalidConfig = errs.New("invalid configuration")

// Config captures environment driven configuration values for the booking service.
type Config struct {
	HTTP
	Storage
	Lock
	Redis
	Log
	Catalog
}

type HTTP struct {
	Port               int           `envconfig:"HTTP_PORT" default:"8080"`
	ShutdownTimeout    time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	CORSAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS"`
}

type Storage struct {
	Driver      string `envconfig:"STORAGE_DRIVER" default:"sqlite"`
	SQLiteDSN   string `envconfig:"SQLITE_DSN" default:"file:booking.db"`
	PostgresDSN string `envconfig:"POSTGRES_DSN"`
}

type Lock struct {
	Backend string        `envconfig:"LOCK_BACKEND" default:"local"`
	Timeout time.Duration `envconfig:"LOCK_TIMEOUT" default:"5s"`
	TTL     time.Duration `envconfig:"LOCK_TTL" default:"30s"`
}

type Redis struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type Log struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

// Catalog holds the calendar and seed settings of the booking engine.
type Catalog struct {
	Timezone    string `envconfig:"TIMEZONE" default:"UTC"`
	RoomCatalog string `envconfig:"ROOM_CATALOG"`
}

// Load reads optional dotenv files and then parses the BOOKING_* variables of
// the current process environment. Without arguments ".env" is tried; files
// that do not exist are skipped. Variables already set in the environment win
// over dotenv values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Config{}, errs.Wrapf(err, "load %s", file)
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, errs.Mark(errs.Wrap(err, "parse environment"), ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints and reports every offending
// variable at once.
func (c Config) Validate() error {
	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 4)

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		invalid = append(invalid, key("HTTP_PORT"))
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		invalid = append(invalid, key("HTTP_SHUTDOWN_TIMEOUT"))
	}

	switch c.Storage.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Storage.SQLiteDSN) == "" {
			missing = append(missing, key("SQLITE_DSN"))
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Storage.PostgresDSN) == "" {
			missing = append(missing, key("POSTGRES_DSN"))
		}
	case DriverMemory:
	default:
		invalid = append(invalid, key("STORAGE_DRIVER"))
	}

	switch c.Lock.Backend {
	case LockBackendLocal:
	case LockBackendRedis:
		if strings.TrimSpace(c.Redis.Addr) == "" {
			missing = append(missing, key("REDIS_ADDR"))
		}
		if c.Lock.TTL <= 0 {
			invalid = append(invalid, key("LOCK_TTL"))
		}
		if c.Redis.DB < 0 {
			invalid = append(invalid, key("REDIS_DB"))
		}
	default:
		invalid = append(invalid, key("LOCK_BACKEND"))
	}
	if c.Lock.Timeout <= 0 {
		invalid = append(invalid, key("LOCK_TIMEOUT"))
	}

	if _, err := time.LoadLocation(c.Catalog.Timezone); err != nil || strings.TrimSpace(c.Catalog.Timezone) == "" {
		invalid = append(invalid, key("TIMEZONE"))
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		invalid = append(invalid, key("LOG_FORMAT"))
	}

	if len(missing) > 0 {
		return errs.Mark(errs.Newf("required environment variables are not set: %s", strings.Join(missing, ", ")), ErrInvalidConfig)
	}
	if len(invalid) > 0 {
		return errs.Mark(errs.Newf("environment variables have invalid values: %s", strings.Join(invalid, ", ")), ErrInvalidConfig)
	}
	return nil
}

// Location resolves the configured reference time zone. It falls back to UTC
// when the name cannot be loaded; Validate reports that case.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Catalog.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ListenAddr returns the listen address of the HTTP server.
func (c Config) ListenAddr() string {
	return ":" + strconv.Itoa(c.HTTP.Port)
}

func key(name string) string {
	return Prefix + "_" + name
}
