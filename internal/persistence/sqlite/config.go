package sqlite

import (
	"fmt"
	"strings"
	"time"
)

// Config describes how to open the SQLite database.
type Config struct {
	// DSN is a file path or a "file:" URI understood by modernc.org/sqlite.
	DSN          string
	BusyTimeout  time.Duration
	JournalMode  string
	Synchronous  string
	ForeignKeys  bool
	MaxOpenConns int
	MaxIdleConns int
}

// DefaultConfig returns production settings for dsn.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:          dsn,
		BusyTimeout:  30 * time.Second,
		JournalMode:  "WAL",
		Synchronous:  "NORMAL",
		ForeignKeys:  true,
		MaxOpenConns: 8,
		MaxIdleConns: 4,
	}
}

// InMemoryConfig returns settings for a private in-memory database. A
// single connection keeps every query on the same database.
func InMemoryConfig() Config {
	cfg := DefaultConfig(":memory:")
	cfg.JournalMode = "MEMORY"
	cfg.MaxOpenConns = 1
	cfg.MaxIdleConns = 1
	return cfg
}

// DataSourceName appends the pragmas as _pragma parameters so that every
// pooled connection is configured, not only the first.
func (c Config) DataSourceName() string {
	var pragmas []string
	if c.ForeignKeys {
		pragmas = append(pragmas, "_pragma=foreign_keys(1)")
	}
	if c.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("_pragma=busy_timeout(%d)", c.BusyTimeout.Milliseconds()))
	}
	if c.JournalMode != "" {
		pragmas = append(pragmas, fmt.Sprintf("_pragma=journal_mode(%s)", c.JournalMode))
	}
	if c.Synchronous != "" {
		pragmas = append(pragmas, fmt.Sprintf("_pragma=synchronous(%s)", c.Synchronous))
	}
	if len(pragmas) == 0 {
		return c.DSN
	}

	sep := "?"
	if strings.Contains(c.DSN, "?") {
		sep = "&"
	}
	return c.DSN + sep + strings.Join(pragmas, "&")
}
