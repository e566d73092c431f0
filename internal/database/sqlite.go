package database

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const sqliteBusyTimeoutMillis = "5000"

func openSQLite(cfg Config) (*gorm.DB, error) {
	dsn, err := buildSQLiteDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}

	// The pragma in the DSN only applies to new connections; make sure the first one has it.
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		_ = Close(db)
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}
	return db, nil
}

// buildSQLiteDSN turns a path into a mattn/go-sqlite3 URI. Foreign keys are always
// enforced since task → category relies on them. An empty path or ":memory:" opens a
// shared in-memory database.
func buildSQLiteDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}

	params := map[string]string{
		"_foreign_keys": "1",
		"_busy_timeout": sqliteBusyTimeoutMillis,
	}

	path := strings.TrimSpace(cfg.Path)
	memory := path == "" || strings.EqualFold(path, ":memory:")
	if memory {
		params["cache"] = "shared"
	} else {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("sqlite: create data directory: %w", err)
			}
		}
		params["_journal_mode"] = "WAL"
	}
	for key, value := range cfg.Options {
		params[key] = value
	}

	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	query := make([]string, 0, len(keys))
	for _, key := range keys {
		query = append(query, url.QueryEscape(key)+"="+url.QueryEscape(params[key]))
	}

	target := ":memory:"
	if !memory {
		target = filepath.ToSlash(path)
	}
	return "file:" + target + "?" + strings.Join(query, "&"), nil
}
