package database

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	defaultPostgresHost = "localhost"
	defaultPostgresPort = 5432
)

func openPostgres(cfg Config) (*gorm.DB, error) {
	dsn, err := buildPostgresDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(postgres.Open(dsn), gormConfig())
}

// buildPostgresDSN renders a libpq keyword/value string. Connection keywords come
// first in a fixed order, extra options follow sorted so the output is stable.
func buildPostgresDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("postgres configuration requires user and database name")
	}

	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = defaultPostgresHost
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPostgresPort
	}

	pairs := []string{
		pgPair("host", host),
		pgPair("port", fmt.Sprint(port)),
		pgPair("user", cfg.User),
		pgPair("dbname", cfg.Name),
	}
	if cfg.Password != "" {
		pairs = append(pairs, pgPair("password", cfg.Password))
	}

	options := map[string]string{"sslmode": "disable"}
	for key, value := range cfg.Options {
		options[key] = value
	}
	keys := make([]string, 0, len(options))
	for key := range options {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		pairs = append(pairs, pgPair(key, options[key]))
	}

	return strings.Join(pairs, " "), nil
}

// pgPair quotes values containing whitespace, quotes or backslashes per libpq rules.
func pgPair(key, value string) string {
	if value != "" && !strings.ContainsAny(value, " \t\n'\\") {
		return key + "=" + value
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(value)
	return key + "='" + escaped + "'"
}
