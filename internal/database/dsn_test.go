package database

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	drivermysql "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSNDefaults(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User: "taskdesk",
		Name: "taskdesk",
	})
	require.NoError(t, err)
	require.Equal(t, "host=localhost port=5432 user=taskdesk dbname=taskdesk sslmode=disable", dsn)
}

func TestBuildPostgresDSNQuotesAwkwardValues(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User:     "app user",
		Name:     "db",
		Host:     "db.example.com",
		Port:     6543,
		Password: `it's a \secret`,
		Options: map[string]string{
			"search_path": "public",
		},
	})
	require.NoError(t, err)

	parsed, err := pgconn.ParseConfig(dsn)
	require.NoError(t, err, dsn)
	require.Equal(t, "db.example.com", parsed.Host)
	require.Equal(t, uint16(6543), parsed.Port)
	require.Equal(t, "app user", parsed.User)
	require.Equal(t, `it's a \secret`, parsed.Password)
	require.Equal(t, "db", parsed.Database)
	require.Equal(t, "public", parsed.RuntimeParams["search_path"])
}

func TestBuildPostgresDSNRequiresUserAndName(t *testing.T) {
	_, err := buildPostgresDSN(Config{})
	require.Error(t, err)
}

func TestBuildMySQLDSNDefaults(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User: "taskdesk",
		Name: "taskdesk",
	})
	require.NoError(t, err)

	parsed, err := drivermysql.ParseDSN(dsn)
	require.NoError(t, err, dsn)
	require.Equal(t, "taskdesk", parsed.User)
	require.Equal(t, "127.0.0.1:3306", parsed.Addr)
	require.Equal(t, "taskdesk", parsed.DBName)
	require.True(t, parsed.ParseTime)
	require.Equal(t, time.UTC, parsed.Loc)
	require.Equal(t, "utf8mb4", parsed.Params["charset"])
}

func TestBuildMySQLDSNWithOptions(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User:     "user",
		Password: "p@ss:word/1",
		Name:     "db",
		Host:     "db.example.com",
		Port:     3307,
		Options: map[string]string{
			"tls":       "skip-verify",
			"collation": "utf8mb4_unicode_ci",
		},
	})
	require.NoError(t, err)

	parsed, err := drivermysql.ParseDSN(dsn)
	require.NoError(t, err, dsn)
	require.Equal(t, "p@ss:word/1", parsed.Passwd)
	require.Equal(t, "db.example.com:3307", parsed.Addr)
	require.Equal(t, "skip-verify", parsed.TLSConfig)
	require.Equal(t, "utf8mb4_unicode_ci", parsed.Collation)
}

func TestBuildMySQLDSNRequiresUserAndName(t *testing.T) {
	_, err := buildMySQLDSN(Config{Host: "localhost"})
	require.Error(t, err)
}

func TestBuildSQLiteDSN(t *testing.T) {
	dsn, err := buildSQLiteDSN(Config{Path: ":memory:"})
	require.NoError(t, err)
	require.Equal(t, "file::memory:?_busy_timeout=5000&_foreign_keys=1&cache=shared", dsn)

	path := filepath.Join(t.TempDir(), "data", "taskdesk.db")
	dsn, err = buildSQLiteDSN(Config{Path: path, Options: map[string]string{"_busy_timeout": "250"}})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dsn, "file:"+filepath.ToSlash(path)+"?"), dsn)
	require.Contains(t, dsn, "_journal_mode=WAL")
	require.Contains(t, dsn, "_busy_timeout=250")
	require.DirExists(t, filepath.Dir(path))

	dsn, err = buildSQLiteDSN(Config{DSN: "file:custom.db"})
	require.NoError(t, err)
	require.Equal(t, "file:custom.db", dsn)
}
