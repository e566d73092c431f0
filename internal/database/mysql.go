package database

import (
	"errors"
	"net"
	"strconv"
	"strings"

	drivermysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const (
	defaultMySQLHost = "127.0.0.1"
	defaultMySQLPort = 3306
)

func openMySQL(cfg Config) (*gorm.DB, error) {
	dsn, err := buildMySQLDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(mysql.Open(dsn), gormConfig())
}

// buildMySQLDSN renders the connection through the driver's own Config so
// credentials and names are escaped the way the driver parses them back.
// Timestamps are read as UTC, matching the other drivers.
func buildMySQLDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("mysql configuration requires user and database name")
	}

	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = defaultMySQLHost
	}
	port := cfg.Port
	if port == 0 {
		port = defaultMySQLPort
	}

	dc := drivermysql.NewConfig()
	dc.User = cfg.User
	dc.Passwd = cfg.Password
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	dc.DBName = cfg.Name
	dc.ParseTime = true
	dc.Params = map[string]string{"charset": "utf8mb4"}

	for key, value := range cfg.Options {
		switch key {
		case "tls":
			dc.TLSConfig = value
		case "collation":
			dc.Collation = value
		case "parseTime":
			// always on; gorm scans DATETIME into time.Time
		default:
			dc.Params[key] = value
		}
	}

	return dc.FormatDSN(), nil
}
