package app

import (
	"strings"

	"github.com/charlesng35/taskdesk/internal/database"
)

// ConnectionConfig converts the database section into database.Config, picking
// host parameters from the block matching the driver.
func (c DatabaseConfig) ConnectionConfig() database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(c.Driver)),
		Path:   strings.TrimSpace(c.Path),
		DSN:    strings.TrimSpace(c.DSN),
	}

	var host DBAuthConfig
	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
		return dbCfg
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		host = c.Postgres
	case "mysql", "mariadb":
		dbCfg.Driver = "mysql"
		host = c.MySQL
	default:
		// Leave driver as-is to surface unsupported driver error during open.
		return dbCfg
	}

	dbCfg.Host = strings.TrimSpace(host.Host)
	dbCfg.Port = host.Port
	dbCfg.Name = strings.TrimSpace(host.Database)
	dbCfg.User = strings.TrimSpace(host.Username)
	dbCfg.Password = host.Password
	return dbCfg
}
