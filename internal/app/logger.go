package app

import (
	"strings"

	"go.uber.org/zap"

	"github.com/charlesng35/taskdesk/pkg/logger"
)

// ConfigureLogging initialises the global logger, defaulting to info. Outside
// production the console encoder is used.
func ConfigureLogging(server ServerConfig) error {
	level := strings.TrimSpace(server.LogLevel)
	if level == "" {
		level = "info"
	}

	opts := []logger.Option{logger.WithFields(zap.String("service", "taskdesk"))}
	if !server.IsProduction() {
		opts = append(opts, logger.WithDevelopment())
	}
	return logger.Init(level, opts...)
}
