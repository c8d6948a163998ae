package app

import (
	"strings"

	"github.com/charlesng35/resumex/pkg/logger"
)

const serviceName = "resumex"

// ConfigureLogging initialises the global logger. Production environments log
// JSON; everything else uses the console encoder.
func ConfigureLogging(level, environment string) error {
	production := strings.EqualFold(strings.TrimSpace(environment), "production")
	return logger.Init(level, logger.Options{
		Development: !production,
		Service:     serviceName,
	})
}
