package publishclient

import (
	"github.com/nais/publish/pkg/logging"
)

func SetupLogging(cfg Config) error {
	level := "info"
	if cfg.Quiet {
		level = "error"
	}
	err := logging.Setup(level, "text")
	if err != nil {
		return ErrorWrap(ExitInternalError, err)
	}
	return nil
}
