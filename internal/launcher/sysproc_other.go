//go:build !unix && !windows

package launcher

import (
	"log/slog"
	"os/exec"
)

func configure(cmd *exec.Cmd, cfg Config, logger *slog.Logger) error {
	if cfg.NoWindow || cfg.LoadProfile {
		logger.Debug("no-window and load-profile are not supported on this platform")
	}
	return nil
}
