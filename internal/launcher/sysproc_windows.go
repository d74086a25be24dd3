//go:build windows

package launcher

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

func configure(cmd *exec.Cmd, cfg Config, logger *slog.Logger) error {
	flags := uint32(windows.CREATE_NEW_CONSOLE)
	if cfg.NoWindow {
		flags = windows.CREATE_NO_WINDOW
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: flags,
		CmdLine:       commandLine(cfg),
	}

	if cfg.LoadProfile {
		dir, err := windows.GetCurrentProcessToken().GetUserProfileDirectory()
		if err != nil {
			return fmt.Errorf("loading user profile: %w", err)
		}
		cmd.Env = mergeEnv(os.Environ(), map[string]string{
			"USERPROFILE": dir,
			"HOME":        dir,
		})
		logger.Debug("loaded user profile for program", "profile", dir)
	}
	return nil
}

// commandLine passes the argument string through as typed instead of letting
// exec re-quote each token.
func commandLine(cfg Config) string {
	line := syscall.EscapeArg(cfg.Executable)
	if args := cfg.ArgString(); args != "" {
		line += " " + args
	}
	return line
}
