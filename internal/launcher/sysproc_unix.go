//go:build unix

package launcher

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/user"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"
)

func configure(cmd *exec.Cmd, cfg Config, logger *slog.Logger) error {
	if cfg.NoWindow {
		// No terminal: the child gets its own session and never sees
		// terminal signals aimed at watchcat.
		cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	}

	if cfg.LoadProfile {
		env, err := profileEnv(unix.Getuid())
		if err != nil {
			return fmt.Errorf("loading user profile: %w", err)
		}
		cmd.Env = env
		logger.Debug("loaded user profile for program", "home", lookupEnv(env, "HOME"))
	}
	return nil
}

// profileEnv returns the current environment with the identity variables
// reset from the account database entry for uid.
func profileEnv(uid int) ([]string, error) {
	u, err := user.LookupId(strconv.Itoa(uid))
	if err != nil {
		return nil, err
	}

	overrides := map[string]string{
		"HOME":    u.HomeDir,
		"USER":    u.Username,
		"LOGNAME": u.Username,
	}
	return mergeEnv(os.Environ(), overrides), nil
}
