package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/benaskins/watchcat/internal/config"
	"github.com/benaskins/watchcat/internal/console"
	"github.com/benaskins/watchcat/internal/coordinator"
	"github.com/benaskins/watchcat/internal/journal"
	"github.com/benaskins/watchcat/internal/source"
	"github.com/benaskins/watchcat/internal/target"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type watchOptions struct {
	executable  string
	argsMarker  bool
	waitTimeout float64
	launchDelay float64
	noWindow    bool
	loadProfile bool
	verbose     bool
	configPath  string
	journal     string
	ignoreStdin bool
}

var (
	watchOpts watchOptions

	// Set by main from the tokens following -a/--args.
	childArgs    []string
	hasChildArgs bool
)

func init() {
	bindWatchFlags(rootCmd, &watchOpts)
}

func bindWatchFlags(cmd *cobra.Command, o *watchOptions) {
	f := cmd.Flags()
	f.StringVarP(&o.executable, "executable", "e", "", "program to launch when a watched path changes")
	f.BoolVarP(&o.argsMarker, "args", "a", false, "pass every remaining token to the program as its arguments")
	f.Float64VarP(&o.waitTimeout, "wait-timeout", "t", 0, "seconds to wait for the program: 0 don't wait, -1 wait until it exits")
	f.Float64VarP(&o.launchDelay, "launch-delay", "d", 0, "seconds without changes before launching; 0 launches on every change")
	f.BoolVarP(&o.noWindow, "no-window", "w", false, "don't give the program its own window or session")
	f.BoolVarP(&o.loadProfile, "load-profile", "p", false, "run the program with the invoking user's profile environment")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "log every event, launch, suspend and resume")
	f.StringVar(&o.configPath, "config", config.DefaultPath(), "defaults file")
	f.StringVar(&o.journal, "journal", "", "append launch records to this file as JSON lines")
	f.BoolVar(&o.ignoreStdin, "ignore-stdin", false, "keep running when stdin gets a line or reaches EOF")
}

// resolveLaunchConfig merges the defaults file with the flags that were set
// explicitly on the command line.
func resolveLaunchConfig(cmd *cobra.Command, o *watchOptions, child []string, hasChild bool) (config.LaunchConfig, error) {
	flags := cmd.Flags()

	if flags.Changed("config") {
		if _, err := os.Stat(o.configPath); err != nil {
			return config.LaunchConfig{}, fmt.Errorf("config file: %w", err)
		}
	}
	file, err := config.Load(o.configPath)
	if err != nil {
		return config.LaunchConfig{}, err
	}
	lc := file.LaunchConfig()

	if flags.Changed("executable") {
		lc.Executable = o.executable
	}
	if hasChild {
		lc.Args = child
	}
	if flags.Changed("wait-timeout") {
		if lc.WaitTimeout, err = config.FromSeconds(o.waitTimeout); err != nil {
			return config.LaunchConfig{}, fmt.Errorf("--wait-timeout: %w", err)
		}
	}
	if flags.Changed("launch-delay") {
		if lc.LaunchDelay, err = config.FromSeconds(o.launchDelay); err != nil {
			return config.LaunchConfig{}, fmt.Errorf("--launch-delay: %w", err)
		}
	}
	if flags.Changed("no-window") {
		lc.NoWindow = o.noWindow
	}
	if flags.Changed("load-profile") {
		lc.LoadProfile = o.loadProfile
	}
	if flags.Changed("verbose") {
		lc.Verbose = o.verbose
	}
	if flags.Changed("journal") {
		lc.Journal = o.journal
	}

	return lc, lc.Validate()
}

func runWatch(cmd *cobra.Command, paths []string) error {
	lc, err := resolveLaunchConfig(cmd, &watchOpts, childArgs, hasChildArgs)
	if err != nil {
		return err
	}

	level := new(slog.LevelVar)
	if lc.Verbose {
		level.Set(slog.LevelDebug)
	}
	logger := slog.New(console.NewHandler(os.Stderr, &console.Options{Level: level}))
	slog.SetDefault(logger)

	targets, err := target.ResolveAll(paths, logger.With("component", "target"))
	if err != nil {
		return err
	}

	sources := make([]source.Source, 0, len(targets))
	for _, t := range targets {
		src, err := source.NewFSNotify(t, logger.With("component", "source"))
		if err != nil {
			logger.Warn("cannot watch path, skipping", "path", t.Path, "error", err)
			continue
		}
		sources = append(sources, src)
	}
	if len(sources) == 0 {
		return target.ErrNoTargets
	}

	var j *journal.Journal
	if lc.Journal != "" {
		if j, err = journal.Open(lc.Journal); err != nil {
			closeSources(sources)
			return err
		}
		defer j.Close()
	}

	if lc.Executable == "" {
		logger.Warn("no executable given, changes will only be logged")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	c := coordinator.New(lc, coordinator.WithLogger(logger), coordinator.WithJournal(j))
	if err := c.Start(ctx, sources); err != nil {
		closeSources(sources)
		return fmt.Errorf("starting watchers: %w", err)
	}
	defer c.Shutdown()

	logger.Debug("launch settings",
		"executable", lc.Executable,
		"args", lc.Args,
		"wait_timeout", lc.WaitTimeout,
		"launch_delay", lc.LaunchDelay)

	inputDone := make(chan struct{})
	if !watchOpts.ignoreStdin {
		go waitForInput(os.Stdin, inputDone)
		if term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprintln(os.Stderr, "Press Enter to exit.")
		}
	}

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case <-inputDone:
		logger.Debug("input closed, shutting down")
	case <-c.Done():
	}

	c.Shutdown()
	return nil
}

// waitForInput closes done once r yields a line, reaches EOF or fails.
func waitForInput(r io.Reader, done chan<- struct{}) {
	defer close(done)
	_, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		slog.Debug("reading stdin failed", "error", err)
	}
}

func closeSources(sources []source.Source) {
	for _, s := range sources {
		s.Close()
	}
}
