// tmuxbridge mirrors live tmux sessions, windows and panes into a plain
// filesystem tree and injects keystrokes from per-pane input files, so
// scripts and agents can drive terminals through file reads and writes
// alone.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/twistedxcom/tmuxbridge/internal/bridge"
	"github.com/twistedxcom/tmuxbridge/internal/config"
	"github.com/twistedxcom/tmuxbridge/internal/lock"
	"github.com/twistedxcom/tmuxbridge/internal/logging"
	"github.com/twistedxcom/tmuxbridge/internal/tmux"
)

const Version = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		dir        string
		scrollback int
		intervalMS int
		configPath string
		logLevel   string
		once       bool
		noWatch    bool
		version    bool
	)
	flag.StringVar(&dir, "dir", "", "output directory (default: ./tmux)")
	flag.StringVar(&dir, "d", "", "shorthand for -dir")
	flag.IntVar(&scrollback, "scrollback", 0, "lines of scrollback to capture (default: 500)")
	flag.IntVar(&scrollback, "s", 0, "shorthand for -scrollback")
	flag.IntVar(&intervalMS, "interval", 0, "poll interval in milliseconds (default: 500)")
	flag.IntVar(&intervalMS, "i", 0, "shorthand for -interval")
	flag.StringVar(&configPath, "config", "", "path to config.toml")
	flag.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	flag.BoolVar(&once, "once", false, "run a single poll cycle and exit")
	flag.BoolVar(&noWatch, "no-watch", false, "disable the input-file watcher; drain on the poll timer only")
	flag.BoolVar(&version, "version", false, "print version and exit")
	flag.Parse()

	if version {
		fmt.Printf("tmuxbridge v%s\n", Version)
		return 0
	}

	if configPath == "" {
		configPath = filepath.Join(config.DefaultDir(), config.FileName)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// Flags override the config file.
	if dir != "" {
		cfg.Bridge.Dir = dir
	}
	if scrollback > 0 {
		cfg.Bridge.Scrollback = scrollback
	}
	if intervalMS > 0 {
		cfg.Bridge.IntervalMS = intervalMS
	}
	if logLevel != "" {
		cfg.Logs.Level = logLevel
	}
	if noWatch {
		cfg.Bridge.WatchInput = false
	}
	interval := time.Duration(cfg.Bridge.IntervalMS) * time.Millisecond

	logDir := cfg.Logs.Dir
	if logDir == "" {
		logDir = config.DefaultDir()
	}
	logging.Init(logging.Config{
		LogDir:     logDir,
		Level:      cfg.Logs.Level,
		Format:     cfg.Logs.Format,
		MaxSizeMB:  cfg.Logs.MaxSizeMB,
		MaxBackups: cfg.Logs.MaxBackups,
		MaxAgeDays: cfg.Logs.MaxAgeDays,
		Compress:   cfg.Logs.Compress,
	})
	defer logging.Shutdown()

	policy := bridge.PolicyByName(cfg.Bridge.InputPolicy)
	if policy == nil {
		fmt.Fprintf(os.Stderr, "Error: unknown input_policy %q (want \"blank-line\" or \"line\")\n",
			cfg.Bridge.InputPolicy)
		return 1
	}

	root := cfg.Bridge.Dir
	if err := os.MkdirAll(root, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: creating output directory: %v\n", err)
		return 1
	}

	// One instance per output root: a second poller would race this one on
	// every input file.
	lk, err := lock.Acquire(root)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			fmt.Fprintf(os.Stderr, "Error: another instance is already running (lockfile: %s)\n",
				filepath.Join(root, lock.FileName))
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	defer lk.Release()

	client := tmux.New()
	if err := client.IsAvailable(); err != nil {
		// Not fatal: the server may come up later, and enumeration fails soft.
		logging.Logger().Warn("tmux_unavailable", "error", err.Error())
	}

	inputs := bridge.NewInputProcessor(policy, tmux.NewSender(client))
	snapshots := bridge.NewSnapshotWriter(client, cfg.Bridge.Scrollback)

	var watcher *bridge.InputWatcher
	if cfg.Bridge.WatchInput && !once {
		watcher, err = bridge.NewInputWatcher(interval)
		if err != nil {
			logging.Logger().Warn("input_watcher_unavailable", "error", err.Error())
			watcher = nil
		}
	}

	poller := bridge.NewPoller(bridge.Options{
		Root:      root,
		Interval:  interval,
		Source:    client,
		Snapshots: snapshots,
		Inputs:    inputs,
		Watcher:   watcher,
	})

	logging.Logger().Info("started",
		"version", Version,
		"dir", root,
		"scrollback", cfg.Bridge.Scrollback,
		"interval_ms", cfg.Bridge.IntervalMS,
		"input_policy", policy.Name())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if once {
		poller.Cycle(ctx)
		return 0
	}

	fmt.Printf("tmuxbridge running: dir=%s, scrollback=%d, interval=%dms\n",
		root, cfg.Bridge.Scrollback, cfg.Bridge.IntervalMS)
	fmt.Println("Press Ctrl+C to stop")

	g, ctx := errgroup.WithContext(ctx)
	if watcher != nil {
		g.Go(func() error { return watcher.Run(ctx) })
	}
	g.Go(func() error { return poller.Run(ctx) })
	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Println("\nStopped")
	return 0
}
