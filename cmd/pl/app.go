package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/conn-castle/pio-layer/internal/config"
	"github.com/conn-castle/pio-layer/internal/host"
	"github.com/conn-castle/pio-layer/internal/installer"
	"github.com/conn-castle/pio-layer/internal/lockstore"
	"github.com/conn-castle/pio-layer/internal/logging"
	"github.com/conn-castle/pio-layer/internal/orchestrator"
	"github.com/conn-castle/pio-layer/internal/root"
	"github.com/conn-castle/pio-layer/internal/taskgate"
	"github.com/conn-castle/pio-layer/internal/toolchain"
)

// pioGlobalArgs precede every task: force, and tag the caller for PlatformIO telemetry.
var pioGlobalArgs = []string{"-f", "-c", "pio-layer"}

var getwd = os.Getwd

// appOptions are the per-invocation inputs shared by every command.
type appOptions struct {
	workspace   string
	verbose     bool
	interactive bool
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer
}

// app is one wired session.
type app struct {
	paths     config.Paths
	live      *config.Live
	sessionID string
	logger    *slog.Logger
	closeLog  io.Closer

	lock      *lockstore.Store
	installer *installer.Manager
	tasks     *host.ProcessTasks
	gate      *taskgate.Gate
	notifier  *host.TerminalNotifier
	terminal  *host.Terminal
	orch      *orchestrator.Orchestrator
}

// notifierAdapter narrows host output channels to the orchestrator's Channel.
type notifierAdapter struct {
	*host.TerminalNotifier
}

func (n notifierAdapter) OutputChannel(name string) orchestrator.Channel {
	return n.TerminalNotifier.OutputChannel(name)
}

// resolveWorkspace returns the explicit workspace, or the nearest PlatformIO
// project above the working directory, or "" when there is none.
func resolveWorkspace(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	cwd, err := getwd()
	if err != nil {
		return "", err
	}
	dir, found, err := root.FindProjectRoot(cwd)
	if err != nil || !found {
		return "", err
	}
	return dir, nil
}

// resolvePaths resolves the workspace and PlatformIO paths for opts.
func resolvePaths(opts appOptions) (config.Paths, error) {
	workspace, err := resolveWorkspace(opts.workspace)
	if err != nil {
		return config.Paths{}, err
	}
	return config.DefaultPaths(workspace)
}

// loadConfig reads the workspace config; without a workspace it returns defaults.
func loadConfig(paths config.Paths) (config.Config, error) {
	if paths.ConfigPath == "" {
		return config.Default(), nil
	}
	return config.Load(paths.ConfigPath)
}

func newLockStore(paths config.Paths, cfg config.Config) (*lockstore.Store, error) {
	return lockstore.New(paths.LockPath, lockstore.Options{StaleAfter: cfg.Lock.StaleAfter.Std()})
}

// newInstaller wires the probe and installation manager for owner.
func newInstaller(paths config.Paths, cfg config.Config, store *lockstore.Store, owner string, logger *slog.Logger) (*installer.Manager, error) {
	installCommand := cfg.Toolchain.InstallCommand
	if len(installCommand) == 0 {
		installCommand = paths.DefaultInstallCommand()
	}
	probe, err := toolchain.NewProbe(toolchain.Options{
		Executable:     cfg.Toolchain.Executable,
		BinDir:         paths.EnvBinDir,
		InstallCommand: installCommand,
		Env:            paths.Environ(os.Environ()),
	})
	if err != nil {
		return nil, err
	}
	return installer.New(installer.Options{
		Store:          store,
		Probe:          probe,
		Owner:          owner,
		MinVersion:     cfg.Toolchain.MinVersion,
		HeartbeatEvery: cfg.Lock.HeartbeatEvery.Std(),
		Logger:         logger,
		OnTransition: func(from installer.State, to installer.State) {
			logger.Debug("installer transition", "from", from.String(), "to", to.String())
		},
	})
}

// pioExecutable prefers the managed `pio` over one found on PATH.
func pioExecutable(paths config.Paths) string {
	managed := paths.Executable("pio")
	if _, err := os.Stat(managed); err == nil {
		return managed
	}
	return "pio"
}

// settleDelay maps a configured delay to the gate's convention, where zero
// selects the default and negative disables settling.
func settleDelay(d time.Duration) time.Duration {
	if d == 0 {
		return -1
	}
	return d
}

// newApp resolves paths, loads config and wires every component.
func newApp(opts appOptions) (*app, error) {
	paths, err := resolvePaths(opts)
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(paths)
	if err != nil {
		return nil, err
	}

	sessionID := uuid.NewString()
	var echo io.Writer
	if opts.verbose {
		echo = opts.stderr
	}
	logger, closeLog, err := logging.NewLogger(paths.LogDir, cfg.Log.Level, sessionID, echo)
	if err != nil {
		return nil, err
	}
	a := &app{
		paths:     paths,
		live:      config.NewLive(paths.ConfigPath, cfg, logger),
		sessionID: sessionID,
		logger:    logger,
		closeLog:  closeLog,
	}
	if err := a.wire(cfg, opts); err != nil {
		_ = closeLog.Close()
		return nil, err
	}
	logger.Info("session wired", "workspace", paths.Workspace, "pio_home", paths.PIOHome)
	return a, nil
}

func (a *app) wire(cfg config.Config, opts appOptions) error {
	var err error
	if a.lock, err = newLockStore(a.paths, cfg); err != nil {
		return err
	}
	if a.installer, err = newInstaller(a.paths, cfg, a.lock, a.sessionID, a.logger); err != nil {
		return err
	}

	env := a.paths.Environ(os.Environ())
	a.tasks, err = host.NewProcessTasks(host.TaskOptions{
		Executable: pioExecutable(a.paths),
		GlobalArgs: pioGlobalArgs,
		Dir:        a.paths.Workspace,
		Env:        env,
		Stdout:     opts.stdout,
		Stderr:     opts.stderr,
		UsePTY:     opts.interactive,
		Logger:     a.logger,
	})
	if err != nil {
		return err
	}
	a.gate, err = taskgate.New(taskgate.Options{
		Tasks:            a.tasks,
		SettleDelay:      settleDelay(cfg.Tasks.SettleDelay.Std()),
		TerminateTimeout: cfg.Tasks.TerminateTimeout.Std(),
		Logger:           a.logger,
	})
	if err != nil {
		return err
	}

	a.notifier = host.NewTerminalNotifier(opts.stdout, opts.stderr)
	a.terminal = host.NewTerminal(host.TerminalOptions{
		Dir:    a.paths.Workspace,
		Env:    env,
		Stdin:  opts.stdin,
		Stdout: opts.stdout,
		Stderr: opts.stderr,
		Logger: a.logger,
	})
	a.orch, err = orchestrator.New(orchestrator.Deps{
		Installer:     a.installer,
		Gate:          a.gate,
		Notifier:      notifierAdapter{a.notifier},
		Settings:      a.live,
		Terminal:      a.terminal,
		WorkspaceRoot: a.paths.Workspace,
		Logger:        a.logger,
	})
	return err
}

// shutdown stops any running monitor and closes the log. It uses its own
// deadline so it still runs after the command context is cancelled.
func (a *app) shutdown() error {
	timeout := a.live.Config().Tasks.TerminateTimeout.Std() + time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	err := a.orch.Deactivate(ctx)
	if err != nil {
		a.logger.Warn("deactivate failed", "error", err)
	}
	a.logger.Info("session ended")
	if closeErr := a.closeLog.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("close log: %w", closeErr)
	}
	return err
}
