// Command ossia-sc hosts ossia devices from the command line.
//
// The command drives the same operation table a host interpreter uses:
// devices come from a YAML scene file or a saved session, and the
// interactive console issues operations by name.
//
// Usage:
//
//	ossia-sc [flags]
//
// Flags:
//
//	-scene string       YAML scene file to load at startup
//	-session string     Session file (default "~/.ossia-sc/session.json")
//	-restore            Restore the devices of the saved session
//	-event-log string   Write protocol and callback events to a CBOR log
//	-log-level string   Log level: debug, info, warn, error (default "info")
//	-mdns               Advertise OSCQuery servers over DNS-SD (default true)
//	-interactive        Start the interactive console (default true)
//
// Examples:
//
//	# Load a scene and drive it interactively
//	ossia-sc -scene synth.yaml
//
//	# Serve the previous session in the background with an event log
//	ossia-sc -restore -interactive=false -event-log ossia.olog
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ossia/ossia-sc/cmd/ossia-sc/interactive"
	"github.com/ossia/ossia-sc/pkg/discovery"
	"github.com/ossia/ossia-sc/pkg/host"
	"github.com/ossia/ossia-sc/pkg/log"
	"github.com/ossia/ossia-sc/pkg/persistence"
	"github.com/ossia/ossia-sc/pkg/primitives"
)

// Config holds the command configuration.
type Config struct {
	SceneFile   string
	SessionFile string
	Restore     bool
	EventLog    string
	LogLevel    string
	MDNS        bool
	Interactive bool
}

var config Config

func init() {
	flag.StringVar(&config.SceneFile, "scene", "", "YAML scene file to load at startup")
	flag.StringVar(&config.SessionFile, "session", defaultSessionFile(), "Session file")
	flag.BoolVar(&config.Restore, "restore", false, "Restore the devices of the saved session")
	flag.StringVar(&config.EventLog, "event-log", "", "Write protocol and callback events to a CBOR log")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&config.MDNS, "mdns", true, "Advertise OSCQuery servers over DNS-SD")
	flag.BoolVar(&config.Interactive, "interactive", true, "Start the interactive console")
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "session.json"
	}
	return filepath.Join(home, ".ossia-sc", "session.json")
}

func main() {
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(config.LogLevel),
	}))

	if err := run(logger); err != nil {
		logger.Error("ossia-sc failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	var sinks []log.Logger
	if config.EventLog != "" {
		fl, err := log.NewFileLogger(config.EventLog)
		if err != nil {
			return fmt.Errorf("event log: %w", err)
		}
		defer fl.Close()
		sinks = append(sinks, fl)
	}
	if config.LogLevel == "debug" {
		sinks = append(sinks, log.NewSlogAdapter(logger))
	}
	events := log.Combine(sinks...)

	cfg := primitives.Config{
		Gate:        host.Default,
		Logger:      logger,
		EventLogger: events,
	}
	if config.MDNS {
		advertiser := discovery.NewMDNSAdvertiser(discovery.DefaultAdvertiserConfig())
		defer advertiser.StopAll()
		cfg.Advertiser = advertiser
	}

	env := interactive.NewEnv()
	cfg.Interpreter = env

	rt := primitives.New(cfg)
	store := persistence.NewSessionStore(config.SessionFile)

	host.Default.SetReady(true)
	defer host.Default.SetReady(false)

	if config.Restore {
		state, err := store.Load()
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		if state != nil {
			if err := SceneFromSession(state).Apply(rt, env); err != nil {
				logger.Warn("session not fully restored", "error", err)
			}
			logger.Info("session restored", "devices", len(state.Devices))
		}
	}

	if config.SceneFile != "" {
		scene, err := LoadScene(config.SceneFile)
		if err != nil {
			return fmt.Errorf("scene: %w", err)
		}
		if err := scene.Apply(rt, env); err != nil {
			return fmt.Errorf("scene: %w", err)
		}
		logger.Info("scene loaded", "file", config.SceneFile, "devices", len(scene.Devices))
	}

	save := func() error {
		return store.Save(rt.Session())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if config.Interactive {
		console, err := interactive.New(interactive.Config{
			Runtime:     rt,
			Env:         env,
			Browser:     discovery.NewMDNSBrowser(discovery.DefaultAdvertiserConfig()),
			SaveSession: save,
		})
		if err != nil {
			return err
		}
		console.Run(ctx, cancel)
	} else {
		<-ctx.Done()
	}

	logger.Info("shutting down")
	var errs []error
	if err := save(); err != nil {
		errs = append(errs, fmt.Errorf("save session: %w", err))
	}
	host.Default.SetReady(false)
	if err := rt.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close devices: %w", err))
	}
	return errors.Join(errs...)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
