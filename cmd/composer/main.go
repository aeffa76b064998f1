// Package main is the entry point for the composer command.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dshills/composer/internal/config"
	"github.com/dshills/composer/internal/document"
	"github.com/dshills/composer/internal/editor"
	"github.com/dshills/composer/internal/logging"
	"github.com/dshills/composer/internal/script"
	"github.com/dshills/composer/internal/tui"
	"github.com/dshills/composer/internal/tui/backend"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	configPath string
	docPath    string
	logLevel   string
	logFile    string
	dump       bool
	timeout    time.Duration
}

func main() {
	os.Exit(run())
}

func run() int {
	opts, args := parseFlags()
	if len(args) == 0 {
		flag.Usage()
		return 2
	}

	cmd, args := args[0], args[1:]
	if cmd == "config" {
		return printConfig(opts)
	}
	if cmd != "run" && cmd != "tui" {
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", cmd)
		flag.Usage()
		return 2
	}

	var logOut io.Writer = os.Stderr
	if opts.logFile != "" {
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: opening log file: %v\n", err)
			return 1
		}
		defer f.Close()
		logOut = f
	} else if cmd == "tui" {
		logOut = io.Discard
	}

	cfg, watcher, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if watcher != nil {
		defer watcher.Close()
	}

	level := cfg.LogLevel()
	if opts.logLevel != "" {
		level = logging.ParseLevel(opts.logLevel)
	}
	log := logging.New(logging.Config{Level: level, Output: logOut, Prefix: "composer"})

	sessionOpts := []editor.Option{editor.WithConfig(cfg), editor.WithLogger(log)}
	if opts.docPath != "" {
		doc, err := readDocument(opts.docPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		sessionOpts = append(sessionOpts, editor.WithDocument(doc))
	}
	session := editor.New(sessionOpts...)
	defer session.Close()

	var app atomic.Pointer[tui.App]
	if watcher != nil {
		watcher.OnChange(func(c config.Config) {
			log.Info("config reloaded from %s", watcher.Path())
			if opts.logLevel == "" {
				log.SetLevel(c.LogLevel())
			}
			session.ApplyConfig(c)
			if a := app.Load(); a != nil {
				if km, err := c.Keymap(); err == nil {
					a.SetKeymap(km)
				}
			}
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "run":
		err = runScripts(ctx, session, log, opts, args)
	case "tui":
		var a *tui.App
		if a, err = newTUI(session, log, cfg); err == nil {
			app.Store(a)
			err = a.Run(ctx)
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if opts.dump {
		data, err := document.EncodeYAML(session.Document())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		os.Stdout.Write(data)
	}
	return 0
}

func parseFlags() (options, []string) {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", "", "Path to a TOML or YAML configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.docPath, "doc", "", "YAML document to open")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config")
	flag.StringVar(&opts.logFile, "log-file", "", "Write logs to this file")
	flag.BoolVar(&opts.dump, "dump", false, "Print the final document as YAML on exit")
	flag.DurationVar(&opts.timeout, "timeout", script.DefaultTimeout, "Time limit per script (0 disables)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Composer - layer editor engine\n\n")
		fmt.Fprintf(os.Stderr, "Usage: composer [options] <command> [args]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  run script.lua...   Run Lua scripts against a session\n")
		fmt.Fprintf(os.Stderr, "  tui                 Edit in the terminal\n")
		fmt.Fprintf(os.Stderr, "  config              Print the effective configuration\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("Composer %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch opts.logLevel {
	case "", "debug", "info", "warn", "error":
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.logLevel)
		os.Exit(1)
	}

	return opts, flag.Args()
}

// loadConfig loads the configuration. A named file that exists is
// watched for changes.
func loadConfig(path string) (config.Config, *config.Watcher, error) {
	if path == "" {
		return config.Default(), nil, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil, nil
	}
	w, err := config.Watch(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	return w.Current(), w, nil
}

func printConfig(opts options) int {
	cfg, err := config.LoadOrDefault(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	data, err := config.Marshal(cfg, config.FormatTOML)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	os.Stdout.Write(data)
	return 0
}

func readDocument(path string) (document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return document.Document{}, fmt.Errorf("reading document: %w", err)
	}
	doc, err := document.DecodeYAML(data)
	if err != nil {
		return document.Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func runScripts(ctx context.Context, session *editor.Session, log *logging.Logger, opts options, paths []string) error {
	if len(paths) == 0 {
		return errors.New("run: no scripts given")
	}

	host := script.NewHost(session, script.WithLogger(log), script.WithTimeout(opts.timeout))
	defer host.Close()

	for _, path := range paths {
		if err := host.RunFile(ctx, path); err != nil {
			var serr *script.Error
			if errors.As(err, &serr) && serr.Traceback != "" {
				log.Debug("%s", serr.Traceback)
			}
			return err
		}
	}
	session.Flush()
	return nil
}

func newTUI(session *editor.Session, log *logging.Logger, cfg config.Config) (*tui.App, error) {
	km, err := cfg.Keymap()
	if err != nil {
		return nil, err
	}
	term, err := backend.NewTerminal()
	if err != nil {
		return nil, fmt.Errorf("creating terminal: %w", err)
	}
	return tui.New(term, session, tui.WithLogger(log), tui.WithKeymap(km))
}
