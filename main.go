// advisor TUI - A terminal client for the McGill course-advising service.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/advisor-tui/internal/api"
	"github.com/jeranaias/advisor-tui/internal/auth"
	"github.com/jeranaias/advisor-tui/internal/cli"
	"github.com/jeranaias/advisor-tui/internal/config"
	"github.com/jeranaias/advisor-tui/internal/ui/app"
	"github.com/jeranaias/advisor-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		simple      = flag.Bool("simple", false, "plain-terminal chat without sign-in")
		configPath  = flag.String("config", "", "path to config.toml (default ~/.advisor/config.toml)")
		debug       = flag.Bool("debug", false, "verbose logging")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("advisor %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "advisor: %v\n", err)
		return 2
	}
	if *debug {
		cfg.Debug = true
	}

	// The full-screen UI owns the terminal, so logs go to a file.
	logFile, err := tea.LogToFile(cfg.LogFilePath(), "advisor")
	if err == nil {
		defer logFile.Close()
	}
	if !cfg.Debug {
		log.SetFlags(log.LstdFlags)
	} else {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	if *simple {
		return runSimple(cfg)
	}
	return runTUI(cfg)
}

// runSimple starts the readline REPL against the public chat endpoint.
func runSimple(cfg *config.Config) int {
	client := api.NewClient(cfg.API.BaseURL, nil).WithTimeout(cfg.API.Timeout())
	if err := cli.RunSimple(cfg, client); err != nil {
		fmt.Fprintf(os.Stderr, "advisor: %v\n", err)
		return 1
	}
	return 0
}

// runTUI starts the full-screen client.
func runTUI(cfg *config.Config) int {
	if !cli.IsStdinTTY() {
		fmt.Fprintln(os.Stderr, "advisor: not a terminal (use --simple for piped input)")
		return 2
	}
	if !cfg.HasAuth() {
		fmt.Fprintln(os.Stderr, "advisor: no auth provider configured")
		fmt.Fprintln(os.Stderr, "Set SUPABASE_URL and SUPABASE_ANON_KEY (or auth.url / auth.anon_key")
		fmt.Fprintln(os.Stderr, "in ~/.advisor/config.toml), or run with --simple.")
		return 2
	}

	provider := auth.NewGoTrueProvider(cfg.Auth.URL, cfg.Auth.AnonKey, cfg.SessionFilePath())
	client := api.NewClient(cfg.API.BaseURL, auth.ProviderTokenSource{Provider: provider}).
		WithTimeout(cfg.API.Timeout())
	manager := auth.NewManager(provider, client)

	theme := themeFor(cfg.UI.Theme)
	shell := app.New(theme, manager, client, cfg.UI.WordWrap, cfg.Chat.HistoryLimit)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(shell, tea.WithAltScreen())

	manager.SetOnChange(func() {
		p.Send(app.SessionChangedMsg{})
	})
	manager.Start(ctx)
	defer manager.Close()

	// Live-tunable settings (word wrap) follow the file; everything
	// else takes effect on restart.
	if path, err := config.ConfigPath(); err == nil {
		if stop, err := config.Watch(path, func(next *config.Config) {
			log.Printf("config changed on disk")
			p.Send(app.ConfigReloadedMsg{WordWrap: next.UI.WordWrap})
		}); err == nil {
			defer stop()
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "advisor: %v\n", err)
		return 1
	}
	return 0
}

func themeFor(name string) *styles.Theme {
	switch name {
	case "dark":
		return styles.NewThemeForBackground(true)
	case "light":
		return styles.NewThemeForBackground(false)
	default:
		return styles.NewTheme()
	}
}
