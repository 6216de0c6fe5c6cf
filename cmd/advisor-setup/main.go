// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main provides advisor-setup, a guided first-run configuration
// for the advisor client.
package main

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/advisor-tui/internal/config"
)

const version = "1.0.0"

func main() {
	for _, arg := range os.Args[1:] {
		switch arg {
		case "--help", "-h":
			printHelp()
			return
		case "--version", "-v":
			fmt.Printf("advisor-setup v%s\n", version)
			return
		}
	}

	if err := runSetup(); err != nil {
		fmt.Fprintf(os.Stderr, "advisor-setup: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(`advisor-setup v` + version + `

Usage: advisor-setup [OPTIONS]

Options:
  --help, -h     Show this help
  --version, -v  Show version

Walks through creating ~/.advisor/config.toml: the backend URL, the
auth provider, and UI preferences.`)
}

func runSetup() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println()
	fmt.Println("================================================================================")
	fmt.Println("                          ADVISOR SETUP")
	fmt.Println("              McGill course advising in your terminal")
	fmt.Println("================================================================================")
	fmt.Println()
	fmt.Println("This setup will:")
	fmt.Println("  [1] Check the advising backend is reachable")
	fmt.Println("  [2] Configure sign-in (optional)")
	fmt.Println("  [3] Write your configuration")
	fmt.Println()
	fmt.Print("Press Enter to continue (or 'q' to quit): ")
	if line, _ := reader.ReadString('\n'); strings.TrimSpace(line) == "q" {
		fmt.Println("Setup cancelled.")
		return nil
	}

	cfg := config.DefaultConfig()

	// Backend URL
	fmt.Println()
	fmt.Printf("Backend URL [%s]: ", cfg.API.BaseURL)
	if line, _ := reader.ReadString('\n'); strings.TrimSpace(line) != "" {
		cfg.API.BaseURL = strings.TrimSpace(line)
	}

	if checkBackend(cfg.API.BaseURL) {
		fmt.Println("  [OK] Backend: Reachable")
	} else {
		fmt.Println("  [!!] Backend: Not reachable (you can still continue)")
		fmt.Println("       -> Start it and re-check with: advisor --simple")
	}

	// Auth provider
	fmt.Println()
	fmt.Println("Sign-in lets the advisor remember your profile and chat history.")
	fmt.Print("Configure sign-in now? [y/N]: ")
	if line, _ := reader.ReadString('\n'); strings.EqualFold(strings.TrimSpace(line), "y") {
		fmt.Print("Auth URL (https://<project>.supabase.co/auth/v1): ")
		line, _ := reader.ReadString('\n')
		cfg.Auth.URL = strings.TrimSpace(line)

		fmt.Print("Anon key: ")
		line, _ = reader.ReadString('\n')
		cfg.Auth.AnonKey = strings.TrimSpace(line)
	} else {
		fmt.Println("Skipping. Run with --simple, or set SUPABASE_URL and SUPABASE_ANON_KEY later.")
	}

	// Theme
	fmt.Println()
	fmt.Print("Theme (auto/dark/light) [auto]: ")
	if line, _ := reader.ReadString('\n'); strings.TrimSpace(line) != "" {
		cfg.UI.Theme = strings.TrimSpace(line)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	path, err := writeConfig(cfg)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("================================================================================")
	fmt.Println("                          SETUP COMPLETE")
	fmt.Println("================================================================================")
	fmt.Println()
	fmt.Printf("  [OK] Wrote %s\n", path)
	fmt.Println()
	fmt.Println("To start, run:")
	fmt.Println()
	fmt.Println("    advisor")
	fmt.Println()
	fmt.Println("Quick tips:")
	fmt.Println("    F2/F3/F4   - Chat, courses, profile")
	fmt.Println("    Ctrl+L     - Sign out")
	fmt.Println("    --simple   - Plain-terminal chat, no sign-in")
	return nil
}

// checkBackend probes the API root with a short timeout.
func checkBackend(baseURL string) bool {
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(strings.TrimSuffix(baseURL, "/api") + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// writeConfig writes the TOML config, refusing to clobber an existing
// file.
func writeConfig(cfg *config.Config) (string, error) {
	if err := config.EnsureConfigDir(); err != nil {
		return "", err
	}
	path, err := config.ConfigPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists, edit it directly", path)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, "# advisor configuration"); err != nil {
		return "", err
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return "", err
	}
	return path, nil
}
