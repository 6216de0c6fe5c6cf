// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/advisor-tui/internal/api"
	"github.com/jeranaias/advisor-tui/internal/config"
	"github.com/jeranaias/advisor-tui/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Red).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Red).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)
)

// maxContextMessages bounds the transcript sent with each request.
const maxContextMessages = 20

// Session holds the state of one plain-terminal chat session.
type Session struct {
	client   *api.Client
	cfg      *config.Config
	input    *ChatCLI
	renderer *glamour.TermRenderer

	// transcript is the rolling context window sent with each message.
	transcript []api.SimpleMessage
}

// NewSession creates a plain-terminal session.
func NewSession(cfg *config.Config, client *api.Client) *Session {
	var renderer *glamour.TermRenderer
	if IsStdoutTTY() {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(cfg.UI.WordWrap),
		)
		if err == nil {
			renderer = r
		}
	}

	return &Session{
		client:   client,
		cfg:      cfg,
		input:    NewChatCLI(),
		renderer: renderer,
	}
}

// RunSimple creates a session and drives it to completion.
func RunSimple(cfg *config.Config, client *api.Client) error {
	return NewSession(cfg, client).Run()
}

// Run drives the REPL until the user quits. The loop never exits on a
// backend error, only on EOF, Ctrl+C, or a quit command.
func (s *Session) Run() error {
	defer s.input.Close()

	printWelcome()

	for {
		input, err := s.input.ReadInput(promptStyle.Render("advisor> "))
		if err != nil {
			if err != liner.ErrPromptAborted {
				// EOF (Ctrl+D) lands here too.
				fmt.Println()
			}
			fmt.Println(infoStyle.Render("Goodbye!"))
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if !s.handleCommand(input) {
				fmt.Println(infoStyle.Render("Goodbye!"))
				return nil
			}
			continue
		}
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			fmt.Println(infoStyle.Render("Goodbye!"))
			return nil
		}

		s.send(input)
	}
}

// handleCommand runs one slash command. Returns false when the session
// should end.
func (s *Session) handleCommand(input string) bool {
	switch strings.ToLower(strings.Fields(input)[0]) {
	case "/help", "/h":
		printHelp()
	case "/clear", "/c":
		s.transcript = nil
		fmt.Println(infoStyle.Render("Context cleared."))
	case "/history":
		s.printTranscript()
	case "/quit", "/q":
		return false
	default:
		fmt.Println(errorStyle.Render("Unknown command.") + " " + infoStyle.Render("Try /help."))
	}
	return true
}

// send posts one message with the rolling transcript as context.
func (s *Session) send(input string) {
	reply, err := s.client.Chat(context.Background(), input, s.transcript)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n",
			errorStyle.Render("[Error]"),
			"couldn't reach the advisor. Is the backend running?")
		return
	}

	fmt.Println()
	fmt.Println(s.render(reply))
	fmt.Println()

	s.transcript = append(s.transcript,
		api.SimpleMessage{Role: "user", Content: input},
		api.SimpleMessage{Role: "assistant", Content: reply},
	)
	if len(s.transcript) > maxContextMessages {
		s.transcript = s.transcript[len(s.transcript)-maxContextMessages:]
	}
}

// render formats advisor output, falling back to plain text off-TTY or
// when markdown rendering fails.
func (s *Session) render(content string) string {
	if s.renderer == nil {
		return content
	}
	out, err := s.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

func (s *Session) printTranscript() {
	if len(s.transcript) == 0 {
		fmt.Println(infoStyle.Render("No messages yet."))
		return
	}
	for _, msg := range s.transcript {
		label := "You"
		if msg.Role == "assistant" {
			label = "Advisor"
		}
		fmt.Printf("%s %s\n", commandStyle.Render(label+":"), msg.Content)
	}
}

func printWelcome() {
	fmt.Println(welcomeStyle.Render("McGill Course Advisor"))
	fmt.Println(infoStyle.Render("Ask about courses, prerequisites, or program planning."))
	fmt.Println(infoStyle.Render("Type /help for commands, /quit to exit."))
	fmt.Println()
}

func printHelp() {
	rows := [][2]string{
		{"/help, /h", "Show this help"},
		{"/clear, /c", "Clear the conversation context"},
		{"/history", "Show the conversation so far"},
		{"/quit, /q", "Exit"},
	}
	for _, row := range rows {
		fmt.Printf("  %s  %s\n", commandStyle.Render(fmt.Sprintf("%-12s", row[0])), infoStyle.Render(row[1]))
	}
}
