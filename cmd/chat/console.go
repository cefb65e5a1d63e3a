package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/wolfman30/medtriage-assistant/internal/triage"
)

const (
	rule         = "----------------------------------------------------------------------"
	goodbyeText  = "Thank you! Stay healthy! 👋"
	resetText    = "Conversation reset. How can I help you?"
	commandsLine = "Commands: 'quit' to exit | 'help' for more info | 'reset' to clear conversation"
)

type command int

const (
	cmdMessage command = iota
	cmdSkip
	cmdQuit
	cmdReset
	cmdHelp
)

// turnHandler is the slice of *triage.Sessions the console drives.
type turnHandler interface {
	Handle(ctx context.Context, id, text string) (triage.Reply, error)
	Reset(ctx context.Context, id string) error
}

type console struct {
	in        io.Reader
	out       io.Writer
	turns     turnHandler
	sessionID string
}

func parseCommand(line string) command {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return cmdSkip
	case "quit", "exit", "bye":
		return cmdQuit
	case "reset":
		return cmdReset
	case "help":
		return cmdHelp
	default:
		return cmdMessage
	}
}

func (c *console) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.banner()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		fmt.Fprintf(c.out, "\n%s\n\n🧑 You: ", rule)

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintf(c.out, "\n\n🤖 Bot: Goodbye! 👋\n")
			return nil
		case err := <-readErr:
			fmt.Fprintf(c.out, "\n\n🤖 Bot: Goodbye! 👋\n")
			return err
		case line = <-lines:
		}

		switch parseCommand(line) {
		case cmdSkip:
			continue
		case cmdQuit:
			fmt.Fprintf(c.out, "\n🤖 Bot: %s\n\n", goodbyeText)
			return nil
		case cmdReset:
			if err := c.turns.Reset(ctx, c.sessionID); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "\n🤖 Bot: %s\n", resetText)
		case cmdHelp:
			c.help()
		default:
			reply, err := c.turns.Handle(ctx, c.sessionID, strings.TrimSpace(line))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "\n🤖 Bot:\n%s\n", reply.Text)
		}
	}
}

func (c *console) banner() {
	fmt.Fprintln(c.out, strings.Repeat("=", len(rule)))
	fmt.Fprintln(c.out, "     🏥 MEDICAL TRIAGE ASSISTANT 🏥")
	fmt.Fprintln(c.out, strings.Repeat("=", len(rule)))
	fmt.Fprintln(c.out, "\n✨ FEATURES:")
	fmt.Fprintln(c.out, "  1. 🔍 Symptom analysis")
	fmt.Fprintln(c.out, "  2. 👨‍⚕️ Specialist recommendations")
	fmt.Fprintln(c.out, "  3. 📅 Appointment booking")
	fmt.Fprintln(c.out, "  4. 💊 Medical information")
	fmt.Fprintln(c.out, "\n⚠️  DISCLAIMER: General information only. Always consult healthcare professionals.")
	fmt.Fprintln(c.out, "\n"+commandsLine)
}

func (c *console) help() {
	fmt.Fprintln(c.out, "\n🤖 Bot: Here's what I can do:")
	fmt.Fprintln(c.out, "\n📋 EXAMPLES:")
	fmt.Fprintln(c.out, "   • 'I have a headache and nausea'")
	fmt.Fprintln(c.out, "   • 'What is diabetes?'")
	fmt.Fprintln(c.out, "   • 'Book appointment for John Doe on 2030-01-15 at 14:00'")
	fmt.Fprintln(c.out, "   • 'View appointments'")
	fmt.Fprintln(c.out, "   • 'Check available slots for 2030-01-15'")
	fmt.Fprintln(c.out, "   • 'Cancel appointment id 5'")
}
