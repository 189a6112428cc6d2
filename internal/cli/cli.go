// Package cli is the sudonet terminal client. Commands run against the
// service layer directly; the signed-in identity lives in a session.Session.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"sudonet/internal/models"
	"sudonet/internal/session"

	"github.com/chzyer/readline"
)

// ErrExit is returned by ExecuteCommand when the user asks to quit.
var ErrExit = errors.New("exit requested")

// LineReader is the part of *readline.Instance the client needs.
type LineReader interface {
	Readline() (string, error)
	ReadPassword(prompt string) ([]byte, error)
	SetPrompt(prompt string)
}

type CLI struct {
	svc     *Services
	session *session.Session
	rl      LineReader
	out     io.Writer
	device  string
}

func New(svc *Services, sess *session.Session, rl LineReader, out io.Writer, device string) *CLI {
	return &CLI{svc: svc, session: sess, rl: rl, out: out, device: device}
}

// Prompt shows who is signed in.
func (c *CLI) Prompt() string {
	if id := c.session.Get(); id.Authenticated() {
		return id.Name + "@sudonet> "
	}
	return "guest@sudonet> "
}

// Run reads and executes one line.
func (c *CLI) Run(ctx context.Context) error {
	line, err := c.rl.Readline()
	if err != nil {
		return err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	return c.ExecuteCommand(ctx, ParseArgs(line))
}

// ParseArgs splits input on spaces, keeping double-quoted runs together.
func ParseArgs(input string) []string {
	var args []string
	var current strings.Builder
	inQuotes := false

	for _, char := range input {
		switch {
		case char == '"':
			inQuotes = !inQuotes
		case char == ' ' && !inQuotes:
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(char)
		}
	}
	if current.Len() > 0 {
		args = append(args, current.String())
	}
	return args
}

func (c *CLI) ExecuteCommand(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no command provided")
	}

	switch args[0] {
	case "register":
		return c.handleRegister(ctx, args[1:])
	case "login":
		return c.handleLogin(ctx, args[1:])
	case "logout":
		return c.handleLogout(ctx)
	case "whoami":
		return c.handleWhoami(ctx)
	case "feed":
		return c.handleFeed(ctx, args[1:])
	case "search":
		return c.handleSearch(ctx, args[1:])
	case "show":
		return c.handleShow(ctx, args[1:])
	case "compose":
		return c.handleCompose(ctx)
	case "cred":
		return c.handleCred(ctx, args[1:])
	case "comment":
		return c.handleComment(ctx, args[1:])
	case "profile":
		return c.handleProfile(ctx, args[1:])
	case "help":
		c.printHelp(args[1:])
		return nil
	case "exit", "quit":
		c.println("Goodbye!")
		return ErrExit
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// IsInterrupt reports whether err came from Ctrl-C at the prompt.
func IsInterrupt(err error) bool {
	return errors.Is(err, readline.ErrInterrupt)
}

// Describe renders an error for the terminal.
func Describe(err error) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		if appErr.Code == models.CodeNotConfigured {
			return "backend is not configured; set DATABASE_URL and STORAGE_PUBLIC_URL first"
		}
		return appErr.Message
	}
	if errors.Is(err, models.ErrNotConfigured) {
		return "backend is not configured; set DATABASE_URL and STORAGE_PUBLIC_URL first"
	}
	return err.Error()
}

func (c *CLI) println(a ...any) {
	_, _ = fmt.Fprintln(c.out, a...)
}

func (c *CLI) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(c.out, format, a...)
}

func (c *CLI) printHelp(args []string) {
	if len(args) > 0 {
		if help, ok := commandHelp[args[0]]; ok {
			c.println(help)
			return
		}
		c.printf("Unknown command: %s\n", args[0])
		return
	}

	names := make([]string, 0, len(commandHelp))
	for name := range commandHelp {
		names = append(names, name)
	}
	sort.Strings(names)
	c.println("Available commands:")
	for _, name := range names {
		c.printf("  %s\n", name)
	}
	c.println("\nUse 'help <command>' for more information about a specific command.")
}

var commandHelp = map[string]string{
	"register": `Syntax: register <name> <username> [archetype]
Description: Creates an account and signs in. The password is prompted for.
Example: register "Molly Millions" molly street_kid`,

	"login": `Syntax: login <username>
Description: Signs in. The password is prompted for.`,

	"logout": `Syntax: logout
Description: Signs out and forgets the saved session.`,

	"whoami": `Syntax: whoami
Description: Shows the signed-in user.`,

	"feed": `Syntax: feed [trending|recent] [--period hour|day|all] [--limit N] [--watch]
Description: Lists posts. With --watch the feed is re-printed on every change until Ctrl-C.
Example: feed trending --period day --limit 5`,

	"search": `Syntax: search <query>
Description: Finds posts and public profiles.`,

	"show": `Syntax: show <post-id>
Description: Shows a post with its comments and counts it as a view.`,

	"compose": `Syntax: compose
Description: Starts the interactive post composer. Type "help" inside it for its commands.`,

	"cred": `Syntax: cred <post-id>
Description: Gives or takes back street cred on a post.`,

	"comment": `Syntax: comment <post-id> <text>
Description: Comments on a post under your display name.`,

	"profile": `Syntax: profile <handle>
Description: Shows a profile.`,

	"help": `Syntax: help [command]`,

	"exit": `Syntax: exit
Description: Leaves the client.`,
}
