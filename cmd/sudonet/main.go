// Command sudonet is the terminal client for the sudonet board.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"sudonet/internal/cache"
	"sudonet/internal/cli"
	"sudonet/internal/config"
	"sudonet/internal/database"
	"sudonet/internal/session"

	"github.com/chzyer/readline"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	cache.InitRedis(cfg.RedisURL)
	defer func() {
		if db != nil {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		if rdb := cache.GetClient(); rdb != nil {
			_ = rdb.Close()
		}
	}()

	sessionPath := cfg.SessionFile
	if sessionPath == "" {
		if sessionPath, err = session.DefaultPath(); err != nil {
			log.Fatalf("Failed to locate session file: %v", err)
		}
	}

	ctx := context.Background()
	svc := cli.NewServices(cfg, db, cache.GetClient())

	sess := session.New(session.NewFileStore(sessionPath))
	if err := sess.Restore(); err != nil {
		log.Printf("Ignoring unreadable session: %v", err)
	}
	if id := sess.Get(); id.Authenticated() {
		if _, err := svc.Credentials.VerifyToken(ctx, id.Token); err != nil {
			fmt.Println("Saved session is no longer valid; please log in again.")
			_ = sess.Clear()
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     filepath.Join(filepath.Dir(sessionPath), "history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		log.Fatalf("Failed to initialize readline: %v", err)
	}
	defer func() { _ = rl.Close() }()

	hostname, _ := os.Hostname()
	c := cli.New(svc, sess, rl, rl.Stdout(), "sudonet-cli/"+hostname)

	fmt.Println("=== SUDONET ===")
	fmt.Println("Use 'help' for the list of commands.")

	for {
		rl.SetPrompt(c.Prompt())
		err := c.Run(ctx)
		switch {
		case err == nil:
		case cli.IsInterrupt(err):
			fmt.Println("Use 'exit' to leave.")
		case errors.Is(err, io.EOF), errors.Is(err, cli.ErrExit):
			svc.StreetCreds.Wait()
			return
		default:
			fmt.Println("Error:", cli.Describe(err))
		}
	}
}
