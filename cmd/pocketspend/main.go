// Command pocketspend is a terminal client for the expense tracker. Each
// invocation runs one action against the configured backends and prints the
// resulting notification, if any.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"pocketspend/internal/app"
	"pocketspend/internal/cli"
	"pocketspend/internal/config"
	"pocketspend/internal/log"
)

const usage = `usage: pocketspend <command> [flags]

commands:
  login -user NAME [-password PASS]
  logout
  whoami
  expenses list [-q QUERY]
  expenses add -name NAME -amount AMOUNT -description TEXT [-category CAT]
  expenses delete -id ID
  budgets list
  budgets add -category CAT -limit AMOUNT [-period daily|weekly|monthly]
  budgets update -id ID [-category CAT] [-limit AMOUNT] [-period PERIOD]
  budgets delete -id ID
  dashboard
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" {
		fmt.Fprint(stderr, usage)
		if len(args) == 0 {
			return 2
		}
		return 0
	}

	if err := cli.LoadEnvFile(); err != nil {
		fmt.Fprintf(stderr, "load .env: %v\n", err)
		return 1
	}

	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger := log.New(log.Config{
		Level:  log.ParseLevel(level),
		Output: stderr,
		JSON:   os.Getenv("LOG_FORMAT") == "json",
	})

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "start: %v\n", err)
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			fmt.Fprintf(stderr, "shutdown: %v\n", err)
		}
	}()

	c := &commands{app: a, stdin: stdin, stdout: stdout, stderr: stderr}
	err = c.dispatch(ctx, args)
	c.printToast()

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp):
		fmt.Fprint(stderr, usage)
		return 2
	default:
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
}
