// Command pricectl runs the pricing engine operations against the configured
// database or a JSON snapshot. Requests are read as JSON from -f or stdin and
// results are written as JSON to stdout; logs go to stderr.
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
)

type options struct {
	configPath   string
	snapshotPath string
	requestPath  string
	actor        string
	logLevel     string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "TOML config file (default: ./config.toml)")
	flag.StringVar(&opts.snapshotPath, "snapshot", "", "Use this JSON snapshot instead of the database")
	flag.StringVar(&opts.requestPath, "f", "", "Read the JSON request from this file instead of stdin")
	flag.StringVar(&opts.actor, "actor", "", "Actor recorded on mutations (default: $USER)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Override log.level from the config")
	flag.Usage = func() { printUsage(os.Stderr) }
	flag.Parse()

	if flag.NArg() == 0 {
		printUsage(os.Stderr)
		os.Exit(2)
	}
	if opts.actor == "" {
		opts.actor = os.Getenv("USER")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, flag.Args(), os.Stdin, os.Stdout); err != nil {
		var usage usageError
		if errors.As(err, &usage) {
			fmt.Fprintln(os.Stderr, err)
			printUsage(os.Stderr)
			os.Exit(2)
		}
		os.Exit(1)
	}
}

type usageError string

func (e usageError) Error() string { return string(e) }

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `pricectl - price resolution and price list operations

Usage:
  pricectl [flags] <command> [args]

Commands:`)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-20s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w, `
Flags:
  -config string     TOML config file (default: ./config.toml)
  -snapshot string   JSON snapshot used instead of the database
  -f string          JSON request file (default: stdin)
  -actor string      Actor recorded on mutations (default: $USER)
  -log-level string  Override the configured log level

Examples:
  echo '{"product_id":"..."}' | pricectl -snapshot data.json resolve
  pricectl -f bulk.json bulk-preview
  pricectl import-snapshot data.json`)
}
