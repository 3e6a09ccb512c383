// Package main provides watchlist-admin, the operator CLI for a Watchlist server's data directory.
//
// Usage:
//
//	watchlist-admin --data-path ~/Watchlist/data user create --email a@b.c --username alice --password ...
//	watchlist-admin seed --file seed.toml
//	watchlist-admin reindex
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// version is stamped at build time.
var version = "dev"

func main() {
	r := &Runner{out: os.Stdout}

	app := &cli.Command{
		Name:    "watchlist-admin",
		Usage:   "Manage users, seed data and indexes of a Watchlist server",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data-path",
				Usage:   "Server data directory",
				Sources: cli.EnvVars("DATA_PATH"),
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Environment file to load before reading configuration",
				Value: ".env",
			},
		},
		Before: r.Open,
		After:  r.Close,
		Commands: []*cli.Command{
			userCommand(r),
			seedCommand(r),
			reindexCommand(r),
			cacheCommand(r),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "watchlist-admin: %v\n", err)
		os.Exit(1)
	}
}
