package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

func reindexCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "reindex",
		Usage:  "Rebuild the item search index from the database",
		Action: r.Reindex,
	}
}

func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the TMDB response cache",
		Commands: []*cli.Command{
			{
				Name:   "purge",
				Usage:  "Drop every cached search response",
				Action: r.PurgeCache,
			},
		},
	}
}

// Reindex rebuilds the search index.
func (r *Runner) Reindex(ctx context.Context, _ *cli.Command) error {
	n, err := r.search.ReindexAll(ctx)
	if err != nil {
		return err
	}
	r.printf("Indexed %d items", n)
	return nil
}

// PurgeCache empties the response cache.
func (r *Runner) PurgeCache(_ context.Context, _ *cli.Command) error {
	if r.cache == nil {
		r.printf("Cache is disabled")
		return nil
	}
	if err := r.search.PurgeCache(); err != nil {
		return err
	}
	r.printf("Cache purged")
	return nil
}
