package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli/v3"

	"github.com/listenupapp/watchlist-server/internal/service"
	"github.com/listenupapp/watchlist-server/internal/store"
)

// SeedFile is the TOML layout accepted by the seed command.
//
//	[[users]]
//	email = "alice@example.com"
//	username = "alice"
//	password = "correct-horse"
//
//	[[lists]]
//	name = "Friday nights"
//	owner = "alice"
//	public = true
//	members = ["bob"]
//	items = ['{"id":603,"media_type":"movie","title":"The Matrix","overview":"...","popularity":80.1,"vote_count":25000,"vote_average":8.2}']
type SeedFile struct {
	Users []SeedUser `toml:"users"`
	Lists []SeedList `toml:"lists"`
}

// SeedUser is an account to create. Existing usernames are reused.
type SeedUser struct {
	Email    string `toml:"email"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// SeedList is a list owned by a seeded or existing user.
type SeedList struct {
	Name    string   `toml:"name"`
	Owner   string   `toml:"owner"`
	Public  bool     `toml:"public"`
	Members []string `toml:"members"`
	Items   []string `toml:"items"` // raw TMDB search results
}

// SeedStats counts what a seed run created.
type SeedStats struct {
	Users   int
	Lists   int
	Members int
	Items   int
}

func seedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Create users, lists and items from a TOML file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Value: "seed.toml", Usage: "Seed file"},
		},
		Action: r.SeedFromFile,
	}
}

// SeedFromFile decodes the file named by --file and applies it.
func (r *Runner) SeedFromFile(ctx context.Context, cmd *cli.Command) error {
	var seed SeedFile
	if _, err := toml.DecodeFile(cmd.String("file"), &seed); err != nil {
		return fmt.Errorf("decode seed file: %w", err)
	}

	stats, err := r.Seed(ctx, &seed)
	if err != nil {
		return err
	}
	r.printf("Seeded %d users, %d lists, %d members, %d items", stats.Users, stats.Lists, stats.Members, stats.Items)
	return nil
}

// Seed applies seed through the services, so every row passes the same
// validation and indexing as an API request.
func (r *Runner) Seed(ctx context.Context, seed *SeedFile) (SeedStats, error) {
	var stats SeedStats
	userIDs := make(map[string]string, len(seed.Users))

	for _, u := range seed.Users {
		if existing, err := r.store.GetUserByUsername(ctx, u.Username); err == nil {
			userIDs[u.Username] = existing.ID
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			return stats, fmt.Errorf("lookup user %q: %w", u.Username, err)
		}

		user, err := r.auth.CreateUser(ctx, service.CreateUserRequest{
			Email:    u.Email,
			Username: u.Username,
			Password: u.Password,
		})
		if err != nil {
			return stats, fmt.Errorf("create user %q: %w", u.Username, err)
		}
		userIDs[u.Username] = user.ID
		stats.Users++
	}

	for _, l := range seed.Lists {
		ownerID, err := r.resolveUser(ctx, userIDs, l.Owner)
		if err != nil {
			return stats, fmt.Errorf("list %q: %w", l.Name, err)
		}

		list, err := r.lists.CreateList(ctx, ownerID, service.CreateListRequest{Name: l.Name, Public: l.Public})
		if err != nil {
			return stats, fmt.Errorf("create list %q: %w", l.Name, err)
		}
		stats.Lists++

		for _, m := range l.Members {
			memberID, err := r.resolveUser(ctx, userIDs, m)
			if err != nil {
				return stats, fmt.Errorf("list %q: %w", l.Name, err)
			}
			if _, err := r.lists.JoinList(ctx, list.Slug, memberID); err != nil {
				return stats, fmt.Errorf("add %q to list %q: %w", m, l.Name, err)
			}
			stats.Members++
		}

		for i, payload := range l.Items {
			if _, err := r.lists.AddItem(ctx, list.Slug, ownerID, []byte(payload)); err != nil {
				return stats, fmt.Errorf("list %q item %d: %w", l.Name, i, err)
			}
			stats.Items++
		}
		r.printf("  %s -> /lists/%s", l.Name, list.Slug)
	}

	return stats, nil
}

func (r *Runner) resolveUser(ctx context.Context, known map[string]string, username string) (string, error) {
	if id, ok := known[username]; ok {
		return id, nil
	}
	user, err := r.store.GetUserByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("user %q: %w", username, err)
	}
	known[username] = user.ID
	return user.ID, nil
}
