package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/listenupapp/watchlist-server/internal/service"
)

func userCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage user accounts",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a user account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "password", Required: true, Sources: cli.EnvVars("WATCHLIST_PASSWORD")},
				},
				Action: r.CreateUser,
			},
			{
				Name:  "delete",
				Usage: "Delete a user and everything they own",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
				},
				Action: r.DeleteUser,
			},
			{
				Name:   "list",
				Usage:  "List user accounts",
				Action: r.ListUsers,
			},
		},
	}
}

// CreateUser creates an account without signing it in.
func (r *Runner) CreateUser(ctx context.Context, cmd *cli.Command) error {
	user, err := r.auth.CreateUser(ctx, service.CreateUserRequest{
		Email:    cmd.String("email"),
		Username: cmd.String("username"),
		Password: cmd.String("password"),
	})
	if err != nil {
		return err
	}
	r.printf("Created user %s (%s)", user.Username, user.ID)
	return nil
}

// DeleteUser removes the account with the given email.
func (r *Runner) DeleteUser(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	if err := r.auth.DeleteUserByEmail(ctx, email); err != nil {
		return err
	}
	r.printf("Deleted user %s", email)
	return nil
}

// ListUsers prints every account.
func (r *Runner) ListUsers(ctx context.Context, _ *cli.Command) error {
	users, err := r.auth.ListUsers(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}
