package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ArxivReader/internal/app"
)

func newBookmarksCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookmarks",
		Short: "List, add or remove bookmarked papers",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Print the bookmarked papers",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				application, err := app.New(cmd.Context(), c.cfg, c.logger, app.Options{})
				if err != nil {
					return err
				}
				defer application.Close()

				renderBookmarks(c.out, application.Bookmarks().List())
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <id>...",
			Short: "Fetch the current feeds and bookmark papers by id",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				application, err := app.New(ctx, c.cfg, c.logger, app.Options{})
				if err != nil {
					return err
				}
				defer application.Close()

				if err := application.Run(ctx); err != nil {
					return err
				}

				for _, id := range args {
					paper, ok := application.Session().Paper(id)
					if !ok {
						return fmt.Errorf("paper %s is not in the current feeds", id)
					}
					added, err := application.Bookmarks().Add(ctx, paper)
					if err != nil {
						return err
					}
					if added {
						fmt.Fprintf(c.out, "bookmarked %s\n", id)
					} else {
						fmt.Fprintf(c.out, "%s already bookmarked\n", id)
					}
				}
				return nil
			},
		},
		&cobra.Command{
			Use:     "remove <id>...",
			Aliases: []string{"rm"},
			Short:   "Remove bookmarks by id",
			Args:    cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				application, err := app.New(ctx, c.cfg, c.logger, app.Options{})
				if err != nil {
					return err
				}
				defer application.Close()

				for _, id := range args {
					removed, err := application.Bookmarks().Remove(ctx, id)
					if err != nil {
						return err
					}
					if removed {
						fmt.Fprintf(c.out, "removed %s\n", id)
					} else {
						fmt.Fprintf(c.out, "%s was not bookmarked\n", id)
					}
				}
				return nil
			},
		},
	)
	return cmd
}
