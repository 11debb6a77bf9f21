package main

import (
	"sync"

	"github.com/spf13/cobra"

	"ArxivReader/internal/app"
	"ArxivReader/internal/domain"
	"ArxivReader/internal/usecase"
)

func newWatchCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh on an interval and print every update",
		Long: `watch refreshes immediately and then every scheduler.interval (30m by
default) until interrupted. Bookmark changes made by another process are
picked up and printed as they happen.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// refresh ticks and bookmark reloads arrive on different goroutines
			var mu sync.Mutex
			observer := usecase.Observer{
				PapersChanged: func(v usecase.View) {
					mu.Lock()
					defer mu.Unlock()
					renderView(c.out, v, c.limit)
				},
				BookmarksChanged: func(b []domain.BookmarkRecord) {
					mu.Lock()
					defer mu.Unlock()
					renderBookmarks(c.out, b)
				},
			}

			application, err := app.New(ctx, c.cfg, c.logger, app.Options{Observer: observer})
			if err != nil {
				return err
			}
			defer application.Close()

			if c.search != "" {
				application.Session().SetSearch(c.search)
			}
			return application.Watch(ctx, nil)
		},
	}
	c.addFilterFlags(cmd)
	return cmd
}
