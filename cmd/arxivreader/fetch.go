package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"ArxivReader/internal/app"
)

func newFetchCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch once and print the filtered papers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			application, err := app.New(ctx, c.cfg, c.logger, app.Options{})
			if err != nil {
				return err
			}
			defer application.Close()

			session := application.Session()
			if c.search != "" {
				session.SetSearch(c.search)
			}

			if err := application.Run(ctx); err != nil {
				c.logger.Warn("fetch failed", "error", err)
			}

			view := session.View()
			if c.asJSON {
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(limitPapers(view.Papers, c.limit)); err != nil {
					return fmt.Errorf("encode papers: %w", err)
				}
				return nil
			}
			renderView(c.out, view, c.limit)
			return nil
		},
	}
	c.addFilterFlags(cmd)
	return cmd
}
