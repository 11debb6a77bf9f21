package main

import (
	"github.com/spf13/cobra"

	"ArxivReader/internal/app"
)

func newRelayCmd(c *cli) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Serve the allow-listed fetch relay",
		Long: `relay serves GET <path>?<param>=<target> for targets on the allow-list
(arxiv.org and its subdomains by default). It is the "local relay" the
fetch chain tries first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				c.cfg.Relay.Addr = addr
			}
			return app.NewRelayServer(c.cfg, c.logger).Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, localhost:8787)")
	return cmd
}
