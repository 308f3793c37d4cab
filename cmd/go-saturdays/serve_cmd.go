package main

import (
	"github.com/spf13/cobra"
	"github.com/tartampluch/go-saturdays/internal/api"
	"github.com/tartampluch/go-saturdays/internal/auth"
	"github.com/tartampluch/go-saturdays/internal/config"
	"github.com/tartampluch/go-saturdays/internal/engine"
	"github.com/tartampluch/go-saturdays/internal/metrics"
	"github.com/tartampluch/go-saturdays/internal/server"
	"github.com/tartampluch/go-saturdays/internal/store"
)

// newServeCmd runs the backend: collection API, ICS feed, health and metrics.
func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdServe,
		Short: config.CmdDescServe,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(c.settings.DataFile, c.clock)
			if err != nil {
				return err
			}

			a := api.New(api.Options{
				Store:          st,
				Verifier:       auth.NewVerifier(c.settings.TokenHash),
				Metrics:        metrics.New(),
				Builder:        &engine.FeedBuilder{Clock: c.clock, Name: c.settings.FeedName},
				AllowedOrigins: c.settings.AllowedOrigins,
			})
			if err := a.RebuildFeed(); err != nil {
				return err
			}

			if err := server.New(c.settings.ListenAddr, a.Handler()).Start(cmd.Context()); err != nil {
				return err
			}
			c.logStop()
			return nil
		},
	}
}
