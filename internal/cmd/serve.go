package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/luispater/bokchoy/internal/fixture"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func getCmdServe(g *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the fixture pages used by integration tests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}

			srv := fixture.NewServer(addr, cfg.Debug)
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "serving fixture pages on %s\n", addr)

			select {
			case err = <-errCh:
				return err
			case <-cmd.Context().Done():
				log.Debugf("Received shutdown signal. Cleaning up...")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Stop(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8003", "listen address")
	return cmd
}
