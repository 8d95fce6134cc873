package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/firm-intel-crawler/internal/api"
	"github.com/JakeFAU/firm-intel-crawler/internal/checkpoint"
	"github.com/JakeFAU/firm-intel-crawler/internal/orchestrator"
)

func newServeCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve health, metrics and checkpoint progress over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			store, err := a.Checkpoint(cmd.Context())
			if err != nil {
				return err
			}
			if port <= 0 {
				port = a.Config().Server.Port
			}
			srv := api.NewServer(&checkpointSnapshots{ctx: cmd.Context(), store: store}, nil, a.Logger())
			return srv.ListenAndServe(cmd.Context(), port)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (defaults to server.port)")
	return cmd
}

// checkpointSnapshots reads progress straight from the checkpoint store, for
// use when no run is active in this process.
type checkpointSnapshots struct {
	ctx   context.Context
	store checkpoint.Store
}

func (c *checkpointSnapshots) Snapshot() orchestrator.Snapshot {
	state := c.store.Load(context.WithoutCancel(c.ctx))
	phase := orchestrator.PhaseInit
	if state.StartTime != nil {
		phase = orchestrator.PhaseRunning
	}
	return orchestrator.Snapshot{
		Phase:   phase,
		Summary: state.Summarize(),
		Updated: time.Now().UTC(),
	}
}
