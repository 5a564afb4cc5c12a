package cmd

import (
	"github.com/spf13/cobra"

	"github.com/BenWassa/hearth/internal/config"
	"github.com/BenWassa/hearth/internal/hydrate"
	"github.com/BenWassa/hearth/internal/ratelimit"
	"github.com/BenWassa/hearth/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API until interrupted.

Every /api route is rate limited per client and scope. The limiter reads
RATE_LIMIT_RATE_PER_SECOND, RATE_LIMIT_BURST_CAPACITY and
RATE_LIMIT_SCOPE_WEIGHTS on every request, so changes apply without a
restart. Without a rate or burst it falls back to a fixed window of
RATE_LIMIT_MAX_REQUESTS per RATE_LIMIT_WINDOW_MS.`,
	Args: cobra.NoArgs,
	RunE: runServeCommand,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServeCommand(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	addr := a.cfg.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv, err := server.New(server.Config{
		Addr:    addr,
		Limiter: ratelimit.New(config.OSEnv, ratelimit.WithLogger(a.logger)),
		Client:  a.client,
		Hydrator: hydrate.New(a.registry,
			hydrate.WithConcurrency(a.cfg.HydrateConcurrency),
			hydrate.WithLogger(a.logger)),
		PruneInterval: a.cfg.LimiterPruneInterval(),
		Logger:        a.logger,
	})
	if err != nil {
		return err
	}
	return srv.Run(cmd.Context())
}
