package cmd

import (
	"github.com/spf13/cobra"

	"github.com/BenWassa/hearth/internal/hydrate"
)

var hydrateProvider string

var hydrateCmd = &cobra.Command{
	Use:   "hydrate ID",
	Short: "Print the full season and episode tree of a show",
	Long: `Fetch every season of a show and the episodes of each season.

Seasons whose episodes cannot be fetched are kept with an empty episode list
and a warning is logged.`,
	Args: cobra.ExactArgs(1),
	RunE: runHydrateCommand,
}

func init() {
	hydrateCmd.Flags().StringVar(&hydrateProvider, "provider", "tmdb", "Metadata provider")
	rootCmd.AddCommand(hydrateCmd)
}

func runHydrateCommand(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	cache := hydrate.New(a.registry,
		hydrate.WithConcurrency(a.cfg.HydrateConcurrency),
		hydrate.WithLogger(a.logger))

	show, err := cache.HydrateShowData(cmd.Context(), hydrateProvider, args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, show)
}
