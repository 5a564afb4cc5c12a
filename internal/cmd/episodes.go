package cmd

import (
	"github.com/spf13/cobra"
)

var episodesCmd = &cobra.Command{
	Use:   "episodes ID SEASON",
	Short: "List the episodes of one season of a show",
	Args:  cobra.ExactArgs(2),
	RunE:  runEpisodesCommand,
}

func init() {
	rootCmd.AddCommand(episodesCmd)
}

func runEpisodesCommand(cmd *cobra.Command, args []string) error {
	season, err := parseSeasonNumber(args[1])
	if err != nil {
		return err
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	episodes, err := a.client.GetSeasonEpisodes(cmd.Context(), args[0], season)
	if err != nil {
		return err
	}
	return printJSON(cmd, episodes)
}
