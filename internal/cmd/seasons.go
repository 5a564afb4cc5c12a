package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var seasonsCmd = &cobra.Command{
	Use:   "seasons ID",
	Short: "List the seasons of a show",
	Long: `List the regular seasons of the show with the given TMDB id.

Specials (season 0) are not listed.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeasonsCommand,
}

func init() {
	rootCmd.AddCommand(seasonsCmd)
}

func runSeasonsCommand(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	seasons, err := a.client.GetShowSeasons(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, seasons)
}

// parseSeasonNumber accepts a non-negative season number
func parseSeasonNumber(raw string) (int, error) {
	season, err := strconv.Atoi(raw)
	if err != nil || season < 0 {
		return 0, fmt.Errorf("invalid season %q: must be a non-negative integer", raw)
	}
	return season, nil
}
