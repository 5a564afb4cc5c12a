package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var (
	searchType  string
	searchPage  int
	detailsType string
)

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search TMDB for movies and shows",
	Long: `Search TMDB for movies and shows matching QUERY.

Use --type movie or --type show to restrict the search; without it both are
searched and people are left out of the results.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearchCommand,
}

var detailsCmd = &cobra.Command{
	Use:   "details ID",
	Short: "Show the details of a movie or show",
	Long: `Show the details of the movie or show with the given TMDB id.

TMDB ids are only unique per type. With --type movie the id is tried as a
movie first, otherwise as a show first; the other type is tried when the
first is not found.`,
	Args: cobra.ExactArgs(1),
	RunE: runDetailsCommand,
}

func init() {
	searchCmd.Flags().StringVarP(&searchType, "type", "t", "", "Restrict to movie or show")
	searchCmd.Flags().IntVarP(&searchPage, "page", "p", 1, "Result page")
	detailsCmd.Flags().StringVarP(&detailsType, "type", "t", "", "Preferred type: movie or show")

	rootCmd.AddCommand(searchCmd, detailsCmd)
}

func runSearchCommand(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	page, err := a.client.Search(cmd.Context(), strings.Join(args, " "), searchType, searchPage)
	if err != nil {
		return err
	}
	return printJSON(cmd, page)
}

func runDetailsCommand(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	details, err := a.client.GetMediaDetails(cmd.Context(), args[0], detailsType)
	if err != nil {
		return err
	}
	return printJSON(cmd, details)
}
