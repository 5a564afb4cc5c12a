package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/BenWassa/hearth/internal/provider"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hearth",
	Short: "Media metadata service for a shared watchlist",
	Long: `hearth fronts the TMDB metadata API for a shared watchlist application.

It serves search, details, season and episode lookups over HTTP behind a
per-client rate limiter, and the same lookups are available directly from
the command line. Output of the lookup commands is JSON.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describeError(err))
		os.Exit(1)
	}
}

var (
	configPath string
	logLevel   string
	logFormat  string
)

func init() {
	// Global flags for all commands
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.hearth/config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: json or console")
}

// describeError renders provider failures as "CODE: message".
func describeError(err error) string {
	var ue *provider.UpstreamError
	if errors.As(err, &ue) {
		return fmt.Sprintf("%s: %s", ue.Code, ue.Message)
	}
	return err.Error()
}
