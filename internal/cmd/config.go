package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BenWassa/hearth/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or initialize the configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets masked",
	Args:  cobra.NoArgs,
	RunE:  runConfigShowCommand,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to ~/.hearth/config.json",
	Args:  cobra.NoArgs,
	RunE:  runConfigInitCommand,
}

var configForce bool

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configShowCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShowCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	masked := *cfg
	masked.TMDBBearerToken = maskSecret(masked.TMDBBearerToken)
	masked.TMDBAPIKey = maskSecret(masked.TMDBAPIKey)
	return printJSON(cmd, masked)
}

func runConfigInitCommand(cmd *cobra.Command, args []string) error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("%s already exists, use --force to overwrite it", path)
	}
	if err := config.DefaultConfig().Save(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
	return nil
}

// maskSecret keeps the last four characters of long secrets
func maskSecret(secret string) string {
	switch {
	case secret == "":
		return ""
	case len(secret) <= 8:
		return "****"
	default:
		return "****" + secret[len(secret)-4:]
	}
}
