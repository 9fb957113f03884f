package main

import (
	"os"

	"todo-api/internal/config"
	"todo-api/pkg/logger"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "todo-api",
	Short: "Multi-user todo API",
	Long: `Serves the todo and category JSON API with JWT authentication.

Without a subcommand the schema is migrated and the HTTP server started.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if configFile != "" {
			_ = os.Setenv("CONFIG_FILE", configFile)
		}
		logger.Setup(config.Get().LogLevel)
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (overrides CONFIG_FILE)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(flushTokensCmd)
}
