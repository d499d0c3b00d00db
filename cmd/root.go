package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/mediz/internal/config"
	"github.com/abhisek/mediz/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "mediz",
	Short: "Adaptive clinical consultation tutor",
	Long: "Mediz: simulated clinical consultations for medical students. The tutor plays the patient, " +
		"flags reasoning errors, awards stars and evaluates the final diagnosis.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsult(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides MEDIZ_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (default ./mediz.yaml or ~/.config/mediz/mediz.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(consultCmd)
	rootCmd.AddCommand(casesCmd)
	rootCmd.AddCommand(learnerCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the configuration named by --config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path (MEDIZ_DB env var or config file), then the
// default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg != nil && cfg.Database.Path != "" {
		return cfg.Database.Path, store.EnsureDir(cfg.Database.Path)
	}
	return store.DefaultDBPath()
}
