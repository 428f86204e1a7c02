package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aldeialab/sage/db"
	"github.com/aldeialab/sage/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Aplica as migrações do banco de dados",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Migrações aplicadas com sucesso")
	return nil
}
