package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/varoOP/animebot/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the sqlite schema",
	Long: `Migrate opens animebot.db in the configured database directory and
applies any pending schema migrations. The bot does this on startup too.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}

		db, err := database.NewDB(cfg.Database.Dir, log)
		if err != nil {
			return errors.Wrap(err, "migration failed")
		}
		defer db.Close()

		v, err := db.SchemaVersion()
		if err != nil {
			return err
		}

		log.Info().Str("dir", cfg.Database.Dir).Int("schema_version", v).Msg("migration complete")
		fmt.Printf("\n✓ Database is at schema version %d\n\n", v)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
