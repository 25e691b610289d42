package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/varoOP/animebot/internal/app"
	"github.com/varoOP/animebot/internal/domain"
)

var checkCmd = &cobra.Command{
	Use:   "check <job>",
	Short: "Run one scheduled job once",
	Long: fmt.Sprintf(`Check runs a single job immediately against the current subscriptions.
With --dry-run messages are logged instead of sent.

Jobs: %s`, strings.Join(jobNames(), ", ")),
	Args:      cobra.ExactArgs(1),
	ValidArgs: jobNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		cfg, log, err := setup()
		if err != nil {
			return err
		}

		application, err := app.New(log, cfg, app.Options{DryRun: dryRun})
		if err != nil {
			return errors.Wrap(err, "failed to initialize application")
		}
		defer func() {
			if err := application.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close application")
			}
		}()

		if err := application.Check(cmd.Context(), args[0]); err != nil {
			return errors.Wrapf(err, "check %s failed", args[0])
		}
		log.Info().Str("job", args[0]).Bool("dry_run", dryRun).Msg("check complete")
		return nil
	},
}

func jobNames() []string {
	names := make([]string, 0, len(domain.NotificationKinds))
	for _, k := range domain.NotificationKinds {
		names = append(names, string(k))
	}
	return names
}

func init() {
	checkCmd.Flags().Bool("dry-run", false, "log messages instead of sending them")
	rootCmd.AddCommand(checkCmd)
}
