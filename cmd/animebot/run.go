package main

import (
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/varoOP/animebot/internal/app"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot",
	Long: `Run connects to Discord, answers commands and runs the scheduled jobs:
  - new_anime and new_waifu: today's releases and their female characters
  - airing_today: episodes airing in the next 24 hours, once a day
  - ranking_update: trending ranking changes, per genre
  - waifu_pic: a random waifu picture every few minutes

It stops on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		application, err := app.New(log, cfg, app.Options{})
		if err != nil {
			return errors.Wrap(err, "failed to initialize application")
		}
		defer func() {
			if err := application.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close application")
			}
		}()

		return application.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
