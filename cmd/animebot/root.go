package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/varoOP/animebot/internal/config"
	"github.com/varoOP/animebot/internal/domain"
	"github.com/varoOP/animebot/internal/logger"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "animebot",
	Short: "An anime and manga bot for Discord",
	Long: `Animebot answers anime, manga and character lookups in Discord and
pushes new releases, airing episodes, ranking changes and waifu pictures
to subscribed channels. Data comes from AniList, Jikan and waifu.im.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or $HOME/.animebot.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("database-dir", "", "directory holding animebot.db")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("database.dir", rootCmd.PersistentFlags().Lookup("database-dir"))
}

// initConfig reads in the .env file, the config file and ENV variables if set.
func initConfig() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, "Warning:", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		if _, err := os.Stat("config.yaml"); err != nil {
			if home, err := os.UserHomeDir(); err == nil {
				viper.SetConfigName(".animebot")
				viper.AddConfigPath(home)
			}
		}
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setup loads and validates the configuration and builds the logger for it
func setup() (*domain.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger.NewLoggerWithLevel(cfg.Log.Level), nil
}
