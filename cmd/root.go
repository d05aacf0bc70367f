// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/penny-vault/pvpeers/healthcheck"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pvpeers",
	Short: "pvpeers maintains a database of peer-group fundamentals for the Penny Vault family of tools",
	Long: `pvpeers is a command line utility for building and maintaining a
database of company financials organized by peer group. Every company in the
universe file is assigned to a GICS sub-industry; pvpeers downloads each
company's statements and price history, derives normalized metrics, and then
rolls them up into sub-industry time series, year-over-year series and
valuation clusters.

Companies are only re-downloaded when their stored data is older than the
freshness window, so a run can be repeated at any time. The resulting tables
are read by dashboards and by the other penny-vault tools.

Also see: init, run, aggregate, info, show, dcf`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := zerolog.ParseLevel(viper.GetString("log.level"))
		if err != nil || level == zerolog.NoLevel {
			level = zerolog.InfoLevel
		}
		zerolog.SetGlobalLevel(level)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Error().Err(err).Msg("pvpeers failed")
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pvpeers.toml)")
	rootCmd.PersistentFlags().String("db-url", "", "database connection string")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")

	if err := viper.BindPFlag("db.url", rootCmd.PersistentFlags().Lookup("db-url")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for db-url failed")
	}
	if err := viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for log-level failed")
	}

	viper.SetDefault("db.max_conns", 4)
	viper.SetDefault("universe.file", "sp500_universe.csv")
	viper.SetDefault("source.base_url", "https://query2.finance.yahoo.com")
	viper.SetDefault("source.rate_limit", 120)
	viper.SetDefault("source.timeout", "30s")
	viper.SetDefault("freshness.security_days", 14)
	viper.SetDefault("freshness.asset_days", 1)
	viper.SetDefault("aggregate.mode", "refresh")
	viper.SetDefault("cluster.eps", 0.5)
	viper.SetDefault("cluster.min_samples", 3)
	viper.SetDefault("schedule", "0 18 * * 1-5")
	viper.SetDefault("healthchecks.api_url", healthcheck.DefaultAPIURL)
	viper.SetDefault("healthchecks.ping_url", healthcheck.DefaultPingURL)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// a .env file in the working directory is optional
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded environment from .env")
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".pvpeers" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("toml")
		viper.SetConfigName(".pvpeers")
	}

	viper.SetEnvPrefix("pvpeers")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Info().Str("ConfigFN", viper.ConfigFileUsed()).Msg("Using config file")
	}
}
