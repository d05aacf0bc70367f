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
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/penny-vault/pvpeers/healthcheck"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var daemon bool

var errNoCompanies = errors.New("no companies matched")

// cronLogger adapts the global zerolog logger to the cron scheduler
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [TICKER...]",
	Short: "Refresh stale companies and recompute peer aggregates",
	Long: `The run sub-command loads the universe file, skips every company whose
stored data is still within the freshness window, downloads and derives the
rest, and then recomputes the sub-industry aggregates and valuation clusters.
Broad-market asset classes are refreshed at the end of every run.

If tickers are provided only those companies are considered. With --daemon
the same job executes on the configured cron schedule until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := log.Logger.WithContext(context.Background())

		companies, err := universe(viper.GetString("universe.sector"), args)
		if err != nil {
			return fmt.Errorf("could not load universe: %w", err)
		}

		if len(companies) == 0 {
			return fmt.Errorf("%w: sector %q tickers %v", errNoCompanies, viper.GetString("universe.sector"), args)
		}

		myLibrary := connect(ctx)
		defer myLibrary.Close()

		job, err := newPipeline(myLibrary, newSource())
		if err != nil {
			return err
		}

		execute := func() {
			report, err := job.run(ctx, companies)
			if err != nil {
				log.Error().Err(err).Msg("run failed")
			}
			printReport(report)
			ping(ctx, report, err)
		}

		if !daemon {
			execute()
			return nil
		}

		schedule := viper.GetString("schedule")
		scheduler := cron.New(cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})))
		if _, err := scheduler.AddFunc(schedule, execute); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", schedule, err)
		}

		if viper.GetString("healthchecks.check_id") == "" && viper.GetString("healthchecks.apikey") != "" {
			checkID, err := healthchecks().Create(ctx, healthcheck.Check{
				Name:     "pvpeers refresh",
				Tags:     []string{"pvpeers"},
				Schedule: schedule,
			})
			if err != nil {
				return fmt.Errorf("creating healthcheck failed: %w", err)
			}
			log.Info().Str("CheckID", checkID).Msg("created healthcheck; set healthchecks.check_id to reuse it")
			viper.Set("healthchecks.check_id", checkID)
		}

		scheduler.Start()
		log.Info().Str("Schedule", schedule).Int("NumCompanies", len(companies)).Msg("scheduler started")

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		log.Info().Msg("waiting for running job to finish")
		<-scheduler.Stop().Done()
		return nil
	},
}

func printReport(report *runReport) {
	if report == nil {
		return
	}

	fmt.Println(
		lipgloss.NewStyle().
			Width(72).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2).
			Render(lipgloss.NewStyle().Bold(true).Render("PEER REFRESH") + "\n\n" + report.String()),
	)
}

func healthchecks() *healthcheck.Client {
	return healthcheck.New(
		viper.GetString("healthchecks.apikey"),
		viper.GetString("healthchecks.api_url"),
		viper.GetString("healthchecks.ping_url"),
	)
}

// ping reports the run to healthchecks.io when a check is configured
func ping(ctx context.Context, report *runReport, runErr error) {
	checkID := viper.GetString("healthchecks.check_id")
	if checkID == "" {
		return
	}

	body := ""
	if report != nil {
		body = report.String()
	}

	failed := runErr != nil
	if failed {
		body += "\n" + runErr.Error()
	}

	if err := healthchecks().Ping(ctx, checkID, failed, body); err != nil {
		log.Warn().Err(err).Str("CheckID", checkID).Msg("healthcheck ping failed")
	}
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&daemon, "daemon", false, "run on the configured schedule until interrupted")
	runCmd.Flags().String("sector", "", "only consider companies in this GICS sector")
	if err := viper.BindPFlag("universe.sector", runCmd.Flags().Lookup("sector")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for sector failed")
	}
}
