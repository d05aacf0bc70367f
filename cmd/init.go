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
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/jackc/pgx/v5"
	"github.com/pelletier/go-toml/v2"
	"github.com/penny-vault/pvpeers/db"
	"github.com/penny-vault/pvpeers/library"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const configName = ".pvpeers.toml"

type dbConfig struct {
	URL string `toml:"url"`
}

type universeConfig struct {
	File   string `toml:"file"`
	Sector string `toml:"sector,omitempty"`
}

// configFile is the subset of settings `init` persists; everything else
// keeps its default until edited by hand
type configFile struct {
	DB       dbConfig       `toml:"db"`
	Universe universeConfig `toml:"universe"`
}

// setup collects what the init form asks for
type setup struct {
	library  *library.Library
	universe universeConfig
	migrate  bool
}

func validDSN(dsn string) error {
	_, err := pgx.ParseConfig(dsn)
	return err
}

func existingFile(fn string) error {
	info, err := os.Stat(fn)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", fn)
	}
	return nil
}

func configForm(answers *setup) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name for this peer library:").
				Value(&answers.library.Name),

			huh.NewInput().
				Title("Who maintains it?").
				Value(&answers.library.Owner),
		),

		huh.NewGroup(
			huh.NewInput().
				Title("PostgreSQL DSN (postgres://[user[:password]@][netloc][:port][/dbname][?param1=value1&...])").
				Value(&answers.library.DBUrl).
				Validate(validDSN),

			huh.NewConfirm().
				Title("Create or upgrade the peer tables now?").
				Value(&answers.migrate),
		),

		huh.NewGroup(
			huh.NewInput().
				Title("Universe CSV (Symbol, Security, GICS Sector, GICS Sub-Industry):").
				Value(&answers.universe.File).
				Validate(existingFile),

			huh.NewInput().
				Title("Only track one GICS sector (empty for all):").
				Value(&answers.universe.Sector),
		),
	)
}

// writeConfig stores cfg as toml at fn, readable only by the current user
func writeConfig(fn string, cfg configFile) error {
	if abs, err := filepath.Abs(cfg.Universe.File); err == nil && cfg.Universe.File != "" {
		cfg.Universe.File = abs
	}

	contents, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(fn, contents, 0600); err != nil {
		return fmt.Errorf("write %s: %w", fn, err)
	}

	return nil
}

func (answers *setup) run(ctx context.Context, configFN string) error {
	if answers.migrate {
		log.Info().Msg("migrating peer schema")
		if err := db.Migrate(answers.library.DBUrl); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	if err := answers.library.Connect(ctx); err != nil {
		return err
	}
	defer answers.library.Close()

	if err := answers.library.SaveDB(ctx); err != nil {
		return fmt.Errorf("save library settings: %w", err)
	}

	log.Info().Str("ConfigFile", configFN).Msg("saving connection settings")
	return writeConfig(configFN, configFile{
		DB:       dbConfig{URL: answers.library.DBUrl},
		Universe: answers.universe,
	})
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Configure the database and universe and create the peer schema",
	Run: func(cmd *cobra.Command, args []string) {
		answers := &setup{
			library: &library.Library{DBUrl: viper.GetString("db.url")},
			universe: universeConfig{
				File:   viper.GetString("universe.file"),
				Sector: viper.GetString("universe.sector"),
			},
			migrate: true,
		}

		if err := configForm(answers).Run(); err != nil {
			log.Fatal().Err(err).Msg("init form aborted")
		}

		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal().Err(err).Msg("could not determine user home directory")
		}

		if err := answers.run(context.Background(), filepath.Join(home, configName)); err != nil {
			log.Fatal().Err(err).Msg("init failed")
		}

		log.Info().Str("Library", answers.library.Name).Msg("peer library initialized")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
