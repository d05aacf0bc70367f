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
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pelletier/go-toml/v2"
)

var _ = Describe("init config", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("writes a private toml file viper can read back", func() {
		fn := filepath.Join(dir, configName)
		Expect(writeConfig(fn, configFile{
			DB:       dbConfig{URL: "postgres://localhost/peers"},
			Universe: universeConfig{File: "universe.csv", Sector: "Information Technology"},
		})).To(Succeed())

		info, err := os.Stat(fn)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Mode().Perm()).To(Equal(os.FileMode(0600)))

		contents, err := os.ReadFile(fn)
		Expect(err).NotTo(HaveOccurred())

		var cfg configFile
		Expect(toml.Unmarshal(contents, &cfg)).To(Succeed())
		Expect(cfg.DB.URL).To(Equal("postgres://localhost/peers"))
		Expect(cfg.Universe.Sector).To(Equal("Information Technology"))
		Expect(filepath.IsAbs(cfg.Universe.File)).To(BeTrue())
	})

	It("omits an empty sector", func() {
		fn := filepath.Join(dir, configName)
		Expect(writeConfig(fn, configFile{Universe: universeConfig{File: "u.csv"}})).To(Succeed())

		contents, err := os.ReadFile(fn)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(contents)).NotTo(ContainSubstring("sector"))
	})

	It("validates form answers", func() {
		Expect(validDSN("postgres://localhost:5432/peers")).To(Succeed())
		Expect(existingFile(dir)).To(HaveOccurred())
		Expect(existingFile(filepath.Join(dir, "missing.csv"))).To(HaveOccurred())
	})
})
