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

package pkginfo

import (
	"runtime/debug"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Build info", func() {
	It("prefers linker values over vcs stamps", func() {
		build := Build{Version: "1.2.0", Commit: "abc123"}
		fillFromBuildInfo(&build, &debug.BuildInfo{
			Main: debug.Module{Version: "v0.9.0"},
			Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "def456"},
				{Key: "vcs.time", Value: "2024-06-01T00:00:00Z"},
			},
		})

		Expect(build.Version).To(Equal("1.2.0"))
		Expect(build.Commit).To(Equal("abc123"))
		Expect(build.Date).To(Equal("2024-06-01T00:00:00Z"))
	})

	It("ignores the devel main version", func() {
		build := Build{}
		fillFromBuildInfo(&build, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
		Expect(build.Version).To(BeEmpty())
	})

	It("formats the version banner", func() {
		build := Build{Version: "1.0.0", Platform: "linux/amd64", Date: "today", Commit: "abc", GoVersion: "go1.24"}
		Expect(build.String()).To(HavePrefix("pvpeers 1.0.0 linux/amd64"))
		Expect(build.String()).To(ContainSubstring("Commit: abc"))
	})

	It("lists dependencies sorted with replacements", func() {
		deps := dependencyList(&debug.BuildInfo{Deps: []*debug.Module{
			{Path: "github.com/spf13/viper", Version: "v1.19.0"},
			{Path: "github.com/rs/zerolog", Version: "v1.33.0", Replace: &debug.Module{Path: "github.com/penny-vault/zerolog", Version: "v1.33.1"}},
		}})

		Expect(deps).To(Equal([]string{
			`github.com/rs/zerolog="v1.33.0 => github.com/penny-vault/zerolog v1.33.1"`,
			`github.com/spf13/viper="v1.19.0"`,
		}))
	})
})
