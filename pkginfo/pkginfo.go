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

// Package pkginfo reports how the running binary was built.
package pkginfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"

	"github.com/rs/zerolog/log"
)

// Set with -ldflags at release time
var (
	BuildDate  string
	CommitHash string
	Version    string
)

// Build describes the running binary
type Build struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
	Platform  string
}

// Current returns build details, filling anything not set by the linker
// from the vcs stamps the go tool embeds
func Current() Build {
	build := Build{
		Version:   Version,
		Commit:    CommitHash,
		Date:      BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		fillFromBuildInfo(&build, info)
	}

	if build.Version == "" {
		build.Version = "devel"
	}

	return build
}

func fillFromBuildInfo(build *Build, info *debug.BuildInfo) {
	if build.Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		build.Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if build.Commit == "" {
				build.Commit = setting.Value
			}
		case "vcs.time":
			if build.Date == "" {
				build.Date = setting.Value
			}
		}
	}
}

// String formats the build for `pvpeers version`
func (build Build) String() string {
	return fmt.Sprintf(`pvpeers %s %s

Build Date: %s
Commit: %s
Built with: %s`, build.Version, build.Platform, build.Date, build.Commit, build.GoVersion)
}

// GetDependencyList returns every module linked into the binary as
// `path="version"`, sorted by path
func GetDependencyList() []string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		log.Error().Msg("could not get package build info")
		return nil
	}

	return dependencyList(info)
}

func dependencyList(info *debug.BuildInfo) []string {
	deps := make([]string, 0, len(info.Deps))
	for _, dep := range info.Deps {
		version := dep.Version
		if dep.Replace != nil {
			version = fmt.Sprintf("%s => %s %s", dep.Version, dep.Replace.Path, dep.Replace.Version)
		}
		deps = append(deps, fmt.Sprintf("%s=%q", dep.Path, version))
	}

	sort.Strings(deps)
	return deps
}
