// SPDX-License-Identifier: MIT
package main

import (
	"os"

	"iqspect/cmd"
	applog "iqspect/internal/log"
	"iqspect/pkg/build"
)

func main() {
	// Build metadata first so --version and logs report the real
	// version on release builds.
	build.Initialize()

	if err := cmd.Execute(); err != nil {
		applog.Errorf("%v", err)
		os.Exit(1)
	}
}
