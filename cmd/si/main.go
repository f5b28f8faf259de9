// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package main

import (
	"github.com/rigzba21/si/internal/cli"
	"github.com/rigzba21/si/internal/logging"
)

func main() {
	logging.SetupInitialLogging()
	cli.Start()
}
