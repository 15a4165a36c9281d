// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

// Command safarctl is the operator CLI for a SafarSathi deployment. It reads
// the same configuration as the server.
//
//	safarctl migrate
//	safarctl sequence next alertId
//	safarctl alerts list --active --limit 20
//	safarctl audit list --type alert.status_changed
//	safarctl backup create --notes "nightly"
package main

import (
	"os"

	"github.com/vedantlahane/safarsathi/internal/logging"
)

func main() {
	cfg := logging.DefaultConfig()
	cfg.Format = "console"
	cfg.Level = "warn"
	cfg.Output = os.Stderr
	logging.Init(cfg)

	if err := newRootCmd(defaultApp()).Execute(); err != nil {
		os.Exit(1)
	}
}
