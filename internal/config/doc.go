// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

/*
Package config loads and validates SafarSathi configuration.

Configuration is layered, lowest priority first:

 1. Struct defaults (defaultConfig)
 2. Optional YAML file: $CONFIG_PATH, then config.yaml, then /etc/safarsathi/config.yaml
 3. Optional .env file in the working directory (never overrides the real environment)
 4. Environment variables, mapped explicitly by envTransformFunc

Example:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Println(cfg.Server.Port)

Unknown environment variables are ignored. Every section is checked by
Validate before Load returns.
*/
package config
