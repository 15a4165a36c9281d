// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package models

import "errors"

// Sentinel errors. Stores and services wrap these with fmt.Errorf("...: %w")
// and callers match them with errors.Is; anything else is unexpected.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)
