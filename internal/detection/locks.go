// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package detection

import "sync"

// stripedLock serialises work per key using a fixed pool of mutexes.
// Two keys may share a stripe; that only costs concurrency, never safety.
type stripedLock struct {
	stripes []sync.Mutex
}

func newStripedLock(n int) *stripedLock {
	if n <= 0 {
		n = DefaultLockStripes
	}
	return &stripedLock{stripes: make([]sync.Mutex, n)}
}

// lock acquires the stripe for key and returns its unlock function.
func (l *stripedLock) lock(key string) func() {
	m := &l.stripes[keyIndex(key, len(l.stripes))]
	m.Lock()
	return m.Unlock
}
