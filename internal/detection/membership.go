// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package detection

import (
	"hash/fnv"
	"sort"
	"sync"

	"github.com/vedantlahane/safarsathi/internal/geo"
	"github.com/vedantlahane/safarsathi/internal/models"
)

// MembershipTracker remembers which active zones each tourist was inside at
// their last processed ping. Entries are sharded by tourist id so updates for
// different tourists rarely contend. An absent entry means "inside no zone".
type MembershipTracker struct {
	shards []membershipShard
}

type membershipShard struct {
	mu    sync.Mutex
	zones map[string]map[int64]struct{}
}

// NewMembershipTracker creates a tracker with the given shard count.
func NewMembershipTracker(shards int) *MembershipTracker {
	if shards <= 0 {
		shards = DefaultMembershipShards
	}
	t := &MembershipTracker{shards: make([]membershipShard, shards)}
	for i := range t.shards {
		t.shards[i].zones = make(map[string]map[int64]struct{})
	}
	return t
}

func keyIndex(key string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}

func (t *MembershipTracker) shard(touristID string) *membershipShard {
	return &t.shards[keyIndex(touristID, len(t.shards))]
}

// Update replaces the tourist's membership with the zones containing pos and
// returns the ids of zones entered since the previous update, ascending.
// A nil position or an empty zone list clears the entry.
func (t *MembershipTracker) Update(touristID string, pos *geo.Point, activeZones []models.RiskZone) []int64 {
	s := t.shard(touristID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if pos == nil || len(activeZones) == 0 {
		delete(s.zones, touristID)
		return nil
	}

	inside := make(map[int64]struct{})
	for i := range activeZones {
		if activeZones[i].Contains(pos) {
			inside[activeZones[i].ID] = struct{}{}
		}
	}

	previous := s.zones[touristID]
	var entered []int64
	for id := range inside {
		if _, was := previous[id]; !was {
			entered = append(entered, id)
		}
	}
	sort.Slice(entered, func(i, j int) bool { return entered[i] < entered[j] })

	if len(inside) == 0 {
		delete(s.zones, touristID)
	} else {
		s.zones[touristID] = inside
	}
	return entered
}

// Zones returns the zone ids the tourist is currently inside, ascending.
func (t *MembershipTracker) Zones(touristID string) []int64 {
	s := t.shard(touristID)
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.zones[touristID]))
	for id := range s.zones[touristID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Restore sets the tourist's membership to exactly ids, undoing an Update
// whose entries could not be committed.
func (t *MembershipTracker) Restore(touristID string, ids []int64) {
	s := t.shard(touristID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(ids) == 0 {
		delete(s.zones, touristID)
		return
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	s.zones[touristID] = set
}

// Remove drops one zone from the tourist's membership so the next ping
// inside it counts as an entry again.
func (t *MembershipTracker) Remove(touristID string, zoneID int64) {
	s := t.shard(touristID)
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.zones[touristID]
	if !ok {
		return
	}
	delete(set, zoneID)
	if len(set) == 0 {
		delete(s.zones, touristID)
	}
}

// Clear forgets the tourist.
func (t *MembershipTracker) Clear(touristID string) {
	s := t.shard(touristID)
	s.mu.Lock()
	delete(s.zones, touristID)
	s.mu.Unlock()
}

// Len returns the number of tourists currently inside at least one zone.
func (t *MembershipTracker) Len() int {
	n := 0
	for i := range t.shards {
		t.shards[i].mu.Lock()
		n += len(t.shards[i].zones)
		t.shards[i].mu.Unlock()
	}
	return n
}
