// Package history provides the implementation for tracking and persisting gating progress across runs.
package history

import (
	"time"

	"github.com/ivq-cli/ivq/filesystem"
	"github.com/ivq-cli/ivq/where"
	"github.com/metafates/gache"
)

// cacher provides an abstracted, disk-backed registry for gating progress records.
var cacher = gache.New[map[string]*SavedVideo](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Get returns the complete collection of historical gating records from the persistent store.
func Get() (map[string]*SavedVideo, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*SavedVideo), nil
	}
	return cached, nil
}

// Save persists the gating progress of a specific video to the history registry.
func Save(record *SavedVideo) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	// Idempotency: keep the furthest observed frontier and the union of
	// passed segments to prevent regressions on re-watch.
	if existing, exists := saved[record.encode()]; exists {
		if record.Frontier < existing.Frontier {
			record.Frontier = existing.Frontier
		}
		record.PassedSegments = mergePassed(existing.PassedSegments, record.PassedSegments)
	}
	record.UpdatedAt = time.Now()

	saved[record.encode()] = record

	return cacher.Set(saved)
}

// Remove permanently deletes a specific gating record from the history registry.
func Remove(record *SavedVideo) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, record.encode())
	return cacher.Set(saved)
}

func mergePassed(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	merged := make([]string, 0, len(a)+len(b))
	for _, ids := range [][]string{a, b} {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			merged = append(merged, id)
		}
	}
	return merged
}
