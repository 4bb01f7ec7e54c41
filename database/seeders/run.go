// Package seeders provides a registry of data seed functions.
//
// Usage (define a seeder in any file in this package):
//
//	func init() {
//	    seeders.Register("sample_data", SampleData)
//	}
//
//	func SampleData(ctx context.Context, store repositories.Store) error {
//	    // insert records …
//	    return nil
//	}
//
// Then run via CLI: darzi seed
package seeders

import (
	"context"
	"fmt"
	"sync"

	"github.com/darzi-app/darzi/app/repositories"
	"github.com/darzi-app/darzi/pkg/logger"
)

// SeederFunc is the signature for a seed function.
type SeederFunc func(ctx context.Context, store repositories.Store) error

type seederEntry struct {
	name string
	fn   SeederFunc
}

var (
	mu      sync.Mutex
	entries []seederEntry
)

// Register adds a seeder to the global registry.
// Call this from init() in your seeder files.
func Register(name string, fn SeederFunc) {
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, seederEntry{name: name, fn: fn})
}

// Names lists the registered seeders in run order.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.name
	}
	return out
}

// RunAll executes every registered seeder in registration order, each in
// its own store transaction. It stops on the first error and returns the
// names that completed.
func RunAll(ctx context.Context, store repositories.Store) ([]string, error) {
	mu.Lock()
	current := make([]seederEntry, len(entries))
	copy(current, entries)
	mu.Unlock()

	log := logger.WithCtx(ctx)
	if len(current) == 0 {
		log.Info("seed: no seeders registered")
		return nil, nil
	}

	var ran []string
	for _, e := range current {
		log.Info("seed: running", "seeder", e.name)
		err := store.Atomic(ctx, func(tx repositories.Store) error {
			return e.fn(ctx, tx)
		})
		if err != nil {
			return ran, fmt.Errorf("seeder %q: %w", e.name, err)
		}
		ran = append(ran, e.name)
	}
	return ran, nil
}
