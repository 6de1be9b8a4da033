package harness

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// RunIDs hands out run identifiers. It is called once per run, before any
// unit starts, so every mirrored execution row carries the id.
type RunIDs func() string

// NewRunID returns a UUIDv7 string; ids from one host sort by start time.
func NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedRunIDs returns ids in order and panics once they are used up.
func FixedRunIDs(ids ...string) RunIDs {
	var mu sync.Mutex
	next := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		if next >= len(ids) {
			panic(fmt.Sprintf("harness: only %d run id(s) were provided", len(ids)))
		}
		id := ids[next]
		next++
		return id
	}
}
