package store

import (
	"fmt"
	"time"

	"github.com/loog-project/rulist/internal/user"
)

type BatchID uint64

func (id BatchID) String() string {
	return fmt.Sprintf("%08x", uint64(id))
}

// Batch is the outcome of one settled fetch.
type Batch struct {
	ID BatchID `msgpack:"i" json:"id"`
	// Op is the controller operation that issued the fetch (load, refresh, add).
	Op   string    `msgpack:"o" json:"op"`
	Time time.Time `msgpack:"t" json:"time"`
	// Requested is the number of users asked for, 0 for a single user fetch.
	Requested int           `msgpack:"n" json:"requested"`
	Users     []user.Record `msgpack:"u,omitempty" json:"users,omitempty"`
	// Error is set if the fetch failed. Users is empty in that case.
	Error string `msgpack:"e,omitempty" json:"error,omitempty"`
}

func (b *Batch) Failed() bool {
	return b.Error != ""
}
