// Package id generates identifiers for traced pipe transfers and recordings.
package id

import (
	"strconv"
	"sync/atomic"

	"github.com/rs/xid"
)

// IDGenerator produces unique identifiers. Implementations are safe to call
// from every tile goroutine.
type IDGenerator interface {
	Generate() string
}

// NewIDGenerator returns a generator of increasing decimal IDs. The sequence
// is reproducible across runs of the same program.
func NewIDGenerator() IDGenerator {
	return &sequentialIDGenerator{}
}

// NewGlobalIDGenerator returns a generator of globally unique IDs, used when
// records of several runs end up in the same place.
func NewGlobalIDGenerator() IDGenerator {
	return xidGenerator{}
}

type sequentialIDGenerator struct {
	nextID atomic.Uint64
}

func (g *sequentialIDGenerator) Generate() string {
	return strconv.FormatUint(g.nextID.Add(1), 10)
}

type xidGenerator struct{}

func (xidGenerator) Generate() string {
	return xid.New().String()
}
