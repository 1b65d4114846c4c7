package tracing

import (
	"sort"
	"sync"

	"github.com/sarchlab/aiesim/sim/pipe"
)

// PipeCount is the number of elements that went through one pipe.
type PipeCount struct {
	Pipe   string
	Pushed uint64
	Popped uint64
}

// TransferCounter counts pushes and pops per pipe.
type TransferCounter struct {
	lock   sync.Mutex
	counts map[string]*PipeCount
}

// NewTransferCounter creates an empty counter.
func NewTransferCounter() *TransferCounter {
	return &TransferCounter{counts: make(map[string]*PipeCount)}
}

func (c *TransferCounter) entry(name string) *PipeCount {
	e, ok := c.counts[name]
	if !ok {
		e = &PipeCount{Pipe: name}
		c.counts[name] = e
	}

	return e
}

// snapshot copies e. The consumer can report a pop before the producer
// reports the push of the same element, so every element seen leaving is
// also counted as pushed.
func (e *PipeCount) snapshot() PipeCount {
	c := *e
	c.Pushed = max(c.Pushed, c.Popped)

	return c
}

// Push counts an element entering a pipe.
func (c *TransferCounter) Push(t pipe.Transfer) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.entry(t.Pipe).Pushed++
}

// Pop counts an element leaving a pipe.
func (c *TransferCounter) Pop(t pipe.Transfer) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.entry(t.Pipe).Popped++
}

// Count returns the counters of the named pipe. Popped never exceeds Pushed.
func (c *TransferCounter) Count(name string) PipeCount {
	c.lock.Lock()
	defer c.lock.Unlock()

	if e, ok := c.counts[name]; ok {
		return e.snapshot()
	}

	return PipeCount{Pipe: name}
}

// Counts returns the counters of every pipe that saw traffic, sorted by pipe
// name.
func (c *TransferCounter) Counts() []PipeCount {
	c.lock.Lock()
	defer c.lock.Unlock()

	counts := make([]PipeCount, 0, len(c.counts))
	for _, e := range c.counts {
		counts = append(counts, e.snapshot())
	}

	sort.Slice(counts, func(i, j int) bool {
		return counts[i].Pipe < counts[j].Pipe
	})

	return counts
}

// TotalPopped returns the number of elements consumed across all pipes.
func (c *TransferCounter) TotalPopped() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	var total uint64
	for _, e := range c.counts {
		total += e.Popped
	}

	return total
}
