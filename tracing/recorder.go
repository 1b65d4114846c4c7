package tracing

import (
	"fmt"

	"github.com/sarchlab/aiesim/datarecording"
	"github.com/sarchlab/aiesim/sim/id"
	"github.com/sarchlab/aiesim/sim/pipe"
)

// PipeTransfer is the row written for every element consumed from a pipe.
type PipeTransfer struct {
	ID    string
	Pipe  string
	Seq   uint64
	Type  string
	Value string
}

// TransferRecorder writes the consumed elements into a data recorder.
type TransferRecorder struct {
	recorder  datarecording.DataRecorder
	table     string
	generator id.IDGenerator
}

// NewTransferRecorder creates the table and returns a tracer that fills it.
func NewTransferRecorder(
	recorder datarecording.DataRecorder,
	table string,
) *TransferRecorder {
	recorder.CreateTable(table, PipeTransfer{})

	return &TransferRecorder{
		recorder:  recorder,
		table:     table,
		generator: id.NewIDGenerator(),
	}
}

// Push does nothing. Elements are recorded when consumed.
func (r *TransferRecorder) Push(pipe.Transfer) {}

// Pop records the element.
func (r *TransferRecorder) Pop(t pipe.Transfer) {
	r.recorder.InsertData(r.table, PipeTransfer{
		ID:    r.generator.Generate(),
		Pipe:  t.Pipe,
		Seq:   t.Seq,
		Type:  fmt.Sprintf("%T", t.Value),
		Value: fmt.Sprint(t.Value),
	})
}
