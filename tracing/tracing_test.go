package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/aiesim/sim/pipe"
)

var _ = Describe("TransferCounter", func() {
	var (
		p       *pipe.Pipe
		counter *TransferCounter
	)

	BeforeEach(func() {
		p = pipe.MakeBuilder().Build("Pipe")
		counter = NewTransferCounter()
		CollectTransfers(p, counter)
	})

	It("should count pushes and pops", func() {
		w := pipe.NewWriter[int](p, pipe.NonBlocking)
		r := pipe.NewReader[int](p, pipe.NonBlocking)

		w.Write(1)
		w.Write(2)
		r.Read()

		Expect(counter.Count("Pipe")).To(Equal(
			PipeCount{Pipe: "Pipe", Pushed: 2, Popped: 1}))
		Expect(counter.TotalPopped()).To(Equal(uint64(1)))
	})

	It("should not report more pops than pushes", func() {
		counter.Pop(pipe.Transfer{Seq: 1, Pipe: "Pipe", Value: 1})

		Expect(counter.Count("Pipe")).To(Equal(
			PipeCount{Pipe: "Pipe", Pushed: 1, Popped: 1}))
		Expect(counter.Counts()).To(Equal([]PipeCount{
			{Pipe: "Pipe", Pushed: 1, Popped: 1},
		}))

		counter.Push(pipe.Transfer{Seq: 1, Pipe: "Pipe", Value: 1})
		counter.Push(pipe.Transfer{Seq: 2, Pipe: "Pipe", Value: 2})

		Expect(counter.Count("Pipe")).To(Equal(
			PipeCount{Pipe: "Pipe", Pushed: 2, Popped: 1}))
	})

	It("should not count failed operations", func() {
		r := pipe.NewReader[int](p, pipe.NonBlocking)

		_, ok := r.Read()

		Expect(ok).To(BeFalse())
		Expect(counter.Counts()).To(BeEmpty())
	})

	It("should sort the counters by pipe name", func() {
		other := pipe.MakeBuilder().Build("Another")
		CollectTransfers(other, counter)

		pipe.NewWriter[int](p, pipe.Blocking).Write(1)
		pipe.NewWriter[int](other, pipe.Blocking).Write(1)

		counts := counter.Counts()
		Expect(counts).To(HaveLen(2))
		Expect(counts[0].Pipe).To(Equal("Another"))
		Expect(counts[1].Pipe).To(Equal("Pipe"))
		Expect(counter.Count("Nowhere")).To(Equal(PipeCount{Pipe: "Nowhere"}))
	})

	It("should refuse to trace a pipe twice", func() {
		Expect(func() { CollectTransfers(p, counter) }).To(Panic())
	})

	It("should trace every pipe of a list", func() {
		a := pipe.MakeBuilder().Build("A")
		b := pipe.MakeBuilder().Build("B")
		CollectTransfersOf([]*pipe.Pipe{a, b}, counter)

		Expect(a.NumHooks()).To(Equal(1))
		Expect(b.NumHooks()).To(Equal(1))
	})

	It("should count from many goroutines", func() {
		w := pipe.NewWriter[int](p, pipe.Blocking)
		r := pipe.NewReader[int](p, pipe.Blocking)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := 0; i < 100; i++ {
				w.Write(i)
			}
		}()

		for i := 0; i < 100; i++ {
			r.Read()
		}
		<-done

		Expect(counter.Count("Pipe").Pushed).To(Equal(uint64(100)))
		Expect(counter.Count("Pipe").Popped).To(Equal(uint64(100)))
	})
})

var _ = Describe("TransferRecorder", func() {
	var (
		mockCtrl *gomock.Controller
		recorder *MockDataRecorder
		p        *pipe.Pipe
		tracer   *TransferRecorder
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		recorder = NewMockDataRecorder(mockCtrl)
		p = pipe.MakeBuilder().Build("Array.Cascade.Pipe[1]")

		recorder.EXPECT().CreateTable("transfers", PipeTransfer{})
		tracer = NewTransferRecorder(recorder, "transfers")
		CollectTransfers(p, tracer)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should record consumed elements only", func() {
		w := pipe.NewWriter[float64](p, pipe.Blocking)
		r := pipe.NewReader[float64](p, pipe.Blocking)

		recorder.EXPECT().InsertData("transfers", PipeTransfer{
			ID:    "1",
			Pipe:  "Array.Cascade.Pipe[1]",
			Seq:   1,
			Type:  "float64",
			Value: "0.5",
		})
		recorder.EXPECT().InsertData("transfers", PipeTransfer{
			ID:    "2",
			Pipe:  "Array.Cascade.Pipe[1]",
			Seq:   2,
			Type:  "float64",
			Value: "3",
		})

		w.Write(0.5)
		w.Write(3)
		w.Write(4)
		r.Read()
		r.Read()
	})
})

var _ = Describe("TransferHook", func() {
	It("should let a builder attach the tracer", func() {
		counter := NewTransferCounter()
		p := pipe.MakeBuilder().Build("Pipe")
		p.AcceptHook(TransferHook(counter))

		pipe.NewWriter[int](p, pipe.NonBlocking).Write(1)

		Expect(counter.Count("Pipe").Pushed).To(Equal(uint64(1)))
	})
})
