package pipe

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/aiesim/sim/hooking"
)

var _ = Describe("Pipe", func() {
	var p *Pipe

	BeforeEach(func() {
		p = MakeBuilder().WithCapacity(4).Build("Pipe")
	})

	It("should reject non-positive capacity", func() {
		Expect(func() {
			MakeBuilder().WithCapacity(0).Build("Pipe")
		}).To(Panic())
	})

	It("should reject invalid names", func() {
		Expect(func() { MakeBuilder().Build("pipe") }).To(Panic())
	})

	It("should deliver elements in write order whatever the mode", func() {
		w := NewWriter[int](p, Blocking)
		nw := NewWriter[int](p, NonBlocking)
		r := NewReader[int](p, Blocking)
		nr := NewReader[int](p, NonBlocking)

		w.Write(1)
		Expect(nw.Write(2)).To(BeTrue())
		w.Write(3)
		Expect(nw.Write(4)).To(BeTrue())

		Expect(r.ReadBlocking()).To(Equal(1))
		v, ok := nr.Read()
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(2))
		v, _ = r.Read()
		Expect(v).To(Equal(3))
		v, ok = nr.TryRead()
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(4))
	})

	It("should accept exactly capacity writes without waiting", func() {
		w := NewWriter[int](p, NonBlocking)

		for i := 0; i < 4; i++ {
			Expect(w.Write(i)).To(BeTrue())
		}
		Expect(p.Size()).To(Equal(4))
		Expect(w.Write(4)).To(BeFalse())
		Expect(p.Size()).To(Equal(4))

		_, ok := NewReader[int](p, NonBlocking).Read()
		Expect(ok).To(BeTrue())
		Expect(w.Write(4)).To(BeTrue())
	})

	It("should block the writer of a full pipe until a read", func() {
		w := NewWriter[int](p, Blocking)
		for i := 0; i < 4; i++ {
			w.Write(i)
		}

		written := make(chan struct{})
		go func() {
			w.Write(4)
			close(written)
		}()

		Consistently(written, 50*time.Millisecond).ShouldNot(BeClosed())

		Expect(NewReader[int](p, Blocking).ReadBlocking()).To(Equal(0))
		Eventually(written).Should(BeClosed())
	})

	It("should block the reader of an empty pipe until a write", func() {
		got := make(chan int, 1)
		go func() {
			got <- NewReader[int](p, Blocking).ReadBlocking()
		}()

		Consistently(got, 50*time.Millisecond).ShouldNot(Receive())

		NewWriter[int](p, NonBlocking).Write(7)
		Eventually(got).Should(Receive(Equal(7)))
	})

	It("should round trip without blocking", func() {
		w := NewWriter[string](p, NonBlocking)
		r := NewReader[string](p, NonBlocking)

		Expect(w.Write("v")).To(BeTrue())

		v, ok := r.Read()
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("v"))

		v, ok = r.Read()
		Expect(ok).To(BeFalse())
		Expect(v).To(BeEmpty())
	})

	It("should carry 100 elements between two goroutines in order", func() {
		var wg sync.WaitGroup
		received := make([]int, 0, 100)

		wg.Add(2)
		go func() {
			defer wg.Done()
			w := NewWriter[int](p, Blocking)
			for i := 0; i < 100; i++ {
				w.Write(i)
			}
		}()
		go func() {
			defer wg.Done()
			r := NewReader[int](p, Blocking)
			for i := 0; i < 100; i++ {
				received = append(received, r.ReadBlocking())
			}
		}()
		wg.Wait()

		expected := make([]int, 100)
		for i := range expected {
			expected[i] = i
		}
		Expect(received).To(Equal(expected))
		Expect(p.NumPushed()).To(Equal(uint64(100)))
		Expect(p.NumPopped()).To(Equal(uint64(100)))
	})

	It("should let the same pipe be read with another type", func() {
		NewWriter[float64](p, Blocking).Write(1.5)
		NewWriter[int](p, Blocking).Write(2)

		Expect(NewReader[float64](p, Blocking).ReadBlocking()).To(Equal(1.5))
		Expect(NewReader[int](p, Blocking).ReadBlocking()).To(Equal(2))
	})

	It("should panic when the element type does not match", func() {
		NewWriter[int](p, Blocking).Write(1)

		Expect(func() {
			NewReader[string](p, Blocking).ReadBlocking()
		}).To(PanicWith(ContainSubstring("element of type int read as string")))
	})

	It("should read nil elements as the zero value", func() {
		NewWriter[error](p, Blocking).Write(nil)

		v, ok := NewReader[error](p, NonBlocking).Read()
		Expect(ok).To(BeTrue())
		Expect(v).To(BeNil())
	})

	It("should reject invalid modes and pipes", func() {
		Expect(func() { NewReader[int](p, Mode(5)) }).To(Panic())
		Expect(func() { NewWriter[int](nil, Blocking) }).To(Panic())
		Expect(Mode(5).String()).To(Equal("Mode(5)"))
		Expect(NonBlocking.String()).To(Equal("NonBlocking"))
	})

	It("should invoke hooks on push and pop", func() {
		var ctxs []hooking.HookCtx
		p.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			ctxs = append(ctxs, ctx)
		}))

		NewWriter[int](p, Blocking).Write(9)
		NewReader[int](p, Blocking).ReadBlocking()

		Expect(ctxs).To(HaveLen(2))
		Expect(ctxs[0].Pos).To(BeIdenticalTo(HookPosPipePush))
		Expect(ctxs[0].Item).To(Equal(Transfer{Seq: 1, Pipe: "Pipe", Value: 9}))
		Expect(ctxs[1].Pos).To(BeIdenticalTo(HookPosPipePop))
		Expect(ctxs[1].Domain).To(BeIdenticalTo(p))
	})
})
