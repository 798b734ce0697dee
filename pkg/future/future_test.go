package future_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tupyy/taskengine/pkg/future"
)

func TestFuture(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Future Suite")
}

var _ = Describe("Future", func() {
	Describe("readiness", func() {
		It("is not ready before the promise resolves", func() {
			p := future.NewPromise[int]()
			f := p.Future()

			Expect(f.Ready()).To(BeFalse())
			_, _, ok := f.Poll()
			Expect(ok).To(BeFalse())
		})

		It("becomes ready once Resolve is called", func() {
			p := future.NewPromise[int]()
			f := p.Future()

			p.Resolve(42)

			Expect(f.Ready()).To(BeTrue())
			v, err, ok := f.Poll()
			Expect(ok).To(BeTrue())
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(42))
		})

		It("carries the error through Reject", func() {
			p := future.NewPromise[int]()
			f := p.Future()

			sentinel := errors.New("boom")
			p.Reject(sentinel)

			Expect(f.Ready()).To(BeTrue())
			v, err, ok := f.Poll()
			Expect(ok).To(BeTrue())
			Expect(err).To(MatchError(sentinel))
			Expect(v).To(Equal(0))
		})

		It("ignores every settlement after the first", func() {
			p := future.NewPromise[int]()
			f := p.Future()

			p.Resolve(1)
			p.Resolve(2)
			p.Reject(errors.New("too late"))

			v, err, ok := f.Poll()
			Expect(ok).To(BeTrue())
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(1))
		})
	})

	Describe("Wait", func() {
		It("blocks until the future resolves", func() {
			p := future.NewPromise[string]()
			f := p.Future()

			go func() {
				time.Sleep(10 * time.Millisecond)
				p.Resolve("done")
			}()

			v, err := f.Wait(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("done"))
		})

		It("returns early when ctx is cancelled before resolution", func() {
			p := future.NewPromise[string]()
			f := p.Future()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			v, err := f.Wait(ctx)
			Expect(err).To(MatchError(context.Canceled))
			Expect(v).To(Equal(""))

			// the promise can still resolve later; Wait's early return
			// doesn't poison the future for other waiters
			p.Resolve("late")
			Expect(p.Future().Ready()).To(BeTrue())
		})
	})

	Describe("Then", func() {
		It("runs synchronously, inline, when attached to an already-ready future", func() {
			f := future.MakeReady(7)

			var got int
			var ranBeforeReturn bool
			f.Then(func(v int, err error) {
				got = v
				ranBeforeReturn = true
			})

			Expect(ranBeforeReturn).To(BeTrue())
			Expect(got).To(Equal(7))
		})

		It("queues the continuation and runs it exactly once when the future resolves later", func() {
			p := future.NewPromise[int]()
			f := p.Future()

			var calls int32
			var got int
			done := make(chan struct{})
			f.Then(func(v int, err error) {
				atomic.AddInt32(&calls, 1)
				got = v
				close(done)
			})

			Consistently(func() int32 { return atomic.LoadInt32(&calls) }, 20*time.Millisecond).Should(Equal(int32(0)))

			p.Resolve(9)
			<-done

			Expect(atomic.LoadInt32(&calls)).To(Equal(int32(1)))
			Expect(got).To(Equal(9))
		})

		It("preserves registration order across multiple continuations", func() {
			p := future.NewPromise[int]()
			f := p.Future()

			var mu sync.Mutex
			var order []int
			for i := 0; i < 5; i++ {
				i := i
				f.Then(func(v int, err error) {
					mu.Lock()
					order = append(order, i)
					mu.Unlock()
				})
			}

			p.Resolve(0)

			mu.Lock()
			defer mu.Unlock()
			Expect(order).To(Equal([]int{0, 1, 2, 3, 4}))
		})
	})

	Describe("MakeReady", func() {
		It("produces a future that is ready immediately", func() {
			f := future.MakeReady("hello")

			Expect(f.Ready()).To(BeTrue())
			v, err, ok := f.Poll()
			Expect(ok).To(BeTrue())
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("hello"))
		})
	})

	Describe("WhenAll", func() {
		It("resolves with every input's value, in input order, once all resolve", func() {
			proms := make([]*future.Promise[int], 4)
			futs := make([]*future.Future[int], 4)
			for i := range proms {
				proms[i] = future.NewPromise[int]()
				futs[i] = proms[i].Future()
			}

			agg := future.WhenAll(futs...)
			Expect(agg.Ready()).To(BeFalse())

			// resolve out of order; the aggregate's result order must still
			// follow the input slice's order, not resolution order
			proms[2].Resolve(20)
			proms[0].Resolve(0)
			proms[3].Resolve(30)
			proms[1].Resolve(10)

			v, err := agg.Wait(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal([]int{0, 10, 20, 30}))
		})

		It("resolves immediately for an empty input slice", func() {
			agg := future.WhenAll[int]()
			Expect(agg.Ready()).To(BeTrue())
			v, err := agg.Wait(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(BeNil())
		})

		It("rejects if any input rejects", func() {
			p0 := future.NewPromise[int]()
			p1 := future.NewPromise[int]()

			agg := future.WhenAll(p0.Future(), p1.Future())

			sentinel := errors.New("one failed")
			p0.Resolve(1)
			p1.Reject(sentinel)

			_, err := agg.Wait(context.Background())
			Expect(err).To(MatchError(sentinel))
		})

		It("treats an already-ready input as resolved without blocking", func() {
			p := future.NewPromise[int]()

			agg := future.WhenAll(future.MakeReady(1), p.Future())
			Expect(agg.Ready()).To(BeFalse())

			p.Resolve(2)

			v, err := agg.Wait(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal([]int{1, 2}))
		})
	})
})
