package pool_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tupyy/taskengine/pkg/future"
	"github.com/tupyy/taskengine/pkg/pool"
	"github.com/tupyy/taskengine/pkg/task"
)

func TestPool(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Pool Suite")
}

func countingTask(counter *int64, done *future.Promise[struct{}]) task.Task {
	return task.WithAbandon{
		ExecuteFn: func(ctx context.Context) {
			atomic.AddInt64(counter, 1)
			done.Resolve(struct{}{})
		},
		AbandonFn: func() { done.Reject(context.Canceled) },
	}
}

var _ = Describe("Pool", func() {
	var p *pool.Pool

	AfterEach(func() {
		if p != nil {
			p.Close()
		}
	})

	It("runs 1000 tasks across 4 workers exactly once each", func() {
		var err error
		p, err = pool.NewPool(4)
		Expect(err).NotTo(HaveOccurred())

		const n = 1000
		var counter int64
		futs := make([]*future.Future[struct{}], n)
		for i := 0; i < n; i++ {
			prom := future.NewPromise[struct{}]()
			futs[i] = prom.Future()
			Expect(p.Submit(countingTask(&counter, prom))).To(Succeed())
		}

		agg := future.WhenAll(futs...)
		_, err = agg.Wait(context.Background())
		Expect(err).NotTo(HaveOccurred())

		Expect(atomic.LoadInt64(&counter)).To(Equal(int64(n)))
		Expect(p.GetNWorkers()).To(Equal(4))
	})

	It("resizes down and joins the surplus workers", func() {
		var err error
		p, err = pool.NewPool(8)
		Expect(err).NotTo(HaveOccurred())

		fut, err := p.SetNWorkers(2)
		Expect(err).NotTo(HaveOccurred())
		_, err = fut.Wait(context.Background())
		Expect(err).NotTo(HaveOccurred())

		Expect(p.GetNWorkers()).To(Equal(2))
	})

	It("is a no-op to set the same worker count twice", func() {
		var err error
		p, err = pool.NewPool(3)
		Expect(err).NotTo(HaveOccurred())

		fut, err := p.SetNWorkers(3)
		Expect(err).NotTo(HaveOccurred())
		Expect(fut.Ready()).To(BeTrue())
	})

	It("abandons a delayed task raced against destruction", func() {
		var err error
		p, err = pool.NewPool(2)
		Expect(err).NotTo(HaveOccurred())

		var executed, abandoned int32
		timerProm := future.NewPromise[time.Time]()
		t := task.WithAbandon{
			ExecuteFn: func(ctx context.Context) { atomic.AddInt32(&executed, 1) },
			AbandonFn: func() { atomic.AddInt32(&abandoned, 1) },
		}
		Expect(p.SubmitDelayed(t, timerProm.Future())).To(Succeed())

		go func() {
			time.Sleep(25 * time.Millisecond)
			timerProm.Resolve(time.Now())
		}()
		time.Sleep(10 * time.Millisecond)
		p.Close()
		p = nil

		Eventually(func() int32 {
			return atomic.LoadInt32(&executed) + atomic.LoadInt32(&abandoned)
		}, time.Second).Should(Equal(int32(1)))
	})

	It("executes a delayed task immediately when the timer is already ready", func() {
		var err error
		p, err = pool.NewPool(1)
		Expect(err).NotTo(HaveOccurred())

		done := future.MakeReady(time.Now())
		var ran atomic.Bool
		wait := sync.WaitGroup{}
		wait.Add(1)
		t := task.Func(func(ctx context.Context) {
			ran.Store(true)
			wait.Done()
		})
		Expect(p.SubmitDelayed(t, done)).To(Succeed())

		wait.Wait()
		Expect(ran.Load()).To(BeTrue())
		Expect(p.Stats().Delayed).To(Equal(0))
	})
})
