package notifier_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tupyy/taskengine/pkg/notifier"
)

func TestNotifier(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Notifier Suite")
}

var _ = Describe("Notifier", func() {
	var (
		n   *notifier.Notifier
		srv *httptest.Server
	)

	AfterEach(func() {
		if n != nil {
			n.Close()
		}
		if srv != nil {
			srv.Close()
		}
	})

	It("delivers a signed event on the first attempt", func() {
		var gotAuth string
		var calls int32
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			gotAuth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusOK)
		}))

		n = notifier.New(srv.URL, "test-signing-key", time.Second)
		n.Notify(notifier.Event{Kind: "sleep", Outcome: "executed", Timestamp: time.Now()})

		Eventually(func() int32 { return atomic.LoadInt32(&calls) }, time.Second).Should(Equal(int32(1)))
		Expect(gotAuth).To(HavePrefix("Bearer "))
	})

	It("retries against a flaky sink and eventually succeeds", func() {
		var calls int32
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))

		n = notifier.New(srv.URL, "test-signing-key", 2*time.Second)
		n.Notify(notifier.Event{Kind: "compute", Outcome: "executed", Timestamp: time.Now()})

		Eventually(func() int32 { return atomic.LoadInt32(&calls) }, 2*time.Second).Should(BeNumerically(">=", 3))
	})

	It("does not retry a client error", func() {
		var calls int32
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadRequest)
		}))

		n = notifier.New(srv.URL, "test-signing-key", time.Second)
		n.Notify(notifier.Event{Kind: "fail", Outcome: "failed", Timestamp: time.Now()})

		Eventually(func() int32 { return atomic.LoadInt32(&calls) }, time.Second).Should(Equal(int32(1)))
		Consistently(func() int32 { return atomic.LoadInt32(&calls) }, 300*time.Millisecond).Should(Equal(int32(1)))
	})

	It("never blocks the caller when the queue is full", func() {
		block := make(chan struct{})
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-block
			w.WriteHeader(http.StatusOK)
		}))
		defer close(block)

		n = notifier.New(srv.URL, "test-signing-key", 5*time.Second, notifier.WithQueueSize(1))

		done := make(chan struct{})
		go func() {
			for i := 0; i < 10; i++ {
				n.Notify(notifier.Event{Kind: "sleep", Outcome: "executed", Timestamp: time.Now()})
			}
			close(done)
		}()

		Eventually(done, time.Second).Should(BeClosed())
	})
})
