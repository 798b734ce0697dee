package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tupyy/taskengine/internal/demo"
	"github.com/tupyy/taskengine/internal/server"
	"github.com/tupyy/taskengine/pkg/pool"
	"github.com/tupyy/taskengine/pkg/scheduler"
)

func TestServer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Server Suite")
}

var _ = Describe("Handler", func() {
	var (
		p      *pool.Pool
		sched  *scheduler.Scheduler
		engine *gin.Engine
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		var err error
		p, err = pool.NewPool(2)
		Expect(err).NotTo(HaveOccurred())
		sched = scheduler.NewScheduler()

		h := server.NewHandler(p, sched, demo.NewBuilder(), nil, nil)
		engine = gin.New()
		server.RegisterRoutes(&engine.RouterGroup, h)
	})

	AfterEach(func() {
		if p != nil {
			p.Close()
		}
		if sched != nil {
			sched.Close()
		}
	})

	It("reports healthy", func() {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("reports pool and scheduler stats", func() {
		req := httptest.NewRequest(http.MethodGet, "/stats", nil)
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusOK))

		var body map[string]any
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body["pool"].(map[string]any)["workers"]).To(Equal(float64(2)))
	})

	It("accepts an immediate demo task submission", func() {
		payload, _ := json.Marshal(map[string]string{"kind": "sleep", "duration": "10ms"})
		req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusAccepted))
	})

	It("rejects a submission with an unknown kind", func() {
		payload, _ := json.Marshal(map[string]string{"kind": "nonsense"})
		req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("accepts a delayed demo task submission", func() {
		payload, _ := json.Marshal(map[string]string{"kind": "sleep", "duration": "1ms", "after": "10ms"})
		req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusAccepted))

		Eventually(func() int { return p.Stats().Delayed }, time.Second).Should(Equal(0))
	})

	It("returns an empty ledger when no store is configured", func() {
		req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"records":null`))
	})
})
