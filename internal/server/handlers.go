package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tupyy/taskengine/internal/demo"
	"github.com/tupyy/taskengine/internal/store"
	"github.com/tupyy/taskengine/pkg/future"
	"github.com/tupyy/taskengine/pkg/pool"
	"github.com/tupyy/taskengine/pkg/scheduler"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handler wires the pool, scheduler, demo task builder, and execution
// ledger to the HTTP routes.
type Handler struct {
	pool    *pool.Pool
	sched   *scheduler.Scheduler
	builder *demo.Builder
	store   *store.Store
	logger  *zap.SugaredLogger
}

// NewHandler constructs a Handler. store may be nil, in which case GET
// /tasks reports an empty ledger rather than failing.
func NewHandler(p *pool.Pool, s *scheduler.Scheduler, b *demo.Builder, st *store.Store, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{pool: p, sched: s, builder: b, store: st, logger: logger.Named("server")}
}

// Healthz reports liveness. (GET /healthz)
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// statsResponse is GET /stats's body.
type statsResponse struct {
	Pool struct {
		Workers int `json:"workers"`
		Pending int `json:"pending"`
		Queued  int `json:"queued"`
		Delayed int `json:"delayed"`
	} `json:"pool"`
	Scheduler struct {
		HeapSize     int        `json:"heap_size"`
		NextDeadline *time.Time `json:"next_deadline,omitempty"`
	} `json:"scheduler"`
}

// Stats reports current pool and scheduler occupancy. (GET /stats)
func (h *Handler) Stats(c *gin.Context) {
	var resp statsResponse

	ps := h.pool.Stats()
	resp.Pool.Workers = ps.Workers
	resp.Pool.Pending = ps.Pending
	resp.Pool.Queued = ps.Queued
	resp.Pool.Delayed = ps.Delayed

	resp.Scheduler.HeapSize = h.sched.Len()
	if next, ok := h.sched.NextDeadline(); ok {
		resp.Scheduler.NextDeadline = &next
	}

	c.JSON(http.StatusOK, resp)
}

type submitRequest struct {
	Kind     string `json:"kind" binding:"required"`
	Duration string `json:"duration"`
	After    string `json:"after"`
}

type submitResponse struct {
	ID string `json:"id"`
}

// SubmitTask builds and submits a demo task, immediately or after a delay.
// The HTTP response does not block on the task's completion. (POST /tasks)
func (h *Handler) SubmitTask(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	duration, err := parseDurationOrZero(req.Duration)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration: " + err.Error()})
		return
	}

	prom := future.NewPromise[demo.Result]()
	t, err := h.builder.Build(req.Kind, demo.Spec{Duration: duration, Promise: prom})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := uuid.NewString()

	if req.After == "" {
		if err := h.pool.Submit(t); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, submitResponse{ID: id})
		return
	}

	after, err := time.ParseDuration(req.After)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid after: " + err.Error()})
		return
	}
	if err := h.pool.SubmitDelayed(t, afterFuture(after)); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, submitResponse{ID: id})
}

// taskListResponse is GET /tasks's body.
type taskListResponse struct {
	Records []store.Record `json:"records"`
}

// ListTasks returns the paginated execution ledger, filterable by the
// outcome and kind query parameters. (GET /tasks)
func (h *Handler) ListTasks(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusOK, taskListResponse{})
		return
	}

	page := 1
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		page = p
	}
	pageSize := defaultPageSize
	if ps, err := strconv.Atoi(c.Query("page_size")); err == nil && ps > 0 {
		pageSize = ps
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}
	}

	opts := []store.ListOption{
		store.WithLimit(uint64(pageSize)),
		store.WithOffset(uint64((page - 1) * pageSize)),
	}
	if outcome := c.Query("outcome"); outcome != "" {
		opts = append(opts, store.ByOutcome(store.Outcome(outcome)))
	}
	if kind := c.Query("kind"); kind != "" {
		opts = append(opts, store.ByKind(kind))
	}

	records, err := h.store.List(c.Request.Context(), opts...)
	if err != nil {
		h.logger.Errorw("failed to list execution ledger", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tasks"})
		return
	}

	c.JSON(http.StatusOK, taskListResponse{Records: records})
}

func parseDurationOrZero(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func afterFuture(d time.Duration) *future.Future[time.Time] {
	prom := future.NewPromise[time.Time]()
	time.AfterFunc(d, func() { prom.Resolve(time.Now()) })
	return prom.Future()
}
