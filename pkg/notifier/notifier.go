package notifier

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Event is the wire shape posted to the configured webhook for every
// event passed to Notify; cmd/taskengine's serve command sends one per
// resolved demo task, from internal/demo's OnResult hook.
type Event struct {
	Kind      string    `json:"kind"`
	Outcome   string    `json:"outcome"`
	Timestamp time.Time `json:"timestamp"`
	Detail    string    `json:"detail,omitempty"`
}

// Option configures a Notifier at construction time.
type Option func(*Notifier)

// WithLogger overrides the notifier's logger. Defaults to a no-op logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(n *Notifier) { n.logger = l }
}

// WithHTTPClient overrides the HTTP client used for delivery.
func WithHTTPClient(c *http.Client) Option {
	return func(n *Notifier) { n.client = c }
}

// WithQueueSize overrides the bounded delivery queue's capacity. Defaults
// to 256.
func WithQueueSize(n int) Option {
	return func(nt *Notifier) { nt.queueSize = n }
}

// Notifier delivers Events to a webhook, signed and retried, without ever
// blocking its caller.
type Notifier struct {
	url        string
	signingKey []byte
	timeout    time.Duration

	client *http.Client
	logger *zap.SugaredLogger

	queueSize int
	queue     chan Event
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New starts the notifier's delivery goroutine and returns it. signingKey
// is the HMAC secret used to sign each delivered event.
func New(url, signingKey string, timeout time.Duration, opts ...Option) *Notifier {
	n := &Notifier{
		url:        url,
		signingKey: []byte(signingKey),
		timeout:    timeout,
		client:     http.DefaultClient,
		logger:     zap.NewNop().Sugar(),
		queueSize:  256,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.queue = make(chan Event, n.queueSize)
	n.done = make(chan struct{})

	n.wg.Add(1)
	go n.run()
	return n
}

// Notify enqueues e for delivery. Never blocks: if the queue is full, e is
// dropped and logged.
func (n *Notifier) Notify(e Event) {
	select {
	case n.queue <- e:
	default:
		n.logger.Warnw("notifier queue full, dropping event", "kind", e.Kind, "outcome", e.Outcome)
	}
}

// Close stops the delivery goroutine. Events still queued are dropped, not
// drained — Close is meant for process shutdown, not a flush point.
func (n *Notifier) Close() {
	n.closeOnce.Do(func() { close(n.done) })
	n.wg.Wait()
}

func (n *Notifier) run() {
	defer n.wg.Done()
	for {
		select {
		case e := <-n.queue:
			n.deliver(e)
		case <-n.done:
			return
		}
	}
}

func (n *Notifier) deliver(e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 5 * time.Second

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, n.post(ctx, e)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(5))
	if err != nil {
		n.logger.Errorw("notifier delivery failed", "kind", e.Kind, "error", err)
	}
}

func (n *Notifier) post(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("notifier: marshal event: %w", err))
	}

	sum := sha256.Sum256(body)
	token, err := n.sign(hex.EncodeToString(sum[:]))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("notifier: sign event: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("notifier: build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notifier: deliver: %w", err) // transient, retry
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 400:
		return nil
	case resp.StatusCode < 500:
		return backoff.Permanent(fmt.Errorf("notifier: webhook rejected event: %s", resp.Status))
	default:
		return fmt.Errorf("notifier: webhook unavailable: %s", resp.Status) // transient, retry
	}
}

func (n *Notifier) sign(bodyHash string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   bodyHash,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(n.signingKey)
}
