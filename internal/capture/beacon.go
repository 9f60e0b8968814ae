package capture

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"
)

// Beacon is a best-effort dispatcher: sends are queued at call time without
// awaiting a result, so the caller can enqueue during page teardown and move
// on. Failed or overflowing sends are dropped, never retried; the server side
// tolerates the resulting undercount.
type Beacon struct {
	baseURL string
	client  *http.Client
	logger  *log.Logger

	queue chan send
	once  sync.Once
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

type send struct {
	path string
	body []byte
}

// BeaconOption configures optional behaviour for the Beacon.
type BeaconOption func(*Beacon)

// WithHTTPClient overrides the HTTP client used by the drain goroutine.
func WithHTTPClient(client *http.Client) BeaconOption {
	return func(b *Beacon) {
		b.client = client
	}
}

// WithBeaconLogger overrides the logger used to report dropped sends.
func WithBeaconLogger(logger *log.Logger) BeaconOption {
	return func(b *Beacon) {
		b.logger = logger
	}
}

// NewBeacon constructs a Beacon targeting baseURL and starts its drain goroutine.
func NewBeacon(baseURL string, opts ...BeaconOption) *Beacon {
	b := &Beacon{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		logger:  log.New(log.Writer(), "[beacon] ", log.LstdFlags),
		queue:   make(chan send, 64),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	go b.drain()
	return b
}

// Enqueue queues one fire-and-forget POST. It never blocks: when the queue is
// full the payload is dropped and logged.
func (b *Beacon) Enqueue(path string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		b.logger.Printf("drop %s: marshal: %v", path, err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		b.logger.Printf("drop %s: beacon closed", path)
		return
	}
	select {
	case b.queue <- send{path: path, body: body}:
	default:
		b.logger.Printf("drop %s: queue full", path)
	}
}

// Close stops accepting sends and waits for the queue to flush.
func (b *Beacon) Close() {
	b.once.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()
		close(b.queue)
		<-b.done
	})
}

func (b *Beacon) drain() {
	defer close(b.done)
	for s := range b.queue {
		resp, err := b.client.Post(b.baseURL+s.path, "application/json", bytes.NewReader(s.body))
		if err != nil {
			b.logger.Printf("send %s failed: %v", s.path, err)
			continue
		}
		resp.Body.Close()
	}
}
