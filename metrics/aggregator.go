package metrics

import (
	"sync"
	"time"

	"foundrycore/cache"
	"foundrycore/clock"
)

// defaultBucketTTL is the retention period for a written bucket.
const defaultBucketTTL = 24 * time.Hour

// entry is a single submitted measurement, pending flush.
type entry struct {
	kind       kind
	name       string
	value      float64
	enqueuedAt time.Time
}

// Option configures an Aggregator at construction time.
type Option func(*Aggregator)

// WithPrefix namespaces every bucket key this aggregator writes, letting
// several aggregators share one cache.Client without colliding.
func WithPrefix(prefix string) Option {
	return func(a *Aggregator) { a.prefix = prefix }
}

// WithClock overrides the aggregator's time source, used by tests to pin
// bucket boundaries.
func WithClock(c clock.Clock) Option {
	return func(a *Aggregator) { a.clock = c }
}

// WithUnbuffered makes Counter/Gauge/Timer write straight through to the
// cache backend instead of queuing for the periodic flush.
func WithUnbuffered() Option {
	return func(a *Aggregator) { a.unbuffered = true }
}

// WithFlushInterval overrides the default one-second flush period.
func WithFlushInterval(d time.Duration) Option {
	return func(a *Aggregator) { a.flushInterval = d }
}

// Aggregator buffers Counter/Gauge/Timer submissions into a FIFO,
// flushed periodically into backend, a cache.Client whose atomic numeric
// operations (Increment, SetIfHigher, SetIfLower) make concurrent
// writers safe.
type Aggregator struct {
	backend cache.Client
	clock   clock.Clock
	prefix  string

	unbuffered    bool
	flushInterval time.Duration

	mu      sync.Mutex
	pending []entry

	flushing sync.Mutex // single-flight guard for Flush

	waitersMu sync.Mutex
	waiters   map[string][]chan struct{}

	closeCh   chan struct{}
	closeOnce sync.Once
}

// New constructs an Aggregator writing to backend and starts its periodic
// flush loop (unless WithUnbuffered is set, in which case there is
// nothing to flush).
func New(backend cache.Client, opts ...Option) *Aggregator {
	a := &Aggregator{
		backend:       backend,
		clock:         clock.Default,
		flushInterval: time.Second,
		waiters:       make(map[string][]chan struct{}),
		closeCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}

	if !a.unbuffered {
		go a.flushLoop()
	}
	return a
}

// Close stops the periodic flush loop. It does not flush pending records;
// call Flush first if that's needed.
func (a *Aggregator) Close() {
	a.closeOnce.Do(func() { close(a.closeCh) })
}

func (a *Aggregator) flushLoop() {
	ticker := time.NewTicker(a.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.Flush()
		case <-a.closeCh:
			return
		}
	}
}

// Counter submits a counter delta.
func (a *Aggregator) Counter(name string, v float64) {
	a.submit(kindCounter, name, v)
}

// Gauge submits a gauge reading.
func (a *Aggregator) Gauge(name string, v float64) {
	a.submit(kindGauge, name, v)
}

// Timer submits a timing measurement in milliseconds.
func (a *Aggregator) Timer(name string, ms float64) {
	a.submit(kindTiming, name, ms)
}

func (a *Aggregator) submit(k kind, name string, v float64) {
	e := entry{kind: k, name: name, value: v, enqueuedAt: a.clock.Now()}
	if a.unbuffered {
		a.writeGroup(k, name, minuteBucket(e.enqueuedAt), []entry{e})
		a.notifyWaiters(name)
		return
	}

	a.mu.Lock()
	a.pending = append(a.pending, e)
	a.mu.Unlock()
}

func (a *Aggregator) notifyWaiters(name string) {
	a.waitersMu.Lock()
	chans := a.waiters[name]
	delete(a.waiters, name)
	a.waitersMu.Unlock()
	for _, ch := range chans {
		close(ch)
	}
}
