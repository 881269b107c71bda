package connectivity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robinjoseph08/golib/logger"
)

// Pinger is the probe the monitor uses to decide whether the backend is
// reachable. The remote HTTP client implements it via its health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor derives an online/offline signal from periodic backend probes and
// notifies subscribers on transitions.
type Monitor struct {
	pinger   Pinger
	interval time.Duration
	log      logger.Logger

	online atomic.Bool

	mu          sync.Mutex
	subscribers []func(online bool)

	shutdown chan struct{}
	done     chan struct{}
}

func New(pinger Pinger, interval time.Duration) *Monitor {
	return &Monitor{
		pinger:   pinger,
		interval: interval,
		log:      logger.New(),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Online reports the last observed connectivity state.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// Subscribe registers a callback fired on every online/offline transition.
// Callbacks run on the monitor goroutine and should return quickly.
func (m *Monitor) Subscribe(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// SetOnline records a connectivity observation and fires subscribers when the
// state changed. It is also the hook for transport-level error feedback and
// for tests.
func (m *Monitor) SetOnline(online bool) {
	prev := m.online.Swap(online)
	if prev == online {
		return
	}

	if online {
		m.log.Info("backend reachable")
	} else {
		m.log.Warn("backend unreachable")
	}

	m.mu.Lock()
	subscribers := make([]func(bool), len(m.subscribers))
	copy(subscribers, m.subscribers)
	m.mu.Unlock()

	for _, fn := range subscribers {
		fn(online)
	}
}

// Start probes once immediately, then keeps probing on the configured
// interval until Shutdown.
func (m *Monitor) Start() {
	m.probe()

	go func() {
		timer := time.NewTimer(m.interval)
		defer timer.Stop()

		for {
			select {
			case <-m.shutdown:
				m.done <- struct{}{}
				return
			case <-timer.C:
				m.probe()
				timer.Reset(m.interval)
			}
		}
	}()
}

func (m *Monitor) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), m.interval)
	defer cancel()

	err := m.pinger.Ping(ctx)
	m.SetOnline(err == nil)
}

func (m *Monitor) Shutdown() {
	close(m.shutdown)
	<-m.done
}
