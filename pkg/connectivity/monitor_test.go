package connectivity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	mu  sync.Mutex
	err error
}

func (p *fakePinger) Ping(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *fakePinger) setErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func TestMonitor_Transitions(t *testing.T) {
	pinger := &fakePinger{}
	m := New(pinger, time.Hour)

	var mu sync.Mutex
	var transitions []bool
	m.Subscribe(func(online bool) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, online)
	})

	assert.False(t, m.Online())

	m.SetOnline(true)
	assert.True(t, m.Online())

	// Repeated observations of the same state do not re-fire subscribers.
	m.SetOnline(true)
	m.SetOnline(false)
	m.SetOnline(false)
	m.SetOnline(true)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false, true}, transitions)
}

func TestMonitor_ProbeLoop(t *testing.T) {
	pinger := &fakePinger{err: errors.New("unreachable")}
	m := New(pinger, 10*time.Millisecond)

	m.Start()
	defer m.Shutdown()

	assert.False(t, m.Online())

	pinger.setErr(nil)
	require.Eventually(t, m.Online, time.Second, 5*time.Millisecond)

	pinger.setErr(errors.New("unreachable"))
	require.Eventually(t, func() bool { return !m.Online() }, time.Second, 5*time.Millisecond)
}
