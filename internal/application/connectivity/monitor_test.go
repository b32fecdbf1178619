package connectivity_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-connector/internal/application/connectivity"
)

// scriptedProber consume los resultados en orden; el último se repite indefinidamente.
type scriptedProber struct {
	mu      sync.Mutex
	results []error
}

func (p *scriptedProber) Probe(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	res := p.results[0]
	if len(p.results) > 1 {
		p.results = p.results[1:]
	}
	return res
}

// push reemplaza los resultados pendientes.
func (p *scriptedProber) push(errs ...error) {
	p.mu.Lock()
	p.results = append([]error(nil), errs...)
	p.mu.Unlock()
}

var errDown = errors.New("connection refused")

func TestMonitor_CheckNow_ProbeOK_Online(t *testing.T) {
	m := connectivity.NewMonitor(&scriptedProber{results: []error{nil}}, time.Second, zerolog.Nop())
	assert.False(t, m.Online(), "arranca offline antes del primer sondeo")

	assert.True(t, m.CheckNow(context.Background()))
	assert.True(t, m.Online())
	assert.Equal(t, 0, m.Status().ConsecutiveFailures)
}

func TestMonitor_TresFallosConsecutivos_QuedaOfflineHastaExito(t *testing.T) {
	prober := &scriptedProber{results: []error{nil}}
	m := connectivity.NewMonitor(prober, time.Second, zerolog.Nop())
	require.True(t, m.CheckNow(context.Background()))

	prober.push(errDown, errDown, errDown)
	for i := 0; i < 3; i++ {
		assert.False(t, m.CheckNow(context.Background()), "sondeo %d", i+1)
	}
	st := m.Status()
	assert.False(t, st.Online)
	assert.Equal(t, 3, st.ConsecutiveFailures)
	assert.Contains(t, st.LastError, "connection refused")

	// sigue offline mientras no haya un sondeo exitoso
	prober.push(errDown)
	assert.False(t, m.CheckNow(context.Background()))

	prober.push(nil)
	assert.True(t, m.CheckNow(context.Background()))
	assert.Equal(t, 0, m.Status().ConsecutiveFailures)
}

type slowProber struct{}

func (slowProber) Probe(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestMonitor_TimeoutDelSondeo_Offline(t *testing.T) {
	m := connectivity.NewMonitor(slowProber{}, 20*time.Millisecond, zerolog.Nop())

	start := time.Now()
	online := m.CheckNow(context.Background())

	assert.False(t, online)
	assert.Less(t, time.Since(start), time.Second, "no debe bloquear más allá del timeout del sondeo")
}

type panicProber struct{}

func (panicProber) Probe(context.Context) error { panic("boom") }

func TestMonitor_PanicEnProber_NoSePropaga(t *testing.T) {
	m := connectivity.NewMonitor(panicProber{}, time.Second, zerolog.Nop())
	assert.NotPanics(t, func() {
		assert.False(t, m.CheckNow(context.Background()))
	})
}

func TestMonitor_OnChange_SoloEnTransiciones(t *testing.T) {
	prober := &scriptedProber{results: []error{nil, nil, errDown, errDown, nil}}
	m := connectivity.NewMonitor(prober, time.Second, zerolog.Nop())

	var changes []bool
	m.OnChange(func(online bool) { changes = append(changes, online) })

	for i := 0; i < 5; i++ {
		m.CheckNow(context.Background())
	}
	assert.Equal(t, []bool{true, false, true}, changes)
}

type countingProber struct{ n atomic.Int32 }

func (p *countingProber) Probe(context.Context) error {
	p.n.Add(1)
	return nil
}

func TestMonitor_StartStop(t *testing.T) {
	prober := &countingProber{}
	m := connectivity.NewMonitor(prober, time.Second, zerolog.Nop())

	m.Start(10 * time.Millisecond)
	assert.True(t, m.Running())
	require.Eventually(t, func() bool { return prober.n.Load() >= 3 }, time.Second, 5*time.Millisecond)
	assert.True(t, m.Online())

	m.Stop()
	assert.False(t, m.Running())
	calls := prober.n.Load()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, calls, prober.n.Load(), "no debe sondear después de Stop")

	assert.NotPanics(t, m.Stop, "Stop es idempotente")
}

func TestMonitor_StartConcurrente_UnSoloLoopActivo(t *testing.T) {
	prober := &countingProber{}
	m := connectivity.NewMonitor(prober, time.Second, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Start(5 * time.Millisecond)
		}()
	}
	wg.Wait()
	require.True(t, m.Running())

	m.Stop()
	assert.False(t, m.Running())
	calls := prober.n.Load()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, calls, prober.n.Load(), "ningún loop de un Start anterior sigue sondeando")
}
