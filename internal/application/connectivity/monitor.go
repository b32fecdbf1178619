package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-connector/internal/application/ports"
)

// DefaultProbeTimeout timeout corto del sondeo de salud.
const DefaultProbeTimeout = 2 * time.Second

// Status instantánea del estado de conectividad.
type Status struct {
	Online              bool
	LastCheck           time.Time
	LastError           string
	ConsecutiveFailures int
}

// Monitor mantiene el flag online/offline sondeando periódicamente el backend.
// Es el único que escribe el flag; Auth Manager y Order Service solo lo leen.
type Monitor struct {
	prober  ports.HealthProber
	timeout time.Duration
	log     zerolog.Logger
	now     func() time.Time

	mu        sync.RWMutex
	status    Status
	listeners []func(online bool)

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor construye el monitor. Arranca offline hasta el primer sondeo.
func NewMonitor(prober ports.HealthProber, timeout time.Duration, log zerolog.Logger) *Monitor {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Monitor{
		prober:  prober,
		timeout: timeout,
		log:     log,
		now:     time.Now,
	}
}

// Online lectura del flag actual.
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Online
}

// Status copia del estado actual.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// OnChange registra un callback invocado cuando el flag cambia.
func (m *Monitor) OnChange(fn func(online bool)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// CheckNow sondea el backend con timeout acotado y actualiza el flag.
// Cualquier fallo (red, no-2xx, timeout, panic del prober) deja el terminal offline.
func (m *Monitor) CheckNow(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err := m.safeProbe(probeCtx)
	if err != nil && ctx.Err() != nil {
		// cancelación del llamador (Stop), no un sondeo fallido
		return m.Online()
	}

	m.mu.Lock()
	prev := m.status.Online
	m.status.LastCheck = m.now()
	if err != nil {
		m.status.Online = false
		m.status.LastError = err.Error()
		m.status.ConsecutiveFailures++
	} else {
		m.status.Online = true
		m.status.LastError = ""
		m.status.ConsecutiveFailures = 0
	}
	online := m.status.Online
	failures := m.status.ConsecutiveFailures
	var listeners []func(bool)
	if prev != online {
		listeners = append(listeners, m.listeners...)
	}
	m.mu.Unlock()

	if prev != online {
		m.log.Info().Bool("online", online).Int("consecutive_failures", failures).Msg("cambio de conectividad")
		for _, fn := range listeners {
			fn(online)
		}
	} else if err != nil {
		m.log.Debug().Err(err).Int("consecutive_failures", failures).Msg("sondeo de salud fallido")
	}
	return online
}

func (m *Monitor) safeProbe(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errProbePanic
		}
	}()
	return m.prober.Probe(ctx)
}

// Start lanza el sondeo periódico (primero inmediato). Si ya estaba activo, lo reinicia.
func (m *Monitor) Start(interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	m.runMu.Lock()
	defer m.runMu.Unlock()
	m.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done

	go func() {
		defer close(done)
		m.CheckNow(ctx)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.CheckNow(ctx)
			}
		}
	}()
	m.log.Info().Dur("interval", interval).Msg("monitor de conectividad iniciado")
}

// Stop cancela el sondeo periódico y espera a que termine. Idempotente.
func (m *Monitor) Stop() {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	m.stopLocked()
}

// stopLocked requiere runMu tomado.
func (m *Monitor) stopLocked() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
	m.done = nil
}

// Running indica si el sondeo periódico está activo.
func (m *Monitor) Running() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.cancel != nil
}
