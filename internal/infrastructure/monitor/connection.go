package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/tisabrain/internal/infrastructure/buffer"
	"github.com/fastygo/tisabrain/internal/metrics"
)

// Pinger is anything whose reachability can be probed.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor periodically probes the primary document store and the pending buffer.
type Monitor struct {
	primary Pinger
	driver  string
	buffer  *buffer.Store
	metrics *metrics.Metrics

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	timeout  time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(primary Pinger, driver string, buf *buffer.Store, m *metrics.Metrics, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		primary:  primary,
		driver:   driver,
		buffer:   buf,
		metrics:  m,
		interval: interval,
		timeout:  3 * time.Second,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

// Start runs one check synchronously, then keeps checking in the background.
func (m *Monitor) Start() {
	m.Refresh()
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Primary
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

// Refresh probes everything once and stores the result.
func (m *Monitor) Refresh() {
	bufferOK, bufferSize := m.checkBuffer()
	status := Status{
		Driver:     m.driver,
		Primary:    m.checkPrimary(),
		Buffer:     bufferOK,
		BufferSize: bufferSize,
		LastCheck:  time.Now(),
	}
	m.metrics.SetBufferPending(bufferSize)

	m.mu.Lock()
	prev := m.status
	m.status = status
	m.mu.Unlock()

	if prev.LastCheck.IsZero() {
		if !status.Primary {
			m.logger.Warn("primary store offline at startup, buffering writes", zap.String("driver", m.driver))
		}
		return
	}
	if prev.Primary != status.Primary {
		if status.Primary {
			m.logger.Info("primary store back online", zap.String("driver", m.driver), zap.Int("pending", bufferSize))
		} else {
			m.logger.Warn("primary store offline, buffering writes", zap.String("driver", m.driver))
		}
	}
}

func (m *Monitor) checkPrimary() bool {
	if m.primary == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	return m.primary.Ping(ctx) == nil
}

func (m *Monitor) checkBuffer() (bool, int) {
	if m.buffer == nil {
		return false, 0
	}
	size, err := m.buffer.Size()
	if err != nil {
		m.logger.Warn("buffer size check failed", zap.Error(err))
		return false, size
	}
	return true, size
}
