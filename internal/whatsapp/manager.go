package whatsapp

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SessionBootstrapper is what the Manager needs from a bootstrap client
type SessionBootstrapper interface {
	Bootstrap(ctx context.Context, key string) (*Session, error)
}

// Manager records the last bootstrap outcome per session key and fans
// events out to listeners. It does not serialise calls: two Start calls for
// the same key run independently and the later finisher wins.
type Manager struct {
	bootstrapper SessionBootstrapper
	sessions     map[string]*SessionState
	mu           sync.RWMutex
	qrChan       chan QRImageEvent
	statusChan   chan StatusUpdate
	closeOnce    sync.Once
	closed       bool
}

// NewManager creates a new session manager
func NewManager(b SessionBootstrapper) *Manager {
	return &Manager{
		bootstrapper: b,
		sessions:     make(map[string]*SessionState),
		qrChan:       make(chan QRImageEvent, 10),
		statusChan:   make(chan StatusUpdate, 10),
	}
}

// Start bootstraps key and records the result. The returned state is a copy.
func (m *Manager) Start(ctx context.Context, key string) (*SessionState, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrEmptyKey
	}

	m.record(&SessionState{Key: key, Status: StatusPending})

	session, err := m.bootstrapper.Bootstrap(ctx, key)
	if err != nil {
		state := m.record(&SessionState{
			Key:       key,
			Status:    StatusFailed,
			ErrorCode: ErrorCode(err),
			Error:     err.Error(),
		})
		return state, err
	}

	state := m.record(&SessionState{
		Key:    key,
		Status: StatusReady,
		QRCode: session.QRCode,
	})
	m.publishQR(QRImageEvent{Key: key, URL: session.QRCode})
	return state, nil
}

// Get returns the last known state for key
func (m *Manager) Get(key string) (*SessionState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.sessions[key]
	if !ok {
		return nil, false
	}
	copied := *state
	return &copied, true
}

// All returns every known session ordered by key
func (m *Manager) All() []SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]SessionState, 0, len(m.sessions))
	for _, state := range m.sessions {
		result = append(result, *state)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}

// QRChannel returns the channel for QR events
func (m *Manager) QRChannel() <-chan QRImageEvent {
	return m.qrChan
}

// StatusChannel returns the channel for status events
func (m *Manager) StatusChannel() <-chan StatusUpdate {
	return m.statusChan
}

// Close closes the event channels. Later Start calls still work but no
// longer publish.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.closed = true
		close(m.qrChan)
		close(m.statusChan)
	})
}

func (m *Manager) record(state *SessionState) *SessionState {
	state.UpdatedAt = time.Now()

	m.mu.Lock()
	m.sessions[state.Key] = state
	copied := *state
	m.mu.Unlock()

	m.publishStatus(StatusUpdate{
		Key:    state.Key,
		Status: state.Status,
		Ready:  state.Status == StatusReady,
		Error:  state.Error,
	})
	return &copied
}

func (m *Manager) publishQR(evt QRImageEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return
	}
	select {
	case m.qrChan <- evt:
	default:
		zap.S().Warnf("⚠️ QR channel full, dropping event for %s", evt.Key)
	}
}

func (m *Manager) publishStatus(evt StatusUpdate) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return
	}
	select {
	case m.statusChan <- evt:
	default:
		zap.S().Warnf("⚠️ Status channel full, dropping event for %s", evt.Key)
	}
}
