package checkout

import (
	"sync"

	"retail-pos-backend/internal/payments"
)

// Session bundles the cart and the payment confirmer of one operator's
// checkout flow. The cart is exclusively owned by its session.
type Session struct {
	Cart      *Cart
	Confirmer *Confirmer
}

// Manager hands out one session per operator.
type Manager struct {
	cfg    ConfirmerConfig
	source payments.ConfirmationSource

	mu       sync.Mutex
	sessions map[uint]*Session
}

func NewManager(cfg ConfirmerConfig, source payments.ConfirmationSource) *Manager {
	return &Manager{
		cfg:      cfg,
		source:   source,
		sessions: make(map[uint]*Session),
	}
}

// Session returns the operator's checkout session, creating it on first use.
func (m *Manager) Session(userID uint) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[userID]
	if !ok {
		session = &Session{
			Cart:      NewCart(),
			Confirmer: NewConfirmer(m.cfg, m.source),
		}
		m.sessions[userID] = session
	}
	return session
}

// Sweep drops attempts that finished but were never acknowledged by their
// operator, so stale terminal attempts do not linger across sales.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	swept := 0
	for _, s := range sessions {
		if s.Confirmer.Clear() {
			swept++
		}
	}
	return swept
}
