package sessions

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/attirely/storefront-backend/internal/cart"
	"github.com/attirely/storefront-backend/internal/checkout"
	"github.com/attirely/storefront-backend/internal/order"
	"github.com/attirely/storefront-backend/pkg/config"
	"github.com/attirely/storefront-backend/pkg/enums"
	pkgerrors "github.com/attirely/storefront-backend/pkg/errors"
	"github.com/attirely/storefront-backend/pkg/metrics"
)

// Session bundles one shopper's owned engine state: the cart store and, while
// checkout is underway, the step machine. All access goes through Do, which
// serializes the session so the engine's single-threaded contract holds even
// under concurrent requests.
type Session struct {
	id       string
	cart     *cart.Store
	machine  *checkout.Machine
	mu       sync.Mutex
	lastSeen time.Time
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Cart returns the session's cart store. Only call inside Do.
func (s *Session) Cart() *cart.Store {
	return s.cart
}

// Checkout returns the active machine, if checkout is underway. Only call
// inside Do.
func (s *Session) Checkout() (*checkout.Machine, bool) {
	if s.machine == nil {
		return nil, false
	}
	return s.machine, true
}

// Do runs fn while holding the session lock and refreshes the idle clock.
func (s *Session) Do(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	return fn()
}

// Manager maps session IDs to engine instances, creating them on demand and
// sweeping idle ones after the configured TTL.
type Manager struct {
	cfg         config.SessionConfig
	pricingCfg  config.PricingConfig
	checkoutCfg config.CheckoutConfig
	submitter   order.Submitter
	metrics     *metrics.EngineMetrics
	logg        zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	stop     chan struct{}
	once     sync.Once
}

// NewManager builds a session manager. The sweeper starts on the first call
// to Start.
func NewManager(cfg config.SessionConfig, pricingCfg config.PricingConfig, checkoutCfg config.CheckoutConfig, submitter order.Submitter, em *metrics.EngineMetrics, logg zerolog.Logger) (*Manager, error) {
	if submitter == nil {
		return nil, fmt.Errorf("order submitter required")
	}
	return &Manager{
		cfg:         cfg,
		pricingCfg:  pricingCfg,
		checkoutCfg: checkoutCfg,
		submitter:   submitter,
		metrics:     em,
		logg:        logg,
		sessions:    make(map[string]*Session),
		stop:        make(chan struct{}),
	}, nil
}

// Resolve returns the session for the given ID, minting a new ID when none
// was presented. The returned ID is always non-empty and should be echoed
// back to the client.
func (m *Manager) Resolve(sessionID string) (string, *Session) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		session = &Session{
			id:       sessionID,
			cart:     cart.NewStore(m.pricingCfg),
			lastSeen: time.Now(),
		}
		m.sessions[sessionID] = session
	}
	return sessionID, session
}

// Lookup returns an existing session without creating one.
func (m *Manager) Lookup(sessionID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	return session, ok
}

// Len reports the live session count.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// BeginCheckout attaches a checkout machine to the session, resuming an
// in-flight one. A session whose previous checkout already submitted, or
// whose cart drained mid-checkout, starts fresh. Only call inside Do.
func (m *Manager) BeginCheckout(session *Session) (*checkout.Machine, error) {
	if session.machine != nil && session.machine.Step() != enums.StepSubmitted {
		if err := session.machine.EnsureActive(); err == nil {
			return session.machine, nil
		}
		// the cart drained underneath the checkout; the session is gone
		session.machine = nil
	}
	machine, err := checkout.NewMachine(session.id, session.cart, m.submitter, m.checkoutCfg, checkout.WithMetrics(m.metrics))
	if err != nil {
		return nil, err
	}
	session.machine = machine
	return machine, nil
}

// ActiveCheckout returns the in-flight machine, tearing the checkout session
// down when the cart drained underneath it. The returned error carries the
// cart redirect intent in that case. Only call inside Do.
func (m *Manager) ActiveCheckout(session *Session) (*checkout.Machine, error) {
	if session.machine == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no checkout in progress")
	}
	if err := session.machine.EnsureActive(); err != nil {
		session.machine = nil
		return nil, err
	}
	return session.machine, nil
}

// EndCheckout detaches the machine, abandoning any non-submitted progress.
// Only call inside Do.
func (m *Manager) EndCheckout(session *Session) {
	session.machine = nil
}

// Start launches the idle-session sweeper.
func (m *Manager) Start() {
	if m.cfg.SweepInterval <= 0 || m.cfg.TTL <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(m.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				m.sweep(time.Now())
			}
		}
	}()
}

// Close stops the sweeper.
func (m *Manager) Close() {
	m.once.Do(func() { close(m.stop) })
}

func (m *Manager) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, session := range m.sessions {
		session.mu.Lock()
		idle := now.Sub(session.lastSeen)
		session.mu.Unlock()
		if idle > m.cfg.TTL {
			delete(m.sessions, id)
			m.logg.Debug().Str("session_id", id).Dur("idle", idle).Msg("session swept")
		}
	}
}
