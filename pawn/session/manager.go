package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/LerianStudio/lib-pawn/pawn"
	"github.com/LerianStudio/lib-pawn/pawn/backend"
	"github.com/LerianStudio/lib-pawn/pawn/log"
	"github.com/LerianStudio/lib-pawn/pawn/opentelemetry"
	"github.com/LerianStudio/lib-pawn/pawn/runtime"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Defaults applied by NewManager to zero Config fields.
const (
	DefaultPollInterval   = 5 * time.Second
	DefaultWarnBefore     = 10 * time.Minute
	DefaultExtension      = 30 * time.Minute
	DefaultRefreshTimeout = 10 * time.Second
)

var (
	// ErrNilAuthenticator is returned by NewManager without an authenticator.
	ErrNilAuthenticator = errors.New("session: authenticator is required")
	// ErrNilRefresher is returned by NewManager without a refresher.
	ErrNilRefresher = errors.New("session: refresher is required")
)

// Config configures a Manager.
type Config struct {
	Authenticator backend.StaffAuthenticator
	Refresher     backend.SessionRefresher
	// Store persists the session record. Defaults to a MemoryStore.
	Store Store
	// Locker, when set, serializes refreshes of a session across consoles.
	Locker Locker
	Clock  clockwork.Clock
	Logger log.Logger
	Tracer trace.Tracer

	PollInterval   time.Duration
	WarnBefore     time.Duration
	Extension      time.Duration
	RefreshTimeout time.Duration
	// AutoRenew requests a refresh as soon as the session enters Warning.
	AutoRenew bool
}

type observer struct {
	id uint64
	fn func(Event)
}

// Manager owns at most one session at a time. All methods are safe for
// concurrent use.
type Manager struct {
	cfg    Config
	clock  clockwork.Clock
	store  Store
	logger log.Logger
	tracer trace.Tracer

	mu         sync.Mutex
	state      State
	current    *Session
	generation uint64
	observers  []observer
	nextObsID  uint64
	pending    []Event
	pollCancel context.CancelFunc
	pollDone   chan struct{}

	notifyMu sync.Mutex
}

// NewManager validates cfg, applies defaults and returns an Unauthenticated
// manager. The poller is not started until Start.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Authenticator == nil {
		return nil, ErrNilAuthenticator
	}

	if cfg.Refresher == nil {
		return nil, ErrNilRefresher
	}

	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	if cfg.Store == nil {
		cfg.Store = NewMemoryStore(cfg.Clock)
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	if cfg.WarnBefore <= 0 {
		cfg.WarnBefore = DefaultWarnBefore
	}

	if cfg.Extension <= 0 {
		cfg.Extension = DefaultExtension
	}

	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = DefaultRefreshTimeout
	}

	return &Manager{
		cfg:    cfg,
		clock:  cfg.Clock,
		store:  cfg.Store,
		logger: log.OrNop(cfg.Logger).With(log.String("component", "session")),
		tracer: opentelemetry.Tracer(cfg.Tracer, "session"),
		state:  StateUnauthenticated,
	}, nil
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// Current returns a copy of the live session.
func (m *Manager) Current() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return Session{}, false
	}

	return *m.current, true
}

// Remaining is the time left on the live session, zero when there is none.
func (m *Manager) Remaining() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return 0
	}

	if r := m.current.Remaining(m.clock.Now()); r > 0 {
		return r
	}

	return 0
}

// OnChange registers fn for every state change and returns a function that
// unregisters it. Observers run outside the manager lock, in event order, on
// the goroutine that currently holds delivery. A call that changes state
// while another goroutine is delivering returns without waiting for its own
// events to be observed.
func (m *Manager) OnChange(fn func(Event)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	m.mu.Lock()
	m.nextObsID++
	id := m.nextObsID
	m.observers = append(m.observers, observer{id: id, fn: fn})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		for i, o := range m.observers {
			if o.id == id {
				m.observers = append(m.observers[:i:i], m.observers[i+1:]...)

				return
			}
		}
	}
}

// Authenticate signs staffID in and creates a new session. It is allowed only
// from Unauthenticated or Expired.
func (m *Manager) Authenticate(ctx context.Context, staffID, pin string) (Session, error) {
	ctx, span := m.tracer.Start(ctx, "session.authenticate")
	defer span.End()

	span.SetAttributes(attribute.String("app.staff_id", staffID))

	if err := m.requireSignedOut(); err != nil {
		opentelemetry.HandleSpanBusinessErrorEvent(span, "session.authenticate.refused", err)

		return Session{}, err
	}

	auth, err := m.cfg.Authenticator.AuthenticateStaff(ctx, staffID, pin)
	if err != nil {
		m.logger.Log(ctx, log.LevelWarn, "staff sign-in failed", log.String("staff_id", staffID), log.Err(err))

		if backend.IsDomainRejection(err) {
			err = pawn.WrapError(pawn.KindAuthorizationDenied, pawn.ErrorCredentialRejected, "staff id or pin rejected", err)
			opentelemetry.HandleSpanBusinessErrorEvent(span, "session.authenticate.rejected", err)

			return Session{}, err
		}

		err = pawn.WrapError(pawn.KindAuthorizationDenied, pawn.ErrorBackendUnavailable, "sign-in could not be completed", err)
		opentelemetry.HandleSpanError(span, "sign-in failed", err)

		return Session{}, err
	}

	now := m.clock.Now()

	sess := Session{
		ID:           uuid.NewString(),
		Credential:   auth.Credential,
		Token:        auth.Token,
		RefreshToken: auth.RefreshToken,
		IssuedAt:     now,
		ExpiresAt:    m.expiryFor(now, auth.Token, auth.ExpiresIn),
		Refreshable:  auth.RefreshToken != "",
	}

	m.mu.Lock()
	if m.state != StateUnauthenticated && m.state != StateExpired {
		m.mu.Unlock()

		return Session{}, errAlreadySignedIn()
	}

	m.generation++
	m.current = &sess
	m.transitionLocked(StateActive, ReasonAuthenticated)
	m.mu.Unlock()

	m.logger.Log(ctx, log.LevelInfo, "session started",
		log.String("session_id", sess.ID),
		log.String("staff_id", sess.Credential.StaffID),
		log.Any("expires_at", sess.ExpiresAt),
	)

	m.persist(ctx, sess)
	m.flush()
	m.Poll(ctx)

	return sess, nil
}

// Resume restores a session persisted in the Store, e.g. after a restart. It
// is allowed only from Unauthenticated or Expired.
func (m *Manager) Resume(ctx context.Context, id string) (Session, error) {
	if err := m.requireSignedOut(); err != nil {
		return Session{}, err
	}

	sess, err := m.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, pawn.WrapError(pawn.KindSessionExpired, pawn.ErrorSessionExpired, "session no longer exists", err)
		}

		return Session{}, pawn.WrapError(pawn.KindSessionExpired, pawn.ErrorBackendUnavailable, "session could not be loaded", err)
	}

	if sess.Remaining(m.clock.Now()) <= 0 {
		_ = m.store.Delete(ctx, id)

		return Session{}, pawn.NewDomainError(pawn.KindSessionExpired, pawn.ErrorSessionExpired, "", "session has expired")
	}

	m.mu.Lock()
	if m.state != StateUnauthenticated && m.state != StateExpired {
		m.mu.Unlock()

		return Session{}, errAlreadySignedIn()
	}

	m.generation++
	m.current = &sess
	m.transitionLocked(StateActive, ReasonResumed)
	m.mu.Unlock()

	m.flush()
	m.Poll(ctx)

	return sess, nil
}

// Refresh renews the session. On success the new expiry is
// max(expiresAt + Extension, now + expiresIn) and the state returns to
// Active. On failure the session expires immediately. When the refresh lock
// cannot be reached the refresh is not attempted: the session keeps its
// state and the error is AuthorizationDenied, as for a sign-in outage.
func (m *Manager) Refresh(ctx context.Context) error {
	ctx, span := m.tracer.Start(ctx, "session.refresh")
	defer span.End()

	release, err := m.lockRefresh(ctx)
	if err != nil {
		opentelemetry.HandleSpanBusinessErrorEvent(span, "session.refresh.locked", err)

		return err
	}
	defer release()

	m.mu.Lock()

	switch m.state {
	case StateActive, StateWarning:
	case StateRefreshing:
		m.mu.Unlock()

		return pawn.Busy("session refresh")
	case StateExpired:
		m.mu.Unlock()

		return pawn.NewDomainError(pawn.KindSessionExpired, pawn.ErrorSessionExpired, "", "session has expired")
	default:
		m.mu.Unlock()

		return errNotSignedIn()
	}

	generation := m.generation
	refreshToken := m.current.RefreshToken
	refreshable := m.current.Refreshable
	span.SetAttributes(attribute.String("app.session_id", m.current.ID))

	m.transitionLocked(StateRefreshing, ReasonRefreshStarted)
	m.mu.Unlock()
	m.flush()

	var result RefreshResult

	if refreshable {
		rctx, cancel := context.WithTimeout(ctx, m.cfg.RefreshTimeout)
		result, err = m.cfg.Refresher.RefreshSession(rctx, refreshToken)

		cancel()
	} else {
		err = errors.New("session is not refreshable")
	}

	m.mu.Lock()

	if m.generation != generation || m.state != StateRefreshing {
		m.mu.Unlock()

		discarded := pawn.NewDomainError(pawn.KindSessionExpired, pawn.ErrorSessionTerminated, "", "session ended while refreshing")
		opentelemetry.HandleSpanBusinessErrorEvent(span, "session.refresh.discarded", discarded)

		return discarded
	}

	if err != nil {
		id := m.expireLocked(ReasonRefreshFailed)
		m.mu.Unlock()

		m.logger.Log(ctx, log.LevelWarn, "session refresh failed, session expired", log.String("session_id", id), log.Err(err))
		m.forget(ctx, id)
		m.flush()

		err = pawn.WrapError(pawn.KindSessionExpired, pawn.ErrorRefreshRejected, "session refresh failed", err)
		opentelemetry.HandleSpanError(span, "session refresh failed", err)

		return err
	}

	now := m.clock.Now()

	extended := m.current.ExpiresAt.Add(m.cfg.Extension)
	if fresh := m.expiryFor(now, result.Token, result.ExpiresIn); fresh.After(extended) {
		extended = fresh
	}

	if result.Token != "" {
		m.current.Token = result.Token
	}

	if result.RefreshToken != "" {
		m.current.RefreshToken = result.RefreshToken
	}

	m.current.ExpiresAt = extended
	m.transitionLocked(StateActive, ReasonRefreshed)
	sess := *m.current
	m.mu.Unlock()

	m.logger.Log(ctx, log.LevelInfo, "session refreshed",
		log.String("session_id", sess.ID),
		log.Any("expires_at", sess.ExpiresAt),
	)

	m.persist(ctx, sess)
	m.flush()

	return nil
}

// lockRefresh takes the refresh lock of the live session. Without a Locker,
// or without a session, it returns a no-op release and leaves the state
// checks to Refresh.
func (m *Manager) lockRefresh(ctx context.Context) (func(), error) {
	noop := func() {}

	if m.cfg.Locker == nil {
		return noop, nil
	}

	m.mu.Lock()
	var id string
	if m.current != nil {
		id = m.current.ID
	}
	m.mu.Unlock()

	if id == "" {
		return noop, nil
	}

	handle, ok, err := m.cfg.Locker.TryLock(ctx, id)
	if err != nil {
		return nil, pawn.WrapError(pawn.KindAuthorizationDenied, pawn.ErrorBackendUnavailable, "session refresh lock is unavailable", err)
	}

	if !ok {
		m.logger.Log(ctx, log.LevelInfo, "session refresh already running elsewhere", log.String("session_id", id))

		return nil, pawn.Busy("session refresh")
	}

	return func() {
		if err := handle.Unlock(context.WithoutCancel(ctx)); err != nil {
			m.logger.Log(ctx, log.LevelWarn, "failed to release session refresh lock", log.String("session_id", id), log.Err(err))
		}
	}, nil
}

// RefreshResult aliases the backend result for callers that only import
// this package.
type RefreshResult = backend.RefreshResult

// Logout destroys the live session. Logging out without a session is a no-op.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()

		return
	}

	id := m.current.ID
	m.transitionLocked(StateUnauthenticated, ReasonLoggedOut)
	m.generation++
	m.current = nil
	m.mu.Unlock()

	m.logger.Log(ctx, log.LevelInfo, "session ended by logout", log.String("session_id", id))

	m.forget(ctx, id)
	m.flush()
}

// Poll evaluates the session once against the clock. The poller calls it on
// every tick; tests may call it directly.
func (m *Manager) Poll(ctx context.Context) {
	m.mu.Lock()

	if m.current == nil {
		m.mu.Unlock()

		return
	}

	remaining := m.current.Remaining(m.clock.Now())

	var (
		expiredID string
		renew     bool
	)

	switch {
	case remaining <= 0:
		expiredID = m.expireLocked(ReasonTimedOut)
	case m.state == StateActive && remaining <= m.cfg.WarnBefore:
		m.transitionLocked(StateWarning, ReasonExpiringSoon)

		renew = m.cfg.AutoRenew && m.current.Refreshable
	}

	m.mu.Unlock()

	if expiredID != "" {
		m.logger.Log(ctx, log.LevelInfo, "session expired", log.String("session_id", expiredID))
		m.forget(ctx, expiredID)
	}

	m.flush()

	if renew {
		if err := m.Refresh(ctx); err != nil {
			m.logger.Log(ctx, log.LevelWarn, "automatic session renewal failed", log.Err(err))
		}
	}
}

// Start launches the poller. It stops when ctx is done or Stop is called.
// Calling Start on a running manager does nothing.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pollCancel != nil {
		return
	}

	pollCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	m.pollCancel = cancel
	m.pollDone = done

	runtime.SafeGoWithContextAndComponent(pollCtx, m.logger, "session", "poller", runtime.KeepRunning,
		func(c context.Context) {
			defer close(done)

			m.pollLoop(c)
		})
}

// Stop stops the poller and waits for it to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel, done := m.pollCancel, m.pollDone
	m.pollCancel, m.pollDone = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

func (m *Manager) pollLoop(ctx context.Context) {
	ticker := m.clock.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			m.Poll(ctx)
		}
	}
}

func (m *Manager) requireSignedOut() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateUnauthenticated && m.state != StateExpired {
		return errAlreadySignedIn()
	}

	return nil
}

func (m *Manager) expiryFor(now time.Time, token string, expiresIn time.Duration) time.Time {
	if expiresIn > 0 {
		return now.Add(expiresIn)
	}

	if exp, ok := ExpiryFromToken(token); ok {
		return exp
	}

	return now.Add(m.cfg.Extension)
}

// transitionLocked must be called with mu held.
func (m *Manager) transitionLocked(to State, reason Reason) {
	e := Event{From: m.state, To: to, Reason: reason, At: m.clock.Now()}

	if m.current != nil {
		e.SessionID = m.current.ID
		e.ExpiresAt = m.current.ExpiresAt
	}

	m.state = to
	m.pending = append(m.pending, e)
}

// expireLocked must be called with mu held. It returns the expired id.
func (m *Manager) expireLocked(reason Reason) string {
	id := m.current.ID

	m.transitionLocked(StateExpired, reason)
	m.generation++
	m.current = nil

	return id
}

func (m *Manager) persist(ctx context.Context, s Session) {
	if err := m.store.Save(ctx, s, s.Remaining(m.clock.Now())); err != nil {
		m.logger.Log(ctx, log.LevelWarn, "session record not saved", log.String("session_id", s.ID), log.Err(err))
	}
}

func (m *Manager) forget(ctx context.Context, id string) {
	if err := m.store.Delete(ctx, id); err != nil {
		m.logger.Log(ctx, log.LevelWarn, "session record not deleted", log.String("session_id", id), log.Err(err))
	}
}

// flush delivers pending events. Only one goroutine delivers at a time; a
// flush that finds delivery in progress leaves its events to that goroutine.
func (m *Manager) flush() {
	for {
		if !m.notifyMu.TryLock() {
			return
		}

		m.deliver()
		m.notifyMu.Unlock()

		m.mu.Lock()
		empty := len(m.pending) == 0
		m.mu.Unlock()

		if empty {
			return
		}
	}
}

func (m *Manager) deliver() {
	for {
		m.mu.Lock()
		events := m.pending
		m.pending = nil
		observers := append([]observer(nil), m.observers...)
		m.mu.Unlock()

		if len(events) == 0 {
			return
		}

		for _, e := range events {
			for _, o := range observers {
				m.notify(o, e)
			}
		}
	}
}

func (m *Manager) notify(o observer, e Event) {
	defer func() {
		if r := recover(); r != nil {
			runtime.HandlePanicValue(context.Background(), m.logger, r, "session", "observer")
		}
	}()

	o.fn(e)
}

func errAlreadySignedIn() error {
	return pawn.NewDomainError(pawn.KindInputValidation, pawn.ErrorInvalidStateTransition, "",
		"a session is already active; log out first")
}

func errNotSignedIn() error {
	return pawn.NewDomainError(pawn.KindSessionExpired, pawn.ErrorNotAuthenticated, "", "no active session")
}
