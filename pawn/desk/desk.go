package desk

import (
	"context"
	"errors"
	"sync"

	"github.com/LerianStudio/lib-pawn/pawn"
	"github.com/LerianStudio/lib-pawn/pawn/backend"
	"github.com/LerianStudio/lib-pawn/pawn/circuitbreaker"
	"github.com/LerianStudio/lib-pawn/pawn/log"
	"github.com/LerianStudio/lib-pawn/pawn/opentelemetry"
	"github.com/LerianStudio/lib-pawn/pawn/session"
	"github.com/LerianStudio/lib-pawn/pawn/workflow"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrNilBackend is returned by New without a backend.
var ErrNilBackend = errors.New("desk: backend is required")

// Dependencies are the collaborators a Desk is built on.
type Dependencies struct {
	Backend backend.Backend
	// Store persists the session record. Defaults to an in-memory store.
	Store session.Store
	// Locker serializes session refreshes across consoles sharing Store.
	Locker session.Locker
	// Breakers, when set, guards every backend call with a circuit breaker.
	Breakers circuitbreaker.Manager
	Clock    clockwork.Clock
	Logger   log.Logger
	Tracer   trace.Tracer
}

// Desk owns one staff session and at most one open batch.
type Desk struct {
	cfg      Config
	backend  backend.Backend
	sessions *session.Manager
	logger   log.Logger
	tracer   trace.Tracer

	// ctx bounds every batch; it ends with Close.
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	batch *workflow.Machine
	// batchSession is the id of the session that opened batch.
	batchSession string
}

// New builds a Desk. The session poller is not started until Start.
func New(ctx context.Context, cfg Config, deps Dependencies) (*Desk, error) {
	if deps.Backend == nil {
		return nil, ErrNilBackend
	}

	logger := log.OrNop(deps.Logger)

	be := deps.Backend
	if deps.Breakers != nil {
		be = backend.WithCircuitBreaker(be, deps.Breakers)
	}

	sessions, err := session.NewManager(session.Config{
		Authenticator: be,
		Refresher:     be,
		Store:         deps.Store,
		Locker:        deps.Locker,
		Clock:         deps.Clock,
		Logger:        logger,
		Tracer:        deps.Tracer,
		PollInterval:  cfg.PollInterval,
		WarnBefore:    cfg.WarnBefore,
		Extension:     cfg.Extension,
		AutoRenew:     cfg.AutoRenew,
	})
	if err != nil {
		return nil, err
	}

	dctx, cancel := context.WithCancel(ctx)

	d := &Desk{
		cfg:      cfg,
		backend:  be,
		sessions: sessions,
		logger:   logger.With(log.String("component", "desk")),
		tracer:   opentelemetry.Tracer(deps.Tracer, "desk"),
		ctx:      dctx,
		cancel:   cancel,
	}

	sessions.OnChange(d.onSessionChange)

	return d, nil
}

// Start launches the session poller.
func (d *Desk) Start() {
	d.sessions.Start(d.ctx)
}

// Close stops the poller and discards any open batch. The session record is
// left in the store so it can be resumed.
func (d *Desk) Close() {
	d.sessions.Stop()
	d.ResetBatch(pawn.NewDomainError(pawn.KindSessionExpired, pawn.ErrorSessionTerminated, "", "console closed"))
	d.cancel()
}

// Sessions exposes the session manager for state queries and observers.
func (d *Desk) Sessions() *session.Manager {
	return d.sessions
}

// SignIn authenticates the teller and opens a session.
func (d *Desk) SignIn(ctx context.Context, staffID, pin string) (session.Session, error) {
	ctx, span := d.tracer.Start(ctx, "desk.sign_in")
	defer span.End()

	sess, err := d.sessions.Authenticate(ctx, staffID, pin)
	if err != nil {
		opentelemetry.HandleSpanBusinessErrorEvent(span, "desk.sign_in.failed", err)

		return session.Session{}, err
	}

	span.SetAttributes(attribute.String("app.session_id", sess.ID))

	return sess, nil
}

// Resume restores a persisted session.
func (d *Desk) Resume(ctx context.Context, sessionID string) (session.Session, error) {
	ctx, span := d.tracer.Start(ctx, "desk.resume")
	defer span.End()

	sess, err := d.sessions.Resume(ctx, sessionID)
	if err != nil {
		opentelemetry.HandleSpanBusinessErrorEvent(span, "desk.resume.failed", err)
	}

	return sess, err
}

// Refresh renews the session. A refresh that ends the session discards the
// open batch before returning.
func (d *Desk) Refresh(ctx context.Context) error {
	err := d.sessions.Refresh(ctx)
	if err != nil {
		if _, ok := d.liveSession(); !ok {
			d.ResetBatch(endedCause(session.ReasonRefreshFailed))
		}
	}

	return err
}

// SignOut ends the session and discards the open batch before returning.
func (d *Desk) SignOut(ctx context.Context) {
	ctx, span := d.tracer.Start(ctx, "desk.sign_out")
	defer span.End()

	d.sessions.Logout(ctx)
	d.ResetBatch(endedCause(session.ReasonLoggedOut))
}

// Batch returns the open batch, starting one when there is none or the
// previous one has ended. A live session is required.
func (d *Desk) Batch(ctx context.Context) (*workflow.Machine, error) {
	_, span := d.tracer.Start(ctx, "desk.batch")
	defer span.End()

	m, stale, err := d.openBatch()

	if stale != nil {
		stale.Terminate(pawn.NewDomainError(pawn.KindSessionExpired, pawn.ErrorSessionTerminated, "",
			"batch belonged to another session"))
	}

	if err != nil {
		opentelemetry.HandleSpanBusinessErrorEvent(span, "desk.batch.refused", err)

		return nil, err
	}

	span.SetAttributes(attribute.String("app.batch_id", m.ID()))

	return m, nil
}

// openBatch holds mu while checking the session, so an expiry observed
// afterwards always finds and discards the batch it returns.
func (d *Desk) openBatch() (m, stale *workflow.Machine, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sess, ok := d.liveSession()
	if !ok {
		return nil, nil, pawn.NewDomainError(pawn.KindSessionExpired, pawn.ErrorNotAuthenticated, "", "sign in to start a batch")
	}

	if d.batch != nil && !d.batch.Stage().IsTerminal() {
		if d.batchSession == sess.ID {
			return d.batch, nil, nil
		}

		stale = d.batch
	}

	m, err = workflow.New(d.ctx, workflow.Config{
		Lookup:        d.backend,
		Authenticator: d.backend,
		Committer:     d.backend,
		Policy:        &d.cfg.Policy,
		Logger:        d.logger.With(log.String("session_id", sess.ID)),
		Tracer:        d.tracer,
	})
	if err != nil {
		return nil, stale, err
	}

	d.batch = m
	d.batchSession = sess.ID

	d.logger.Log(d.ctx, log.LevelInfo, "batch started", log.String("batch_id", m.ID()), log.String("session_id", sess.ID))

	return m, stale, nil
}

// Current returns the open batch without starting one.
func (d *Desk) Current() (*workflow.Machine, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.batch, d.batch != nil
}

// ResetBatch discards the open batch. Calling it without a batch does
// nothing, and the session is never touched.
func (d *Desk) ResetBatch(cause error) {
	d.mu.Lock()
	m := d.batch
	d.batch = nil
	d.batchSession = ""
	d.mu.Unlock()

	if m == nil {
		return
	}

	m.Terminate(cause)
}

func (d *Desk) liveSession() (session.Session, bool) {
	switch d.sessions.State() {
	case session.StateActive, session.StateWarning, session.StateRefreshing:
		return d.sessions.Current()
	default:
		return session.Session{}, false
	}
}

// onSessionChange discards the batch when the session ends. The manager
// delivers events on whichever goroutine holds delivery, so an expiry may be
// seen here after the call that caused it has returned. SignOut and Refresh
// reset the batch themselves, and openBatch refuses a session that is no
// longer live.
func (d *Desk) onSessionChange(e session.Event) {
	if !e.Ended() {
		return
	}

	d.logger.Log(context.Background(), log.LevelInfo, "session ended, discarding batch",
		log.String("session_id", e.SessionID), log.String("reason", string(e.Reason)))

	d.ResetBatch(endedCause(e.Reason))
}

func endedCause(reason session.Reason) error {
	code := pawn.ErrorSessionExpired
	if reason == session.ReasonLoggedOut {
		code = pawn.ErrorSessionTerminated
	}

	return pawn.NewDomainError(pawn.KindSessionExpired, code, "", "session ended: "+string(reason))
}
