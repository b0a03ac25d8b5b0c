package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/LerianStudio/lib-pawn/pawn"
	"github.com/LerianStudio/lib-pawn/pawn/authz"
	"github.com/LerianStudio/lib-pawn/pawn/backend"
	"github.com/LerianStudio/lib-pawn/pawn/identity"
	"github.com/LerianStudio/lib-pawn/pawn/log"
	"github.com/LerianStudio/lib-pawn/pawn/opentelemetry"
	"github.com/LerianStudio/lib-pawn/pawn/reconcile"
	"github.com/LerianStudio/lib-pawn/pawn/ticket"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNilLookup is returned by New without a ticket lookup.
	ErrNilLookup = errors.New("workflow: ticket lookup is required")
	// ErrNilAuthenticator is returned by New without a staff authenticator.
	ErrNilAuthenticator = errors.New("workflow: staff authenticator is required")
	// ErrNilCommitter is returned by New without a committer.
	ErrNilCommitter = errors.New("workflow: committer is required")
)

// Config configures a Machine.
type Config struct {
	Lookup        backend.TicketLookup
	Authenticator backend.StaffAuthenticator
	Committer     backend.Committer
	// Policy defaults to authz.DefaultPolicy.
	Policy *authz.Policy
	// BatchID is sent with the commit and makes it idempotent. Defaults to
	// a random uuid.
	BatchID string
	Logger  log.Logger
	Tracer  trace.Tracer
}

// Machine is one batch moving through the pipeline. All methods are safe
// for concurrent use; while a backend call is in flight every other
// mutation is refused with pawn.ErrBusy.
type Machine struct {
	id     string
	cfg    Config
	policy authz.Policy
	logger log.Logger
	tracer trace.Tracer

	// ctx is cancelled by Terminate and bounds every backend call.
	ctx    context.Context
	cancel context.CancelFunc

	mu                sync.Mutex
	stage             Stage
	batch             ticket.Batch
	customerVerified  bool
	redeemer          *identity.Redeemer
	challengeAnswered bool
	split             reconcile.Split
	paymentSufficient bool
	approvals         authz.Approvals
	confirmations     backend.Confirmations
	processing        bool
	txID              backend.TransactionID
	cause             error

	observers []observer
	nextObsID uint64
	pending   []Snapshot
	notifyMu  sync.Mutex
}

// New returns a Machine at Selection with an empty batch. The batch lives at
// most as long as ctx.
func New(ctx context.Context, cfg Config) (*Machine, error) {
	switch {
	case cfg.Lookup == nil:
		return nil, ErrNilLookup
	case cfg.Authenticator == nil:
		return nil, ErrNilAuthenticator
	case cfg.Committer == nil:
		return nil, ErrNilCommitter
	}

	policy := authz.DefaultPolicy()
	if cfg.Policy != nil {
		policy = *cfg.Policy
	}

	if cfg.BatchID == "" {
		cfg.BatchID = uuid.NewString()
	}

	bctx, cancel := context.WithCancel(ctx)

	return &Machine{
		id:     cfg.BatchID,
		cfg:    cfg,
		policy: policy,
		logger: log.OrNop(cfg.Logger).With(log.String("component", "workflow"), log.String("batch_id", cfg.BatchID)),
		tracer: opentelemetry.Tracer(cfg.Tracer, "workflow"),
		ctx:    bctx,
		cancel: cancel,
		stage:  StageSelection,
	}, nil
}

// ID returns the batch id.
func (m *Machine) ID() string { return m.id }

// Stage returns the current stage.
func (m *Machine) Stage() Stage {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stage
}

// Processing reports whether a backend call is in flight.
func (m *Machine) Processing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.processing
}

// TransactionID returns the id of the committed transaction.
func (m *Machine) TransactionID() (backend.TransactionID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.txID, m.stage == StageCommitted
}

// Err returns the cause passed to Terminate, if any.
func (m *Machine) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.cause
}

// AddTicket looks number up and appends the resulting operation. The amount
// is the ticket's renewal fee or redemption amount, and only ACTIVE tickets
// are accepted. Adding a ticket rewinds the machine to Selection.
func (m *Machine) AddTicket(ctx context.Context, number string, kind ticket.Kind) (ticket.Operation, error) {
	ctx, span := m.tracer.Start(ctx, "workflow.add_ticket")
	defer span.End()

	span.SetAttributes(attribute.String("app.ticket_number", number), attribute.String("app.ticket_kind", string(kind)))

	n, err := ticket.ParseNumber(number)
	if err == nil && !kind.IsValid() {
		err = pawn.NewDomainError(pawn.KindInputValidation, pawn.ErrorMissingField, "kind", "kind must be RENEW or REDEEM")
	}

	if err == nil {
		err = m.begin("add ticket", func() error {
			if m.batch.Contains(n) {
				return pawn.NewDomainError(pawn.KindInputValidation, pawn.ErrorDuplicateTicket, "ticketNumber",
					"ticket "+n.String()+" is already in the batch")
			}

			return nil
		})
	}

	if err != nil {
		opentelemetry.HandleSpanBusinessErrorEvent(span, "workflow.add_ticket.refused", err)

		return ticket.Operation{}, err
	}

	callCtx, cancel := m.callContext(ctx)
	rec, lookupErr := m.cfg.Lookup.LookupTicket(callCtx, n)

	cancel()

	op, err := m.completeAdd(n, kind, rec, lookupErr)
	m.flush()

	if err != nil {
		if lookupErr != nil && !backend.IsDomainRejection(lookupErr) {
			opentelemetry.HandleSpanError(span, "ticket lookup failed", err)
		} else {
			opentelemetry.HandleSpanBusinessErrorEvent(span, "workflow.add_ticket.rejected", err)
		}

		return ticket.Operation{}, err
	}

	m.logger.Log(ctx, log.LevelInfo, "ticket added",
		log.String("ticket_number", n.String()),
		log.String("kind", string(kind)),
		log.String("amount", op.Amount.String()),
	)

	return op, nil
}

func (m *Machine) completeAdd(n ticket.Number, kind ticket.Kind, rec backend.TicketRecord, lookupErr error) (ticket.Operation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.endLocked(); err != nil {
		return ticket.Operation{}, err
	}

	switch {
	case errors.Is(lookupErr, backend.ErrTicketNotFound):
		return ticket.Operation{}, pawn.NewDomainError(pawn.KindInputValidation, pawn.ErrorTicketNotFound, "ticketNumber",
			"ticket "+n.String()+" does not exist")
	case lookupErr != nil:
		return ticket.Operation{}, pawn.WrapError(pawn.KindInputValidation, pawn.ErrorBackendUnavailable,
			"ticket "+n.String()+" could not be looked up", lookupErr)
	case rec.Status != backend.TicketActive:
		return ticket.Operation{}, pawn.NewDomainError(pawn.KindInputValidation, pawn.ErrorTicketNotEligible, "ticketNumber",
			"ticket "+n.String()+" is "+string(rec.Status))
	}

	op, err := ticket.NewOperation(n.String(), kind, rec.AmountFor(kind), rec.Customer)
	if err != nil {
		return ticket.Operation{}, err
	}

	batch, err := m.batch.Add(op)
	if err != nil {
		return ticket.Operation{}, err
	}

	m.batch = batch
	m.invalidateLocked(StageSelection, true)

	return op, nil
}

// RemoveTicket drops the operation for number and rewinds to Selection.
func (m *Machine) RemoveTicket(number string) error {
	n, err := ticket.ParseNumber(number)
	if err != nil {
		return err
	}

	return m.mutate("remove ticket", func() error {
		batch, ok := m.batch.Remove(n)
		if !ok {
			return pawn.NewDomainError(pawn.KindInputValidation, pawn.ErrorTicketNotFound, "ticketNumber",
				"ticket "+n.String()+" is not in the batch")
		}

		m.batch = batch
		m.invalidateLocked(StageSelection, true)

		return nil
	})
}

// SetCustomerVerified records the teller's check of the registered
// customer's identity.
func (m *Machine) SetCustomerVerified(verified bool) error {
	return m.mutate("verify customer", func() error {
		m.customerVerified = verified
		m.invalidateLocked(StageVerification, false)

		return nil
	})
}

// SetRedeemer records who is collecting the pledges. A nil redeemer means
// the registered customer. Changing the redeemer's national ID clears the
// security challenge answer.
func (m *Machine) SetRedeemer(r *identity.Redeemer) error {
	return m.mutate("set redeemer", func() error {
		var prev ticket.NationalID
		if m.redeemer != nil {
			prev = m.redeemer.NationalID
		}

		m.redeemer = copyRedeemer(r)

		if r == nil || r.NationalID != prev {
			m.challengeAnswered = false
		}

		m.invalidateLocked(StageVerification, false)

		return nil
	})
}

// SetSecurityChallengeAnswered records that the redeemer answered the
// security question correctly.
func (m *Machine) SetSecurityChallengeAnswered(answered bool) error {
	return m.mutate("answer security challenge", func() error {
		m.challengeAnswered = answered
		m.invalidateLocked(StageVerification, false)

		return nil
	})
}

// SetPayment records how the amount due is tendered.
func (m *Machine) SetPayment(split reconcile.Split) error {
	return m.mutate("set payment", func() error {
		m.split = split
		m.invalidateLocked(StagePayment, false)

		return nil
	})
}

// SetJustification records the free-text reason required with manager
// approval.
func (m *Machine) SetJustification(text string) error {
	return m.mutate("set justification", func() error {
		m.approvals.Justification = text
		m.invalidateLocked(StageReview, false)

		return nil
	})
}

// DetachCredential removes the credential attached to role.
func (m *Machine) DetachCredential(role Role) error {
	if !role.IsValid() {
		return pawn.NewDomainError(pawn.KindInputValidation, pawn.ErrorMissingField, "role", "unknown role "+string(role))
	}

	return m.mutate("detach credential", func() error {
		m.setCredentialLocked(role, nil)
		m.invalidateLocked(StageReview, false)

		return nil
	})
}

// Confirm sets one Review confirmation. Confirmations are only accepted at
// Review and are cleared by any other edit.
func (m *Machine) Confirm(c Confirmation, value bool) error {
	return m.mutate("confirm", func() error {
		if m.stage != StageReview {
			return errTransition("confirmations are given at review, batch is at " + string(m.stage))
		}

		switch c {
		case ConfirmDocuments:
			m.confirmations.DocumentsVerified = value
		case ConfirmCompliance:
			m.confirmations.ComplianceChecked = value
		case ConfirmFinal:
			m.confirmations.FinalConfirmation = value
		default:
			return pawn.NewDomainError(pawn.KindInputValidation, pawn.ErrorMissingField, "confirmation",
				"unknown confirmation "+string(c))
		}

		m.queueLocked()

		return nil
	})
}

// AttachCredentials authenticates every attachment concurrently and, when all
// succeed, attaches each credential to its role. Staff must be distinct
// across roles. Nothing is attached when any attachment fails.
func (m *Machine) AttachCredentials(ctx context.Context, attachments ...Attachment) error {
	ctx, span := m.tracer.Start(ctx, "workflow.attach_credentials")
	defer span.End()

	span.SetAttributes(attribute.Int("app.attachments", len(attachments)))

	err := m.begin("attach credentials", func() error {
		return m.checkAttachmentsLocked(attachments)
	})
	if err != nil {
		opentelemetry.HandleSpanBusinessErrorEvent(span, "workflow.attach_credentials.refused", err)

		return err
	}

	creds := make([]authz.Credential, len(attachments))
	rejected := make([]error, len(attachments))

	callCtx, cancel := m.callContext(ctx)
	g, gctx := errgroup.WithContext(callCtx)

	for i, a := range attachments {
		g.Go(func() error {
			auth, err := m.cfg.Authenticator.AuthenticateStaff(gctx, a.StaffID, a.PIN)

			switch {
			case err == nil:
				creds[i] = auth.Credential
			case backend.IsDomainRejection(err):
				rejected[i] = err
			default:
				return fmt.Errorf("authenticate %s: %w", a.StaffID, err)
			}

			return nil
		})
	}

	outage := g.Wait()

	cancel()

	err = m.completeAttach(attachments, creds, rejected, outage)
	m.flush()

	switch {
	case err == nil:
		m.logger.Log(ctx, log.LevelInfo, "credentials attached", log.Int("count", len(attachments)))
	case outage != nil:
		opentelemetry.HandleSpanError(span, "staff authentication failed", err)
	default:
		opentelemetry.HandleSpanBusinessErrorEvent(span, "workflow.attach_credentials.rejected", err)
	}

	return err
}

func (m *Machine) checkAttachmentsLocked(attachments []Attachment) error {
	var (
		v         pawn.Violations
		duplicate bool
	)

	if len(attachments) == 0 {
		v.Add(pawn.ErrorMissingCredential, "approvals", "no credential to attach")
	}

	roles := make(map[Role]bool, len(attachments))
	staff := make(map[string]Role, 3)

	for _, a := range attachments {
		if a.Role.IsValid() {
			roles[a.Role] = true
		}
	}

	for _, role := range []Role{RolePrimary, RoleSecondary, RoleManager} {
		if c := m.credentialLocked(role); c != nil && !roles[role] {
			staff[c.StaffID] = role
		}
	}

	seen := make(map[Role]bool, len(attachments))

	for _, a := range attachments {
		field := a.Role.field()

		switch {
		case !a.Role.IsValid():
			v.Add(pawn.ErrorMissingField, "role", "unknown role "+string(a.Role))

			continue
		case seen[a.Role]:
			v.Add(pawn.ErrorDuplicateStaff, field, "role "+string(a.Role)+" appears twice")

			continue
		}

		seen[a.Role] = true

		if a.StaffID == "" {
			v.Add(pawn.ErrorMissingField, field+".staffId", "staff id is required")
		}

		if a.PIN == "" {
			v.Add(pawn.ErrorMissingField, field+".pin", "pin is required")
		}

		if other, ok := staff[a.StaffID]; ok && a.StaffID != "" {
			duplicate = true

			v.Add(pawn.ErrorDuplicateStaff, field, a.StaffID+" is already attached as "+string(other))

			continue
		}

		staff[a.StaffID] = a.Role
	}

	kind := pawn.KindInputValidation
	if duplicate {
		kind = pawn.KindAuthorizationDenied
	}

	return v.Err(kind, "credentials cannot be attached")
}

func (m *Machine) completeAttach(attachments []Attachment, creds []authz.Credential, rejected []error, outage error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.endLocked(); err != nil {
		return err
	}

	if outage != nil {
		return pawn.WrapError(pawn.KindAuthorizationDenied, pawn.ErrorBackendUnavailable, "staff could not be authenticated", outage)
	}

	var v pawn.Violations

	for i, err := range rejected {
		if err != nil {
			v.Add(pawn.ErrorCredentialRejected, attachments[i].Role.field(), attachments[i].StaffID+": staff id or pin rejected")
		}
	}

	if err := v.Err(pawn.KindAuthorizationDenied, "credentials were rejected"); err != nil {
		return err
	}

	next := m.approvals
	for i, a := range attachments {
		c := creds[i]
		setCredential(&next, a.Role, &c)
	}

	if err := distinctStaff(next); err != nil {
		return err
	}

	m.approvals = next
	m.invalidateLocked(StageReview, false)

	return nil
}

// CanAdvance reports nil when the current stage's guard holds, otherwise an
// error listing every unmet field. At Review a nil result means Commit may
// proceed.
func (m *Machine) CanAdvance() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.terminalLocked(); err != nil {
		return err
	}

	return m.checkLocked(m.stage)
}

// Advance moves to the next stage when the guard holds. Review is left only
// through Commit.
func (m *Machine) Advance(ctx context.Context) (Stage, error) {
	ctx, span := m.tracer.Start(ctx, "workflow.advance")
	defer span.End()

	m.mu.Lock()

	from := m.stage
	span.SetAttributes(attribute.String("app.stage", string(from)))

	err := m.mutableLocked("advance")

	if err == nil && from == StageReview {
		err = errTransition("review is completed by commit")
	}

	if err == nil {
		err = m.checkLocked(from)
	}

	if err != nil {
		m.mu.Unlock()

		opentelemetry.HandleSpanBusinessErrorEvent(span, "workflow.advance.blocked", err)

		return from, err
	}

	if from == StagePayment {
		m.paymentSufficient = true
	}

	m.stage = from.next()
	to := m.stage
	m.queueLocked()
	m.mu.Unlock()

	m.flush()

	m.logger.Log(ctx, log.LevelDebug, "stage advanced", log.String("from", string(from)), log.String("to", string(to)))

	return to, nil
}

// Back returns to an earlier stage. No entered data is cleared.
func (m *Machine) Back(stage Stage) error {
	return m.mutate("go back", func() error {
		if !stage.editable() || !stage.Before(m.stage) {
			return errTransition("cannot go back from " + string(m.stage) + " to " + string(stage))
		}

		m.stage = stage
		m.queueLocked()

		return nil
	})
}

// Commit books the batch. It is allowed only from a fully satisfied Review.
// A failed commit is retryable and leaves the machine at Review; a
// successful one moves it to Committed for good.
func (m *Machine) Commit(ctx context.Context) (backend.TransactionID, error) {
	ctx, span := m.tracer.Start(ctx, "workflow.commit")
	defer span.End()

	span.SetAttributes(attribute.String("app.batch_id", m.id))

	var req backend.CommitRequest

	err := m.begin("commit", func() error {
		if m.stage != StageReview {
			return errTransition("commit requires review, batch is at " + string(m.stage))
		}

		if err := m.checkLocked(StageReview); err != nil {
			return err
		}

		req = m.commitRequestLocked()

		return nil
	})
	if err != nil {
		opentelemetry.HandleSpanBusinessErrorEvent(span, "workflow.commit.refused", err)

		return "", err
	}

	if err := opentelemetry.SetSpanAttributesFromStruct(span, "app.commit", req); err != nil {
		m.logger.Log(ctx, log.LevelDebug, "commit request not attached to span", log.Err(err))
	}

	callCtx, cancel := m.callContext(ctx)
	id, commitErr := m.cfg.Committer.CommitTransaction(callCtx, req)

	cancel()

	err = m.completeCommit(ctx, id, commitErr)
	m.flush()

	if err != nil {
		opentelemetry.HandleSpanError(span, "commit failed", err)

		return "", err
	}

	span.SetAttributes(attribute.String("app.transaction_id", string(id)))
	m.logger.Log(ctx, log.LevelInfo, "batch committed",
		log.String("transaction_id", string(id)),
		log.Int("tickets", req.Batch.Count()),
		log.String("net", req.Reconciliation.Net.String()),
	)

	return id, nil
}

func (m *Machine) completeCommit(ctx context.Context, id backend.TransactionID, commitErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.endLocked(); err != nil {
		if commitErr == nil {
			m.logger.Log(ctx, log.LevelWarn, "commit completed after termination, result discarded",
				log.String("transaction_id", string(id)))
		}

		return err
	}

	if commitErr != nil {
		code := pawn.ErrorBackendUnavailable
		if backend.IsDomainRejection(commitErr) {
			code = pawn.ErrorCommitRejected
		}

		return pawn.WrapError(pawn.KindCommitFailure, code, "batch could not be committed", commitErr)
	}

	m.stage = StageCommitted
	m.txID = id
	m.queueLocked()

	return nil
}

// Terminate discards the batch. It wins over any in-flight call: results
// arriving afterwards are dropped and reported as a session error. A
// committed or already terminated batch is left as it is.
func (m *Machine) Terminate(cause error) {
	m.mu.Lock()

	if m.stage.IsTerminal() {
		m.mu.Unlock()

		return
	}

	from := m.stage
	m.stage = StageTerminated
	m.cause = cause
	m.processing = false
	m.cancel()
	m.queueLocked()
	m.mu.Unlock()

	m.flush()

	m.logger.Log(context.Background(), log.LevelInfo, "batch terminated",
		log.String("stage", string(from)), log.Err(cause))
}

// begin checks that a backend call may start and marks the machine as
// processing. check runs under the lock.
func (m *Machine) begin(operation string, check func() error) error {
	m.mu.Lock()

	err := m.mutableLocked(operation)
	if err == nil {
		err = check()
	}

	if err != nil {
		m.mu.Unlock()

		return err
	}

	m.processing = true
	m.queueLocked()
	m.mu.Unlock()

	m.flush()

	return nil
}

// endLocked clears processing after a backend call. It returns the
// termination error when the batch ended meanwhile.
func (m *Machine) endLocked() error {
	if m.stage == StageTerminated {
		return pawn.WrapError(pawn.KindSessionExpired, pawn.ErrorSessionTerminated,
			"batch was terminated while the request was in flight", m.cause)
	}

	m.processing = false
	m.queueLocked()

	return nil
}

func (m *Machine) mutate(operation string, fn func() error) error {
	m.mu.Lock()

	err := m.mutableLocked(operation)
	if err == nil {
		err = fn()
	}

	m.mu.Unlock()

	m.flush()

	return err
}

func (m *Machine) mutableLocked(operation string) error {
	if err := m.terminalLocked(); err != nil {
		return err
	}

	if m.processing {
		return pawn.Busy(operation)
	}

	return nil
}

func (m *Machine) terminalLocked() error {
	switch m.stage {
	case StageTerminated:
		return pawn.WrapError(pawn.KindSessionExpired, pawn.ErrorSessionTerminated, "batch was terminated", m.cause)
	case StageCommitted:
		return errTransition("batch is committed; start a new batch")
	}

	return nil
}

// invalidateLocked rewinds to from when the machine is past it and clears
// every flag that depended on the edited data. Entered data is kept.
func (m *Machine) invalidateLocked(from Stage, ticketsChanged bool) {
	if from.Before(m.stage) {
		m.stage = from
	}

	if ticketsChanged {
		m.customerVerified = false
		m.challengeAnswered = false
	}

	if from.Before(StageReview) {
		m.paymentSufficient = false
	}

	m.confirmations = backend.Confirmations{}
	m.queueLocked()
}

// callContext bounds a backend call by both ctx and the batch lifetime.
func (m *Machine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	if m.ctx.Err() != nil {
		cancel()
	}

	stop := context.AfterFunc(m.ctx, cancel)

	return ctx, func() {
		stop()
		cancel()
	}
}

func (m *Machine) classificationLocked() identity.Classification {
	return identity.Classify(m.batch, m.redeemer)
}

func (m *Machine) requirementLocked() authz.Requirement {
	return m.policy.Decide(m.batch, m.classificationLocked().DifferentRedeemer)
}

func (m *Machine) commitRequestLocked() backend.CommitRequest {
	c := m.classificationLocked()

	return backend.CommitRequest{
		BatchID:        m.id,
		Batch:          m.batch,
		Payment:        m.split,
		Reconciliation: reconcile.Reconcile(m.batch, m.split),
		Classification: c,
		Redeemer:       copyRedeemer(m.redeemer),
		Requirement:    m.policy.Decide(m.batch, c.DifferentRedeemer),
		Approvals:      copyApprovals(m.approvals),
		Confirmations:  m.confirmations,
	}
}

func (m *Machine) credentialLocked(role Role) *authz.Credential {
	switch role {
	case RolePrimary:
		return m.approvals.Primary
	case RoleSecondary:
		return m.approvals.Secondary
	case RoleManager:
		return m.approvals.Manager
	}

	return nil
}

func (m *Machine) setCredentialLocked(role Role, c *authz.Credential) {
	setCredential(&m.approvals, role, c)
}

func setCredential(a *authz.Approvals, role Role, c *authz.Credential) {
	switch role {
	case RolePrimary:
		a.Primary = c
	case RoleSecondary:
		a.Secondary = c
	case RoleManager:
		a.Manager = c
	}
}

// distinctStaff rejects approvals where one staff member fills two roles,
// comparing the ids returned by the backend.
func distinctStaff(a authz.Approvals) error {
	var v pawn.Violations

	seen := make(map[string]Role, 3)

	for _, slot := range []struct {
		role Role
		cred *authz.Credential
	}{{RolePrimary, a.Primary}, {RoleSecondary, a.Secondary}, {RoleManager, a.Manager}} {
		if slot.cred == nil {
			continue
		}

		if other, ok := seen[slot.cred.StaffID]; ok {
			v.Add(pawn.ErrorDuplicateStaff, slot.role.field(), slot.cred.StaffID+" is already attached as "+string(other))

			continue
		}

		seen[slot.cred.StaffID] = slot.role
	}

	return v.Err(pawn.KindAuthorizationDenied, "credentials cannot be attached")
}

func errTransition(message string) error {
	return pawn.NewDomainError(pawn.KindInputValidation, pawn.ErrorInvalidStateTransition, "", message)
}
