package workflow

import (
	"context"
	"slices"

	"github.com/LerianStudio/lib-pawn/pawn"
	"github.com/LerianStudio/lib-pawn/pawn/authz"
	"github.com/LerianStudio/lib-pawn/pawn/backend"
	"github.com/LerianStudio/lib-pawn/pawn/identity"
	"github.com/LerianStudio/lib-pawn/pawn/reconcile"
	"github.com/LerianStudio/lib-pawn/pawn/runtime"
	"github.com/LerianStudio/lib-pawn/pawn/ticket"
)

// Snapshot is a read-only view of a Machine for the presentation layer.
// Derived values are recomputed on every snapshot.
type Snapshot struct {
	BatchID           string                  `json:"batchId"`
	Stage             Stage                   `json:"stage"`
	Batch             ticket.Batch            `json:"batch"`
	CustomerVerified  bool                    `json:"customerVerified"`
	Redeemer          *identity.Redeemer      `json:"redeemer,omitempty"`
	ChallengeAnswered bool                    `json:"challengeAnswered"`
	Classification    identity.Classification `json:"classification"`
	Payment           reconcile.Split         `json:"payment"`
	Reconciliation    reconcile.Result        `json:"reconciliation"`
	PaymentSufficient bool                    `json:"paymentSufficient"`
	Requirement       authz.Requirement       `json:"requirement"`
	Approvals         authz.Approvals         `json:"approvals"`
	Confirmations     backend.Confirmations   `json:"confirmations"`
	Processing        bool                    `json:"processing"`
	TransactionID     backend.TransactionID   `json:"transactionId,omitempty"`
	// Unmet lists what blocks the current stage; empty when it may advance.
	Unmet []pawn.FieldViolation `json:"unmet,omitempty"`
}

// Snapshot returns the current view.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() Snapshot {
	c := m.classificationLocked()

	s := Snapshot{
		BatchID:           m.id,
		Stage:             m.stage,
		Batch:             m.batch,
		CustomerVerified:  m.customerVerified,
		Redeemer:          copyRedeemer(m.redeemer),
		ChallengeAnswered: m.challengeAnswered,
		Classification:    c,
		Payment:           m.split,
		Reconciliation:    reconcile.Reconcile(m.batch, m.split),
		PaymentSufficient: m.paymentSufficient,
		Requirement:       m.policy.Decide(m.batch, c.DifferentRedeemer),
		Approvals:         copyApprovals(m.approvals),
		Confirmations:     m.confirmations,
		Processing:        m.processing,
		TransactionID:     m.txID,
	}

	if !m.stage.IsTerminal() {
		s.Unmet = violationsOf(m.checkLocked(m.stage))
	}

	return s
}

type observer struct {
	id uint64
	fn func(Snapshot)
}

// OnChange registers fn to receive a snapshot after every change and
// returns a function that unregisters it. Observers run outside the machine
// lock, in change order, and may call back into the machine.
func (m *Machine) OnChange(fn func(Snapshot)) (unsubscribe func()) {
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

		m.observers = slices.DeleteFunc(m.observers, func(o observer) bool { return o.id == id })
	}
}

func (m *Machine) queueLocked() {
	if len(m.observers) == 0 {
		return
	}

	m.pending = append(m.pending, m.snapshotLocked())
}

// flush delivers queued snapshots. A flush that finds delivery in progress
// on another goroutine leaves its snapshots to that goroutine.
func (m *Machine) flush() {
	for {
		if !m.notifyMu.TryLock() {
			return
		}

		for {
			m.mu.Lock()
			pending := m.pending
			m.pending = nil
			observers := slices.Clone(m.observers)
			m.mu.Unlock()

			if len(pending) == 0 {
				break
			}

			for _, s := range pending {
				for _, o := range observers {
					m.notify(o, s)
				}
			}
		}

		m.notifyMu.Unlock()

		m.mu.Lock()
		empty := len(m.pending) == 0
		m.mu.Unlock()

		if empty {
			return
		}
	}
}

func (m *Machine) notify(o observer, s Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			runtime.HandlePanicValue(context.Background(), m.logger, r, "workflow", "observer")
		}
	}()

	o.fn(s)
}

func copyRedeemer(r *identity.Redeemer) *identity.Redeemer {
	if r == nil {
		return nil
	}

	c := *r

	return &c
}

func copyCredential(c *authz.Credential) *authz.Credential {
	if c == nil {
		return nil
	}

	out := *c
	out.Permissions = slices.Clone(c.Permissions)

	return &out
}

func copyApprovals(a authz.Approvals) authz.Approvals {
	return authz.Approvals{
		Primary:       copyCredential(a.Primary),
		Secondary:     copyCredential(a.Secondary),
		Manager:       copyCredential(a.Manager),
		Justification: a.Justification,
	}
}
