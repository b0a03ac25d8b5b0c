package backend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LerianStudio/lib-pawn/pawn"
	"github.com/LerianStudio/lib-pawn/pawn/authz"
	"github.com/LerianStudio/lib-pawn/pawn/identity"
	"github.com/LerianStudio/lib-pawn/pawn/log"
	"github.com/LerianStudio/lib-pawn/pawn/ticket"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenTTL = 30 * time.Minute

// StaffRegistration is a staff member added to the Memory directory.
type StaffRegistration struct {
	StaffID     string     `json:"staffId" validate:"required"`
	Name        string     `json:"name" validate:"required"`
	Role        authz.Role `json:"role" validate:"required,oneof=TELLER SUPERVISOR MANAGER"`
	PIN         string     `json:"pin" validate:"required,numeric,min=4,max=8"`
	Permissions []string   `json:"permissions"`
}

// MemoryConfig configures a Memory backend.
type MemoryConfig struct {
	SigningKey []byte
	TokenTTL   time.Duration
	Clock      clockwork.Clock
	Logger     log.Logger
	// CommitHook, when set, runs before a commit is booked and may veto it.
	CommitHook func(ctx context.Context, req CommitRequest) error
}

type staffEntry struct {
	credential authz.Credential
	pinHash    []byte
}

// Memory is a thread-safe in-process Backend.
type Memory struct {
	mu         sync.Mutex
	cfg        MemoryConfig
	clock      clockwork.Clock
	logger     log.Logger
	tickets    map[ticket.Number]TicketRecord
	staff      map[string]staffEntry
	refresh    map[string]string
	committed  map[string]TransactionID
	commitLog  []CommitRequest
	authCalls  int
	commitCall int
}

var _ Backend = (*Memory)(nil)

// NewMemory returns an empty Memory backend.
func NewMemory(cfg MemoryConfig) *Memory {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}

	if len(cfg.SigningKey) == 0 {
		cfg.SigningKey = []byte(uuid.NewString())
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Memory{
		cfg:       cfg,
		clock:     clock,
		logger:    log.OrNop(cfg.Logger),
		tickets:   make(map[ticket.Number]TicketRecord),
		staff:     make(map[string]staffEntry),
		refresh:   make(map[string]string),
		committed: make(map[string]TransactionID),
	}
}

// PutTicket adds or replaces a ticket record.
func (m *Memory) PutTicket(rec TicketRecord) error {
	if _, err := ticket.ParseNumber(string(rec.Number)); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.tickets[rec.Number] = rec

	return nil
}

// RegisterStaff hashes the PIN with bcrypt and adds the staff member.
func (m *Memory) RegisterStaff(reg StaffRegistration) error {
	details, err := identity.StructViolations("staff", reg)
	if err != nil {
		return err
	}

	if len(details) > 0 {
		var v pawn.Violations
		for _, d := range details {
			v.Add(d.Code, d.Field, d.Message)
		}

		return v.Err(pawn.KindInputValidation, "invalid staff registration")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.PIN), bcrypt.MinCost)
	if err != nil {
		return fmt.Errorf("hash pin: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.staff[reg.StaffID] = staffEntry{
		credential: authz.Credential{
			StaffID:     reg.StaffID,
			Name:        reg.Name,
			Role:        reg.Role,
			Permissions: append([]string(nil), reg.Permissions...),
		},
		pinHash: hash,
	}

	return nil
}

// LookupTicket implements TicketLookup.
func (m *Memory) LookupTicket(ctx context.Context, number ticket.Number) (TicketRecord, error) {
	if err := ctx.Err(); err != nil {
		return TicketRecord{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.tickets[number]
	if !ok {
		return TicketRecord{}, fmt.Errorf("%w: %s", ErrTicketNotFound, number)
	}

	return rec, nil
}

// AuthenticateStaff implements StaffAuthenticator.
func (m *Memory) AuthenticateStaff(ctx context.Context, staffID, pin string) (Authentication, error) {
	if err := ctx.Err(); err != nil {
		return Authentication{}, err
	}

	m.mu.Lock()
	m.authCalls++
	entry, ok := m.staff[staffID]
	m.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(entry.pinHash, []byte(pin)) != nil {
		m.logger.Log(ctx, log.LevelWarn, "staff authentication rejected", log.String("staff_id", staffID))

		return Authentication{}, fmt.Errorf("%w: invalid staff id or pin", ErrRejected)
	}

	token, err := m.issueToken(entry.credential)
	if err != nil {
		return Authentication{}, err
	}

	refresh := uuid.NewString()

	m.mu.Lock()
	m.refresh[refresh] = staffID
	m.mu.Unlock()

	return Authentication{
		Credential:   entry.credential,
		Token:        token,
		RefreshToken: refresh,
		ExpiresIn:    m.cfg.TokenTTL,
	}, nil
}

// RefreshSession implements SessionRefresher. Refresh tokens are single use.
func (m *Memory) RefreshSession(ctx context.Context, refreshToken string) (RefreshResult, error) {
	if err := ctx.Err(); err != nil {
		return RefreshResult{}, err
	}

	m.mu.Lock()
	staffID, ok := m.refresh[refreshToken]
	delete(m.refresh, refreshToken)
	entry, known := m.staff[staffID]
	m.mu.Unlock()

	if !ok || !known {
		return RefreshResult{}, fmt.Errorf("%w: refresh token is not valid", ErrRejected)
	}

	token, err := m.issueToken(entry.credential)
	if err != nil {
		return RefreshResult{}, err
	}

	next := uuid.NewString()

	m.mu.Lock()
	m.refresh[next] = staffID
	m.mu.Unlock()

	return RefreshResult{Token: token, RefreshToken: next, ExpiresIn: m.cfg.TokenTTL}, nil
}

// RevokeRefreshTokens invalidates every outstanding refresh token of staffID.
func (m *Memory) RevokeRefreshTokens(staffID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for token, owner := range m.refresh {
		if owner == staffID {
			delete(m.refresh, token)
		}
	}
}

// CommitTransaction implements Committer. Committing the same BatchID twice
// returns the first TransactionID.
func (m *Memory) CommitTransaction(ctx context.Context, req CommitRequest) (TransactionID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	m.commitCall++
	if id, ok := m.committed[req.BatchID]; ok {
		m.mu.Unlock()

		return id, nil
	}
	m.mu.Unlock()

	if req.BatchID == "" || req.Batch.IsEmpty() || req.Approvals.Primary == nil {
		return "", fmt.Errorf("%w: incomplete commit request", ErrRejected)
	}

	if hook := m.cfg.CommitHook; hook != nil {
		if err := hook(ctx, req); err != nil {
			return "", err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, op := range req.Batch.Operations() {
		rec, ok := m.tickets[op.TicketNumber]
		if !ok || rec.Status != TicketActive {
			return "", fmt.Errorf("%w: ticket %s is not active", ErrRejected, op.TicketNumber)
		}
	}

	for _, op := range req.Batch.Operations() {
		rec := m.tickets[op.TicketNumber]

		if op.Kind == ticket.KindRedeem {
			rec.Status = TicketRedeemed
		} else {
			rec.DueDate = rec.DueDate.AddDate(0, 1, 0)
		}

		m.tickets[op.TicketNumber] = rec
	}

	id := TransactionID("TX-" + uuid.NewString())
	m.committed[req.BatchID] = id
	m.commitLog = append(m.commitLog, req)

	m.logger.Log(ctx, log.LevelInfo, "transaction committed",
		log.String("batch_id", req.BatchID),
		log.String("transaction_id", string(id)),
		log.Int("tickets", req.Batch.Count()),
	)

	return id, nil
}

// Commits returns every booked request in order.
func (m *Memory) Commits() []CommitRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]CommitRequest(nil), m.commitLog...)
}

// CommitCalls counts CommitTransaction invocations, including rejected and
// idempotent ones.
func (m *Memory) CommitCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.commitCall
}

// AuthCalls counts AuthenticateStaff invocations.
func (m *Memory) AuthCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.authCalls
}

// StaffClaims are the claims carried by an issued session token.
type StaffClaims struct {
	Name string     `json:"name"`
	Role authz.Role `json:"role"`
	jwt.RegisteredClaims
}

func (m *Memory) issueToken(cred authz.Credential) (string, error) {
	now := m.clock.Now()

	claims := StaffClaims{
		Name: cred.Name,
		Role: cred.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   cred.StaffID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.TokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.cfg.SigningKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// VerifyToken parses and validates a token issued by this backend.
func (m *Memory) VerifyToken(token string) (*StaffClaims, error) {
	claims := &StaffClaims{}

	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return m.cfg.SigningKey, nil
	}, jwt.WithTimeFunc(m.clock.Now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRejected, err)
	}

	return claims, nil
}
