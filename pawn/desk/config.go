package desk

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/LerianStudio/lib-pawn/pawn"
	"github.com/LerianStudio/lib-pawn/pawn/authz"
	"github.com/LerianStudio/lib-pawn/pawn/money"
	"github.com/LerianStudio/lib-pawn/pawn/session"
	pawnzap "github.com/LerianStudio/lib-pawn/pawn/zap"
	"github.com/redis/go-redis/v9"
)

// Config is the console configuration read from the environment.
type Config struct {
	EnvName string
	// LogLevel overrides the environment's default level when set.
	LogLevel string

	PollInterval time.Duration
	WarnBefore   time.Duration
	Extension    time.Duration
	AutoRenew    bool

	Policy authz.Policy

	// RedisAddr selects the Redis session store; empty keeps sessions in
	// memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// LoadConfig reads the PAWN_* variables, loading a local .env first when
// ENV_NAME is "local".
func LoadConfig() (Config, error) {
	pawn.InitLocalEnvConfig()

	cfg := Config{
		EnvName:       pawn.GetenvOrDefault("ENV_NAME", "local"),
		LogLevel:      pawn.GetenvOrDefault("PAWN_LOG_LEVEL", ""),
		PollInterval:  pawn.GetenvDurationOrDefault("PAWN_SESSION_POLL_INTERVAL", session.DefaultPollInterval),
		WarnBefore:    pawn.GetenvDurationOrDefault("PAWN_SESSION_WARN_BEFORE", session.DefaultWarnBefore),
		Extension:     pawn.GetenvDurationOrDefault("PAWN_SESSION_EXTENSION", session.DefaultExtension),
		AutoRenew:     pawn.GetenvBoolOrDefault("PAWN_SESSION_AUTO_RENEW", false),
		RedisAddr:     pawn.GetenvOrDefault("PAWN_REDIS_ADDR", ""),
		RedisPassword: pawn.GetenvOrDefault("PAWN_REDIS_PASSWORD", ""),
		RedisDB:       int(pawn.GetenvIntOrDefault("PAWN_REDIS_DB", 0)),
		RedisPrefix:   pawn.GetenvOrDefault("PAWN_REDIS_PREFIX", session.DefaultKeyPrefix),
	}

	defaults := authz.DefaultPolicy()

	dualAmount, err := envMoney("PAWN_DUAL_STAFF_AMOUNT", defaults.DualStaffAmount)
	if err != nil {
		return Config{}, err
	}

	managerAmount, err := envMoney("PAWN_MANAGER_AMOUNT", defaults.ManagerAmount)
	if err != nil {
		return Config{}, err
	}

	cfg.Policy = authz.Policy{
		DualStaffAmount:  dualAmount,
		DualStaffTickets: int(pawn.GetenvIntOrDefault("PAWN_DUAL_STAFF_TICKETS", int64(defaults.DualStaffTickets))),
		ManagerAmount:    managerAmount,
		ManagerTickets:   int(pawn.GetenvIntOrDefault("PAWN_MANAGER_TICKETS", int64(defaults.ManagerTickets))),
	}

	if cfg.Policy.DualStaffAmount.IsNegative() || cfg.Policy.ManagerAmount.IsNegative() ||
		cfg.Policy.DualStaffTickets < 0 || cfg.Policy.ManagerTickets < 0 {
		return Config{}, fmt.Errorf("desk config: thresholds cannot be negative")
	}

	return cfg, nil
}

func envMoney(key string, def money.Money) (money.Money, error) {
	raw := pawn.GetenvOrDefault(key, "")
	if raw == "" {
		return def, nil
	}

	m, err := money.Parse(raw)
	if err != nil {
		return money.Money{}, fmt.Errorf("desk config: %s: %w", key, err)
	}

	return m, nil
}

// Environment maps EnvName onto a logger profile. Unknown names get the
// production profile.
func (c Config) Environment() pawnzap.Environment {
	switch env := pawnzap.Environment(strings.ToLower(c.EnvName)); env {
	case pawnzap.EnvironmentLocal, pawnzap.EnvironmentDevelopment, pawnzap.EnvironmentStaging:
		return env
	default:
		return pawnzap.EnvironmentProduction
	}
}

// NewLogger builds the zap logger for this configuration.
func (c Config) NewLogger() (*pawnzap.Logger, error) {
	return pawnzap.New(pawnzap.Config{Environment: c.Environment(), Level: c.LogLevel})
}

// NewStore returns the session store for this configuration, the refresh
// locker shared with other consoles (nil for the in-memory store) and a
// function releasing both. A Redis store is pinged before it is returned.
func (c Config) NewStore(ctx context.Context) (session.Store, session.Locker, func() error, error) {
	if c.RedisAddr == "" {
		return session.NewMemoryStore(nil), nil, func() error { return nil }, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{c.RedisAddr},
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, nil, nil, fmt.Errorf("desk config: redis %s: %w", c.RedisAddr, err)
	}

	locker := session.NewRedisLocker(client, c.RedisPrefix+"lock:", 2*session.DefaultRefreshTimeout)

	return session.NewRedisStore(client, c.RedisPrefix), locker, client.Close, nil
}
