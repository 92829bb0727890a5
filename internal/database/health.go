package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/userbook/userbook/internal/config"
)

// HealthChecker is one component that can report its own health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
	IsCritical() bool // critical checkers block startup when unhealthy
	Name() string
}

// HealthManager runs a set of health checkers
type HealthManager struct {
	checkers []HealthChecker
	logger   *zap.Logger
	mu       sync.RWMutex
}

// NewHealthManager creates a new health manager
func NewHealthManager(logger *zap.Logger) *HealthManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthManager{
		checkers: make([]HealthChecker, 0),
		logger:   logger,
	}
}

// AddChecker adds a health checker to the manager
func (h *HealthManager) AddChecker(checker HealthChecker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers = append(h.checkers, checker)
}

// StartupHealthCheck fails if any critical checker fails; other failures are only logged
func (h *HealthManager) StartupHealthCheck(ctx context.Context) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var criticalFailures []error

	for _, checker := range h.checkers {
		err := checker.HealthCheck(ctx)
		switch {
		case err == nil:
			h.logger.Info("Service health check passed",
				zap.String("service", checker.Name()),
				zap.Bool("critical", checker.IsCritical()))
		case checker.IsCritical():
			criticalFailures = append(criticalFailures, fmt.Errorf("%s: %w", checker.Name(), err))
			h.logger.Error("Critical service health check failed",
				zap.String("service", checker.Name()),
				zap.Error(err))
		default:
			h.logger.Warn("Non-critical service health check failed",
				zap.String("service", checker.Name()),
				zap.Error(err))
		}
	}

	if len(criticalFailures) > 0 {
		return fmt.Errorf("critical services failed health check: %v", criticalFailures)
	}

	h.logger.Info("All critical services healthy", zap.Int("total_checks", len(h.checkers)))
	return nil
}

// RuntimeHealthCheck runs every checker and returns the result keyed by name
func (h *HealthManager) RuntimeHealthCheck(ctx context.Context) map[string]error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	results := make(map[string]error, len(h.checkers))
	for _, checker := range h.checkers {
		results[checker.Name()] = checker.HealthCheck(ctx)
	}

	return results
}

// DatabaseHealthChecker checks database connectivity
type DatabaseHealthChecker struct {
	db *bun.DB
}

func NewDatabaseHealthChecker(db *bun.DB) *DatabaseHealthChecker {
	return &DatabaseHealthChecker{db: db}
}

func (d *DatabaseHealthChecker) HealthCheck(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DatabaseHealthChecker) IsCritical() bool {
	return true
}

func (d *DatabaseHealthChecker) Name() string {
	return "database"
}

// ConfigHealthChecker validates that connection settings are complete
type ConfigHealthChecker struct {
	conn config.ConnConfig
}

func NewConfigHealthChecker(conn config.ConnConfig) *ConfigHealthChecker {
	return &ConfigHealthChecker{conn: conn}
}

func (c *ConfigHealthChecker) HealthCheck(ctx context.Context) error {
	switch {
	case c.conn.Host == "":
		return fmt.Errorf("database host is not configured")
	case c.conn.Database == "":
		return fmt.Errorf("database name is not configured")
	case c.conn.User == "":
		return fmt.Errorf("database user is not configured")
	}
	return nil
}

func (c *ConfigHealthChecker) IsCritical() bool {
	return false
}

func (c *ConfigHealthChecker) Name() string {
	return "config"
}
