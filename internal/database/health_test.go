package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/userbook/userbook/internal/config"
)

type stubChecker struct {
	name     string
	critical bool
	err      error
	calls    int
}

func (s *stubChecker) HealthCheck(context.Context) error {
	s.calls++
	return s.err
}

func (s *stubChecker) IsCritical() bool { return s.critical }
func (s *stubChecker) Name() string     { return s.name }

func TestStartupHealthCheck(t *testing.T) {
	t.Run("all healthy", func(t *testing.T) {
		manager := NewHealthManager(zap.NewNop())
		manager.AddChecker(&stubChecker{name: "database", critical: true})
		manager.AddChecker(&stubChecker{name: "config"})

		assert.NoError(t, manager.StartupHealthCheck(context.Background()))
	})

	t.Run("non-critical failure is tolerated", func(t *testing.T) {
		manager := NewHealthManager(nil)
		manager.AddChecker(&stubChecker{name: "database", critical: true})
		manager.AddChecker(&stubChecker{name: "config", err: errors.New("incomplete")})

		assert.NoError(t, manager.StartupHealthCheck(context.Background()))
	})

	t.Run("critical failure blocks startup", func(t *testing.T) {
		manager := NewHealthManager(zap.NewNop())
		manager.AddChecker(&stubChecker{name: "database", critical: true, err: errors.New("connection refused")})

		err := manager.StartupHealthCheck(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database")
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestRuntimeHealthCheck(t *testing.T) {
	failure := errors.New("timeout")
	db := &stubChecker{name: "database", critical: true, err: failure}
	cfg := &stubChecker{name: "config"}

	manager := NewHealthManager(zap.NewNop())
	manager.AddChecker(db)
	manager.AddChecker(cfg)

	results := manager.RuntimeHealthCheck(context.Background())
	require.Len(t, results, 2)
	assert.ErrorIs(t, results["database"], failure)
	assert.NoError(t, results["config"])
	assert.Equal(t, 1, db.calls)
	assert.Equal(t, 1, cfg.calls)
}

func TestConfigHealthChecker(t *testing.T) {
	checker := NewConfigHealthChecker(config.ConnConfig{Host: "db", Database: "userbook", User: "app"})
	assert.NoError(t, checker.HealthCheck(context.Background()))
	assert.False(t, checker.IsCritical())
	assert.Equal(t, "config", checker.Name())

	checker = NewConfigHealthChecker(config.ConnConfig{Host: "db", User: "app"})
	assert.Error(t, checker.HealthCheck(context.Background()))
}

func TestOpenRejectsIncompleteConfig(t *testing.T) {
	_, err := Open(context.Background(), config.ConnConfig{Host: "localhost"}, zap.NewNop())
	assert.Error(t, err)
}
