package core

import (
	"context"
	"errors"
	"testing"

	"usercore/internal/infra/persistence/memory"
	"usercore/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestServiceMarkActionPerformed(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics, err := NewPrometheusMetricsRecorder(reg)
	require.NoError(t, err)
	dc := memory.NewContext(NewDefaultRulesEngine())
	svc := NewService(dc, WithMetricsRecorder(metrics))

	_, err = svc.Seed(ctx, []User{{ID: "1", Firstname: "Alice"}, {ID: "2", Firstname: "Bob"}})
	require.NoError(t, err)

	require.NoError(t, svc.MarkActionPerformed(ctx, "Alice"))
	err = svc.MarkActionPerformed(ctx, "Carol")
	var notFound ErrNotFound
	require.ErrorAs(t, err, &notFound)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.True(t, users[0].SomeActionHasBeenPerformed)
	assert.False(t, users[1].SomeActionHasBeenPerformed)
	assert.Equal(t, 2, dc.SaveCount())

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.requests.WithLabelValues("mark_action_performed", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.requests.WithLabelValues("mark_action_performed", "error")))
	assert.Same(t, dc, svc.Data().(*memory.Context))
	assert.Equal(t, []string{"mark_action_performed"}, svc.Mediator().Registered())
}

func TestServiceSeedLogsRuleWarnings(t *testing.T) {
	ctx := context.Background()
	log := &recordingLogger{}
	svc := NewService(memory.NewContext(NewDefaultRulesEngine()), WithLogger(log))

	n, err := svc.Seed(ctx, []User{{ID: "1", Firstname: ""}, {ID: "2", Firstname: "Bob"}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	warns := log.byLevel("warn")
	require.Len(t, warns, 1)
	assert.Equal(t, "rule violation", warns[0].msg)
	assert.Contains(t, warns[0].keyvals, "required_firstname")
	require.Len(t, log.byLevel("info"), 1)
}

func TestServiceSeedBlockedByRules(t *testing.T) {
	ctx := context.Background()
	dc := memory.NewContext(NewDefaultRulesEngine())
	svc := NewService(dc)

	_, err := svc.Seed(ctx, []User{{ID: "dup", Firstname: "A"}, {ID: "dup", Firstname: "B"}})

	var rv RuleViolationError
	require.ErrorAs(t, err, &rv)
	assert.True(t, rv.Result.HasBlocking())
	assert.Equal(t, 0, dc.SaveCount())
}

func TestServiceRecoversAfterBlockedSeed(t *testing.T) {
	ctx := context.Background()
	dc := memory.NewContextWithUsers(NewDefaultRulesEngine(), []User{{ID: "1", Firstname: "Alice"}})
	svc := NewService(dc)

	_, err := svc.Seed(ctx, []User{{ID: "1", Firstname: "Dup"}})
	var rv RuleViolationError
	require.ErrorAs(t, err, &rv)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []User{{ID: "1", Firstname: "Alice"}}, users)
	assert.False(t, dc.HasChanges())

	require.NoError(t, svc.MarkActionPerformed(ctx, "Alice"))
	users, err = svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.True(t, users[0].SomeActionHasBeenPerformed)
	assert.Equal(t, 1, dc.SaveCount())
}

func TestServiceWithUntrackedDataContext(t *testing.T) {
	ctx := context.Background()
	dc, _ := newMockDataContext()
	dc.On("SaveChanges", mock.Anything).Return(1, nil).Once()
	svc := NewService(dc)

	n, err := svc.Seed(ctx, []User{{ID: "1", Firstname: "Alice"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []User{{ID: "1", Firstname: "Alice"}}, users)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = svc.ListUsers(cancelled)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewServicePanicsOnRegistrationFailure(t *testing.T) {
	assert.Panics(t, func() { mustRegister(errors.New("duplicate")) })
	assert.NotPanics(t, func() { mustRegister(nil) })
}

func TestServiceSurfacesDomainErrorTypes(t *testing.T) {
	svc := NewService(memory.NewContextWithUsers(nil, []domain.User{{ID: "1", Firstname: "Alice"}}))
	err := svc.MarkActionPerformed(context.Background(), "")
	assert.EqualError(t, err, `user "" not found`)
}
