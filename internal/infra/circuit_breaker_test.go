package infra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRedisDown = errors.New("dial tcp: connection refused")

func failing(context.Context) error    { return errRedisDown }
func succeeding(context.Context) error { return nil }

func newTestBreaker(clock *time.Time) *Breaker {
	b := NewBreaker(BreakerConfig{Name: "test", FailureThreshold: 2, SuccessThreshold: 2, OpenTimeout: time.Minute})
	b.now = func() time.Time { return *clock }
	return b
}

func TestBreaker_AbreAposFalhasConsecutivas(t *testing.T) {
	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	b := newTestBreaker(&clock)
	ctx := context.Background()

	assert.ErrorIs(t, b.Do(ctx, failing), errRedisDown)
	assert.Equal(t, BreakerClosed, b.State())
	assert.ErrorIs(t, b.Do(ctx, failing), errRedisDown)
	assert.Equal(t, BreakerOpen, b.State())

	called := false
	err := b.Do(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.False(t, called)

	snap := b.Snapshot()
	assert.Equal(t, "open", snap.State)
	require.NotNil(t, snap.OpenedAt)
	assert.Equal(t, clock, *snap.OpenedAt)
}

func TestBreaker_MeioAbertoFechaComSucessos(t *testing.T) {
	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	b := newTestBreaker(&clock)
	ctx := context.Background()
	_ = b.Do(ctx, failing)
	_ = b.Do(ctx, failing)

	clock = clock.Add(time.Minute)
	assert.Equal(t, BreakerHalfOpen, b.State())

	require.NoError(t, b.Do(ctx, succeeding))
	assert.Equal(t, BreakerHalfOpen, b.State())
	require.NoError(t, b.Do(ctx, succeeding))
	assert.Equal(t, BreakerClosed, b.State())
	assert.Nil(t, b.Snapshot().OpenedAt)
}

func TestBreaker_FalhaNoMeioAbertoReabre(t *testing.T) {
	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	b := newTestBreaker(&clock)
	ctx := context.Background()
	_ = b.Do(ctx, failing)
	_ = b.Do(ctx, failing)

	clock = clock.Add(2 * time.Minute)
	assert.ErrorIs(t, b.Do(ctx, failing), errRedisDown)
	assert.Equal(t, BreakerOpen, b.State())
}

func TestBreaker_CancelamentoNaoContaComoFalha(t *testing.T) {
	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	b := newTestBreaker(&clock)

	for i := 0; i < 3; i++ {
		err := b.Do(context.Background(), func(context.Context) error { return context.DeadlineExceeded })
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	}
	assert.Equal(t, BreakerClosed, b.State())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, b.Do(ctx, succeeding), context.Canceled)
}

func TestNewBreaker_CompletaConfiguracao(t *testing.T) {
	b := NewBreaker(BreakerConfig{})
	assert.Equal(t, QueueBreakerConfig(), b.cfg)
	assert.Equal(t, "closed", b.State().String())
}
