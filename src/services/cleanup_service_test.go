package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khabaroff/lms-admin/src/repositories/mock"
)

func TestCleanupService_RunOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.createAdmin(t, "a@b.com", "Secret123!")

	data, err := env.tokens.CreateToken(ctx, CreateTokenInput{UserID: admin.ID})
	require.NoError(t, err)
	_, err = env.tokens.RevokeToken(ctx, data.Token)
	require.NoError(t, err)

	cs := NewCleanupService(env.tokens, false, 0)
	n, err := cs.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCleanupService_Disabled(t *testing.T) {
	repo := mock.NewTokenRepository()
	cs := NewCleanupService(NewTokenService(repo), false, time.Millisecond)

	cs.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	cs.Stop()

	assert.Zero(t, repo.CallCount("DeleteExpiredOrRevoked"))
}

func TestCleanupService_StartStop(t *testing.T) {
	var sweeps atomic.Int32
	repo := mock.NewTokenRepository()
	repo.DeleteExpiredOrRevokedFunc = func(ctx context.Context, now time.Time) (int64, error) {
		sweeps.Add(1)
		return 0, nil
	}

	cs := NewCleanupService(NewTokenService(repo), true, 5*time.Millisecond)
	cs.Start(context.Background())

	require.Eventually(t, func() bool { return sweeps.Load() >= 2 }, time.Second, 5*time.Millisecond)

	cs.Stop()
	cs.Stop()
	after := sweeps.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, sweeps.Load(), "no sweeps after Stop")
}

func TestCleanupService_StopsWithContext(t *testing.T) {
	repo := mock.NewTokenRepository()
	cs := NewCleanupService(NewTokenService(repo), true, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cs.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		cs.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop")
	}
}
