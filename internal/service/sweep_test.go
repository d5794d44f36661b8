package service

import (
	"context"
	"testing"
	"time"

	"github.com/timmy/wdym/internal/domain"
	"github.com/timmy/wdym/internal/logger"
	"github.com/timmy/wdym/internal/repository/repotest"
)

func TestSweepService_SweepOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := repotest.SeedUser(t, env.db, "alice")
	now := time.Now()

	stale := repotest.SeedGame(t, env.db, user.ID, domain.GameStatusInProgress, now.Add(-3*time.Hour),
		domain.Round{MemeID: 1, CaptionID: repotest.CorrectCaptionID(1, 0), Score: 5},
		domain.Round{MemeID: 2, CaptionID: repotest.CorrectCaptionID(2, 0), Score: 5},
	)
	fresh := repotest.SeedGame(t, env.db, user.ID, domain.GameStatusInProgress, now.Add(-10*time.Minute))
	done := repotest.SeedGame(t, env.db, user.ID, domain.GameStatusCompleted, now.Add(-48*time.Hour),
		domain.Round{MemeID: 3, CaptionID: repotest.CorrectCaptionID(3, 0), Score: 5},
	)

	svc := NewSweepService(env.games, logger.NewDefault(), &SweepConfig{Interval: time.Hour, Window: domain.RetentionWindow})

	res, err := svc.SweepOnce(ctx)
	if err != nil {
		t.Fatalf("SweepOnce() error = %v", err)
	}
	if res.Games != 1 || res.Rounds != 2 {
		t.Errorf("SweepOnce() = %+v, want 1 game and 2 rounds", res)
	}

	if _, err := env.games.GetByID(ctx, stale.ID); err == nil {
		t.Errorf("stale game %d survived", stale.ID)
	}
	for _, id := range []domain.GameID{fresh.ID, done.ID} {
		if _, err := env.games.GetByID(ctx, id); err != nil {
			t.Errorf("game %d removed: %v", id, err)
		}
	}

	again, err := svc.SweepOnce(ctx)
	if err != nil {
		t.Fatalf("second SweepOnce() error = %v", err)
	}
	if again.Games != 0 || again.Rounds != 0 {
		t.Errorf("second SweepOnce() = %+v, want nothing", again)
	}
}

func TestSweepService_RunStopsWithContext(t *testing.T) {
	env := newTestEnv(t)
	user := repotest.SeedUser(t, env.db, "alice")
	stale := repotest.SeedGame(t, env.db, user.ID, domain.GameStatusInProgress, time.Now().Add(-5*time.Hour))

	svc := NewSweepService(env.games, logger.NewDefault(), &SweepConfig{Interval: time.Hour, Window: domain.RetentionWindow})

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(stopped)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := env.games.GetByID(context.Background(), stale.ID); err != nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("startup sweep did not run")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
