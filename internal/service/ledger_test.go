package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/timmy/wdym/internal/domain"
	"github.com/timmy/wdym/internal/repository/repotest"
)

func TestSessionLedger_CreateSession(t *testing.T) {
	env := newTestEnv(t)
	user := repotest.SeedUser(t, env.db, "alice")
	started := time.Date(2024, 3, 9, 22, 15, 0, 0, time.FixedZone("CET", 3600))
	env.ledger.now = func() time.Time { return started }

	id, err := env.ledger.CreateSession(context.Background(), user.ID, 0)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if id <= 0 {
		t.Fatalf("CreateSession() id = %d", id)
	}

	game, err := env.games.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if game.Status != domain.GameStatusInProgress {
		t.Errorf("status = %s", game.Status)
	}
	if game.Date != "2024-03-09 21:15:00" {
		t.Errorf("date = %q, want UTC canonical form", game.Date)
	}
	if game.UserID == nil || *game.UserID != user.ID {
		t.Errorf("owner = %v, want %d", game.UserID, user.ID)
	}
}

func TestSessionLedger_RecordRound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := repotest.SeedUser(t, env.db, "alice")
	other := repotest.SeedUser(t, env.db, "bob")

	tests := []struct {
		name        string
		owner       int64
		memeID      int64
		captionID   int64
		timedOut    bool
		wantErr     error
		wantAwarded int
		wantTimeout bool
	}{
		{name: "correct caption", owner: user.ID, memeID: 1, captionID: repotest.CorrectCaptionID(1, 2), wantAwarded: repotest.CorrectScore(2)},
		{name: "wrong caption", owner: user.ID, memeID: 2, captionID: repotest.WrongCaptionID(2, 0), wantAwarded: 0},
		{name: "timeout flag zeroes score", owner: user.ID, memeID: 3, captionID: repotest.CorrectCaptionID(3, 1), timedOut: true, wantTimeout: true},
		{name: "sentinel caption", owner: user.ID, memeID: 4, captionID: domain.TimedOutCaptionID, wantTimeout: true},
		{name: "sentinel unknown meme", owner: user.ID, memeID: 77, captionID: domain.TimedOutCaptionID, wantErr: domain.ErrNotFound},
		{name: "unknown pair", owner: user.ID, memeID: 1, captionID: repotest.CorrectCaptionID(2, 0), wantErr: domain.ErrNotFound},
		{name: "foreign owner", owner: other.ID, memeID: 1, captionID: repotest.CorrectCaptionID(1, 0), wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := env.ledger.CreateSession(ctx, user.ID, 0)
			if err != nil {
				t.Fatalf("CreateSession() error = %v", err)
			}

			out, err := env.ledger.RecordRound(ctx, RecordRoundInput{
				GameID:    id,
				OwnerID:   tt.owner,
				MemeID:    tt.memeID,
				CaptionID: tt.captionID,
				TimedOut:  tt.timedOut,
			})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("RecordRound() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("RecordRound() error = %v", err)
			}
			if out.RoundsPlayed != 1 || out.Awarded != tt.wantAwarded {
				t.Errorf("outcome = %+v, want 1 round awarded %d", out, tt.wantAwarded)
			}

			var stored domain.Round
			if err := env.db.Where("game_id = ?", id).First(&stored).Error; err != nil {
				t.Fatalf("load round: %v", err)
			}
			if stored.Timeout != tt.wantTimeout || stored.Score != tt.wantAwarded {
				t.Errorf("stored round = %+v", stored)
			}
		})
	}
}

func TestSessionLedger_RejectsGuestAndExtraRounds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := repotest.SeedUser(t, env.db, "alice")

	_, err := env.ledger.RecordRound(ctx, RecordRoundInput{GameID: domain.GuestGameID, OwnerID: user.ID, MemeID: 1, CaptionID: 100})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("guest RecordRound() error = %v, want ErrInvalidInput", err)
	}

	id, err := env.ledger.CreateSession(ctx, user.ID, 0)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	want := 0
	var final *int
	for m := int64(1); m <= domain.RoundsPerGame; m++ {
		out, err := env.ledger.RecordRound(ctx, RecordRoundInput{GameID: id, OwnerID: user.ID, MemeID: m, CaptionID: repotest.CorrectCaptionID(m, 0)})
		if err != nil {
			t.Fatalf("RecordRound(%d) error = %v", m, err)
		}
		want += out.Awarded
		if got := env.ledger.IsSessionComplete(out.RoundsPlayed); got != (m == domain.RoundsPerGame) {
			t.Errorf("IsSessionComplete(%d) = %v", out.RoundsPlayed, got)
		}
		if (out.FinalScore != nil) != (m == domain.RoundsPerGame) {
			t.Errorf("round %d FinalScore = %v", m, out.FinalScore)
		}
		final = out.FinalScore
	}
	if final == nil || *final != want || want != 3*repotest.CorrectScore(0) {
		t.Fatalf("final = %v, want %d", final, want)
	}

	_, err = env.ledger.RecordRound(ctx, RecordRoundInput{GameID: id, OwnerID: user.ID, MemeID: 4, CaptionID: repotest.CorrectCaptionID(4, 0)})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("4th RecordRound() error = %v, want ErrNotFound", err)
	}

	if _, err := env.ledger.FinishSession(ctx, id); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("FinishSession() on a closed session error = %v, want ErrNotFound", err)
	}
}

func TestSessionLedger_FinishSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := repotest.SeedUser(t, env.db, "alice")

	game := repotest.SeedGame(t, env.db, user.ID, domain.GameStatusInProgress, time.Now(),
		domain.Round{MemeID: 1, CaptionID: repotest.CorrectCaptionID(1, 1), Score: repotest.CorrectScore(1)},
		domain.Round{MemeID: 2, CaptionID: domain.TimedOutCaptionID, Timeout: true},
	)

	final, err := env.ledger.FinishSession(ctx, game.ID)
	if err != nil {
		t.Fatalf("FinishSession() error = %v", err)
	}
	if final != repotest.CorrectScore(1) {
		t.Errorf("final = %d, want %d", final, repotest.CorrectScore(1))
	}
}

func TestSessionLedger_ScoreGuess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		memeID    int64
		captionID int64
		want      int
		wantErr   error
	}{
		{name: "correct", memeID: 2, captionID: repotest.CorrectCaptionID(2, 1), want: repotest.CorrectScore(1)},
		{name: "wrong", memeID: 2, captionID: repotest.WrongCaptionID(2, 3), want: 0},
		{name: "sentinel", memeID: 2, captionID: domain.TimedOutCaptionID, want: 0},
		{name: "unknown", memeID: 2, captionID: 9999, wantErr: domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.ledger.ScoreGuess(ctx, tt.memeID, tt.captionID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ScoreGuess() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ScoreGuess() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ScoreGuess() = %d, want %d", got, tt.want)
			}
		})
	}
}
