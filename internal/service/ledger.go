package service

import (
	"context"
	"fmt"
	"time"

	"github.com/timmy/wdym/internal/domain"
	"github.com/timmy/wdym/internal/repository"
)

// SessionLedger creates sessions, records rounds and finalizes scores.
type SessionLedger struct {
	gameRepo *repository.GameRepository
	memeRepo *repository.MemeRepository
	now      func() time.Time
}

// NewSessionLedger creates a ledger backed by the game and meme repositories.
func NewSessionLedger(gameRepo *repository.GameRepository, memeRepo *repository.MemeRepository) *SessionLedger {
	return &SessionLedger{
		gameRepo: gameRepo,
		memeRepo: memeRepo,
		now:      time.Now,
	}
}

// RecordRoundInput is one answer submitted for a persisted session.
type RecordRoundInput struct {
	GameID    domain.GameID
	OwnerID   int64
	MemeID    int64
	CaptionID int64
	TimedOut  bool
}

// RoundOutcome is the result of recording a round.
// FinalScore is set when the round completed the session.
type RoundOutcome struct {
	RoundsPlayed int
	Awarded      int
	FinalScore   *int
}

// CreateSession persists a new IN_PROGRESS session started now.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - ownerID: user playing the session.
//   - initialScore: starting score stored on the session row.
// Returns:
//   - domain.GameID: generated session identity.
//   - error: non-nil if the insert fails.
func (l *SessionLedger) CreateSession(ctx context.Context, ownerID int64, initialScore int) (domain.GameID, error) {
	owner := ownerID
	game := &domain.Game{
		UserID: &owner,
		Score:  initialScore,
		Date:   domain.FormatDate(l.now()),
		Status: domain.GameStatusInProgress,
	}
	if err := l.gameRepo.Create(ctx, game); err != nil {
		return 0, err
	}
	return game.ID, nil
}

// RecordRound scores an answer against the ground truth and stores it.
// Timed-out answers score 0 whatever the ground truth says. The last round
// of a session is stored together with the session's completion.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - in: the answer and the session it belongs to.
// Returns:
//   - *RoundOutcome: rounds recorded so far and the score awarded.
//   - error: wraps domain.ErrNotFound for unknown pairs or closed sessions.
func (l *SessionLedger) RecordRound(ctx context.Context, in RecordRoundInput) (*RoundOutcome, error) {
	if in.GameID.IsGuest() {
		return nil, fmt.Errorf("guest sessions have no ledger: %w", domain.ErrInvalidInput)
	}

	awarded, timedOut, err := l.awardedScore(ctx, in.MemeID, in.CaptionID, in.TimedOut)
	if err != nil {
		return nil, err
	}

	round := &domain.Round{
		GameID:    in.GameID,
		MemeID:    in.MemeID,
		CaptionID: in.CaptionID,
		Timeout:   timedOut,
		Score:     awarded,
	}
	res, err := l.gameRepo.AppendRound(ctx, in.OwnerID, round)
	if err != nil {
		return nil, err
	}
	return &RoundOutcome{RoundsPlayed: res.Rounds, Awarded: awarded, FinalScore: res.FinalScore}, nil
}

// IsSessionComplete reports whether a session with count rounds is over.
func (l *SessionLedger) IsSessionComplete(count int) bool {
	return count >= domain.RoundsPerGame
}

// FinishSession recomputes the final score from the recorded rounds and
// closes the session. Call it once, when IsSessionComplete turns true.
func (l *SessionLedger) FinishSession(ctx context.Context, id domain.GameID) (int, error) {
	return l.gameRepo.Finish(ctx, id)
}

// ScoreGuess looks up a single guess without touching any session.
func (l *SessionLedger) ScoreGuess(ctx context.Context, memeID, captionID int64) (int, error) {
	score, _, err := l.awardedScore(ctx, memeID, captionID, false)
	return score, err
}

// awardedScore resolves the score for an answer. The timed-out sentinel
// only requires the meme to exist.
func (l *SessionLedger) awardedScore(ctx context.Context, memeID, captionID int64, timedOut bool) (int, bool, error) {
	if domain.IsTimedOutCaption(captionID) {
		if _, err := l.memeRepo.GetByID(ctx, memeID); err != nil {
			return 0, true, err
		}
		return 0, true, nil
	}

	score, err := l.memeRepo.GetScore(ctx, memeID, captionID)
	if err != nil {
		return 0, timedOut, err
	}
	if timedOut {
		return 0, true, nil
	}
	return score, false, nil
}
