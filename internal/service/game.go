package service

import (
	"context"

	"github.com/timmy/wdym/internal/domain"
	"github.com/timmy/wdym/internal/logger"
)

// GameService drives the game protocol: start, advance and guest scoring.
// It keeps no state between requests.
//
// Two concurrent Advance calls on the same game are not serialized. The
// client is expected to submit one answer and wait for the result before the
// next. A racing pair of final answers is not guaranteed to be rejected.
type GameService struct {
	sampler *RoundSampler
	ledger  *SessionLedger
	logger  *logger.Logger
}

// NewGameService wires the sampler and ledger together.
// Parameters:
//   - sampler: round sampler.
//   - ledger: session ledger.
//   - log: fallback logger.
// Returns:
//   - *GameService: initialized orchestrator.
func NewGameService(sampler *RoundSampler, ledger *SessionLedger, log *logger.Logger) *GameService {
	return &GameService{
		sampler: sampler,
		ledger:  ledger,
		logger:  log,
	}
}

func (s *GameService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// RoundResponse is returned by every game action.
type RoundResponse struct {
	GameID     domain.GameID     `json:"gameId"`
	LastScore  *int              `json:"lastScore,omitempty"`
	GameStatus domain.GameStatus `json:"gameStatus"`
	NewRound   *MemeRound        `json:"newRound,omitempty"`
	FinalScore *int              `json:"finalScore,omitempty"`
}

// Answer is the player's choice for a round.
type Answer struct {
	MemeID    int64
	CaptionID int64
	Timeout   bool
}

// AdvanceRequest carries the answer to the current round of a session.
type AdvanceRequest struct {
	GameID   domain.GameID
	MemeSeen []int64
	Answer   Answer
}

// ScoreResponse is the result of a guest guess.
type ScoreResponse struct {
	Score int `json:"score"`
}

// StartGuest serves a single unpersisted round.
func (s *GameService) StartGuest(ctx context.Context) (*RoundResponse, error) {
	round, err := s.sampler.PickRound(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &RoundResponse{
		GameID:     domain.GuestGameID,
		GameStatus: domain.GameStatusCompleted,
		NewRound:   round,
	}, nil
}

// StartGame opens a session for userID and serves its first round.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - userID: authenticated player.
//   - initialScore: score the session starts with.
// Returns:
//   - *RoundResponse: IN_PROGRESS payload with the first round.
//   - error: store failures or an empty meme pool.
func (s *GameService) StartGame(ctx context.Context, userID int64, initialScore int) (*RoundResponse, error) {
	gameID, err := s.ledger.CreateSession(ctx, userID, initialScore)
	if err != nil {
		return nil, err
	}
	ctx = logger.SetGameID(ctx, int64(gameID))

	round, err := s.sampler.PickRound(ctx, nil)
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("Game started")

	last := 0
	return &RoundResponse{
		GameID:     gameID,
		LastScore:  &last,
		GameStatus: domain.GameStatusInProgress,
		NewRound:   round,
	}, nil
}

// Advance records the answer to the current round and either serves the
// next round or closes the session with its final score.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - userID: authenticated player; must own the game.
//   - req: the answer and the memes already seen.
// Returns:
//   - *RoundResponse: IN_PROGRESS with newRound, or COMPLETED with finalScore.
//   - error: wraps domain.ErrNotFound for unknown games or answers.
func (s *GameService) Advance(ctx context.Context, userID int64, req *AdvanceRequest) (*RoundResponse, error) {
	ctx = logger.SetGameID(ctx, int64(req.GameID))

	outcome, err := s.ledger.RecordRound(ctx, RecordRoundInput{
		GameID:    req.GameID,
		OwnerID:   userID,
		MemeID:    req.Answer.MemeID,
		CaptionID: req.Answer.CaptionID,
		TimedOut:  req.Answer.Timeout,
	})
	if err != nil {
		return nil, err
	}

	last := outcome.Awarded
	resp := &RoundResponse{
		GameID:    req.GameID,
		LastScore: &last,
	}

	if s.ledger.IsSessionComplete(outcome.RoundsPlayed) {
		final, err := s.finalScore(ctx, req.GameID, outcome)
		if err != nil {
			return nil, err
		}
		s.log(ctx).WithField("final_score", final).Info("Game completed")
		resp.GameStatus = domain.GameStatusCompleted
		resp.FinalScore = &final
		return resp, nil
	}

	round, err := s.sampler.PickRound(ctx, seenMemes(req.MemeSeen, req.Answer.MemeID))
	if err != nil {
		return nil, err
	}
	resp.GameStatus = domain.GameStatusInProgress
	resp.NewRound = round
	return resp, nil
}

// finalScore returns the score the ledger closed the session with, finishing
// it here only when recording did not.
func (s *GameService) finalScore(ctx context.Context, id domain.GameID, outcome *RoundOutcome) (int, error) {
	if outcome.FinalScore != nil {
		return *outcome.FinalScore, nil
	}
	return s.ledger.FinishSession(ctx, id)
}

// ScoreGuess scores a single guest guess.
func (s *GameService) ScoreGuess(ctx context.Context, memeID, captionID int64) (*ScoreResponse, error) {
	score, err := s.ledger.ScoreGuess(ctx, memeID, captionID)
	if err != nil {
		return nil, err
	}
	return &ScoreResponse{Score: score}, nil
}

// seenMemes merges the client's seen list with the meme just answered.
func seenMemes(seen []int64, current int64) []int64 {
	out := make([]int64, 0, len(seen)+1)
	dup := false
	for _, id := range seen {
		if id == current {
			dup = true
		}
		out = append(out, id)
	}
	if !dup {
		out = append(out, current)
	}
	return out
}
