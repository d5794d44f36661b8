package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/timmy/wdym/internal/domain"
	"github.com/timmy/wdym/internal/repository"
	"github.com/timmy/wdym/internal/storage"
)

// GameHistory is one completed game of a user.
type GameHistory struct {
	GameID     domain.GameID  `json:"gameId"`
	FinalScore int            `json:"finalScore"`
	Date       time.Time      `json:"date"`
	Rounds     []RoundHistory `json:"rounds"`
}

// RoundHistory is a round of a completed game.
type RoundHistory struct {
	ID    int64  `json:"id"`
	Score int    `json:"score"`
	Image string `json:"image"`
}

// HistoryService lists users' completed games.
type HistoryService struct {
	userRepo *repository.UserRepository
	gameRepo *repository.GameRepository
	storage  storage.ObjectStorage
	location *time.Location
}

// NewHistoryService creates a history service.
// Parameters:
//   - userRepo: resolves usernames.
//   - gameRepo: reads finished games.
//   - objectStorage: resolves image references; may be nil.
//   - location: zone dates are presented in; nil means UTC.
// Returns:
//   - *HistoryService: initialized service.
func NewHistoryService(userRepo *repository.UserRepository, gameRepo *repository.GameRepository, objectStorage storage.ObjectStorage, location *time.Location) *HistoryService {
	if location == nil {
		location = time.UTC
	}
	return &HistoryService{
		userRepo: userRepo,
		gameRepo: gameRepo,
		storage:  objectStorage,
		location: location,
	}
}

// GetHistory returns the completed games of username, newest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - username: owner of the games.
// Returns:
//   - []GameHistory: games with their rounds; empty, not nil, when none.
//   - error: wraps domain.ErrNotFound for unknown users.
func (s *HistoryService) GetHistory(ctx context.Context, username string) ([]GameHistory, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	rows, err := s.gameRepo.ListHistoryRows(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return reconstructHistory(rows, s.location, func(ref string) string {
		return resolveImage(s.storage, ref)
	})
}

// reconstructHistory groups flat (game, round) rows into games. Order is
// re-established here: games by date then id descending, rounds by id.
// A timed-out round always reports 0.
func reconstructHistory(rows []repository.HistoryRow, loc *time.Location, image func(string) string) ([]GameHistory, error) {
	games := make([]GameHistory, 0)
	index := make(map[int64]int)

	for _, row := range rows {
		i, ok := index[row.GameID]
		if !ok {
			started, err := domain.ParseDate(row.GameDate)
			if err != nil {
				return nil, fmt.Errorf("game %d has malformed date %q: %w", row.GameID, row.GameDate, err)
			}
			games = append(games, GameHistory{
				GameID:     domain.GameID(row.GameID),
				FinalScore: row.GameScore,
				Date:       started.In(loc),
				Rounds:     make([]RoundHistory, 0, domain.RoundsPerGame),
			})
			i = len(games) - 1
			index[row.GameID] = i
		}

		score := row.RoundScore
		if row.Timeout {
			score = 0
		}
		games[i].Rounds = append(games[i].Rounds, RoundHistory{
			ID:    row.RoundID,
			Score: score,
			Image: image(row.MemeFileName),
		})
	}

	sort.SliceStable(games, func(a, b int) bool {
		if !games[a].Date.Equal(games[b].Date) {
			return games[a].Date.After(games[b].Date)
		}
		return games[a].GameID > games[b].GameID
	})
	for i := range games {
		rounds := games[i].Rounds
		sort.Slice(rounds, func(a, b int) bool { return rounds[a].ID < rounds[b].ID })
	}
	return games, nil
}
