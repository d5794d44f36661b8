package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/timmy/wdym/internal/domain"
	"gorm.io/gorm"
)

// GameRepository persists game sessions and their rounds.
type GameRepository struct {
	db *gorm.DB
}

// NewGameRepository creates a new GameRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *GameRepository: repository instance bound to db.
func NewGameRepository(db *gorm.DB) *GameRepository {
	return &GameRepository{db: db}
}

// HistoryRow is one (game, round) pair of a user's completed games.
type HistoryRow struct {
	GameID       int64
	GameDate     string
	GameScore    int
	RoundID      int64
	Timeout      bool
	RoundScore   int
	MemeFileName string
}

// Create inserts a new game and fills in its generated ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - game: game to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *GameRepository) Create(ctx context.Context, game *domain.Game) error {
	if err := r.db.WithContext(ctx).Create(game).Error; err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	return nil
}

// GetByID retrieves a game without its rounds.
func (r *GameRepository) GetByID(ctx context.Context, id domain.GameID) (*domain.Game, error) {
	var game domain.Game
	if err := r.db.WithContext(ctx).First(&game, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("game %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return &game, nil
}

// AppendResult is the state of a game after AppendRound.
type AppendResult struct {
	Rounds int
	// FinalScore is set when the round was the last one and the game was closed.
	FinalScore *int
}

// AppendRound inserts a round under an open game owned by ownerID.
// The game must be IN_PROGRESS with fewer than domain.RoundsPerGame rounds.
// When the round is the last one the game is finished in the same transaction.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - ownerID: user that must own the game.
//   - round: round to insert; GameID selects the game.
// Returns:
//   - AppendResult: rounds recorded after the insert, and the final score if the game closed.
//   - error: wraps domain.ErrNotFound when no open game matches.
func (r *GameRepository) AppendRound(ctx context.Context, ownerID int64, round *domain.Round) (AppendResult, error) {
	var res AppendResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var game domain.Game
		err := tx.Where("id = ? AND user_id = ? AND status = ?", round.GameID, ownerID, domain.GameStatusInProgress).
			First(&game).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("open game %d: %w", round.GameID, domain.ErrNotFound)
			}
			return err
		}

		var count int64
		if err := tx.Model(&domain.Round{}).Where("game_id = ?", game.ID).Count(&count).Error; err != nil {
			return err
		}
		if count >= domain.RoundsPerGame {
			return fmt.Errorf("game %d has no rounds left: %w", game.ID, domain.ErrNotFound)
		}

		if err := tx.Create(round).Error; err != nil {
			return err
		}
		res.Rounds = int(count) + 1

		if res.Rounds < domain.RoundsPerGame {
			return nil
		}
		total, err := finishTx(tx, game.ID)
		if err != nil {
			return err
		}
		res.FinalScore = &total
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return AppendResult{}, err
		}
		return AppendResult{}, fmt.Errorf("failed to record round: %w", err)
	}
	return res, nil
}

// Finish sums the awarded scores of a game's rounds and marks it COMPLETED.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: game to finish.
// Returns:
//   - int: final score stored on the game.
//   - error: wraps domain.ErrNotFound when the game is not IN_PROGRESS.
func (r *GameRepository) Finish(ctx context.Context, id domain.GameID) (int, error) {
	var total int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		total, err = finishTx(tx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to finish game: %w", err)
	}
	return total, nil
}

// finishTx closes an IN_PROGRESS game inside tx with the sum of its round scores.
func finishTx(tx *gorm.DB, id domain.GameID) (int, error) {
	var total int
	if err := tx.Model(&domain.Round{}).
		Select("COALESCE(SUM(score), 0)").
		Where("game_id = ?", id).
		Scan(&total).Error; err != nil {
		return 0, err
	}

	result := tx.Model(&domain.Game{}).
		Where("id = ? AND status = ?", id, domain.GameStatusInProgress).
		Updates(map[string]interface{}{
			"score":  total,
			"status": domain.GameStatusCompleted,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, fmt.Errorf("open game %d: %w", id, domain.ErrNotFound)
	}
	return total, nil
}

// ListHistoryRows returns one row per round of the user's completed games,
// newest game first and rounds in ascending id order.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - userID: owner of the games.
// Returns:
//   - []HistoryRow: flat rows; empty when the user has no completed games.
//   - error: non-nil if the query fails.
func (r *GameRepository) ListHistoryRows(ctx context.Context, userID int64) ([]HistoryRow, error) {
	var rows []HistoryRow
	err := r.db.WithContext(ctx).
		Table("games g").
		Select(`g.id AS game_id, g.date AS game_date, g.score AS game_score,
			r.id AS round_id, r.timeout AS timeout, r.score AS round_score,
			m.file_name AS meme_file_name`).
		Joins("JOIN rounds r ON r.game_id = g.id").
		Joins("JOIN memes m ON m.id = r.meme_id").
		Where("g.user_id = ? AND g.status = ?", userID, domain.GameStatusCompleted).
		Order("g.date DESC, r.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return rows, nil
}

// PurgeResult reports what a stale-session purge removed.
type PurgeResult struct {
	Games  int64
	Rounds int64
}

// PurgeStale deletes IN_PROGRESS games whose start is older than window,
// together with their rounds. Age is measured with the database clock.
// COMPLETED games are never touched.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - window: retention window.
// Returns:
//   - PurgeResult: number of deleted games and rounds.
//   - error: non-nil if a delete fails; nothing is deleted in that case.
func (r *GameRepository) PurgeStale(ctx context.Context, window time.Duration) (PurgeResult, error) {
	var res PurgeResult
	cond, arg := r.staleCondition(window)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stale := tx.Model(&domain.Game{}).
			Select("id").
			Where("status = ?", domain.GameStatusInProgress).
			Where(cond, arg)

		rounds := tx.Where("game_id IN (?)", stale).Delete(&domain.Round{})
		if rounds.Error != nil {
			return rounds.Error
		}
		res.Rounds = rounds.RowsAffected

		games := tx.Where("status = ?", domain.GameStatusInProgress).
			Where(cond, arg).
			Delete(&domain.Game{})
		if games.Error != nil {
			return games.Error
		}
		res.Games = games.RowsAffected
		return nil
	})
	if err != nil {
		return PurgeResult{}, fmt.Errorf("failed to purge stale games: %w", err)
	}
	return res, nil
}

// staleCondition builds the dialect specific "older than window" predicate on games.date.
func (r *GameRepository) staleCondition(window time.Duration) (string, interface{}) {
	seconds := int64(window / time.Second)
	if r.db.Dialector.Name() == dialectPostgres {
		return "CAST(date AS timestamp) <= (now() AT TIME ZONE 'utc') - make_interval(secs => ?)", seconds
	}
	return "datetime(date) <= datetime('now', ?)", fmt.Sprintf("-%d seconds", seconds)
}
