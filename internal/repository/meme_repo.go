package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/timmy/wdym/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MemeRepository reads memes, captions and the ground-truth table.
type MemeRepository struct {
	db *gorm.DB
}

// NewMemeRepository creates a new MemeRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *MemeRepository: repository instance bound to db.
func NewMemeRepository(db *gorm.DB) *MemeRepository {
	return &MemeRepository{db: db}
}

// CaptionCandidate is a caption joined with its score for one meme.
type CaptionCandidate struct {
	CaptionID int64
	Text      string
	Score     int
}

// ListIDsExcluding returns the ids of every meme not in excluded.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - excluded: meme ids already seen this session; may be empty.
// Returns:
//   - []int64: eligible meme ids in ascending order.
//   - error: non-nil if the query fails.
func (r *MemeRepository) ListIDsExcluding(ctx context.Context, excluded []int64) ([]int64, error) {
	var ids []int64
	query := r.db.WithContext(ctx).Model(&domain.Meme{})
	// NOT IN with an empty list would exclude everything
	if len(excluded) > 0 {
		query = query.Where("id NOT IN ?", excluded)
	}
	if err := query.Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list meme ids: %w", err)
	}
	return ids, nil
}

// GetByID retrieves a meme by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: meme ID.
// Returns:
//   - *domain.Meme: meme record if found.
//   - error: wraps domain.ErrNotFound when missing.
func (r *MemeRepository) GetByID(ctx context.Context, id int64) (*domain.Meme, error) {
	var meme domain.Meme
	if err := r.db.WithContext(ctx).First(&meme, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("meme %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get meme: %w", err)
	}
	return &meme, nil
}

// ListCaptionCandidates returns the ground truth of a meme joined with caption
// text, leaving out the timed-out sentinel.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - memeID: meme to load captions for.
// Returns:
//   - []CaptionCandidate: candidates ordered by caption id.
//   - error: non-nil if the query fails.
func (r *MemeRepository) ListCaptionCandidates(ctx context.Context, memeID int64) ([]CaptionCandidate, error) {
	var rows []CaptionCandidate
	err := r.db.WithContext(ctx).
		Table("meme_captions AS mc").
		Select("mc.caption_id AS caption_id, c.text AS text, mc.score AS score").
		Joins("JOIN captions c ON c.id = mc.caption_id").
		Where("mc.meme_id = ? AND mc.caption_id <> ?", memeID, domain.TimedOutCaptionID).
		Order("mc.caption_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list captions for meme %d: %w", memeID, err)
	}
	return rows, nil
}

// GetScore looks up the ground-truth score of a (meme, caption) pair.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - memeID: meme ID.
//   - captionID: caption ID.
// Returns:
//   - int: score of the pair.
//   - error: wraps domain.ErrNotFound when the pair is not in the ground truth.
func (r *MemeRepository) GetScore(ctx context.Context, memeID, captionID int64) (int, error) {
	var mc domain.MemeCaption
	err := r.db.WithContext(ctx).
		Where("meme_id = ? AND caption_id = ?", memeID, captionID).
		First(&mc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("score for meme %d caption %d: %w", memeID, captionID, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("failed to get score: %w", err)
	}
	return mc.Score, nil
}

// Count returns the number of memes in the pool.
func (r *MemeRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Meme{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// UpsertMeme creates or updates a meme keyed by id.
func (r *MemeRepository) UpsertMeme(ctx context.Context, meme *domain.Meme) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"file_name"}),
	}).Create(meme).Error
}

// UpsertCaptions creates or updates captions keyed by id.
func (r *MemeRepository) UpsertCaptions(ctx context.Context, captions []domain.Caption) error {
	if len(captions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"text"}),
	}).Create(&captions).Error
}

// UpsertGroundTruth creates or updates (meme, caption) scores.
func (r *MemeRepository) UpsertGroundTruth(ctx context.Context, entries []domain.MemeCaption) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "meme_id"}, {Name: "caption_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score"}),
	}).Create(&entries).Error
}
