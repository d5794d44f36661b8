package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/timmy/wdym/internal/domain"
	"github.com/timmy/wdym/internal/repository"
	"github.com/timmy/wdym/internal/storage"
)

// MemeRound is a meme with the 7 captions offered for it in one round.
type MemeRound struct {
	MemeID   int64          `json:"memeId"`
	Image    string         `json:"image"`
	Captions []RoundCaption `json:"captions"`
}

// RoundCaption is one option of a round. Score is relative to the round's meme.
type RoundCaption struct {
	CaptionID int64  `json:"captionId"`
	Caption   string `json:"caption"`
	Score     int    `json:"score"`
}

// RoundSampler picks a random unseen meme and its caption options.
type RoundSampler struct {
	memeRepo *repository.MemeRepository
	storage  storage.ObjectStorage

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRoundSampler creates a sampler.
// Parameters:
//   - memeRepo: repository for memes and ground truth.
//   - objectStorage: resolves image references; nil returns them as stored.
//   - rng: random source; nil seeds a new one.
// Returns:
//   - *RoundSampler: initialized sampler.
func NewRoundSampler(memeRepo *repository.MemeRepository, objectStorage storage.ObjectStorage, rng *rand.Rand) *RoundSampler {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &RoundSampler{
		memeRepo: memeRepo,
		storage:  objectStorage,
		rng:      rng,
	}
}

// PickRound selects a meme outside excluded with exactly 2 correct and 5
// wrong captions, in random order.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - excluded: memes already seen in the session.
// Returns:
//   - *MemeRound: the round to present.
//   - error: wraps domain.ErrNotFound when the pool is exhausted or the
//     chosen meme lacks enough captions.
func (s *RoundSampler) PickRound(ctx context.Context, excluded []int64) (*MemeRound, error) {
	ids, err := s.memeRepo.ListIDsExcluding(ctx, excluded)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no memes left to play: %w", domain.ErrNotFound)
	}

	s.mu.Lock()
	memeID := ids[s.rng.IntN(len(ids))]
	s.mu.Unlock()

	meme, err := s.memeRepo.GetByID(ctx, memeID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.memeRepo.ListCaptionCandidates(ctx, memeID)
	if err != nil {
		return nil, err
	}

	var correct, wrong []repository.CaptionCandidate
	for _, c := range candidates {
		switch {
		case c.Score > 0:
			correct = append(correct, c)
		case c.Score == 0:
			wrong = append(wrong, c)
		}
	}
	if len(correct) < domain.CorrectCaptionsPerRound || len(wrong) < domain.WrongCaptionsPerRound {
		return nil, fmt.Errorf("meme %d has %d correct and %d wrong captions: %w",
			memeID, len(correct), len(wrong), domain.ErrNotFound)
	}

	picked := s.choose(correct, wrong)

	round := &MemeRound{
		MemeID:   meme.ID,
		Image:    resolveImage(s.storage, meme.FileName),
		Captions: make([]RoundCaption, 0, len(picked)),
	}
	for _, c := range picked {
		round.Captions = append(round.Captions, RoundCaption{
			CaptionID: c.CaptionID,
			Caption:   c.Text,
			Score:     c.Score,
		})
	}
	return round, nil
}

// choose draws the correct and wrong captions without replacement and
// shuffles the combined options.
func (s *RoundSampler) choose(correct, wrong []repository.CaptionCandidate) []repository.CaptionCandidate {
	s.mu.Lock()
	defer s.mu.Unlock()

	picked := make([]repository.CaptionCandidate, 0, domain.CorrectCaptionsPerRound+domain.WrongCaptionsPerRound)
	picked = append(picked, s.sample(correct, domain.CorrectCaptionsPerRound)...)
	picked = append(picked, s.sample(wrong, domain.WrongCaptionsPerRound)...)
	s.rng.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	return picked
}

// sample returns n distinct elements of pool. Caller holds s.mu.
func (s *RoundSampler) sample(pool []repository.CaptionCandidate, n int) []repository.CaptionCandidate {
	shuffled := make([]repository.CaptionCandidate, len(pool))
	copy(shuffled, pool)
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n]
}
