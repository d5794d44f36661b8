package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/timmy/wdym/internal/domain"
	"github.com/timmy/wdym/internal/repository/repotest"
)

func TestRoundSampler_PickRoundShape(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		excluded := []int64{1, 2}
		round, err := env.sampler.PickRound(ctx, excluded)
		if err != nil {
			t.Fatalf("PickRound() error = %v", err)
		}
		if round.MemeID == 1 || round.MemeID == 2 {
			t.Fatalf("PickRound() returned excluded meme %d", round.MemeID)
		}
		if len(round.Captions) != 7 {
			t.Fatalf("captions = %d, want 7", len(round.Captions))
		}

		seen := map[int64]bool{}
		correct, wrong := 0, 0
		for _, c := range round.Captions {
			if c.CaptionID == domain.TimedOutCaptionID {
				t.Fatalf("timed-out sentinel offered as a caption")
			}
			if seen[c.CaptionID] {
				t.Fatalf("caption %d offered twice", c.CaptionID)
			}
			seen[c.CaptionID] = true
			if c.Score > 0 {
				correct++
			} else {
				wrong++
			}
		}
		if correct != 2 || wrong != 5 {
			t.Errorf("correct/wrong = %d/%d, want 2/5", correct, wrong)
		}
	}
}

func TestRoundSampler_ShufflesCorrectCaptions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// A correct caption lands first only 2 times in 7.
	firstWrong := false
	for i := 0; i < 50 && !firstWrong; i++ {
		round, err := env.sampler.PickRound(ctx, nil)
		if err != nil {
			t.Fatalf("PickRound() error = %v", err)
		}
		firstWrong = round.Captions[0].Score == 0
	}
	if !firstWrong {
		t.Errorf("correct captions always come first; options are not shuffled")
	}
}

func TestRoundSampler_PoolExhausted(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.sampler.PickRound(context.Background(), []int64{1, 2, 3, 4})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRoundSampler_NotEnoughCaptions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.memes.UpsertMeme(ctx, &domain.Meme{ID: 9, FileName: "thin.jpg"}); err != nil {
		t.Fatalf("UpsertMeme() error = %v", err)
	}
	truth := []domain.MemeCaption{
		{MemeID: 9, CaptionID: repotest.CorrectCaptionID(1, 0), Score: 10},
		{MemeID: 9, CaptionID: repotest.WrongCaptionID(1, 0), Score: 0},
	}
	if err := env.memes.UpsertGroundTruth(ctx, truth); err != nil {
		t.Fatalf("UpsertGroundTruth() error = %v", err)
	}

	_, err := env.sampler.PickRound(ctx, []int64{1, 2, 3, 4})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for meme with too few captions, got %v", err)
	}
}

func TestRoundSampler_ResolvesImages(t *testing.T) {
	env := newTestEnv(t)
	sampler := NewRoundSampler(env.memes, newMemoryStorage(), rand.New(rand.NewPCG(3, 4)))

	round, err := sampler.PickRound(context.Background(), []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("PickRound() error = %v", err)
	}
	if round.MemeID != 4 {
		t.Fatalf("MemeID = %d, want 4", round.MemeID)
	}
	if round.Image != "https://cdn.test/meme4.jpg" {
		t.Errorf("Image = %q", round.Image)
	}

	plain, err := env.sampler.PickRound(context.Background(), []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("PickRound() error = %v", err)
	}
	if plain.Image != "meme4.jpg" {
		t.Errorf("Image without storage = %q, want raw file name", plain.Image)
	}
}
