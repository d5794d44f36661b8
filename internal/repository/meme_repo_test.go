package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/timmy/wdym/internal/domain"
	"github.com/timmy/wdym/internal/repository"
	"github.com/timmy/wdym/internal/repository/repotest"
)

func TestMemeRepository_ListIDsExcluding(t *testing.T) {
	db := repotest.NewDB(t)
	repotest.SeedCatalog(t, db)
	repo := repository.NewMemeRepository(db)
	ctx := context.Background()

	tests := []struct {
		name     string
		excluded []int64
		want     []int64
	}{
		{name: "nothing excluded", excluded: nil, want: []int64{1, 2, 3, 4}},
		{name: "empty slice", excluded: []int64{}, want: []int64{1, 2, 3, 4}},
		{name: "some excluded", excluded: []int64{2, 4}, want: []int64{1, 3}},
		{name: "unknown ids ignored", excluded: []int64{99}, want: []int64{1, 2, 3, 4}},
		{name: "all excluded", excluded: []int64{1, 2, 3, 4}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ListIDsExcluding(ctx, tt.excluded)
			if err != nil {
				t.Fatalf("ListIDsExcluding() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestMemeRepository_ListCaptionCandidatesSkipsSentinel(t *testing.T) {
	db := repotest.NewDB(t)
	repotest.SeedCatalog(t, db)
	repo := repository.NewMemeRepository(db)

	rows, err := repo.ListCaptionCandidates(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListCaptionCandidates() error = %v", err)
	}
	if len(rows) != repotest.CorrectPerMeme+repotest.WrongPerMeme {
		t.Fatalf("expected %d candidates, got %d", repotest.CorrectPerMeme+repotest.WrongPerMeme, len(rows))
	}
	for _, row := range rows {
		if row.CaptionID == domain.TimedOutCaptionID {
			t.Fatal("sentinel caption must not be a candidate")
		}
		if row.Text == "" {
			t.Errorf("caption %d has no text", row.CaptionID)
		}
	}
}

func TestMemeRepository_GetScore(t *testing.T) {
	db := repotest.NewDB(t)
	repotest.SeedCatalog(t, db)
	repo := repository.NewMemeRepository(db)
	ctx := context.Background()

	score, err := repo.GetScore(ctx, 2, repotest.CorrectCaptionID(2, 1))
	if err != nil {
		t.Fatalf("GetScore() error = %v", err)
	}
	if score != repotest.CorrectScore(1) {
		t.Errorf("score = %d, want %d", score, repotest.CorrectScore(1))
	}

	// caption of meme 1 is not ground truth for meme 2
	_, err = repo.GetScore(ctx, 2, repotest.CorrectCaptionID(1, 0))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemeRepository_GetByIDNotFound(t *testing.T) {
	db := repotest.NewDB(t)
	repo := repository.NewMemeRepository(db)

	if _, err := repo.GetByID(context.Background(), 7); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemeRepository_UpsertGroundTruthUpdatesScore(t *testing.T) {
	db := repotest.NewDB(t)
	repotest.SeedCatalog(t, db)
	repo := repository.NewMemeRepository(db)
	ctx := context.Background()

	caption := repotest.WrongCaptionID(1, 0)
	if err := repo.UpsertGroundTruth(ctx, []domain.MemeCaption{{MemeID: 1, CaptionID: caption, Score: 3}}); err != nil {
		t.Fatalf("UpsertGroundTruth() error = %v", err)
	}
	score, err := repo.GetScore(ctx, 1, caption)
	if err != nil {
		t.Fatalf("GetScore() error = %v", err)
	}
	if score != 3 {
		t.Errorf("score = %d, want 3", score)
	}
}
