package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"reflect"
	"testing"
	"time"

	"github.com/timmy/wdym/internal/domain"
	"github.com/timmy/wdym/internal/repository"
	"github.com/timmy/wdym/internal/repository/repotest"
)

func TestReconstructHistory(t *testing.T) {
	rows := []repository.HistoryRow{
		{GameID: 7, GameDate: "2024-01-02 10:00:00", GameScore: 30, RoundID: 22, RoundScore: 10, MemeFileName: "b.jpg"},
		{GameID: 3, GameDate: "2024-01-01 23:30:00", GameScore: 5, RoundID: 9, RoundScore: 5, MemeFileName: "c.jpg"},
		{GameID: 7, GameDate: "2024-01-02 10:00:00", GameScore: 30, RoundID: 21, RoundScore: 20, MemeFileName: "a.jpg"},
		{GameID: 7, GameDate: "2024-01-02 10:00:00", GameScore: 30, RoundID: 23, RoundScore: 15, Timeout: true, MemeFileName: "d.jpg"},
		{GameID: 8, GameDate: "2024-01-02 10:00:00", GameScore: 0, RoundID: 30, MemeFileName: "e.jpg"},
	}
	rome, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	games, err := reconstructHistory(rows, rome, func(ref string) string { return "/img/" + ref })
	if err != nil {
		t.Fatalf("reconstructHistory() error = %v", err)
	}

	if len(games) != 3 {
		t.Fatalf("games = %d, want 3", len(games))
	}
	wantOrder := []domain.GameID{8, 7, 3}
	for i, id := range wantOrder {
		if games[i].GameID != id {
			t.Errorf("games[%d] = %d, want %d", i, games[i].GameID, id)
		}
	}

	g := games[1]
	if g.FinalScore != 30 || len(g.Rounds) != 3 {
		t.Fatalf("game 7 = %+v", g)
	}
	wantRounds := []RoundHistory{
		{ID: 21, Score: 20, Image: "/img/a.jpg"},
		{ID: 22, Score: 10, Image: "/img/b.jpg"},
		{ID: 23, Score: 0, Image: "/img/d.jpg"},
	}
	for i, want := range wantRounds {
		if g.Rounds[i] != want {
			t.Errorf("round %d = %+v, want %+v", i, g.Rounds[i], want)
		}
	}

	if got := g.Date.Format("2006-01-02 15:04"); got != "2024-01-02 11:00" {
		t.Errorf("display date = %s, want 2024-01-02 11:00", got)
	}
	if g.Date.Location() != rome {
		t.Errorf("date location = %v", g.Date.Location())
	}
}

func TestReconstructHistory_RowOrderDoesNotMatter(t *testing.T) {
	rows := []repository.HistoryRow{
		{GameID: 1, GameDate: "2024-03-01 09:00:00", GameScore: 10, RoundID: 1, RoundScore: 10, MemeFileName: "a.jpg"},
		{GameID: 1, GameDate: "2024-03-01 09:00:00", GameScore: 10, RoundID: 2, MemeFileName: "b.jpg"},
		{GameID: 1, GameDate: "2024-03-01 09:00:00", GameScore: 10, RoundID: 3, Timeout: true, RoundScore: 5, MemeFileName: "c.jpg"},
		{GameID: 2, GameDate: "2024-03-02 09:00:00", GameScore: 20, RoundID: 4, RoundScore: 20, MemeFileName: "d.jpg"},
		{GameID: 3, GameDate: "2024-03-02 09:00:00", GameScore: 0, RoundID: 7, MemeFileName: "e.jpg"},
		{GameID: 3, GameDate: "2024-03-02 09:00:00", GameScore: 0, RoundID: 5, MemeFileName: "f.jpg"},
	}
	image := func(ref string) string { return ref }

	want, err := reconstructHistory(rows, time.UTC, image)
	if err != nil {
		t.Fatalf("reconstructHistory() error = %v", err)
	}

	rng := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 20; i++ {
		shuffled := append([]repository.HistoryRow(nil), rows...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got, err := reconstructHistory(shuffled, time.UTC, image)
		if err != nil {
			t.Fatalf("reconstructHistory() error = %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("shuffle %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestReconstructHistory_Empty(t *testing.T) {
	games, err := reconstructHistory(nil, time.UTC, func(s string) string { return s })
	if err != nil {
		t.Fatalf("reconstructHistory() error = %v", err)
	}
	if games == nil || len(games) != 0 {
		t.Errorf("reconstructHistory(nil) = %#v, want empty slice", games)
	}
}

func TestReconstructHistory_BadDate(t *testing.T) {
	rows := []repository.HistoryRow{{GameID: 1, GameDate: "yesterday", RoundID: 1}}
	if _, err := reconstructHistory(rows, time.UTC, func(s string) string { return s }); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestHistoryService_GetHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := repotest.SeedUser(t, env.db, "alice")
	repotest.SeedUser(t, env.db, "bob")

	now := time.Now().UTC().Truncate(time.Second)
	repotest.SeedGame(t, env.db, alice.ID, domain.GameStatusCompleted, now.Add(-time.Hour),
		domain.Round{MemeID: 1, CaptionID: repotest.CorrectCaptionID(1, 0), Score: 5},
		domain.Round{MemeID: 2, CaptionID: repotest.WrongCaptionID(2, 0)},
		domain.Round{MemeID: 3, CaptionID: domain.TimedOutCaptionID, Timeout: true},
	)
	repotest.SeedGame(t, env.db, alice.ID, domain.GameStatusInProgress, now,
		domain.Round{MemeID: 4, CaptionID: repotest.CorrectCaptionID(4, 0), Score: 5},
	)

	svc := NewHistoryService(env.users, env.games, newMemoryStorage(), nil)

	games, err := svc.GetHistory(ctx, "alice")
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("games = %d, want only the completed one", len(games))
	}
	if len(games[0].Rounds) != 3 || games[0].Rounds[0].Image != "https://cdn.test/meme1.jpg" {
		t.Errorf("rounds = %+v", games[0].Rounds)
	}
	if !games[0].Date.Equal(now.Add(-time.Hour)) {
		t.Errorf("date = %v, want %v", games[0].Date, now.Add(-time.Hour))
	}

	again, err := svc.GetHistory(ctx, "alice")
	if err != nil {
		t.Fatalf("second GetHistory() error = %v", err)
	}
	if !reflect.DeepEqual(again, games) {
		t.Errorf("second GetHistory() = %+v, want %+v", again, games)
	}

	empty, err := svc.GetHistory(ctx, "bob")
	if err != nil {
		t.Fatalf("GetHistory(bob) error = %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("GetHistory(bob) = %#v, want empty slice", empty)
	}

	if _, err := svc.GetHistory(ctx, "carol"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetHistory(carol) error = %v, want ErrNotFound", err)
	}
}
