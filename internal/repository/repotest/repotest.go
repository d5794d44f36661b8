// Package repotest provides an in-memory database seeded with a small catalog
// for repository, service and handler tests.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/wdym/internal/domain"
	"github.com/timmy/wdym/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Catalog shape: memes 1..MemeCount, each with captions scored by CaptionScore.
const (
	MemeCount          = 4
	CorrectPerMeme     = 3
	WrongPerMeme       = 6
	captionIDsPerMeme  = 100
	correctScoreOffset = 1
)

// NewDB opens a private in-memory SQLite database with all tables migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := repository.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CorrectCaptionID returns the id of the i-th correct caption of a meme.
func CorrectCaptionID(memeID int64, i int) int64 {
	return memeID*captionIDsPerMeme + int64(i)
}

// WrongCaptionID returns the id of the i-th wrong caption of a meme.
func WrongCaptionID(memeID int64, i int) int64 {
	return memeID*captionIDsPerMeme + 50 + int64(i)
}

// CorrectScore is the ground-truth score of the i-th correct caption.
func CorrectScore(i int) int {
	return 5 * (i + correctScoreOffset)
}

// SeedCatalog inserts MemeCount memes with CorrectPerMeme correct and
// WrongPerMeme wrong captions each, plus the timed-out sentinel caption
// scored as correct so tests can prove it is never sampled.
func SeedCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()
	ctx := context.Background()
	memes := repository.NewMemeRepository(db)

	sentinel := []domain.Caption{{ID: domain.TimedOutCaptionID, Text: "(timed out)"}}
	if err := memes.UpsertCaptions(ctx, sentinel); err != nil {
		t.Fatalf("seed sentinel: %v", err)
	}

	for m := int64(1); m <= MemeCount; m++ {
		if err := memes.UpsertMeme(ctx, &domain.Meme{ID: m, FileName: fmt.Sprintf("meme%d.jpg", m)}); err != nil {
			t.Fatalf("seed meme: %v", err)
		}
		var captions []domain.Caption
		var truth []domain.MemeCaption
		for i := 0; i < CorrectPerMeme; i++ {
			id := CorrectCaptionID(m, i)
			captions = append(captions, domain.Caption{ID: id, Text: fmt.Sprintf("right %d/%d", m, i)})
			truth = append(truth, domain.MemeCaption{MemeID: m, CaptionID: id, Score: CorrectScore(i)})
		}
		for i := 0; i < WrongPerMeme; i++ {
			id := WrongCaptionID(m, i)
			captions = append(captions, domain.Caption{ID: id, Text: fmt.Sprintf("wrong %d/%d", m, i)})
			truth = append(truth, domain.MemeCaption{MemeID: m, CaptionID: id, Score: 0})
		}
		truth = append(truth, domain.MemeCaption{MemeID: m, CaptionID: domain.TimedOutCaptionID, Score: 99})
		if err := memes.UpsertCaptions(ctx, captions); err != nil {
			t.Fatalf("seed captions: %v", err)
		}
		if err := memes.UpsertGroundTruth(ctx, truth); err != nil {
			t.Fatalf("seed ground truth: %v", err)
		}
	}
}

// SeedUser inserts a user with an opaque password hash and returns it.
func SeedUser(t *testing.T, db *gorm.DB, username string) *domain.User {
	t.Helper()
	user := &domain.User{Username: username, Password: "00", Salt: "00"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// SeedGame inserts a game started at the given instant with the given rounds.
func SeedGame(t *testing.T, db *gorm.DB, userID int64, status domain.GameStatus, started time.Time, rounds ...domain.Round) *domain.Game {
	t.Helper()
	uid := userID
	game := &domain.Game{UserID: &uid, Date: domain.FormatDate(started), Status: status}
	if err := db.Create(game).Error; err != nil {
		t.Fatalf("seed game: %v", err)
	}
	for i := range rounds {
		rounds[i].GameID = game.ID
		if err := db.Create(&rounds[i]).Error; err != nil {
			t.Fatalf("seed round: %v", err)
		}
	}
	game.Rounds = rounds
	return game
}

// ErrStoreDown is the error injected by FailUpdates.
var ErrStoreDown = errors.New("store down")

// FailUpdates makes every UPDATE on table fail with ErrStoreDown while the
// returned flag is set. The flag starts set.
func FailUpdates(t *testing.T, db *gorm.DB, table string) *atomic.Bool {
	t.Helper()
	failing := &atomic.Bool{}
	failing.Store(true)
	err := db.Callback().Update().Before("gorm:update").Register("repotest:fail_"+table, func(tx *gorm.DB) {
		if failing.Load() && tx.Statement.Table == table {
			tx.AddError(ErrStoreDown)
		}
	})
	if err != nil {
		t.Fatalf("register update callback: %v", err)
	}
	return failing
}
