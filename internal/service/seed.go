package service

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/wdym/internal/domain"
	"github.com/timmy/wdym/internal/logger"
	"github.com/timmy/wdym/internal/repository"
	"github.com/timmy/wdym/internal/source"
	"github.com/timmy/wdym/internal/storage"
	_ "golang.org/x/image/webp"
)

// SeedService loads a catalog into the database and object storage.
type SeedService struct {
	memeRepo *repository.MemeRepository
	userRepo *repository.UserRepository
	storage  storage.ObjectStorage
	client   *resty.Client
	logger   *logger.Logger
	workers  int
}

// SeedConfig holds configuration for the seed service.
type SeedConfig struct {
	Workers     int
	HTTPTimeout time.Duration
}

// SeedStats holds statistics for a seed run.
type SeedStats struct {
	Captions  int64
	Memes     int64
	Uploaded  int64
	Failed    int64
	Users     int64
	StartTime time.Time
	EndTime   time.Time
}

// NewSeedService creates a new seed service.
// Parameters:
//   - memeRepo: repository for memes, captions and ground truth.
//   - userRepo: repository for users.
//   - objectStorage: image store; nil keeps catalog references as they are.
//   - log: fallback logger.
//   - cfg: worker count and download timeout.
// Returns:
//   - *SeedService: initialized service.
func NewSeedService(
	memeRepo *repository.MemeRepository,
	userRepo *repository.UserRepository,
	objectStorage storage.ObjectStorage,
	log *logger.Logger,
	cfg *SeedConfig,
) *SeedService {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	return &SeedService{
		memeRepo: memeRepo,
		userRepo: userRepo,
		storage:  objectStorage,
		client:   resty.New().SetTimeout(cfg.HTTPTimeout),
		logger:   log,
		workers:  workers,
	}
}

func (s *SeedService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// SeedFromSource validates the catalog of src and upserts all of it.
// Memes are processed by a worker pool; a meme that fails is logged,
// counted and skipped.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - src: catalog source.
// Returns:
//   - *SeedStats: counts for the run.
//   - error: non-nil if the catalog is invalid or captions/users cannot be stored.
func (s *SeedService) SeedFromSource(ctx context.Context, src source.Source) (*SeedStats, error) {
	stats := &SeedStats{StartTime: time.Now()}

	cat, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}

	s.log(ctx).WithFields(logger.Fields{
		"source":   src.GetSourceID(),
		"captions": len(cat.Captions),
		"memes":    len(cat.Memes),
		"users":    len(cat.Users),
	}).Info("Starting seed")

	captions := make([]domain.Caption, 0, len(cat.Captions))
	for _, c := range cat.Captions {
		captions = append(captions, domain.Caption{ID: c.ID, Text: c.Text})
	}
	if err := s.memeRepo.UpsertCaptions(ctx, captions); err != nil {
		return nil, fmt.Errorf("failed to store captions: %w", err)
	}
	stats.Captions = int64(len(captions))

	items := make(chan source.MemeItem, s.workers*2)
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx, items, stats)
		}()
	}

feed:
	for _, item := range cat.Memes {
		select {
		case items <- item:
		case <-ctx.Done():
			break feed
		}
	}
	close(items)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return stats, err
	}

	for _, u := range cat.Users {
		if err := s.seedUser(ctx, u); err != nil {
			return stats, err
		}
		stats.Users++
	}

	stats.EndTime = time.Now()
	s.log(ctx).WithFields(logger.Fields{
		"memes":    stats.Memes,
		"uploaded": stats.Uploaded,
		"failed":   stats.Failed,
		"users":    stats.Users,
		"duration": stats.EndTime.Sub(stats.StartTime).String(),
	}).Info("Seed completed")

	return stats, nil
}

func (s *SeedService) worker(ctx context.Context, items <-chan source.MemeItem, stats *SeedStats) {
	for item := range items {
		if ctx.Err() != nil {
			return
		}
		uploaded, err := s.seedMeme(ctx, &item)
		if err != nil {
			atomic.AddInt64(&stats.Failed, 1)
			s.log(ctx).WithField("meme_id", item.ID).WithError(err).Error("Failed to seed meme")
			continue
		}
		atomic.AddInt64(&stats.Memes, 1)
		if uploaded {
			atomic.AddInt64(&stats.Uploaded, 1)
		}
	}
}

// seedMeme stores the image of one meme and its ground truth. It reports
// whether an object was uploaded.
func (s *SeedService) seedMeme(ctx context.Context, item *source.MemeItem) (bool, error) {
	data, err := s.readImage(ctx, item)
	if err != nil {
		return false, fmt.Errorf("failed to read image: %w", err)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return false, fmt.Errorf("unsupported image: %w", err)
	}

	ref := item.URL
	if item.File != "" {
		ref = filepath.Base(item.File)
	}

	uploaded := false
	if s.storage != nil {
		ref = storageKey(data, format)
		exists, err := s.storage.Exists(ctx, ref)
		if err != nil {
			return false, fmt.Errorf("failed to check storage existence: %w", err)
		}
		if !exists {
			if err := s.storage.Upload(ctx, ref, bytes.NewReader(data), int64(len(data)), contentType(format)); err != nil {
				return false, fmt.Errorf("failed to upload to storage: %w", err)
			}
			uploaded = true
		}
	}

	if err := s.memeRepo.UpsertMeme(ctx, &domain.Meme{ID: item.ID, FileName: ref}); err != nil {
		return uploaded, fmt.Errorf("failed to store meme: %w", err)
	}

	truth := make([]domain.MemeCaption, 0, len(item.Captions))
	for _, gt := range item.Captions {
		truth = append(truth, domain.MemeCaption{MemeID: item.ID, CaptionID: gt.CaptionID, Score: gt.Score})
	}
	if err := s.memeRepo.UpsertGroundTruth(ctx, truth); err != nil {
		return uploaded, fmt.Errorf("failed to store ground truth: %w", err)
	}
	return uploaded, nil
}

func (s *SeedService) readImage(ctx context.Context, item *source.MemeItem) ([]byte, error) {
	if item.File != "" {
		return os.ReadFile(item.File)
	}

	resp, err := s.client.R().SetContext(ctx).Get(item.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", item.URL, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to download %s: status %d", item.URL, resp.StatusCode())
	}
	return resp.Body(), nil
}

func (s *SeedService) seedUser(ctx context.Context, u source.UserItem) error {
	salt, err := NewSalt()
	if err != nil {
		return err
	}
	hash, err := HashPassword(u.Password, salt)
	if err != nil {
		return err
	}
	if err := s.userRepo.Upsert(ctx, &domain.User{Username: u.Username, Password: hash, Salt: salt}); err != nil {
		return fmt.Errorf("failed to store user %q: %w", u.Username, err)
	}
	return nil
}

// storageKey buckets images by content hash: memes/<md5[:2]>/<md5>.<ext>.
func storageKey(data []byte, format string) string {
	sum := md5.Sum(data)
	hash := hex.EncodeToString(sum[:])
	return fmt.Sprintf("memes/%s/%s.%s", hash[:2], hash, extension(format))
}

func extension(format string) string {
	if format == "jpeg" {
		return "jpg"
	}
	return format
}

func contentType(format string) string {
	switch format {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
