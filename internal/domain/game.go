package domain

import (
	"strconv"
	"time"
)

// GameStatus represents the lifecycle state of a game session.
// A persisted game moves from GameStatusInProgress to GameStatusCompleted exactly once.
type GameStatus string

const (
	GameStatusInProgress GameStatus = "IN_PROGRESS"
	GameStatusCompleted  GameStatus = "COMPLETED"
)

const (
	// RoundsPerGame is the fixed length of an authenticated session.
	RoundsPerGame = 3

	// RetentionWindow is how long a session may stay IN_PROGRESS before the sweep purges it.
	RetentionWindow = 2 * time.Hour

	// DateLayout is the canonical UTC form games are stored with.
	DateLayout = "2006-01-02 15:04:05"
)

// GameID identifies a game session. Values are handed out by the store.
type GameID int64

// GuestGameID marks an ephemeral guest session that is never persisted.
const GuestGameID GameID = -1

// IsGuest reports whether the id is the guest sentinel.
func (id GameID) IsGuest() bool {
	return id == GuestGameID
}

func (id GameID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Game is a persisted play session owned by a user.
type Game struct {
	ID     GameID     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID *int64     `gorm:"index:idx_games_user" json:"user_id,omitempty"`
	Score  int        `gorm:"not null;default:0" json:"score"`
	Date   string     `gorm:"type:text;not null;index:idx_games_status_date,priority:2" json:"date"`
	Status GameStatus `gorm:"type:text;not null;index:idx_games_status_date,priority:1" json:"status"`
	Rounds []Round    `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE" json:"rounds,omitempty"`
}

// TableName returns the database table name for Game.
func (Game) TableName() string {
	return "games"
}

// FormatDate renders t in the canonical stored form.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate reads a stored date back as a UTC instant.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// Round is a single meme/caption guess recorded under a game.
// Score is the ground-truth score at submission time, or 0 when the round timed out.
type Round struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	GameID    GameID `gorm:"not null;index:idx_rounds_game" json:"game_id"`
	MemeID    int64  `gorm:"not null" json:"meme_id"`
	CaptionID int64  `gorm:"not null" json:"caption_id"`
	Timeout   bool   `gorm:"not null;default:false" json:"timeout"`
	Score     int    `gorm:"not null;default:0" json:"score"`
}

// TableName returns the database table name for Round.
func (Round) TableName() string {
	return "rounds"
}
