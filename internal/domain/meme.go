package domain

const (
	// TimedOutCaptionID is the reserved caption identity sent when the player ran out of time.
	// It is never offered as a choice and needs no ground-truth row.
	TimedOutCaptionID int64 = 42

	// CorrectCaptionsPerRound and WrongCaptionsPerRound shape the 7 options of a round.
	CorrectCaptionsPerRound = 2
	WrongCaptionsPerRound   = 5
)

// IsTimedOutCaption reports whether id is the timed-out sentinel.
func IsTimedOutCaption(id int64) bool {
	return id == TimedOutCaptionID
}

// Meme is a playable image. FileName is the image reference (object key or static file name).
type Meme struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	FileName string `gorm:"column:file_name;type:text;not null" json:"file_name"`
}

// TableName returns the database table name for Meme.
func (Meme) TableName() string {
	return "memes"
}

// Caption is a piece of text that may fit some memes.
type Caption struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Text string `gorm:"type:text;not null" json:"text"`
}

// TableName returns the database table name for Caption.
func (Caption) TableName() string {
	return "captions"
}

// MemeCaption is one ground-truth entry: how well a caption fits a meme.
// Score > 0 marks a correct caption, 0 a wrong one.
type MemeCaption struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	MemeID    int64 `gorm:"not null;uniqueIndex:idx_meme_captions_pair" json:"meme_id"`
	CaptionID int64 `gorm:"not null;uniqueIndex:idx_meme_captions_pair" json:"caption_id"`
	Score     int   `gorm:"not null;default:0" json:"score"`
}

// TableName returns the database table name for MemeCaption.
func (MemeCaption) TableName() string {
	return "meme_captions"
}
