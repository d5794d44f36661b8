package source

import "context"

// Catalog is the full content a game database is seeded from.
type Catalog struct {
	Captions []CaptionItem `yaml:"captions"`
	Memes    []MemeItem    `yaml:"memes"`
	Users    []UserItem    `yaml:"users"`
}

// CaptionItem is a caption of the shared caption pool.
type CaptionItem struct {
	ID   int64  `yaml:"id"`
	Text string `yaml:"text"`
}

// MemeItem is a meme with its ground truth.
type MemeItem struct {
	ID       int64             `yaml:"id"`
	File     string            `yaml:"file"` // Local image path, relative to the catalog
	URL      string            `yaml:"url"`  // Remote image, used when File is empty
	Captions []GroundTruthItem `yaml:"captions"`
}

// GroundTruthItem scores one caption for a meme. Score 0 marks a wrong caption.
type GroundTruthItem struct {
	CaptionID int64 `yaml:"caption_id"`
	Score     int   `yaml:"score"`
}

// UserItem is a player account with a plain-text password.
type UserItem struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Source defines the interface for seed catalog sources.
type Source interface {
	// GetSourceID returns the unique identifier for this source.
	// Parameters: none.
	// Returns:
	//   - string: stable source identifier.
	GetSourceID() string

	// GetDisplayName returns a human-readable name for this source.
	// Parameters: none.
	// Returns:
	//   - string: display-friendly source name.
	GetDisplayName() string

	// Load reads the whole catalog.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	// Returns:
	//   - *Catalog: parsed catalog with local paths resolved.
	//   - error: non-nil if reading or parsing fails.
	Load(ctx context.Context) (*Catalog, error)
}
