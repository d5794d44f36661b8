package source

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/timmy/wdym/internal/domain"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// Validate checks that every meme can be played: at least 2 correct and 5
// wrong captions, all referring to known captions, and enough memes to
// fill a session. All problems are reported together.
func (c *Catalog) Validate() error {
	var errs []error

	if len(c.Memes) < domain.RoundsPerGame {
		errs = append(errs, fmt.Errorf("catalog has %d memes, need at least %d", len(c.Memes), domain.RoundsPerGame))
	}

	captions := make(map[int64]struct{}, len(c.Captions))
	for _, caption := range c.Captions {
		if domain.IsTimedOutCaption(caption.ID) {
			errs = append(errs, fmt.Errorf("caption id %d is reserved for timed-out rounds", caption.ID))
			continue
		}
		if _, dup := captions[caption.ID]; dup {
			errs = append(errs, fmt.Errorf("caption %d is defined twice", caption.ID))
		}
		if caption.Text == "" {
			errs = append(errs, fmt.Errorf("caption %d has no text", caption.ID))
		}
		captions[caption.ID] = struct{}{}
	}

	memes := make(map[int64]struct{}, len(c.Memes))
	for _, meme := range c.Memes {
		if _, dup := memes[meme.ID]; dup {
			errs = append(errs, fmt.Errorf("meme %d is defined twice", meme.ID))
		}
		memes[meme.ID] = struct{}{}

		if meme.File == "" && meme.URL == "" {
			errs = append(errs, fmt.Errorf("meme %d has neither file nor url", meme.ID))
		}

		correct, wrong := 0, 0
		for _, gt := range meme.Captions {
			if _, ok := captions[gt.CaptionID]; !ok {
				errs = append(errs, fmt.Errorf("meme %d refers to unknown caption %d", meme.ID, gt.CaptionID))
				continue
			}
			switch {
			case gt.Score > 0:
				correct++
			case gt.Score == 0:
				wrong++
			default:
				errs = append(errs, fmt.Errorf("meme %d caption %d has negative score", meme.ID, gt.CaptionID))
			}
		}
		if correct < domain.CorrectCaptionsPerRound || wrong < domain.WrongCaptionsPerRound {
			errs = append(errs, fmt.Errorf("meme %d has %d correct and %d wrong captions, need %d and %d",
				meme.ID, correct, wrong, domain.CorrectCaptionsPerRound, domain.WrongCaptionsPerRound))
		}
	}

	for _, user := range c.Users {
		if !usernamePattern.MatchString(user.Username) {
			errs = append(errs, fmt.Errorf("username %q must be alphanumeric", user.Username))
		}
		if user.Password == "" {
			errs = append(errs, fmt.Errorf("user %q has no password", user.Username))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid catalog: %w", errors.Join(errs...))
	}
	return nil
}
