package links

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("link not found")
	ErrSubmissionInFlight = errors.New("submission already in progress")
)

// ShortenedLink is a single shortened URL with its annotation.
type ShortenedLink struct {
	ID          string   `json:"id"`
	OriginalURL string   `json:"originalUrl"`
	ShortCode   string   `json:"shortCode"`
	CreatedAt   int64    `json:"createdAt"` // epoch milliseconds
	Clicks      int64    `json:"clicks"`
	Tags        []string `json:"tags"`
	AISummary   string   `json:"aiSummary,omitempty"`
	Category    string   `json:"category,omitempty"`
}

// Collection is the ordered, newest-first set of links persisted as one blob.
type Collection []ShortenedLink

// Encode serializes the collection into its persisted layout.
func Encode(c Collection) ([]byte, error) {
	if c == nil {
		c = Collection{}
	}

	return json.Marshal(c)
}

// Decode parses a persisted blob. Any record that is not a well-typed link
// fails the whole decode.
func Decode(data []byte) (Collection, error) {
	var c Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(c))

	for i, l := range c {
		if err := l.validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		if _, dup := seen[l.ID]; dup {
			return nil, fmt.Errorf("record %d: duplicate id %q", i, l.ID)
		}

		seen[l.ID] = struct{}{}
	}

	if c == nil {
		c = Collection{}
	}

	return c, nil
}

func (l ShortenedLink) validate() error {
	switch {
	case l.ID == "":
		return errors.New("missing id")
	case l.OriginalURL == "":
		return errors.New("missing originalUrl")
	case l.ShortCode == "":
		return errors.New("missing shortCode")
	case l.Clicks < 0:
		return errors.New("negative clicks")
	}

	return nil
}
