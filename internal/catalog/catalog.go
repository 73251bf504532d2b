// Package catalog serves the fixed sample content shown by `hark catalog`.
package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound reports an unknown content ID.
var ErrNotFound = errors.New("content not found")

// AudioContent is one playable item.
type AudioContent struct {
	ID          string
	Title       string
	Author      string
	CoverURL    string
	AudioURL    string
	Duration    time.Duration
	Category    string
	Description string
	PlayCount   int
	LikeCount   int
	// Recommendations lists related content IDs; nil when the item has none.
	Recommendations []string
}

// FormattedDuration renders the duration as mm:ss. Minutes are not wrapped
// at the hour.
func (c AudioContent) FormattedDuration() string {
	total := int64(c.Duration / time.Second)
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Banner is a promotional slot.
type Banner struct {
	ID          string
	ImageURL    string
	Title       string
	Description string
	TargetURL   string
}

// Repository is the content source.
type Repository interface {
	Content(id string) (AudioContent, error)
	Banners() []Banner
	HotRecommendations() []AudioContent
	NewReleases() []AudioContent
}

// Stub returns in-memory sample data.
type Stub struct{}

var _ Repository = Stub{}

// Content returns a listed item by ID. Any other positive numeric ID yields
// a generic sample item.
func (Stub) Content(id string) (AudioContent, error) {
	id = strings.TrimSpace(id)
	for _, item := range append(hotRecommendations(), newReleases()...) {
		if item.ID == id {
			return item, nil
		}
	}

	n, err := strconv.Atoi(id)
	if err != nil || n <= 0 {
		return AudioContent{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return AudioContent{
		ID:              strconv.Itoa(n),
		Title:           "Sample audio",
		Author:          "Sample author",
		CoverURL:        "https://example.com/cover.jpg",
		AudioURL:        "https://example.com/audio.mp3",
		Duration:        180 * time.Second,
		Category:        "Sample category",
		Recommendations: []string{"hot1", "new1"},
	}, nil
}

func (Stub) Banners() []Banner {
	return []Banner{
		{
			ID:          "1",
			ImageURL:    "https://example.com/banner1.jpg",
			Title:       "Trending",
			Description: "Hand-picked popular audio",
			TargetURL:   "https://example.com/hot",
		},
		{
			ID:          "2",
			ImageURL:    "https://example.com/banner2.jpg",
			Title:       "New arrivals",
			Description: "The latest quality audio content",
			TargetURL:   "https://example.com/new",
		},
	}
}

func (Stub) HotRecommendations() []AudioContent {
	return hotRecommendations()
}

func (Stub) NewReleases() []AudioContent {
	return newReleases()
}

func hotRecommendations() []AudioContent {
	return []AudioContent{
		{
			ID:          "hot1",
			Title:       "Trending audio 1",
			Author:      "Author A",
			CoverURL:    "https://example.com/hot1.jpg",
			AudioURL:    "https://example.com/hot1.mp3",
			Duration:    240 * time.Second,
			Category:    "Music",
			Description: "A very popular piece of music",
			PlayCount:   10000,
			LikeCount:   5000,
		},
		{
			ID:              "hot2",
			Title:           "Trending audio 2",
			Author:          "Author B",
			CoverURL:        "https://example.com/hot2.jpg",
			AudioURL:        "https://example.com/hot2.mp3",
			Duration:        180 * time.Second,
			Category:        "Audiobook",
			Description:     "An excerpt from a best-selling audiobook",
			PlayCount:       8000,
			LikeCount:       3500,
			Recommendations: []string{"hot1"},
		},
	}
}

func newReleases() []AudioContent {
	return []AudioContent{
		{
			ID:          "new1",
			Title:       "New release 1",
			Author:      "Author C",
			CoverURL:    "https://example.com/new1.jpg",
			AudioURL:    "https://example.com/new1.mp3",
			Duration:    300 * time.Second,
			Category:    "Podcast",
			Description: "A newly released podcast episode",
			PlayCount:   2000,
			LikeCount:   800,
		},
		{
			ID:          "new2",
			Title:       "New release 2",
			Author:      "Author D",
			CoverURL:    "https://example.com/new2.jpg",
			AudioURL:    "https://example.com/new2.mp3",
			Duration:    200 * time.Second,
			Category:    "Music",
			Description: "A song that just came out",
			PlayCount:   1500,
			LikeCount:   600,
		},
	}
}
