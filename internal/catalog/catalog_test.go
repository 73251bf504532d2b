package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormattedDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		want     string
	}{
		{0, "00:00"},
		{59 * time.Second, "00:59"},
		{180 * time.Second, "03:00"},
		{200*time.Second + 900*time.Millisecond, "03:20"},
		{3725 * time.Second, "62:05"},
		{-time.Second, "00:00"},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, AudioContent{Duration: tc.duration}.FormattedDuration(), tc.duration.String())
	}
}

func TestStubContentLookup(t *testing.T) {
	repo := Stub{}

	item, err := repo.Content("hot2")
	require.NoError(t, err)
	require.Equal(t, "Trending audio 2", item.Title)
	require.Equal(t, []string{"hot1"}, item.Recommendations)

	sample, err := repo.Content(" 7 ")
	require.NoError(t, err)
	require.Equal(t, "7", sample.ID)
	require.Equal(t, "03:00", sample.FormattedDuration())
	require.NotEmpty(t, sample.Recommendations)

	for _, id := range []string{"", "0", "-3", "nope"} {
		_, err := repo.Content(id)
		require.ErrorIs(t, err, ErrNotFound, id)
	}
}

func TestStubListsAreFixed(t *testing.T) {
	repo := Stub{}
	require.Len(t, repo.Banners(), 2)
	require.Len(t, repo.HotRecommendations(), 2)
	require.Len(t, repo.NewReleases(), 2)
	require.Nil(t, repo.NewReleases()[0].Recommendations)

	hot := repo.HotRecommendations()
	hot[0].Title = "mutated"
	require.Equal(t, "Trending audio 1", repo.HotRecommendations()[0].Title)
}
