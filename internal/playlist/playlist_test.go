// internal/playlist/playlist_test.go
package playlist

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwrobel/moresongs/internal/models"
)

func TestSelectPicksDistinctTracks(t *testing.T) {
	pool := []models.Track{
		{ID: "a", Title: "A"},
		{ID: "b", Title: "B"},
		{ID: "c", Title: "C"},
		{ID: "d", Title: "D"},
	}
	rng := rand.New(rand.NewSource(1))

	got := Select(pool, 3, rng)
	require.Len(t, got, 3)

	seen := map[string]bool{}
	for _, tr := range got {
		assert.False(t, seen[tr.ID], "track %s selected twice", tr.ID)
		seen[tr.ID] = true
	}
}

func TestSelectTopsUpFromDemoSet(t *testing.T) {
	pool := []models.Track{{ID: "only", Title: "Only One"}}
	rng := rand.New(rand.NewSource(1))

	got := Select(pool, 3, rng)
	require.Len(t, got, 3)
	assert.Equal(t, "only", got[0].ID)
	for _, tr := range got[1:] {
		assert.NotEqual(t, "only", tr.ID)
	}
}

func TestSelectEmptyPoolUsesDemoSet(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	got := Select(nil, 3, rng)
	require.Len(t, got, 3)
}

func TestYouTubeTracksFollowsPages(t *testing.T) {
	page := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "pl-1", r.URL.Query().Get("playlistId"))

		type snippet struct {
			Title      string `json:"title"`
			ResourceID struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		}
		type item struct {
			Snippet snippet `json:"snippet"`
		}
		mk := func(id, title string) item {
			var it item
			it.Snippet.Title = title
			it.Snippet.ResourceID.VideoID = id
			return it
		}

		resp := struct {
			NextPageToken string `json:"nextPageToken,omitempty"`
			Items         []item `json:"items"`
		}{}
		if page == 0 {
			assert.Empty(t, r.URL.Query().Get("pageToken"))
			resp.NextPageToken = "p2"
			resp.Items = []item{mk("v1", "Song One"), mk("", "Deleted video")}
		} else {
			assert.Equal(t, "p2", r.URL.Query().Get("pageToken"))
			resp.Items = []item{mk("v2", "Song Two"), mk("v3", "Private video")}
		}
		page++
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewYouTubeClientWithBaseURL(srv.URL)
	tracks, err := c.Tracks(context.Background(), "tok-123", "pl-1")
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, models.Track{ID: "v1", Title: "Song One"}, tracks[0])
	assert.Equal(t, models.Track{ID: "v2", Title: "Song Two"}, tracks[1])
}

func TestYouTubeTracksErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewYouTubeClientWithBaseURL(srv.URL)
	_, err := c.Tracks(context.Background(), "expired", "pl-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
