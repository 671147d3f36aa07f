// internal/playlist/playlist.go
package playlist

import (
	"context"
	"math/rand"

	"github.com/mwrobel/moresongs/internal/models"
)

// Provider fetches the tracks of a playlist on behalf of a user.
type Provider interface {
	// Tracks returns the playable tracks of playlistID. accessToken is the
	// owner's OAuth token for the upstream service.
	Tracks(ctx context.Context, accessToken, playlistID string) ([]models.Track, error)
}

// demoTracks is the built-in set used when a lobby has no playlist or the
// upstream fetch does not yield enough material.
var demoTracks = []models.Track{
	{ID: "dQw4w9WgXcQ", Title: "Never Gonna Give You Up"},
	{ID: "9bZkp7q19f0", Title: "Gangnam Style"},
	{ID: "kJQP7kiw5Fk", Title: "Despacito"},
	{ID: "JGwWNGJdvx8", Title: "Shape of You"},
	{ID: "OPf0YbXqDm0", Title: "Uptown Funk"},
	{ID: "fJ9rUzIMcZQ", Title: "Bohemian Rhapsody"},
	{ID: "hTWKbfoikeg", Title: "Smells Like Teen Spirit"},
	{ID: "YkgkThdzX-8", Title: "Imagine"},
}

// DemoTracks returns a copy of the built-in demo set.
func DemoTracks() []models.Track {
	out := make([]models.Track, len(demoTracks))
	copy(out, demoTracks)
	return out
}

// Select picks n distinct tracks at random from pool. When the pool is too
// small it is topped up from the demo set, skipping ids already present.
// The result order is the round order of the game.
func Select(pool []models.Track, n int, rng *rand.Rand) []models.Track {
	shuffled := make([]models.Track, len(pool))
	copy(shuffled, pool)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if len(shuffled) < n {
		seen := make(map[string]struct{}, len(shuffled))
		for _, t := range shuffled {
			seen[t.ID] = struct{}{}
		}
		for _, t := range demoTracks {
			if len(shuffled) >= n {
				break
			}
			if _, ok := seen[t.ID]; ok {
				continue
			}
			shuffled = append(shuffled, t)
		}
	}

	if len(shuffled) > n {
		shuffled = shuffled[:n]
	}
	return shuffled
}
