// internal/playlist/youtube.go
package playlist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mwrobel/moresongs/internal/models"
)

const defaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"

// YouTubeClient fetches playlist items from the YouTube Data API v3 using
// the playlist owner's OAuth access token.
type YouTubeClient struct {
	baseURL string
	client  *http.Client
}

// NewYouTubeClient creates a client against the public YouTube API.
func NewYouTubeClient() *YouTubeClient {
	return &YouTubeClient{
		baseURL: defaultYouTubeBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewYouTubeClientWithBaseURL creates a client against a custom endpoint,
// used by tests.
func NewYouTubeClientWithBaseURL(baseURL string) *YouTubeClient {
	c := NewYouTubeClient()
	c.baseURL = baseURL
	return c
}

// playlistItemsResponse mirrors the fields of the playlistItems.list response
// we care about.
type playlistItemsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			Title      string `json:"title"`
			ResourceID struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	} `json:"items"`
}

// Tracks lists the videos of playlistID, following page tokens until the
// playlist is exhausted. Deleted and private videos are skipped.
func (c *YouTubeClient) Tracks(ctx context.Context, accessToken, playlistID string) ([]models.Track, error) {
	var tracks []models.Track
	pageToken := ""

	for {
		page, err := c.fetchPage(ctx, accessToken, playlistID, pageToken)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			title := item.Snippet.Title
			videoID := item.Snippet.ResourceID.VideoID
			if videoID == "" || title == "" || title == "Deleted video" || title == "Private video" {
				continue
			}
			tracks = append(tracks, models.Track{ID: videoID, Title: title})
		}
		if page.NextPageToken == "" {
			return tracks, nil
		}
		pageToken = page.NextPageToken
	}
}

func (c *YouTubeClient) fetchPage(ctx context.Context, accessToken, playlistID, pageToken string) (*playlistItemsResponse, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("playlistId", playlistID)
	q.Set("maxResults", "50")
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/playlistItems?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist items: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("youtube API returned status %d: %s", resp.StatusCode, string(body))
	}

	var page playlistItemsResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode playlist items: %w", err)
	}
	return &page, nil
}
