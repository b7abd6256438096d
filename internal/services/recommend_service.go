package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/moodtune/moodtune-backend/internal/config"
	"github.com/moodtune/moodtune-backend/internal/models"
)

var ErrUnknownEmotion = errors.New("unknown emotion")

const maxTracks = 30

// emotionSearchSeeds maps each baseline emotion to a Spotify search seed.
var emotionSearchSeeds = map[string]string{
	"happy":     "happy upbeat feel good",
	"sad":       "sad mellow acoustic",
	"angry":     "heavy intense rock",
	"relaxed":   "chill ambient calm",
	"energetic": "workout power dance",
}

// SpotifyClient fetches track recommendations from the Spotify Web API
// using the caller's access token. Every call is time-bounded by the
// client timeout and by the caller's context.
type SpotifyClient struct {
	baseURL string
	client  *http.Client
}

func NewSpotifyClient(cfg *config.Config) *SpotifyClient {
	return &SpotifyClient{
		baseURL: strings.TrimRight(cfg.SpotifyAPIURL, "/"),
		client:  &http.Client{Timeout: cfg.RecommendTimeout},
	}
}

// Recommend searches Spotify for tracks matching the emotion and returns
// a payload with a top-level "tracks" sequence.
func (s *SpotifyClient) Recommend(ctx context.Context, emotion, accessToken string) (json.RawMessage, error) {
	seed, ok := emotionSearchSeeds[strings.ToLower(emotion)]
	if !ok {
		seed = emotion
	}

	endpoint := fmt.Sprintf("%s/search?q=%s&type=track&limit=%d",
		s.baseURL, url.QueryEscape(seed), maxTracks)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build spotify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("spotify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("spotify returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read spotify response: %w", err)
	}

	var parsed struct {
		Tracks struct {
			Items []any `json:"items"`
		} `json:"tracks"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode spotify response: %w", err)
	}

	out, err := json.Marshal(map[string]any{
		"tracks":        parsed.Tracks.Items,
		"emotion":       strings.ToLower(emotion),
		"total_tracks":  len(parsed.Tracks.Items),
		"search_method": "spotify_search",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode recommendations: %w", err)
	}
	return out, nil
}

// MockupProvider serves recommendations from a local track JSON file so
// the app works without a configured Spotify account. Missing or broken
// files fall back to generated placeholder data.
type MockupProvider struct {
	dataPath string
}

func NewMockupProvider(cfg *config.Config) *MockupProvider {
	return &MockupProvider{dataPath: cfg.MockupDataPath}
}

// Recommendations shuffles the mockup track pool and returns up to
// maxTracks tracks for a known emotion.
func (m *MockupProvider) Recommendations(emotion string) (map[string]any, error) {
	emotion = strings.ToLower(emotion)
	if !isBaselineEmotion(emotion) {
		return nil, ErrUnknownEmotion
	}

	tracks := m.loadTracks()
	rand.Shuffle(len(tracks), func(i, j int) {
		tracks[i], tracks[j] = tracks[j], tracks[i]
	})
	if len(tracks) > maxTracks {
		tracks = tracks[:maxTracks]
	}

	return map[string]any{
		"tracks":        tracks,
		"emotion":       emotion,
		"total_tracks":  len(tracks),
		"search_method": "mockup",
		"mockup_mode":   true,
	}, nil
}

func (m *MockupProvider) loadTracks() []any {
	data, err := os.ReadFile(m.dataPath)
	if err != nil {
		return fallbackTracks()
	}

	var parsed struct {
		Tracks []any `json:"tracks"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil || len(parsed.Tracks) == 0 {
		return fallbackTracks()
	}
	return parsed.Tracks
}

func fallbackTracks() []any {
	track := map[string]any{
		"name":    "Placeholder Song",
		"artists": []any{map[string]any{"name": "Placeholder Artist"}},
		"album": map[string]any{
			"name":   "Placeholder Album",
			"images": []any{map[string]any{"url": "https://via.placeholder.com/300"}},
		},
		"external_urls": map[string]any{"spotify": "https://open.spotify.com"},
		"duration_ms":   180000,
		"popularity":    75,
	}
	tracks := make([]any, maxTracks)
	for i := range tracks {
		tracks[i] = track
	}
	return tracks
}

func isBaselineEmotion(emotion string) bool {
	for _, name := range models.BaselineEmotions {
		if emotion == name {
			return true
		}
	}
	return false
}
