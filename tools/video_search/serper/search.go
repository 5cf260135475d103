package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mohammad-safakhou/researcher/internal/helpers"
)

const DefaultEndpoint = "https://google.serper.dev/videos"

// Video is one hit from the Serper videos vertical.
type Video struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet,omitempty"`
	Channel  string `json:"channel,omitempty"`
	Duration string `json:"duration,omitempty"`
}

type Search struct {
	ApiKey   string
	Endpoint string
	Client   *http.Client
}

func (s Search) Videos(ctx context.Context, q string, k int) ([]Video, error) {
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	body, err := json.Marshal(map[string]any{"q": q, "num": k})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", s.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serper videos: status %d", resp.StatusCode)
	}

	var raw struct {
		Videos []Video `json:"videos"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("serper videos: decode: %w", err)
	}
	out := make([]Video, 0, len(raw.Videos))
	for _, v := range raw.Videos {
		if len(out) >= k {
			break
		}
		if v.Link == "" {
			continue
		}
		v.Title = helpers.PlainText(v.Title)
		v.Snippet = helpers.PlainText(v.Snippet)
		out = append(out, v)
	}
	return out, nil
}
