package video_search

import (
	"context"
	"net/http"

	"github.com/mohammad-safakhou/researcher/tools/video_search/serper"
)

// Video is one video search hit.
type Video = serper.Video

type VideoSearcher interface {
	Videos(ctx context.Context, q string, k int) ([]Video, error)
}

func NewVideoSearcher(apiKey string, client *http.Client) VideoSearcher {
	return serper.Search{ApiKey: apiKey, Client: client}
}
