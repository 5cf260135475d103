package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mohammad-safakhou/researcher/tools/web_fetch/chromedp"
	"github.com/mohammad-safakhou/researcher/tools/web_fetch/models"
)

const maxBodyBytes = 5 << 20

// Fetch downloads a page without a browser and extracts the readable article.
type Fetch struct {
	Client    *http.Client
	MaxChars  int
	UserAgent string
}

func (f Fetch) Exec(ctx context.Context, rawURL string) (models.Result, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return models.Result{}, errors.New("invalid url")
	}
	t0 := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return models.Result{}, err
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return models.Result{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return models.Result{}, fmt.Errorf("fetch %s: status %d", parsed, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return models.Result{}, fmt.Errorf("read body: %w", err)
	}

	res, err := chromedp.Extract(string(body), resp.Request.URL, f.MaxChars, int(time.Since(t0)/time.Millisecond))
	if err != nil {
		return models.Result{}, err
	}
	res.Status = resp.StatusCode
	return res, nil
}
