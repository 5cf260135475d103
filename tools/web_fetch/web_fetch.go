package web_fetch

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mohammad-safakhou/researcher/tools/web_fetch/chromedp"
	"github.com/mohammad-safakhou/researcher/tools/web_fetch/httpfetch"
	"github.com/mohammad-safakhou/researcher/tools/web_fetch/models"
)

const (
	DefaultTimeout  = 15 * time.Second
	MaxCharsDefault = 20000
)

var ErrUnsupportedFetcher = errors.New("unsupported fetcher type")

type WebFetcher interface {
	Exec(ctx context.Context, url string) (models.Result, error)
}

type FetcherType string

const (
	ChromedpFetcherType FetcherType = "chromedp"
	HTTPFetcherType     FetcherType = "http"
)

func NewWebFetcher(fetcherType FetcherType, timeout time.Duration, maxChars int, userAgent string) (WebFetcher, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxChars <= 0 {
		maxChars = MaxCharsDefault
	}

	switch fetcherType {
	case ChromedpFetcherType:
		return chromedp.Fetch{Timeout: timeout, MaxChars: maxChars, UserAgent: userAgent}, nil
	case HTTPFetcherType:
		return httpfetch.Fetch{Client: &http.Client{Timeout: timeout}, MaxChars: maxChars, UserAgent: userAgent}, nil
	default:
		return nil, ErrUnsupportedFetcher
	}
}
