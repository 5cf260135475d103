package brave

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mohammad-safakhou/researcher/tools/web_search/models"
)

func TestDiscover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "bleve site:blevesearch.com" {
			t.Errorf("q = %q", got)
		}
		if got := r.URL.Query().Get("count"); got != "3" {
			t.Errorf("count = %q", got)
		}
		if r.Header.Get("X-Subscription-Token") != "token" {
			t.Errorf("missing subscription token")
		}
		_, _ = w.Write([]byte(`{"web":{"results":[
			{"title":"Bleve","url":"https://blevesearch.com/docs","description":"full-text <strong>search</strong>"},
			{"title":"Other","url":"https://other.example","description":"filtered"}
		]}}`))
	}))
	defer srv.Close()

	s := Search{ApiKey: "token", Endpoint: srv.URL, Client: srv.Client()}
	got, err := s.Discover(context.Background(), models.Query{
		Text: "bleve", Limit: 3, IncludeDomains: []string{"blevesearch.com"},
	})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1: %+v", len(got), got)
	}
	if got[0].Snippet != "full-text search" {
		t.Fatalf("snippet = %q", got[0].Snippet)
	}
}
