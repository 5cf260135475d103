package serper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVideos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		_, _ = w.Write([]byte(`{"videos":[
			{"title":"Intro to Go","link":"https://youtube.com/watch?v=1","snippet":"A <b>quick</b> tour","channel":"Go"},
			{"title":"No link"},
			{"title":"Second","link":"https://youtube.com/watch?v=2"},
			{"title":"Third","link":"https://youtube.com/watch?v=3"}
		]}`))
	}))
	defer srv.Close()

	got, err := Search{ApiKey: "k", Endpoint: srv.URL}.Videos(context.Background(), "go", 2)
	if err != nil {
		t.Fatalf("Videos: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d videos, want 2", len(got))
	}
	if got[0].Snippet != "A quick tour" || got[1].Link != "https://youtube.com/watch?v=2" {
		t.Fatalf("unexpected videos: %+v", got)
	}
}
