package musicbrainz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const releaseXMLBody = `<?xml version="1.0" encoding="UTF-8"?>
<metadata xmlns="http://musicbrainz.org/ns/mmd-2.0#">
  <release id="8a7b6c5d-1234-4abc-9def-0123456789ab">
    <title>Kind of Blue</title>
    <medium-list count="2">
      <medium>
        <position>1</position>
        <track-list count="2">
          <track><position>1</position><number>1</number><title>So What</title><length>562000</length></track>
          <track><number>2</number><length>589000</length><recording><title>Freddie Freeloader</title></recording></track>
        </track-list>
      </medium>
      <medium>
        <position>2</position>
        <track-list count="1">
          <track><recording><title>Blue in Green</title><length>337500</length></recording></track>
        </track-list>
      </medium>
    </medium-list>
  </release>
</metadata>`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL, UserAgent: "record-shop-test/1.0", Timeout: time.Second, MaxRetries: 2, RetryDelay: time.Millisecond})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestFetchTrackList_ParsesAllMedia(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/release/8a7b6c5d-1234-4abc-9def-0123456789ab" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if !strings.Contains(r.URL.RawQuery, "inc=recordings") {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if r.Header.Get("User-Agent") != "record-shop-test/1.0" || r.Header.Get("Accept") != "application/xml" {
			t.Errorf("unexpected headers: %v", r.Header)
		}
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(releaseXMLBody))
	})

	tracks, err := c.FetchTrackList(context.Background(), "8a7b6c5d-1234-4abc-9def-0123456789ab")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(tracks) != 3 {
		t.Fatalf("tracks=%+v", tracks)
	}
	if tracks[0].Title != "So What" || tracks[0].Duration != "9:22" || tracks[0].Position != 1 {
		t.Fatalf("track 0: %+v", tracks[0])
	}
	if tracks[1].Title != "Freddie Freeloader" || tracks[1].Position != 2 {
		t.Fatalf("track 1: %+v", tracks[1])
	}
	if tracks[2].Title != "Blue in Green" || tracks[2].Duration != "5:37" || tracks[2].Position != 1 {
		t.Fatalf("track 2: %+v", tracks[2])
	}
}

func TestFetchTrackList_NotFoundIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	tracks, err := c.FetchTrackList(context.Background(), "missing")
	if err != nil || len(tracks) != 0 {
		t.Fatalf("want empty list, got tracks=%v err=%v", tracks, err)
	}
}

func TestFetchTrackList_RetriesUnavailable(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(releaseXMLBody))
	})

	tracks, err := c.FetchTrackList(context.Background(), "id")
	if err != nil || len(tracks) != 3 {
		t.Fatalf("want success after retry, got tracks=%d err=%v", len(tracks), err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls=%d, want 2", calls.Load())
	}
}

func TestFetchTrackList_Errors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})
	if _, err := c.FetchTrackList(context.Background(), "id"); err == nil {
		t.Fatalf("want error on 400")
	}
	if calls.Load() != 1 {
		t.Fatalf("client errors must not be retried, calls=%d", calls.Load())
	}

	broken := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<metadata><release>"))
	})
	if _, err := broken.FetchTrackList(context.Background(), "id"); err == nil {
		t.Fatalf("want decode error")
	}
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("want error")
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[string]string{"": "0:00", "abc": "0:00", "59999": "0:59", "180000": "3:00", "3723000": "62:03"}
	for in, want := range cases {
		if got := formatDuration(in); got != want {
			t.Fatalf("formatDuration(%q)=%s, want %s", in, got, want)
		}
	}
}
