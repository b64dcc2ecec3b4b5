package video

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

func newVideoServer(t *testing.T, mp4, webm bool, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/vidmp4", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if !mp4 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte("mp4-bytes"))
	})
	mux.HandleFunc("/api/v1/vidwebm", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if !webm {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "video/webm")
		w.Write([]byte("webm-bytes"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPreloadCachesResult(t *testing.T) {
	var hits atomic.Int64
	srv := newVideoServer(t, true, true, &hits)
	p := NewPreloader(srv.URL)

	if !p.Preload(context.Background(), FormatMP4) {
		t.Fatal("mp4 must be available")
	}
	for i := 0; i < 5; i++ {
		p.Preload(context.Background(), FormatMP4)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("probed %d times, want 1 (cached)", got)
	}
}

func TestPreloadUnavailable(t *testing.T) {
	var hits atomic.Int64
	srv := newVideoServer(t, false, false, &hits)
	p := NewPreloader(srv.URL)

	if p.Preload(context.Background(), FormatWebM) {
		t.Error("webm must be unavailable")
	}
	// Negative results are cached too.
	p.Preload(context.Background(), FormatWebM)
	if got := hits.Load(); got != 1 {
		t.Errorf("probed %d times, want 1", got)
	}
}

func TestPreloadUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	p := NewPreloader(srv.URL)

	if p.Preload(context.Background(), FormatMP4) {
		t.Error("unreachable backend must report unavailable")
	}
}

func TestConcurrentPreloadsDeduplicated(t *testing.T) {
	var hits atomic.Int64
	srv := newVideoServer(t, true, true, &hits)
	p := NewPreloader(srv.URL)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Preload(context.Background(), FormatMP4)
		}()
	}
	wg.Wait()
	if got := hits.Load(); got != 1 {
		t.Errorf("probed %d times, want 1 (deduplicated)", got)
	}
}

func TestBestSourcesOrder(t *testing.T) {
	var hits atomic.Int64
	srv := newVideoServer(t, true, true, &hits)
	p := NewPreloader(srv.URL)

	sources := p.BestSources(context.Background())
	if len(sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(sources))
	}
	if sources[0].Type != "video/mp4" || sources[1].Type != "video/webm" {
		t.Errorf("source order wrong: %+v", sources)
	}
	if sources[0].URL != srv.URL+"/api/v1/vidmp4" {
		t.Errorf("mp4 url %q", sources[0].URL)
	}
}

func TestBestSourcesPartialAvailability(t *testing.T) {
	var hits atomic.Int64
	srv := newVideoServer(t, false, true, &hits)
	p := NewPreloader(srv.URL)

	sources := p.BestSources(context.Background())
	if len(sources) != 1 || sources[0].Type != "video/webm" {
		t.Fatalf("got %+v, want only webm", sources)
	}
}

func TestClearCacheReprobes(t *testing.T) {
	var hits atomic.Int64
	srv := newVideoServer(t, true, true, &hits)
	p := NewPreloader(srv.URL)

	p.Preload(context.Background(), FormatMP4)
	p.ClearCache()
	p.Preload(context.Background(), FormatMP4)
	if got := hits.Load(); got != 2 {
		t.Errorf("probed %d times, want 2 after cache clear", got)
	}
}
