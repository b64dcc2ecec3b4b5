// Package video probes and caches the availability of the completion
// transition video the backend serves in MP4 and WebM renditions. The probe
// runs once per format per process (deduplicated across concurrent callers)
// so the recommendation screen can pick a source without re-checking.
package video

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// probeTimeout bounds one availability check.
const probeTimeout = 5 * time.Second

// Format is a video rendition the backend may serve.
type Format string

const (
	FormatMP4  Format = "mp4"
	FormatWebM Format = "webm"
)

// path returns the backend route serving this format.
func (f Format) path() string {
	if f == FormatWebM {
		return "/api/v1/vidwebm"
	}
	return "/api/v1/vidmp4"
}

// mimeType returns the source type for a video element.
func (f Format) mimeType() string {
	if f == FormatWebM {
		return "video/webm"
	}
	return "video/mp4"
}

// Source is one playable video source.
type Source struct {
	// URL is the absolute video URL.
	URL string

	// Type is the MIME type ("video/mp4" or "video/webm").
	Type string
}

// Availability reports which renditions the backend serves.
type Availability struct {
	MP4  bool
	WebM bool
}

// Preloader probes the backend's video endpoints and caches the results.
// Safe for concurrent use.
type Preloader struct {
	baseURL string
	client  *http.Client

	sf singleflight.Group

	mu    sync.Mutex
	cache map[Format]bool
}

// NewPreloader creates a [Preloader] for the given backend base URL.
func NewPreloader(baseURL string) *Preloader {
	return &Preloader{
		baseURL: baseURL,
		client:  &http.Client{},
		cache:   make(map[Format]bool),
	}
}

// URL returns the absolute URL serving format.
func (p *Preloader) URL(format Format) string {
	return p.baseURL + format.path()
}

// Preload reports whether format is available, probing the backend on first
// call and answering from cache afterwards. Concurrent probes for the same
// format are deduplicated. Probe errors count as unavailable, never fail.
func (p *Preloader) Preload(ctx context.Context, format Format) bool {
	p.mu.Lock()
	if ok, cached := p.cache[format]; cached {
		p.mu.Unlock()
		return ok
	}
	p.mu.Unlock()

	result, _, _ := p.sf.Do(string(format), func() (any, error) {
		ok := p.probe(ctx, format)
		p.mu.Lock()
		p.cache[format] = ok
		p.mu.Unlock()
		return ok, nil
	})
	return result.(bool)
}

// probe issues one bounded GET against the format's endpoint. Only the
// response status matters; the body is discarded without reading the video.
func (p *Preloader) probe(ctx context.Context, format Format) bool {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, p.URL(format), nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		slog.Debug("video: probe failed", "format", format, "error", err)
		return false
	}
	defer resp.Body.Close()

	available := resp.StatusCode >= 200 && resp.StatusCode < 300
	if available {
		slog.Debug("video: rendition available",
			"format", format,
			"content_type", resp.Header.Get("Content-Type"),
			"content_length", resp.ContentLength)
	} else {
		slog.Debug("video: rendition unavailable",
			"format", format, "status", resp.StatusCode)
	}
	return available
}

// PreloadAll probes both renditions concurrently.
func (p *Preloader) PreloadAll(ctx context.Context) Availability {
	var (
		wg    sync.WaitGroup
		avail Availability
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		avail.MP4 = p.Preload(ctx, FormatMP4)
	}()
	go func() {
		defer wg.Done()
		avail.WebM = p.Preload(ctx, FormatWebM)
	}()
	wg.Wait()
	return avail
}

// BestSources returns the playable sources in compatibility order: MP4
// first, then WebM. An empty slice means no transition video.
func (p *Preloader) BestSources(ctx context.Context) []Source {
	avail := p.PreloadAll(ctx)
	var sources []Source
	if avail.MP4 {
		sources = append(sources, Source{URL: p.URL(FormatMP4), Type: FormatMP4.mimeType()})
	}
	if avail.WebM {
		sources = append(sources, Source{URL: p.URL(FormatWebM), Type: FormatWebM.mimeType()})
	}
	return sources
}

// ClearCache forgets all probe results so the next call re-checks.
func (p *Preloader) ClearCache() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = make(map[Format]bool)
}

// String implements fmt.Stringer for log readability.
func (a Availability) String() string {
	return fmt.Sprintf("mp4=%t webm=%t", a.MP4, a.WebM)
}
