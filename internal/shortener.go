package internal

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Shortener turns a URL into a shorter display string. Implementations must
// never fail outward: on any error they return the input unchanged. The
// renderer calls it at most once per summary line.
type Shortener interface {
	Shorten(ctx context.Context, longURL string) string
}

// NoopShortener returns every URL unchanged.
type NoopShortener struct{}

func (NoopShortener) Shorten(_ context.Context, longURL string) string {
	return longURL
}

const (
	dagdEndpoint     = "https://da.gd/s"
	shortenerTimeout = 3 * time.Second
	// Replies longer than this are not short links; something went wrong
	// upstream and the original URL is the safer display string.
	maxShortReply = 128
)

// DagdShortener shortens URLs through the da.gd service. A slow or failing
// service degrades to the original URL; it never stalls the pipeline past the
// client timeout.
type DagdShortener struct {
	Endpoint string
	Client   *http.Client
	Logger   Printfer
}

// Printfer is the minimal logging surface the shortener needs.
type Printfer interface {
	Printf(format string, v ...any)
}

func NewDagdShortener(logger Printfer) *DagdShortener {
	return &DagdShortener{
		Endpoint: dagdEndpoint,
		Client:   &http.Client{Timeout: shortenerTimeout},
		Logger:   logger,
	}
}

func (s *DagdShortener) Shorten(ctx context.Context, longURL string) string {
	if longURL == "" {
		return longURL
	}
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = dagdEndpoint
	}
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: shortenerTimeout}
	}

	target := endpoint + "?url=" + url.QueryEscape(longURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return longURL
	}
	resp, err := client.Do(req)
	if err != nil {
		s.fail("shorten %s: %v", longURL, err)
		return longURL
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.fail("shorten %s: status %d", longURL, resp.StatusCode)
		return longURL
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxShortReply+1))
	if err != nil {
		s.fail("shorten %s: read: %v", longURL, err)
		return longURL
	}
	short := strings.TrimSpace(string(body))
	if short == "" || len(short) > maxShortReply || !strings.HasPrefix(short, "http") {
		s.fail("shorten %s: unusable reply", longURL)
		return longURL
	}
	return short
}

func (s *DagdShortener) fail(format string, v ...any) {
	IncShortenerError()
	if s.Logger != nil {
		s.Logger.Printf(format, v...)
	}
}
