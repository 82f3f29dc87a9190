package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly"
	"github.com/pfrederiksen/fastfingers-bot/internal/competitor"
)

const (
	RankingsURL = "https://10fastfingers.com/competitions/get_competition_rankings"
	UserAgent   = "fastfingers-bot/1.0 (github.com/pfrederiksen/fastfingers-bot)"
	Timeout     = 30 * time.Second
)

// ErrNoHash is returned when a competition link has no usable path segment
var ErrNoHash = errors.New("competition link has no hash")

// Scraper handles fetching competition rankings
type Scraper struct {
	url     string
	timeout time.Duration
}

// New creates a new Scraper posting to rankingsURL, or RankingsURL when empty
func New(rankingsURL string) *Scraper {
	if rankingsURL == "" {
		rankingsURL = RankingsURL
	}
	return &Scraper{
		url:     rankingsURL,
		timeout: Timeout,
	}
}

// HashFromLink returns the last non-empty path segment of a competition link
func HashFromLink(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("parsing competition link: %w", err)
	}

	segments := strings.Split(u.Path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i], nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoHash, link)
}

// FetchRankings posts the competition hash and returns the raw ranking markup
func (s *Scraper) FetchRankings(ctx context.Context, hash string) ([]byte, error) {
	if hash == "" {
		return nil, ErrNoHash
	}

	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		timeout = time.Until(deadline)
	}

	c := colly.NewCollector(colly.UserAgent(UserAgent))
	c.AllowURLRevisit = true
	c.SetRequestTimeout(timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "*/*")
		r.Headers.Set("X-Requested-With", "XMLHttpRequest")
	})

	var body []byte
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// colly has no context support. On cancellation the request is left to
	// finish within its timeout and its body is discarded.
	done := make(chan error, 1)
	go func() {
		done <- c.Post(s.url, map[string]string{"hash_id": hash})
	}()

	select {
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("fetching rankings: %w", err)
		}
		return body, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Results fetches and parses the rankings of the competition behind link
func (s *Scraper) Results(ctx context.Context, link string) ([]*competitor.Competitor, error) {
	hash, err := HashFromLink(link)
	if err != nil {
		return nil, err
	}

	body, err := s.FetchRankings(ctx, hash)
	if err != nil {
		return nil, err
	}

	return ParseRankings(bytes.NewReader(body))
}
