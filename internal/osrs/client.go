// Package osrs reads player and group statistics from the Old School
// RuneScape hiscores, directly or through a list of fallback proxies.
package osrs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	HiscoresURL = "https://secure.runescape.com/m=hiscore_oldschool/index_lite.ws?player="
	GroupURL    = "https://secure.runescape.com/m=hiscore_oldschool_ironman/group-ironman/view-group?name="

	// CollectionLogURL is the TempleOSRS collection log API root.
	CollectionLogURL = "https://templeosrs.com/api/collection-log"

	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "osrs-journal/1.0"
	maxBodySize      = 2 << 20
)

var (
	ErrPlayerNotFound = errors.New("player not found on the hiscores")
	ErrGroupNotFound  = errors.New("group not found")
	ErrRateLimited    = errors.New("too many requests, wait a moment and try again")

	errInvalidBody = errors.New("invalid response body")
)

// ExhaustedError reports that every source failed. Attempts holds one error
// per source, in the order they were tried.
type ExhaustedError struct {
	Lookup   string
	Attempts []error
}

func (e *ExhaustedError) Error() string {
	msgs := make([]string, len(e.Attempts))
	for i, err := range e.Attempts {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("unable to fetch %s: all %d sources failed: %s", e.Lookup, len(e.Attempts), strings.Join(msgs, "; "))
}

func (e *ExhaustedError) Unwrap() []error {
	return e.Attempts
}

type Options struct {
	HTTPClient *http.Client
	// Proxies are tried in order after the direct request. A proxy ending
	// in "=" receives the target URL query-escaped, others get it appended.
	Proxies   []string
	Timeout   time.Duration
	UserAgent string

	HiscoresURL      string
	GroupURL         string
	CollectionLogURL string
}

type Client struct {
	http             *http.Client
	proxies          []string
	userAgent        string
	hiscoresURL      string
	groupURL         string
	collectionLogURL string

	items itemNames
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	c := &Client{
		http:             httpClient,
		proxies:          opts.Proxies,
		userAgent:        opts.UserAgent,
		hiscoresURL:      opts.HiscoresURL,
		groupURL:         opts.GroupURL,
		collectionLogURL: strings.TrimSuffix(opts.CollectionLogURL, "/"),
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	if c.hiscoresURL == "" {
		c.hiscoresURL = HiscoresURL
	}
	if c.groupURL == "" {
		c.groupURL = GroupURL
	}
	if c.collectionLogURL == "" {
		c.collectionLogURL = CollectionLogURL
	}
	return c
}

// sources lists the URLs to try for target, direct first.
func (c *Client) sources(target string) []string {
	out := make([]string, 0, len(c.proxies)+1)
	out = append(out, target)
	for _, p := range c.proxies {
		if strings.HasSuffix(p, "=") {
			out = append(out, p+url.QueryEscape(target))
		} else {
			out = append(out, p+target)
		}
	}
	return out
}

// acceptFunc inspects a response. Returning a not-found error stops the
// chain; any other error moves on to the next source.
type acceptFunc func(status int, body []byte) error

func (c *Client) fetch(ctx context.Context, lookup, target string, accept acceptFunc) ([]byte, error) {
	var attempts []error
	for i, src := range c.sources(target) {
		status, body, err := c.get(ctx, src)
		if err == nil {
			err = accept(status, body)
		}
		if err == nil {
			slog.Debug("hiscores source succeeded", "lookup", lookup, "source", i)
			return body, nil
		}
		if errors.Is(err, ErrPlayerNotFound) || errors.Is(err, ErrGroupNotFound) {
			return nil, err
		}

		slog.Debug("hiscores source failed", "lookup", lookup, "source", i, "error", err)
		attempts = append(attempts, fmt.Errorf("source %d: %w", i+1, err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, &ExhaustedError{Lookup: lookup, Attempts: attempts}
}

func (c *Client) get(ctx context.Context, src string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}
