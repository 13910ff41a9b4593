// Package fetch retrieves answer key pages from vendor hosts that routinely
// block non-browser clients. It tries the page directly with rotating browser
// identities and then falls back to configured mirror routes.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultUserAgents is the identity pool rotated across attempts.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/119.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// EnvelopePrefix marks a mirror template whose response is a JSON object
// carrying the page in its "contents" field.
const EnvelopePrefix = "json:"

// DefaultMirrors are tried after the direct route. {qurl} is replaced with the
// query-escaped target, {url} with the raw target. Templates prefixed with
// EnvelopePrefix answer with a JSON envelope; all others return the page body.
var DefaultMirrors = []string{
	EnvelopePrefix + "https://api.allorigins.win/get?url={qurl}",
	"https://thingproxy.freeboard.io/fetch/{url}",
}

// Config controls the fetch strategy.
type Config struct {
	Timeout     time.Duration // per request
	MaxAttempts int           // per route
	BaseDelay   time.Duration // minimum pause between attempts; actual pause is jittered up to 2x
	Mirrors     []string
	UserAgents  []string
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Timeout:     30 * time.Second,
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Mirrors:     DefaultMirrors,
		UserAgents:  DefaultUserAgents,
	}
}

// Client is a reentrant fetcher. It holds no per-request state.
type Client struct {
	http *http.Client
	cfg  Config
}

// New creates a Client. Zero fields in cfg fall back to DefaultConfig values,
// except Mirrors, where an empty list disables mirror routes.
func New(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BaseDelay < 0 {
		cfg.BaseDelay = 0
	}
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = def.UserAgents
	}
	return &Client{
		http: &http.Client{Timeout: cfg.Timeout},
		cfg:  cfg,
	}
}

// StatusError is returned for a non-200 response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.Code, http.StatusText(e.Code))
}

var errEmptyBody = errors.New("empty response body")

type route struct {
	name     string
	url      string
	envelope bool
}

func (c *Client) routes(target string) []route {
	rs := []route{{name: "direct", url: target}}
	for _, m := range c.cfg.Mirrors {
		m, envelope := strings.CutPrefix(strings.TrimSpace(m), EnvelopePrefix)
		u := strings.ReplaceAll(m, "{qurl}", url.QueryEscape(target))
		u = strings.ReplaceAll(u, "{url}", target)
		host := m
		if p, err := url.Parse(m); err == nil && p.Host != "" {
			host = p.Host
		}
		rs = append(rs, route{name: host, url: u, envelope: envelope})
	}
	return rs
}

// Fetch returns the page body of target, trying each route in turn.
func (c *Client) Fetch(ctx context.Context, target string) (string, error) {
	if _, err := url.ParseRequestURI(target); err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}

	var lastErr error
	attempt := 0
	for _, rt := range c.routes(target) {
		for i := 0; i < c.cfg.MaxAttempts; i++ {
			if attempt > 0 {
				if err := c.pause(ctx); err != nil {
					return "", err
				}
			}
			ua := c.cfg.UserAgents[attempt%len(c.cfg.UserAgents)]
			attempt++

			body, err := c.get(ctx, rt, target, ua)
			if err == nil {
				slog.Info("fetched answer key", "route", rt.name, "attempt", i+1)
				return body, nil
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = fmt.Errorf("%s: %w", rt.name, err)
			slog.Warn("fetch attempt failed", "route", rt.name, "attempt", i+1, "error", err)

			var se *StatusError
			if errors.As(err, &se) && se.Code == http.StatusNotFound {
				// Page is gone on this route.
				break
			}
		}
	}
	return "", fmt.Errorf("all routes exhausted after %d attempts: %w", attempt, lastErr)
}

func (c *Client) get(ctx context.Context, rt route, target, userAgent string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rt.url, nil)
	if err != nil {
		return "", err
	}
	setBrowserHeaders(req, userAgent)
	if rt.name == "direct" {
		if ref := referer(target); ref != "" {
			req.Header.Set("Referer", ref)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &StatusError{Code: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	body := string(data)
	if rt.envelope {
		contents := gjson.Get(body, "contents")
		if !contents.Exists() {
			return "", errors.New("mirror envelope has no contents")
		}
		body = contents.String()
	}
	if strings.TrimSpace(body) == "" {
		return "", errEmptyBody
	}
	return body, nil
}

func (c *Client) pause(ctx context.Context) error {
	if c.cfg.BaseDelay == 0 {
		return ctx.Err()
	}
	d := c.cfg.BaseDelay + time.Duration(rand.Int64N(int64(c.cfg.BaseDelay)+1))
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func setBrowserHeaders(req *http.Request, userAgent string) {
	h := req.Header
	h.Set("User-Agent", userAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9,hi;q=0.8")
	h.Set("DNT", "1")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "cross-site")
	h.Set("Sec-Fetch-User", "?1")
	h.Set("Cache-Control", "max-age=0")
}

// referer returns the site root of target, which vendor hosts expect on deep links.
func referer(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/"
}
