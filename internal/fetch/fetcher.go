// Package fetch retrieves job posting pages from untrusted URLs.
//
// Every URL, including each redirect target, passes through urlguard before a
// request is made. The default transport also re-checks resolved addresses at
// dial time so a public hostname that resolves to a private address is refused.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alnah/go-jobcraft/internal/metrics"
	"github.com/alnah/go-jobcraft/internal/urlguard"
)

// Defaults.
const (
	DefaultTimeout      = 10 * time.Second
	DefaultMaxRedirects = 3
	DefaultMaxBodyBytes = 5 << 20
	DefaultMaxTextRunes = 20000
	DefaultUserAgent    = "go-jobcraft/1.0 (+https://github.com/alnah/go-jobcraft)"
)

// Page is a fetched job posting.
type Page struct {
	URL         string
	FinalURL    string
	StatusCode  int
	ContentType string
	Title       string
	HTML        []byte
	Text        string // readable Markdown, truncated to MaxTextRunes
}

// Fetcher performs single-shot guarded GET requests. It never retries.
// Safe for concurrent use.
type Fetcher struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
	maxTextRunes int
	converter    *Converter
	logger       *slog.Logger
	metrics      *metrics.Metrics

	// set by options, consumed by New
	timeout      time.Duration
	maxRedirects int
	transport    http.RoundTripper
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout bounds the whole request including redirects and body read.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithMaxRedirects sets the redirect hop budget. Zero disables redirects.
func WithMaxRedirects(n int) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.maxRedirects = n
		}
	}
}

// WithMaxBodyBytes caps the response body.
func WithMaxBodyBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodyBytes = n
		}
	}
}

// WithMaxTextRunes caps Page.Text.
func WithMaxTextRunes(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxTextRunes = n
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithTransport replaces the guarded default transport. Redirect validation
// still applies; dial-time address checks become the transport's job.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Fetcher) {
		f.transport = rt
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithMetrics records fetch outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fetcher) {
		f.metrics = m
	}
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		userAgent:    DefaultUserAgent,
		maxBodyBytes: DefaultMaxBodyBytes,
		maxTextRunes: DefaultMaxTextRunes,
		converter:    NewConverter(),
		logger:       slog.Default(),
		timeout:      DefaultTimeout,
		maxRedirects: DefaultMaxRedirects,
	}
	for _, opt := range opts {
		opt(f)
	}

	rt := f.transport
	if rt == nil {
		rt = guardedTransport(f.timeout)
	}

	maxRedirects := f.maxRedirects
	f.client = &http.Client{
		Transport: rt,
		Timeout:   f.timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return fmt.Errorf("%w (max %d)", errTooManyRedirects, maxRedirects)
			}
			if err := urlguard.Validate(req.URL.String()); err != nil {
				return err
			}
			return nil
		},
	}
	return f
}

// guardedTransport refuses connections to hosts that resolve to non-public
// addresses, which closes the DNS rebinding gap left by string validation.
func guardedTransport(timeout time.Duration) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}

	dial := func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid address: %w", err)
		}

		ips, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", host, err)
		}
		for _, ip := range ips {
			if urlguard.IsPrivateAddr(ip) {
				return nil, fmt.Errorf("%w: %s -> %s", errPrivateDial, host, ip)
			}
		}

		var lastErr error
		for _, ip := range ips {
			conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip.String(), port))
			if err == nil {
				return conn, nil
			}
			lastErr = err
		}
		if lastErr == nil {
			lastErr = fmt.Errorf("no addresses for %s", host)
		}
		return nil, lastErr
	}

	return &http.Transport{
		DialContext:           dial,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
}

// Fetch retrieves rawURL. Rejected URLs return *Error{Kind: KindBlocked}
// without touching the network.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	if err := urlguard.Validate(rawURL); err != nil {
		f.metrics.Fetch(string(KindBlocked))
		f.logger.Warn("fetch blocked", "url", truncateURL(rawURL), "error", err)
		return nil, &Error{Kind: KindBlocked, URL: truncateURL(rawURL), Err: err}
	}

	page, err := f.do(ctx, rawURL)
	if err != nil {
		var fe *Error
		if errors.As(err, &fe) {
			f.metrics.Fetch(string(fe.Kind))
		}
		f.logger.Warn("fetch failed", "url", rawURL, "error", err)
		return nil, err
	}

	f.metrics.Fetch("ok")
	f.logger.Debug("fetched job page",
		"url", rawURL,
		"final_url", page.FinalURL,
		"status", page.StatusCode,
		"bytes", len(page.HTML),
		"text_runes", utf8.RuneCountInString(page.Text),
	)
	return page, nil
}

func (f *Fetcher) do(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{Kind: KindBlocked, URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,text/plain;q=0.8,*/*;q=0.5")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classify(rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4<<10)
		return nil, &Error{Kind: KindStatus, URL: finalURL, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes+1))
	if err != nil {
		return nil, classify(finalURL, err)
	}
	if int64(len(body)) > f.maxBodyBytes {
		return nil, &Error{
			Kind: KindTooLarge,
			URL:  finalURL,
			Err:  fmt.Errorf("body exceeds %d bytes", f.maxBodyBytes),
		}
	}

	page := &Page{
		URL:         rawURL,
		FinalURL:    finalURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		HTML:        body,
	}

	if isHTML(page.ContentType, body) {
		conv, err := f.converter.Convert(body)
		if err != nil {
			// Conversion is best effort; the raw page still carries the facts.
			f.logger.Debug("html conversion failed, using stripped text", "url", finalURL, "error", err)
			page.Text = truncateRunes(stripTags(body), f.maxTextRunes)
		} else {
			page.Title = conv.Title
			page.Text = truncateRunes(conv.Markdown, f.maxTextRunes)
		}
	} else {
		page.Text = truncateRunes(strings.TrimSpace(string(body)), f.maxTextRunes)
	}

	return page, nil
}

func classify(rawURL string, err error) *Error {
	var rej *urlguard.Rejection
	switch {
	case errors.As(err, &rej):
		return &Error{Kind: KindBlocked, URL: rawURL, Err: err}
	case errors.Is(err, errPrivateDial):
		return &Error{Kind: KindBlocked, URL: rawURL, Err: err}
	default:
		return &Error{Kind: KindNetwork, URL: rawURL, Err: err}
	}
}

func isHTML(contentType string, body []byte) bool {
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			return mt == "text/html" || mt == "application/xhtml+xml"
		}
	}
	return strings.Contains(http.DetectContentType(body), "text/html")
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func truncateURL(s string) string {
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
