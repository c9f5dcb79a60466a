package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/juan-materiarun/quartz-ai/internal/domain/audit"
	"github.com/juan-materiarun/quartz-ai/internal/infrastructure/logging"
)

const (
	// DefaultTimeout bounds the whole fetch, body included
	DefaultTimeout = 20 * time.Second

	// DefaultMaxBody caps the decoded document size
	DefaultMaxBody = 10 * 1024 * 1024

	// MinBodyChars rejects error and interstitial pages
	MinBodyChars = 100
)

// Config tunes the fetcher
type Config struct {
	Timeout time.Duration
	MaxBody int64
}

// DefaultConfig returns the production fetch settings
func DefaultConfig() Config {
	return Config{
		Timeout: DefaultTimeout,
		MaxBody: DefaultMaxBody,
	}
}

// Page is a fetched document converted to UTF-8
type Page struct {
	URL         string
	StatusCode  int
	ContentType string
	Charset     string
	Body        string
}

// Fetcher retrieves audit targets over HTTP
type Fetcher struct {
	client *resty.Client
	cfg    Config
	log    *logging.Logger
}

// New creates a fetcher. A nil logger discards output.
func New(cfg Config, log *logging.Logger) *Fetcher {
	defaults := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = defaults.MaxBody
	}
	if log == nil {
		log = logging.NewNop()
	}

	// Failures are surfaced to the caller, never retried
	client := resty.New().
		SetRetryCount(0).
		SetTimeout(cfg.Timeout).
		SetHeaders(BrowserHeaders()).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	return &Fetcher{
		client: client,
		cfg:    cfg,
		log:    log.Named("fetcher"),
	}
}

// Fetch returns the document body at rawURL. It satisfies the pipeline's
// content source contract.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	page, err := f.FetchPage(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return page.Body, nil
}

// FetchPage performs a single GET and classifies any failure as *audit.FetchError
func (f *Fetcher) FetchPage(ctx context.Context, rawURL string) (*Page, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(target)
	if err != nil {
		return nil, f.transportError(ctx, target, err)
	}
	raw := resp.RawBody()
	defer raw.Close()

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		f.log.Warn("target returned error status",
			zap.String("url", target),
			zap.Int("status", status),
		)
		return nil, statusError(target, status)
	}

	contentType := resp.Header().Get("Content-Type")
	data, err := f.readBody(resp.Header().Get("Content-Encoding"), raw)
	if err != nil {
		if ctx.Err() != nil {
			return nil, f.transportError(ctx, target, err)
		}
		return nil, &audit.FetchError{
			Kind:    audit.FetchUnsupported,
			URL:     target,
			Message: "the site returned a body that could not be decoded: " + err.Error(),
			Err:     err,
		}
	}

	if len(data) > 0 && !isTextual(data, contentType) {
		return nil, &audit.FetchError{
			Kind:    audit.FetchUnsupported,
			URL:     target,
			Message: fmt.Sprintf("the URL does not point to a web page (received %s)", describeType(data, contentType)),
		}
	}

	body, cs := toUTF8(data, contentType)
	if utf8.RuneCountInString(strings.TrimSpace(body)) < MinBodyChars {
		return nil, &audit.FetchError{
			Kind:    audit.FetchTooShort,
			URL:     target,
			Message: "the page returned too little content to audit; it may be an error or interstitial page",
		}
	}

	f.log.Debug("fetched target",
		zap.String("url", target),
		zap.Int("bytes", len(data)),
		zap.String("charset", cs),
		zap.Duration("duration", time.Since(start)),
	)

	return &Page{
		URL:         target,
		StatusCode:  status,
		ContentType: contentType,
		Charset:     cs,
		Body:        body,
	}, nil
}

func (f *Fetcher) readBody(encoding string, raw io.Reader) ([]byte, error) {
	limited := io.LimitReader(raw, f.cfg.MaxBody)

	decoded, closeFn, err := decompress(encoding, limited)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	data, err := io.ReadAll(io.LimitReader(decoded, f.cfg.MaxBody))
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	if int64(len(data)) >= f.cfg.MaxBody {
		f.log.Debug("body truncated at size cap", zap.Int64("max_body", f.cfg.MaxBody))
	}
	return data, nil
}

func (f *Fetcher) transportError(ctx context.Context, target string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || isTimeout(err) {
		f.log.Warn("fetch timed out", zap.String("url", target), zap.Duration("timeout", f.cfg.Timeout))
		return &audit.FetchError{
			Kind:    audit.FetchTimeout,
			URL:     target,
			Message: fmt.Sprintf("the site did not respond within %s; it may be slow or unreachable", f.cfg.Timeout),
			Err:     err,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &audit.FetchError{
			Kind:    audit.FetchTransport,
			URL:     target,
			Message: "the request was cancelled before the site responded",
			Err:     err,
		}
	}

	f.log.Warn("fetch failed", zap.String("url", target), zap.Error(err))
	return &audit.FetchError{
		Kind:    audit.FetchTransport,
		URL:     target,
		Message: "could not connect to the site: " + rootCause(err),
		Err:     err,
	}
}

func statusError(target string, status int) *audit.FetchError {
	fe := &audit.FetchError{URL: target, StatusCode: status}
	switch status {
	case http.StatusForbidden:
		fe.Kind = audit.FetchBlocked
		fe.Message = "access denied (HTTP 403): the site blocks automated requests, likely through anti-bot protection. " +
			"Paste the page source and audit it as code instead."
	case http.StatusTooManyRequests:
		fe.Kind = audit.FetchRateLimited
		fe.Message = "the site is rate limiting requests (HTTP 429); wait a few minutes and try again"
	case http.StatusBadRequest:
		fe.Kind = audit.FetchBadRequest
		fe.Message = "the site rejected the request as malformed (HTTP 400); check that the URL is correct"
	default:
		fe.Kind = audit.FetchHTTPStatus
		fe.Message = fmt.Sprintf("the site responded with HTTP %d %s", status, http.StatusText(status))
	}
	return fe
}

// schemePattern matches a leading scheme such as https://. A "://" later in
// the URL, for example in a query parameter, is not a scheme.
var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// NormalizeURL prefixes https:// when no scheme is given and validates the result
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &audit.FetchError{Kind: audit.FetchInvalidURL, Message: "please provide a website URL to audit"}
	}
	if !schemePattern.MatchString(raw) {
		raw = "https://" + strings.TrimPrefix(raw, "//")
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", &audit.FetchError{
			Kind:    audit.FetchInvalidURL,
			URL:     raw,
			Message: fmt.Sprintf("%q is not a valid URL", raw),
			Err:     err,
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &audit.FetchError{
			Kind:    audit.FetchInvalidURL,
			URL:     raw,
			Message: fmt.Sprintf("unsupported URL scheme %q; use http or https", u.Scheme),
		}
	}
	return u.String(), nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func rootCause(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
