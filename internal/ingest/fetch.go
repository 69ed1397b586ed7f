package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/chartloom/internal/dataset"
)

// maxFetchBytes caps downloaded bodies.
const maxFetchBytes = 64 << 20

// Fetcher downloads CSV or XLSX data over HTTP with retry and backoff.
type Fetcher struct {
	httpClient       *http.Client
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleep            func(context.Context, time.Duration) error
}

// NewFetcher returns a fetcher; non-positive values fall back to a 60s
// timeout, 3 attempts, 500ms base delay and a 4s delay cap.
func NewFetcher(httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *Fetcher {
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 3
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 4 * time.Second
	}
	return &Fetcher{
		httpClient:       &http.Client{Timeout: httpTimeout},
		retryMaxAttempts: retryMax,
		retryBaseDelay:   baseDelay,
		retryMaxDelay:    maxDelay,
		sleep:            sleepCtx,
	}
}

// Load fetches rawURL and decodes it. Spreadsheet content types and .xlsx
// paths go to the XLSX reader; everything else is parsed as delimited text.
func (f *Fetcher) Load(ctx context.Context, rawURL string) (*dataset.Dataset, error) {
	body, contentType, err := f.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	name := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		name = u.Path
	}
	if strings.Contains(contentType, "application/vnd") || strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		return ReadXLSX(body, "", 1)
	}
	return readDelimitedBytes(path.Base(name), body)
}

// Get downloads rawURL and returns the body and its Content-Type.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("parse url: %w", err)
	}
	backoff := f.retryBaseDelay
	var lastErr error
	for attempt := 1; attempt <= f.retryMaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, "", fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", "chartloom")
		resp, err := f.httpClient.Do(req)
		if err != nil {
			lastErr = &UnreachableError{Host: u.Host, Err: err}
			if !isRetryableNetErr(err) || attempt == f.retryMaxAttempts {
				return nil, "", lastErr
			}
		} else {
			body, ctype, err := readResponse(rawURL, resp)
			if err == nil {
				return body, ctype, nil
			}
			lastErr = err
			var se *HTTPStatusError
			if !errors.As(err, &se) || !se.Retryable() || attempt == f.retryMaxAttempts {
				return nil, "", err
			}
			if se.RetryAfter > 0 {
				// A server asking for more than the backoff cap is not worth waiting on.
				if se.RetryAfter > f.retryMaxDelay {
					return nil, "", err
				}
				if err := f.sleep(ctx, se.RetryAfter); err != nil {
					return nil, "", err
				}
				continue
			}
		}
		delay := withJitter(backoff)
		if delay > f.retryMaxDelay {
			delay = f.retryMaxDelay
		}
		if err := f.sleep(ctx, delay); err != nil {
			return nil, "", err
		}
		backoff *= 2
	}
	return nil, "", lastErr
}

func readResponse(rawURL string, resp *http.Response) ([]byte, string, error) {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 8<<10))
		se := &HTTPStatusError{URL: rawURL, StatusCode: resp.StatusCode}
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := parseRetryAfterSeconds(ra); err == nil && secs > 0 {
				se.RetryAfter = time.Duration(secs) * time.Second
			}
		}
		return nil, "", se
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxFetchBytes {
		return nil, "", fmt.Errorf("fetch %s: body exceeds %d bytes", rawURL, maxFetchBytes)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func readDelimitedBytes(name string, body []byte) (*dataset.Dataset, error) {
	return csvReader{}.Read(name, body)
}

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// parseRetryAfterSeconds interprets a Retry-After value as seconds or an HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	if s, err := strconv.Atoi(v); err == nil {
		return s, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return int(d.Seconds()), nil
	}
	return 0, fmt.Errorf("invalid Retry-After: %q", v)
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	// +/-20%
	j := time.Duration(rand.Int63n(int64(d)/5*2+1)) - d/5
	return d + j
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
