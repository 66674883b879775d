package wolfram

import (
	"context"
	"errors"
	"image"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/u296/wolframalpha-api/pkg/shared/httputil"
	"github.com/u296/wolframalpha-api/pkg/shared/queryescape"
)

// Fetcher performs the HTTP exchange for the client. Non-2xx responses must be reported as
// *httputil.StatusError so the client can recognise rejected questions.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	return f(ctx, rawURL, headers)
}

type httpFetcher struct {
	timeoutSecs int
}

func (f *httpFetcher) Fetch(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	data, _, err := httputil.Get(ctx, rawURL, headers, f.timeoutSecs)
	return data, err
}

// Client asks questions over the full-results and simple APIs.
type Client struct {
	cfg     *Config
	fetcher Fetcher
	log     *zerolog.Logger
}

// NewClient validates cfg and builds a client. A nil fetcher uses net/http with the configured
// timeout; a nil logger disables logging unless the request context carries one.
func NewClient(cfg *Config, fetcher Fetcher, log *zerolog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, ErrMissingAppID
	}
	current := *cfg
	cfg = current.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if fetcher == nil {
		fetcher = &httpFetcher{timeoutSecs: cfg.TimeoutSecs}
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Client{cfg: cfg, fetcher: fetcher, log: log}, nil
}

// Query asks question against the full-results API and parses the answer.
//
// A document that carries an upstream error is returned together with that *UpstreamError,
// so callers can inspect the rest of the result.
func (c *Client) Query(ctx context.Context, question string) (*QueryResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	params := []string{
		"appid=" + queryescape.Encode(c.cfg.AppID),
		"input=" + queryescape.Encode(question),
		"output=json",
	}
	if c.cfg.Units != "" {
		params = append(params, "units="+queryescape.Encode(c.cfg.Units))
	}
	for _, id := range c.cfg.IncludePodIDs {
		params = append(params, "includepodid="+queryescape.Encode(id))
	}

	data, err := c.fetch(ctx, c.cfg.QueryURL, params)
	if err != nil {
		return nil, err
	}
	result, err := Parse(data)
	if err != nil {
		c.logger(ctx).Warn().Err(err).Str("question", question).Msg("Full-results document did not match the expected schema")
		return nil, err
	}
	if result.Error != nil {
		return result, result.Error
	}
	return result, nil
}

// SimpleBytes fetches the rendered answer image from the simple API.
func (c *Client) SimpleBytes(ctx context.Context, question string) ([]byte, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	params := []string{
		"appid=" + queryescape.Encode(c.cfg.AppID),
		"i=" + queryescape.Encode(question),
	}
	if c.cfg.Units != "" {
		params = append(params, "units="+queryescape.Encode(c.cfg.Units))
	}
	return c.fetch(ctx, c.cfg.SimpleURL, params)
}

// SimpleImage fetches and decodes the rendered answer image.
func (c *Client) SimpleImage(ctx context.Context, question string) (image.Image, error) {
	data, err := c.SimpleBytes(ctx, question)
	if err != nil {
		return nil, err
	}
	img, _, err := DecodeImage(data)
	return img, err
}

func (c *Client) fetch(ctx context.Context, endpoint string, params []string) ([]byte, error) {
	log := c.logger(ctx).With().
		Str("request_id", xid.New().String()).
		Str("endpoint", redactURL(endpoint)).
		Logger()
	headers := httputil.MergeHeaders(map[string]string{"User-Agent": c.cfg.UserAgent}, c.cfg.Headers)

	start := time.Now()
	data, err := c.fetcher.Fetch(ctx, endpoint+"?"+strings.Join(params, "&"), headers)
	elapsed := time.Since(start)
	if err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotImplemented {
			log.Debug().Dur("elapsed", elapsed).Msg("Question rejected by upstream")
			return nil, ErrInvalidQuestion
		}
		err = redactError(err)
		log.Warn().Err(err).Dur("elapsed", elapsed).Msg("Request failed")
		return nil, &TransportError{URL: redactURL(endpoint), Err: err}
	}
	log.Debug().Dur("elapsed", elapsed).Int("bytes", len(data)).Msg("Request completed")
	return data, nil
}

func (c *Client) logger(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if ctxLog := zerolog.Ctx(ctx); ctxLog != nil && ctxLog.GetLevel() != zerolog.Disabled {
			return ctxLog
		}
	}
	return c.log
}

// redactError strips the query string from the URL net/http puts into its errors.
func redactError(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	if urlErr == err {
		return &url.Error{Op: urlErr.Op, URL: redactURL(urlErr.URL), Err: urlErr.Err}
	}
	urlErr.URL = redactURL(urlErr.URL)
	return err
}

// redactURL drops the query string so app ids never reach logs or error messages.
func redactURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		base, _, _ := strings.Cut(rawURL, "?")
		return base
	}
	parsed.RawQuery = ""
	parsed.User = nil
	return parsed.String()
}
