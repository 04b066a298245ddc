package upstream

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yourorg/elecciones/internal/cache"
	"github.com/yourorg/elecciones/internal/metrics"
	"github.com/yourorg/elecciones/internal/models"
)

// ResultsPath is the results endpoint relative to the API base.
const ResultsPath = "/resultados/getResultados"

const (
	defaultTimeout   = 20 * time.Second
	defaultUserAgent = "Mozilla/5.0 (compatible; elecciones-app/1.0)"
	maxBodyBytes     = 32 << 20
)

// Config configures a Client. Nothing is read from the environment at call time.
type Config struct {
	BaseURL     string
	BearerToken string
	Timeout     time.Duration
	UserAgent   string
	// RPS limits outgoing requests per second; 0 means unlimited.
	RPS float64
	// HTTPClient overrides the transport (tests).
	HTTPClient *http.Client
	// Cache, when set, keeps successful results bodies.
	Cache cache.Store
}

// Client issues GET requests against one JSON API base URL.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

// New builds a Client. A nil logger is replaced by a no-op logger.
func New(cfg Config, log *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{cfg: cfg, http: hc, log: log}
	if cfg.RPS > 0 {
		burst := int(cfg.RPS)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}
	return c
}

// BaseURL returns the configured API base.
func (c *Client) BaseURL() string { return c.cfg.BaseURL }

// Results queries /resultados/getResultados. The query is sent as-is; callers
// validate it first. Any failure is returned as *Error.
func (c *Client) Results(ctx context.Context, q models.Query) (*models.Results, error) {
	key := "resultados?" + q.Encode()
	if c.cfg.Cache != nil {
		if body, err := c.cfg.Cache.Get(key); err == nil {
			if res, derr := models.DecodeResults(body); derr == nil {
				return res, nil
			}
		} else if !errors.Is(err, cache.ErrMiss) {
			c.log.Warn("cache read failed", zap.Error(err))
		}
	}

	body, u, err := c.get(ctx, ResultsPath, q.Values())
	if err != nil {
		return nil, err
	}
	res, err := models.DecodeResults(body)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(string(KindDecode)).Inc()
		return nil, &Error{Kind: KindDecode, URL: u, Err: err}
	}
	metrics.UpstreamRequests.WithLabelValues("ok").Inc()

	if c.cfg.Cache != nil {
		if err := c.cfg.Cache.Set(key, body); err != nil {
			c.log.Warn("cache write failed", zap.Error(err))
		}
	}
	return res, nil
}

// Fetch returns the raw JSON body of GET {base}{path}?{params}.
func (c *Client) Fetch(ctx context.Context, path string, params url.Values) ([]byte, error) {
	body, _, err := c.get(ctx, path, params)
	if err != nil {
		return nil, err
	}
	metrics.UpstreamRequests.WithLabelValues("ok").Inc()
	return body, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, string, error) {
	u := c.cfg.BaseURL + path
	if enc := params.Encode(); enc != "" {
		u += "?" + enc
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			// Wait fails early when the next token lies past the deadline.
			kind := KindTimeout
			if errors.Is(ctx.Err(), context.Canceled) {
				kind = KindCanceled
			}
			metrics.UpstreamRequests.WithLabelValues(string(kind)).Inc()
			return nil, u, &Error{Kind: kind, URL: u, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, u, c.fail(ctx, u, err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")
	if c.cfg.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.BearerToken)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.UpstreamLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, u, c.fail(ctx, u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		metrics.UpstreamRequests.WithLabelValues(string(KindStatus)).Inc()
		return nil, u, &Error{Kind: KindStatus, StatusCode: resp.StatusCode, URL: u}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, u, c.fail(ctx, u, err)
	}
	c.log.Debug("upstream response", zap.String("url", u), zap.Int("bytes", len(body)), zap.Duration("took", time.Since(start)))
	return body, u, nil
}

// fail classifies a transport-level error.
func (c *Client) fail(ctx context.Context, u string, err error) *Error {
	kind := KindNetwork
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		kind = KindTimeout
	case errors.Is(err, context.Canceled), errors.Is(ctx.Err(), context.Canceled):
		kind = KindCanceled
	}
	metrics.UpstreamRequests.WithLabelValues(string(kind)).Inc()
	return &Error{Kind: kind, URL: u, Err: err}
}
