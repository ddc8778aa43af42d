// Package gateway issues the single headline request behind every
// category selection, either through the key-injecting proxy or directly
// against the provider.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matheuskafuri/newswave/internal/news"
	"go.uber.org/zap"
)

type Mode int

const (
	// ModeProxy sends only the category; the proxy attaches the credential.
	ModeProxy Mode = iota
	// ModeDirect talks to the provider and needs the API key.
	ModeDirect
)

func (m Mode) String() string {
	if m == ModeDirect {
		return "direct"
	}
	return "proxy"
}

const (
	DefaultBaseURL = "https://newsapi.org"
	DefaultCountry = "us"
	DefaultTimeout = 15 * time.Second

	headlinesPath = "/v2/top-headlines"
	maxBodyBytes  = 8 << 20
)

// Fetcher is what the reader needs from a gateway.
type Fetcher interface {
	Fetch(ctx context.Context, category news.Category) ([]news.Article, error)
}

type Options struct {
	Mode Mode
	// Endpoint is the proxy URL in proxy mode and the provider base URL in
	// direct mode.
	Endpoint   string
	APIKey     string
	Country    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

type Client struct {
	mode     Mode
	endpoint string
	apiKey   string
	country  string
	timeout  time.Duration
	http     *http.Client
	log      *zap.Logger
}

func New(opts Options) *Client {
	c := &Client{
		mode:     opts.Mode,
		endpoint: strings.TrimRight(opts.Endpoint, "/"),
		apiKey:   opts.APIKey,
		country:  opts.Country,
		timeout:  opts.Timeout,
		http:     opts.HTTPClient,
		log:      opts.Logger,
	}
	if c.mode == ModeDirect && c.endpoint == "" {
		c.endpoint = DefaultBaseURL
	}
	if c.country == "" {
		c.country = DefaultCountry
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return c
}

func (c *Client) Mode() Mode { return c.mode }

// Relay is an upstream answer passed along untouched.
type Relay struct {
	Status      int
	ContentType string
	Body        []byte
}

// Fetch performs one request and returns the working set for category.
func (c *Client) Fetch(ctx context.Context, category news.Category) ([]news.Article, error) {
	r, err := c.Relay(ctx, category)
	if err != nil {
		return nil, err
	}
	return Decode(r)
}

// Relay performs one request and returns the raw answer, whatever its
// status. Only configuration and transport failures are errors here.
func (c *Client) Relay(ctx context.Context, category news.Category) (Relay, error) {
	target, err := c.requestURL(category)
	if err != nil {
		return Relay{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Relay{}, &Error{Kind: KindConfig, Message: "building request", Err: c.redact(err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "newswave")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("headline request failed",
			zap.String("category", category.String()),
			zap.Stringer("mode", c.mode),
			zap.Error(c.redact(err)),
		)
		return Relay{}, &Error{Kind: KindTransport, Err: c.redact(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Relay{}, &Error{Kind: KindTransport, Status: resp.StatusCode, Err: c.redact(err)}
	}

	c.log.Debug("headline request",
		zap.String("category", category.String()),
		zap.Stringer("mode", c.mode),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("took", time.Since(start)),
	)

	return Relay{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func (c *Client) requestURL(category news.Category) (string, error) {
	if c.endpoint == "" {
		return "", &Error{Kind: KindConfig, Message: "no endpoint configured"}
	}
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", &Error{Kind: KindConfig, Message: "invalid endpoint", Err: err}
	}

	q := u.Query()
	switch c.mode {
	case ModeDirect:
		if c.apiKey == "" {
			return "", &Error{Kind: KindConfig, Message: MissingKeyMessage}
		}
		u.Path = strings.TrimRight(u.Path, "/") + headlinesPath
		q.Set("country", c.country)
		q.Set("category", category.String())
		q.Set("apiKey", c.apiKey)
	default:
		q.Set("category", category.String())
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// redact strips the credential from URLs embedded in transport errors.
func (c *Client) redact(err error) error {
	if c.apiKey == "" || err == nil {
		return err
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = strings.ReplaceAll(ue.URL, url.QueryEscape(c.apiKey), "REDACTED")
		ue.URL = strings.ReplaceAll(ue.URL, c.apiKey, "REDACTED")
	}
	return err
}

// Decode turns a relayed answer into a working set.
func Decode(r Relay) ([]news.Article, error) {
	if r.Status < 200 || r.Status > 299 {
		return nil, &Error{Kind: KindProtocol, Status: r.Status, Message: bodyMessage(r.Body)}
	}

	var resp news.Response
	if err := json.Unmarshal(r.Body, &resp); err != nil {
		return nil, &Error{Kind: KindProtocol, Message: "decoding response", Err: err}
	}
	if resp.Status == news.StatusError {
		msg := resp.Message
		if msg == "" {
			msg = "provider reported an error"
		}
		return nil, &Error{Kind: KindProvider, Status: r.Status, Message: msg}
	}
	return news.WorkingSet(resp.Articles), nil
}

func bodyMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	text := strings.Join(strings.Fields(string(body)), " ")
	if r := []rune(text); len(r) > 200 {
		text = string(r[:197]) + "..."
	}
	return text
}
