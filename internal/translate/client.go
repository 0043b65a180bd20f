package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultEndpoint is the public translation endpoint the browser
	// original used.
	DefaultEndpoint = "https://translate.googleapis.com/translate_a/single"

	// DefaultTimeout bounds a single translation request. The caller
	// proceeds as failed after this, never hangs.
	DefaultTimeout = 10 * time.Second
)

// Config holds the translation client configuration.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

func (c *Config) withDefaults() Config {
	cfg := *c
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return cfg
}

// Client is an HTTP translation backend. It sends one text block per
// request; there is no batching.
type Client struct {
	config     Config
	httpClient *http.Client
}

func NewClient(config Config) *Client {
	cfg := config.withDefaults()
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

var _ Translator = (*Client)(nil)

// Translate resolves text into targetLang. The response body is the
// endpoint's segment-array format; segments are concatenated in order.
func (c *Client) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if text == "" {
		return "", nil
	}

	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", sourceLang)
	q.Set("tl", targetLang)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build translation request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: translation backend returned status %d", ErrNetwork, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyTransportError(err)
	}

	translated, err := decodeSegments(body)
	if err != nil {
		return "", err
	}
	return translated, nil
}

// decodeSegments parses the endpoint's nested-array payload: the first
// top-level element is a list of segments, and each segment's first element
// is the translated text.
func decodeSegments(body []byte) (string, error) {
	var top []json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if len(top) == 0 {
		return "", fmt.Errorf("%w: empty payload", ErrBadResponse)
	}

	var segments []json.RawMessage
	if err := json.Unmarshal(top[0], &segments); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	var out string
	for _, seg := range segments {
		var parts []json.RawMessage
		if err := json.Unmarshal(seg, &parts); err != nil {
			return "", fmt.Errorf("%w: %v", ErrBadResponse, err)
		}
		if len(parts) == 0 {
			continue
		}
		var piece string
		if err := json.Unmarshal(parts[0], &piece); err != nil {
			return "", fmt.Errorf("%w: %v", ErrBadResponse, err)
		}
		out += piece
	}
	return out, nil
}

// classifyTransportError folds transport failures into the package taxonomy.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}
