package narrate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/smartreader/reader/internal/translate"
)

// Provider names a speech backend.
type Provider string

const (
	// ProviderRemote synthesizes audio per chunk via HTTP.
	ProviderRemote Provider = "remote"
	// ProviderDevice uses the local synthesis engine.
	ProviderDevice Provider = "device"
)

// RemoteSpeech synthesizes and plays one chunk of text, returning when
// playback finishes or the context is cancelled.
type RemoteSpeech interface {
	Play(ctx context.Context, text, lang string, rate float64) error
}

// AudioSink plays a fetched audio clip. The platform binding supplies it;
// playback must stop promptly when the context is cancelled.
type AudioSink interface {
	Play(ctx context.Context, audio []byte, rate float64) error
}

// Utterance is one request to the on-device engine. Done is invoked exactly
// once, on completion or engine error.
type Utterance struct {
	Text  string
	Lang  string
	Voice *Voice
	Rate  float64
	Done  func(err error)
}

// SpeechEngine is the on-device synthesis engine. Voice enumeration may
// populate asynchronously after startup, so Voices can be empty at first.
type SpeechEngine interface {
	Speak(u Utterance) error
	Cancel()
	Pause()
	Resume()
	Speaking() bool
	Voices() []Voice
}

const (
	// DefaultSpeechEndpoint is the chunked speech-audio endpoint the
	// browser original used.
	DefaultSpeechEndpoint = "https://translate.google.com/translate_tts"

	defaultSpeechTimeout = 5 * time.Second
)

// RemoteClient fetches synthesized audio per chunk over HTTP and hands it
// to an AudioSink.
type RemoteClient struct {
	endpoint   string
	httpClient *http.Client
	sink       AudioSink
}

func NewRemoteClient(endpoint string, timeout time.Duration, sink AudioSink) *RemoteClient {
	if endpoint == "" {
		endpoint = DefaultSpeechEndpoint
	}
	if timeout <= 0 {
		timeout = defaultSpeechTimeout
	}
	return &RemoteClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		sink: sink,
	}
}

var _ RemoteSpeech = (*RemoteClient)(nil)

func (c *RemoteClient) Play(ctx context.Context, text, lang string, rate float64) error {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", lang)
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build speech request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch speech audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: speech backend returned status %d", translate.ErrNetwork, resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read speech audio: %w", err)
	}
	return c.sink.Play(ctx, audio, rate)
}
