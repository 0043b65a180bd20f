package translate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Translate(t *testing.T) {
	t.Parallel()

	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"sl": q.Get("sl"),
			"tl": q.Get("tl"),
			"q":  q.Get("q"),
		}
		// two segments concatenated in order
		_, _ = w.Write([]byte(`[[["Привет, ","Hello, ",null],["мир","world",null]],null,"en"]`))
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL})
	got, err := client.Translate(context.Background(), "Hello, world", "en", "ru")
	require.NoError(t, err)
	assert.Equal(t, "Привет, мир", got)
	assert.Equal(t, "en", gotQuery["sl"])
	assert.Equal(t, "ru", gotQuery["tl"])
	assert.Equal(t, "Hello, world", gotQuery["q"])
}

func TestClient_Translate_EmptyText(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{Endpoint: "http://127.0.0.1:0"})
	got, err := client.Translate(context.Background(), "", "en", "ru")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClient_Translate_BadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL})
	_, err := client.Translate(context.Background(), "Hello", "en", "ru")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))
}

func TestClient_Translate_MalformedBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>blocked</html>`))
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL})
	_, err := client.Translate(context.Background(), "Hello", "en", "ru")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadResponse))
}

func TestClient_Translate_Timeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL, Timeout: 20 * time.Millisecond})
	_, err := client.Translate(context.Background(), "Hello", "en", "ru")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
}
