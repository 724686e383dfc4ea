package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(endpoints map[string]string) *Client {
	c := NewClient(endpoints, 2*time.Second)
	c.newBackOff = func() backoff.BackOff {
		return backoff.NewConstantBackOff(time.Millisecond)
	}
	return c
}

func TestClient_FetchJSON(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"Test","branding":"x"}`))
	}))
	defer server.Close()

	client := newTestClient(map[string]string{"phone": server.URL + "/?q="})
	node, err := client.Fetch(context.Background(), "phone", "98 76&x")
	require.NoError(t, err)

	assert.Equal(t, "98 76&x", gotQuery)
	data, _ := node.MarshalJSON()
	assert.JSONEq(t, `{"name":"Test","branding":"x"}`, string(data))
}

func TestClient_NonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>" + strings.Repeat("x", 600)))
	}))
	defer server.Close()

	client := newTestClient(map[string]string{"phone": server.URL + "/?q="})
	node, err := client.Fetch(context.Background(), "phone", "1")
	require.NoError(t, err)

	m := node.(*Mapping)
	errValue, _ := m.Get("error")
	assert.Equal(t, String("Invalid JSON response"), errValue)
	raw, _ := m.Get("raw")
	text, _ := raw.(Scalar).Text()
	assert.Len(t, []rune(text), 500)
	assert.True(t, strings.HasPrefix(text, "<html>"))
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := newTestClient(map[string]string{"phone": server.URL + "/?q="})
	node, err := client.Fetch(context.Background(), "phone", "1")
	require.NoError(t, err)

	assert.Equal(t, int32(3), calls.Load())
	data, _ := node.MarshalJSON()
	assert.JSONEq(t, `{"ok":true}`, string(data))
}

func TestClient_PersistentServerErrorKeepsBody(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"maintenance"}`))
	}))
	defer server.Close()

	client := newTestClient(map[string]string{"phone": server.URL + "/?q="})
	node, err := client.Fetch(context.Background(), "phone", "1")
	require.NoError(t, err)

	assert.Equal(t, int32(maxTries), calls.Load())
	data, _ := node.MarshalJSON()
	assert.JSONEq(t, `{"error":"maintenance"}`, string(data))
}

func TestClient_ClientErrorsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
	}))
	defer server.Close()

	client := newTestClient(map[string]string{"phone": server.URL + "/?q="})
	_, err := client.Fetch(context.Background(), "phone", "1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := newTestClient(map[string]string{"phone": url + "/?q="})
	_, err := client.Fetch(context.Background(), "phone", "1")
	assert.Error(t, err)
}

func TestClient_UnknownCategory(t *testing.T) {
	client := newTestClient(map[string]string{"phone": ""})
	assert.False(t, client.Has("phone"))
	assert.False(t, client.Has("vehicle"))

	_, err := client.Fetch(context.Background(), "vehicle", "1")
	assert.ErrorIs(t, err, ErrUnavailable)
}
