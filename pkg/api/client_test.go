package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grass-node/grass-go/pkg/httpretry"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	httpClient, err := NewHTTPClient(nil)
	require.NoError(t, err)

	c, err := NewClient(Config{
		BaseURL: srv.URL,
		HTTP: httpretry.New(httpretry.Config{
			HTTPClient: httpClient,
			RetryDelay: time.Millisecond,
		}),
	})
	require.NoError(t, err)
	return c, srv
}

func TestNewClient_RequiresHTTP(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestLogin_Success(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, DefaultAppOrigin, r.Header.Get("Origin"))
		assert.Equal(t, DefaultAppOrigin+"/", r.Header.Get("Referer"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))

		var creds map[string]string
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &creds))
		assert.Equal(t, map[string]string{"user": "alice", "password": "secret"}, creds)

		_, _ = w.Write([]byte(`{"data":{"id":"user-123","email":"alice@example.test"}}`))
	})

	id, err := c.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, UserID("user-123"), id)
}

func TestLogin_MissingIdentityIsFatal(t *testing.T) {
	bodies := []string{
		`{}`,
		`{"data":null}`,
		`{"data":{}}`,
		`{"data":{"id":""}}`,
		`{"error":{"message":"invalid credentials"}}`,
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(body))
			})

			id, err := c.Login(context.Background(), "alice", "wrong")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrLoginFailed)
			assert.ErrorIs(t, err, ErrNoIdentity)
			assert.Empty(t, id)
		})
	}
}

func TestLogin_MalformedBodyIsFatal(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	})

	_, err := c.Login(context.Background(), "alice", "secret")
	assert.ErrorIs(t, err, ErrLoginFailed)
}

func TestLogin_NoResponseIsFatal(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := c.Login(context.Background(), "alice", "secret")
	assert.ErrorIs(t, err, ErrLoginFailed)
	assert.ErrorIs(t, err, httpretry.ErrNoResponse)
}

func TestLogin_CookiesReplayedOnDevice(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
			_, _ = w.Write([]byte(`{"data":{"id":"user-123"}}`))
		case "/extension/device":
			cookie, err := r.Cookie("session")
			if err != nil || cookie.Value != "abc" {
				_, _ = w.Write([]byte(`{"data":null}`))
				return
			}
			_, _ = w.Write([]byte(`{"data":{"device_id":"dev-1","device_ip":"203.0.113.7","final_score":80}}`))
		}
	})

	_, err := c.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)

	dev, ok := c.Device(context.Background())
	require.True(t, ok)
	assert.Equal(t, "dev-1", dev.DeviceID)
}

func TestDevice_Success(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/extension/device", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":{
			"device_id":"dev-1",
			"device_ip":"203.0.113.7",
			"user_agent":"Mozilla/5.0 test",
			"device_type":"extension",
			"final_score":88.5,
			"total_uptime":1234
		}}`))
	})

	dev, ok := c.Device(context.Background())
	require.True(t, ok)
	assert.Equal(t, "dev-1", dev.DeviceID)
	assert.Equal(t, "203.0.113.7", dev.DeviceIP)
	assert.Equal(t, "Mozilla/5.0 test", dev.UserAgent)
	assert.Equal(t, "extension", dev.DeviceType)
	assert.InDelta(t, 88.5, dev.FinalScore, 0.0001)
	assert.Contains(t, string(dev.Raw), "total_uptime")
}

func TestDevice_EmptyDataIsNoResult(t *testing.T) {
	bodies := []string{
		`{"data":null}`,
		`{"data":{}}`,
		`{"data": { }}`,
		`{}`,
		`{"data":""}`,
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})

			var (
				dev *Device
				ok  bool
			)
			assert.NotPanics(t, func() {
				dev, ok = c.Device(context.Background())
			})
			assert.False(t, ok)
			assert.Nil(t, dev)
		})
	}
}

func TestDevice_MalformedIsNoResult(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	dev, ok := c.DeviceQuiet(context.Background())
	assert.False(t, ok)
	assert.Nil(t, dev)
}

func TestDevice_NoResponseIsNoResult(t *testing.T) {
	var hits atomic.Int32
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})
	srv.Close()

	dev, ok := c.Device(context.Background())
	assert.False(t, ok)
	assert.Nil(t, dev)
	assert.Zero(t, hits.Load())
}

func TestIsEmptyJSON(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"", true},
		{"null", true},
		{"{}", true},
		{" { } ", true},
		{`{"device_id":"x"}`, false},
		{`"x"`, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, isEmptyJSON(json.RawMessage(tt.raw)))
		})
	}
}
