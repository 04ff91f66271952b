package mexc

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ServerTime(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/time", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]int64{"serverTime": 1700000001000})
	}))
	defer server.Close()

	c := NewClient(Credentials{}, WithBaseURL(server.URL))
	now, err := c.ServerTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1700000001000), now)
}

func TestClient_MyTradesSignsRequest(t *testing.T) {
	const secret = "test-secret"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/time":
			json.NewEncoder(w).Encode(map[string]int64{"serverTime": 1700000001000})
		case "/myTrades":
			assert.Equal(t, "test-key", r.Header.Get("X-MEXC-APIKEY"))
			assert.Equal(t, "ETHUSDT", r.URL.Query().Get("symbol"))
			assert.Equal(t, "1700000001000", r.URL.Query().Get("timestamp"))

			// The signature covers the encoded query without the
			// signature parameter itself.
			raw := r.URL.RawQuery
			idx := strings.Index(raw, "&signature=")
			require.Positive(t, idx)
			signedPart := raw[:idx]

			mac := hmac.New(sha256.New, []byte(secret))
			mac.Write([]byte(signedPart))
			want := hex.EncodeToString(mac.Sum(nil))
			assert.Equal(t, want, r.URL.Query().Get("signature"))

			json.NewEncoder(w).Encode([]Fill{{
				ID:       "f1",
				Symbol:   "ETHUSDT",
				Qty:      "1.0",
				QuoteQty: "3000.0",
				Time:     1700000000500,
				IsBuyer:  true,
			}})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := NewClient(
		Credentials{AccessKey: "test-key", SecretKey: secret},
		WithBaseURL(server.URL),
	)

	fills, err := c.MyTrades(context.Background(), "ETHUSDT")
	require.NoError(t, err)

	require.Len(t, fills, 1)
	assert.Equal(t, "f1", fills[0].ID)
	assert.True(t, fills[0].IsBuyer)
}

func TestClient_NonRetryableStatus(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/time" {
			json.NewEncoder(w).Encode(map[string]int64{"serverTime": 1})
			return
		}
		calls++
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"code":700002,"msg":"signature invalid"}`))
	}))
	defer server.Close()

	c := NewClient(Credentials{}, WithBaseURL(server.URL))
	_, err := c.MyTrades(context.Background(), "ETHUSDT")
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.Status)
	assert.Equal(t, 1, calls, "4xx responses must not be retried")
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/time" {
			json.NewEncoder(w).Encode(map[string]int64{"serverTime": 1})
			return
		}
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode([]Fill{})
	}))
	defer server.Close()

	c := NewClient(Credentials{}, WithBaseURL(server.URL), WithMaxRetries(2))
	c.retryDelay = 0

	fills, err := c.MyTrades(context.Background(), "ETHUSDT")
	require.NoError(t, err)
	assert.Empty(t, fills)
	assert.Equal(t, 2, calls)
}
