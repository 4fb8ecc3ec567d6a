package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRelay(name, base string) Relay {
	return Relay{
		Name:   name,
		Wrap:   func(target string) string { return base + "/?url=" + url.QueryEscape(target) },
		Unwrap: passthrough,
	}
}

func newTestGateway(relays []Relay) *Gateway {
	return New(zerolog.Nop(), nil, WithRelays(relays), WithRetry(2, 50*time.Millisecond))
}

func countingServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestGetFirstRelaySuccess(t *testing.T) {
	srv1, hits1 := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true}`)
	})
	srv2, hits2 := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true}`)
	})

	g := newTestGateway([]Relay{testRelay("one", srv1.URL), testRelay("two", srv2.URL)})
	body, err := g.Get(context.Background(), "https://na1.api.riotgames.com/x", "key")

	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.EqualValues(t, 1, hits1.Load())
	assert.EqualValues(t, 0, hits2.Load(), "no further relay once one succeeds")
}

func TestGetAppendsCredential(t *testing.T) {
	var got string
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query().Get("url")
		fmt.Fprint(w, `{}`)
	})

	g := newTestGateway([]Relay{testRelay("one", srv.URL)})
	_, err := g.Get(context.Background(), "https://na1.api.riotgames.com/x?count=3", "RGAPI-abc")

	require.NoError(t, err)
	assert.Equal(t, "https://na1.api.riotgames.com/x?count=3&api_key=RGAPI-abc", got)
}

func TestRotatesOnTransportError(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close()
	srv, hits := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"from":"second"}`)
	})

	g := newTestGateway([]Relay{testRelay("dead", dead.URL), testRelay("alive", srv.URL)})
	body, err := g.Get(context.Background(), "https://na1.api.riotgames.com/x", "key")

	require.NoError(t, err)
	assert.JSONEq(t, `{"from":"second"}`, string(body))
	assert.EqualValues(t, 1, hits.Load())
}

func TestRotatesOnMalformedBody(t *testing.T) {
	srv1, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>relay error page</html>")
	})
	srv2, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true}`)
	})

	g := newTestGateway([]Relay{testRelay("html", srv1.URL), testRelay("json", srv2.URL)})
	body, err := g.Get(context.Background(), "https://na1.api.riotgames.com/x", "key")

	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestRotatesOnBadStatus(t *testing.T) {
	srv1, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv2, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true}`)
	})

	g := newTestGateway([]Relay{testRelay("broken", srv1.URL), testRelay("good", srv2.URL)})
	body, err := g.Get(context.Background(), "https://na1.api.riotgames.com/x", "key")

	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestAllRelaysFail(t *testing.T) {
	var servers []Relay
	var counters []*atomic.Int64
	for i := 0; i < 3; i++ {
		srv, hits := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		servers = append(servers, testRelay(fmt.Sprintf("relay%d", i), srv.URL))
		counters = append(counters, hits)
	}

	g := newTestGateway(servers)
	_, err := g.Get(context.Background(), "https://na1.api.riotgames.com/x", "key")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "all relays failed")
	for i, hits := range counters {
		assert.EqualValues(t, 1, hits.Load(), "relay %d attempted exactly once", i)
	}
}

func TestNotFoundHTTPStatus(t *testing.T) {
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	next, hits := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})

	g := newTestGateway([]Relay{testRelay("one", srv.URL), testRelay("two", next.URL)})
	body, err := g.Get(context.Background(), "https://na1.api.riotgames.com/x", "key")

	require.NoError(t, err)
	assert.Nil(t, body, "404 is a valid empty result, not an error")
	assert.EqualValues(t, 0, hits.Load(), "404 is terminal, no rotation")
}

func TestNotFoundWrappedInBody(t *testing.T) {
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":{"status_code":404,"message":"Data not found"}}`)
	})

	g := newTestGateway([]Relay{testRelay("one", srv.URL)})
	body, err := g.Get(context.Background(), "https://na1.api.riotgames.com/x", "key")

	require.NoError(t, err)
	assert.Nil(t, body)
}

func TestNotFoundEnvelopeConvention(t *testing.T) {
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		inner := `{"status":{"status_code":404,"message":"Data not found"}}`
		env := map[string]any{
			"contents": inner,
			"status":   map[string]int{"http_code": 404},
		}
		_ = json.NewEncoder(w).Encode(env)
	})

	relay := Relay{
		Name:   "envelope",
		Wrap:   func(target string) string { return srv.URL + "/?url=" + url.QueryEscape(target) },
		Unwrap: unwrapAllOrigins,
	}

	g := newTestGateway([]Relay{relay})
	body, err := g.Get(context.Background(), "https://na1.api.riotgames.com/x", "key")

	require.NoError(t, err)
	assert.Nil(t, body)
}

func TestEnvelopeSuccessUnwrapped(t *testing.T) {
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		env := map[string]any{
			"contents": `{"puuid":"abc"}`,
			"status":   map[string]int{"http_code": 200},
		}
		_ = json.NewEncoder(w).Encode(env)
	})

	relay := Relay{
		Name:   "envelope",
		Wrap:   func(target string) string { return srv.URL + "/?url=" + url.QueryEscape(target) },
		Unwrap: unwrapAllOrigins,
	}

	g := newTestGateway([]Relay{relay})
	body, err := g.Get(context.Background(), "https://na1.api.riotgames.com/x", "key")

	require.NoError(t, err)
	assert.JSONEq(t, `{"puuid":"abc"}`, string(body))
}

func TestForbiddenShortCircuits(t *testing.T) {
	srv1, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	srv2, hits2 := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})

	g := newTestGateway([]Relay{testRelay("one", srv1.URL), testRelay("two", srv2.URL)})
	_, err := g.Get(context.Background(), "https://na1.api.riotgames.com/x", "badkey")

	assert.ErrorIs(t, err, ErrForbidden)
	assert.EqualValues(t, 0, hits2.Load(), "a bad credential cannot be fixed by another relay")
}

func TestRateLimitRetryThenSuccess(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	t.Cleanup(srv.Close)

	g := New(zerolog.Nop(), nil, WithRelays([]Relay{testRelay("one", srv.URL)}), WithRetry(2, 100*time.Millisecond))

	start := time.Now()
	body, err := g.Get(context.Background(), "https://na1.api.riotgames.com/x", "key")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.EqualValues(t, 2, calls.Load())
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond, "exactly one backoff wait before the retry")
}

func TestRateLimitBudgetExhausted(t *testing.T) {
	srv, hits := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	g := New(zerolog.Nop(), nil, WithRelays([]Relay{testRelay("one", srv.URL)}), WithRetry(2, 10*time.Millisecond))
	_, err := g.Get(context.Background(), "https://na1.api.riotgames.com/x", "key")

	assert.ErrorIs(t, err, ErrRateLimited)
	assert.EqualValues(t, 3, hits.Load(), "initial attempt plus two retries")
}

func TestRateLimitWrappedInBody(t *testing.T) {
	srv, hits := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":{"status_code":429,"message":"Rate limit exceeded"}}`)
	})

	g := New(zerolog.Nop(), nil, WithRelays([]Relay{testRelay("one", srv.URL)}), WithRetry(1, 10*time.Millisecond))
	_, err := g.Get(context.Background(), "https://na1.api.riotgames.com/x", "key")

	assert.ErrorIs(t, err, ErrRateLimited)
	assert.EqualValues(t, 2, hits.Load())
}

func TestDefaultRelayOrder(t *testing.T) {
	relays := DefaultRelays()
	require.Len(t, relays, 3)
	assert.Equal(t, "allorigins", relays[0].Name)
	assert.Equal(t, "corsproxy", relays[1].Name)
	assert.Equal(t, "codetabs", relays[2].Name)

	wrapped := relays[0].Wrap("https://na1.api.riotgames.com/x?api_key=k")
	assert.Contains(t, wrapped, "https://api.allorigins.win/get?url=")
	assert.Contains(t, wrapped, url.QueryEscape("https://na1.api.riotgames.com/x?api_key=k"))
}
