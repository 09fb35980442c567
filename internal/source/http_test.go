package source_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loog-project/rulist/internal/source"
	"github.com/loog-project/rulist/internal/user"
)

func usersJSON(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf(`{"id":%d,"first_name":"First%d","last_name":"Last%d","avatar":"https://a/%d.png"}`,
			i, i, i, i)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func newSource(t *testing.T, handler http.HandlerFunc, opts ...func(*source.Options)) *source.HTTPSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	src, err := source.NewHTTPSource(srv.URL+"/api/v2/users", opts...)
	require.NoError(t, err)
	return src
}

func TestFetchManySendsSizeAndKeepsOrder(t *testing.T) {
	var gotQuery, gotRequestID string
	src := newSource(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotRequestID = r.Header.Get("X-Request-ID")
		n, _ := strconv.Atoi(r.URL.Query().Get("size"))
		_, _ = w.Write([]byte(usersJSON(n)))
	})

	records, err := src.FetchMany(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 10)

	assert.Equal(t, "size=10", gotQuery)
	assert.NotEmpty(t, gotRequestID)
	for i, r := range records {
		assert.Equal(t, user.ID(strconv.Itoa(i)), r.ID)
		assert.Equal(t, "First"+strconv.Itoa(i), r.FirstName)
	}
}

func TestFetchOneOmitsSize(t *testing.T) {
	var gotQuery string
	src := newSource(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"id":"u-1","first_name":"Grace","last_name":"Hopper","avatar":""}`))
	})

	r, err := src.FetchOne(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotQuery)
	assert.Equal(t, user.ID("u-1"), r.ID)
	assert.Equal(t, "Grace Hopper", r.FullName())
}

func TestFetchOneAcceptsSingleElementArray(t *testing.T) {
	src := newSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(usersJSON(1)))
	})

	r, err := src.FetchOne(context.Background())
	require.NoError(t, err)
	assert.Equal(t, user.ID("0"), r.ID)
}

func TestFetchErrorsAreClassified(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		kind    source.ErrorKind
	}{
		{
			name: "non-2xx status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "slow down", http.StatusTooManyRequests)
			},
			kind: source.KindStatus,
		},
		{
			name: "malformed payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[{"id":1,"first_name":`))
			},
			kind: source.KindDecode,
		},
		{
			name: "not json at all",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>oops</html>`))
			},
			kind: source.KindDecode,
		},
		{
			name: "record without id",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[{"first_name":"No","last_name":"Id"}]`))
			},
			kind: source.KindInvalid,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := newSource(t, tc.handler)

			_, err := src.FetchMany(context.Background(), 3)
			var netErr *source.NetworkError
			require.True(t, errors.As(err, &netErr), "want NetworkError, got %v", err)
			assert.Equal(t, tc.kind, netErr.Kind)
		})
	}
}

func TestStatusErrorCarriesCode(t *testing.T) {
	src := newSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := src.FetchOne(context.Background())
	var netErr *source.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.StatusServiceUnavailable, netErr.StatusCode)
	assert.Contains(t, err.Error(), "503")
}

func TestConnectivityError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	src, err := source.NewHTTPSource(endpoint, source.WithTimeout(time.Second))
	require.NoError(t, err)

	_, err = src.FetchMany(context.Background(), 10)
	var netErr *source.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, source.KindConnectivity, netErr.Kind)
}

func TestFetchManyRejectsNonPositiveSize(t *testing.T) {
	var calls atomic.Int32
	src := newSource(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := src.FetchMany(context.Background(), 0)
	var netErr *source.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, source.KindInvalid, netErr.Kind)
	assert.Zero(t, calls.Load())
}

func TestConcurrentFetchManyShareOneRequest(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	src := newSource(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		_, _ = w.Write([]byte(usersJSON(2)))
	})

	type result struct {
		records []user.Record
		err     error
	}
	results := make(chan result, 2)
	for i := 0; i < 2; i++ {
		go func() {
			r, err := src.FetchMany(context.Background(), 2)
			results <- result{r, err}
		}()
	}

	// give both callers time to join the flight
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)

	first, second := <-results, <-results
	require.NoError(t, first.err)
	require.NoError(t, second.err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, first.records, second.records)

	// callers get independent slices
	first.records[0].FirstName = "changed"
	assert.NotEqual(t, first.records[0].FirstName, second.records[0].FirstName)
}

func TestRateLimitHonoursContext(t *testing.T) {
	src := newSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(usersJSON(1)))
	}, source.WithRateLimit(0.001, 1))

	_, err := src.FetchOne(context.Background())
	require.NoError(t, err)

	// the bucket is empty now, the next call must give up with its context
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = src.FetchOne(ctx)
	var netErr *source.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, source.KindConnectivity, netErr.Kind)
}

func TestNewHTTPSourceValidatesEndpoint(t *testing.T) {
	_, err := source.NewHTTPSource("ftp://example.com/users")
	assert.Error(t, err)

	src, err := source.NewHTTPSource("")
	require.NoError(t, err)
	assert.NotNil(t, src)
}
