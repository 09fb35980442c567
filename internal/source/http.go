package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/loog-project/rulist/internal/user"
)

const (
	DefaultEndpoint = "https://random-data-api.com/api/v2/users"
	DefaultTimeout  = 10 * time.Second

	maxBodyBytes = 4 << 20
	userAgent    = "rulist/1.0"
)

// Options for NewHTTPSource. All fields are optional; use the functional helpers below.
type Options struct {
	// Client is used for all requests. Defaults to a client with DefaultTimeout.
	Client *http.Client

	// Timeout overrides the timeout of the default client. Ignored if Client is set.
	Timeout time.Duration

	// Limiter throttles outgoing requests. nil disables throttling.
	Limiter *rate.Limiter

	Logger zerolog.Logger
}

func WithHTTPClient(c *http.Client) func(*Options) {
	return func(o *Options) { o.Client = c }
}

func WithTimeout(d time.Duration) func(*Options) {
	return func(o *Options) { o.Timeout = d }
}

// WithRateLimit allows perSecond requests per second with the given burst.
// A non-positive perSecond disables throttling.
func WithRateLimit(perSecond float64, burst int) func(*Options) {
	return func(o *Options) {
		if perSecond <= 0 {
			o.Limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		o.Limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func WithLogger(l zerolog.Logger) func(*Options) {
	return func(o *Options) { o.Logger = l }
}

// HTTPSource fetches users from a random-data-api compatible endpoint:
//
//	GET <endpoint>?size=N  -> JSON array of N users
//	GET <endpoint>         -> single JSON user
//
// Identical concurrent FetchMany calls share one request.
type HTTPSource struct {
	endpoint *url.URL
	client   *http.Client
	limiter  *rate.Limiter
	log      zerolog.Logger

	group singleflight.Group
}

var _ Source = (*HTTPSource)(nil)

func NewHTTPSource(endpoint string, opts ...func(*Options)) (*HTTPSource, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint %q: scheme must be http or https", endpoint)
	}

	options := Options{Timeout: DefaultTimeout, Logger: zerolog.Nop()}
	for _, fn := range opts {
		fn(&options)
	}
	client := options.Client
	if client == nil {
		client = &http.Client{Timeout: options.Timeout}
	}

	return &HTTPSource{
		endpoint: u,
		client:   client,
		limiter:  options.Limiter,
		log:      options.Logger,
	}, nil
}

func (s *HTTPSource) FetchMany(ctx context.Context, n int) ([]user.Record, error) {
	target := s.urlFor(n)
	if n < 1 {
		return nil, &NetworkError{
			Kind: KindInvalid,
			URL:  target,
			Err:  fmt.Errorf("page size must be positive, got %d", n),
		}
	}

	resultChan := s.group.DoChan(target, func() (any, error) {
		body, err := s.get(ctx, target)
		if err != nil {
			return nil, err
		}
		return decodeRecords(target, body)
	})

	select {
	case <-ctx.Done():
		return nil, &NetworkError{Kind: KindConnectivity, URL: target, Err: ctx.Err()}
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		// shared results must not alias between callers
		return slices.Clone(res.Val.([]user.Record)), nil
	}
}

func (s *HTTPSource) FetchOne(ctx context.Context) (user.Record, error) {
	target := s.urlFor(0)
	body, err := s.get(ctx, target)
	if err != nil {
		return user.Record{}, err
	}
	records, err := decodeRecords(target, body)
	if err != nil {
		return user.Record{}, err
	}
	if len(records) != 1 {
		return user.Record{}, &NetworkError{
			Kind: KindInvalid,
			URL:  target,
			Err:  fmt.Errorf("expected exactly one user, got %d", len(records)),
		}
	}
	return records[0], nil
}

// urlFor builds the request URL. size < 1 omits the size parameter.
func (s *HTTPSource) urlFor(size int) string {
	u := *s.endpoint
	q := u.Query()
	if size > 0 {
		q.Set("size", strconv.Itoa(size))
	} else {
		q.Del("size")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (s *HTTPSource) get(ctx context.Context, target string) ([]byte, error) {
	requestID := uuid.NewString()
	l := s.log.With().
		Str("request-id", requestID).
		Str("url", target).
		Logger()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, &NetworkError{Kind: KindConnectivity, URL: target, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &NetworkError{Kind: KindConnectivity, URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)

	started := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		l.Debug().Err(err).Msg("Request failed")
		return nil, &NetworkError{Kind: KindConnectivity, URL: target, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	l = l.With().Int("status", resp.StatusCode).Logger()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain a little so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		l.Debug().Msg("Unexpected status")
		return nil, &NetworkError{Kind: KindStatus, URL: target, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, &NetworkError{Kind: KindConnectivity, URL: target, StatusCode: resp.StatusCode, Err: err}
	}
	if len(body) > maxBodyBytes {
		return nil, &NetworkError{
			Kind:       KindDecode,
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("response body exceeds %d bytes", maxBodyBytes),
		}
	}

	l.Debug().
		Dur("took", time.Since(started)).
		Int("bytes", len(body)).
		Msg("Fetched users")
	return body, nil
}

// decodeRecords accepts either a JSON array of users or a single user object.
func decodeRecords(target string, body []byte) ([]user.Record, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, &NetworkError{Kind: KindDecode, URL: target, Err: io.ErrUnexpectedEOF}
	}

	var records []user.Record
	switch body[0] {
	case '[':
		if err := json.Unmarshal(body, &records); err != nil {
			return nil, &NetworkError{Kind: KindDecode, URL: target, Err: err}
		}
	case '{':
		var r user.Record
		if err := json.Unmarshal(body, &r); err != nil {
			return nil, &NetworkError{Kind: KindDecode, URL: target, Err: err}
		}
		records = []user.Record{r}
	default:
		return nil, &NetworkError{
			Kind: KindDecode,
			URL:  target,
			Err:  fmt.Errorf("expected JSON array or object, got %q", body[0]),
		}
	}

	for i, r := range records {
		if err := r.Validate(); err != nil {
			return nil, &NetworkError{Kind: KindInvalid, URL: target, Err: fmt.Errorf("user #%d: %w", i, err)}
		}
	}
	return records, nil
}
