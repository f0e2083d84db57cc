// Package pow fetches proof-of-work tokens from a remote issuing service.
//
// A TokenFetcher makes exactly one request per call. Every outcome is
// reported through the Logger: callers only learn whether a token was
// obtained and never see an error.
package pow

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"code.cloudfoundry.org/pow-token-cli/internal/config"
)

const (
	logSource = "POWServiceClient"
	logPrefix = "[POW Service] "
)

var separator = strings.Repeat("=", 100)

// Token is an issued proof-of-work token together with the identity it was
// issued for. DeviceID and UserAgent are empty when the service did not
// provide them.
type Token struct {
	Value     string
	DeviceID  string
	UserAgent string
}

// ConfigSource provides the current settings. It is consulted on every
// call.
type ConfigSource interface {
	Settings() (config.Settings, error)
}

// Logger receives the diagnostic records of a TokenFetcher.
type Logger interface {
	LogInfo(message string)
	LogError(errorMessage string, statusCode int, responseText, source string)
}

// TokenFetcher requests tokens from the issuing service. It holds no state
// between calls and is safe for concurrent use.
type TokenFetcher struct {
	src      ConfigSource
	log      Logger
	newDoer  DoerFactory
	counters counters
}

type FetcherOption func(*TokenFetcher)

// WithDoerFactory sets how the per-request HTTP client is built.
func WithDoerFactory(f DoerFactory) FetcherOption {
	return func(t *TokenFetcher) {
		t.newDoer = f
	}
}

// WithMetrics registers request counters with the given client.
func WithMetrics(m MetricClient) FetcherOption {
	return func(t *TokenFetcher) {
		t.counters = newCounters(m)
	}
}

func NewTokenFetcher(src ConfigSource, log Logger, opts ...FetcherOption) *TokenFetcher {
	f := &TokenFetcher{
		src:      src,
		log:      log,
		newDoer:  defaultDoerFactory,
		counters: nopCounters(),
	}

	for _, o := range opts {
		o(f)
	}

	return f
}

// FetchToken makes a single request for a token. It returns false when no
// token could be obtained; the reason has already been logged.
func (f *TokenFetcher) FetchToken(ctx context.Context) (Token, bool) {
	f.counters.attempts()

	s, err := f.src.Settings()
	if err != nil || !s.Configured() {
		responseText := "Configuration error"
		if err != nil {
			responseText = fmt.Sprintf("Configuration error: %s", err)
		}

		f.fail(failure{
			kind:         ConfigMissing,
			message:      "POW service not configured: missing server_url or api_key",
			responseText: responseText,
		})
		return Token{}, false
	}

	t, fl := f.fetch(ctx, s)
	if fl != nil {
		f.fail(*fl)
		return Token{}, false
	}

	f.counters.successes()
	return t, true
}

func (f *TokenFetcher) fetch(ctx context.Context, s config.Settings) (t Token, fl *failure) {
	defer func() {
		if r := recover(); r != nil {
			t = Token{}
			fl = requestException(fmt.Errorf("%v", r))
		}
	}()

	endpoint := s.TokenEndpoint()
	f.log.LogInfo(fmt.Sprintf("%sRequesting token from %s", logPrefix, endpoint))

	proxy, err := s.Proxy()
	if err != nil {
		return Token{}, requestException(err)
	}

	resp, err := f.dispatch(ctx, endpoint, s.APIKey, proxy)
	if err != nil {
		return Token{}, requestException(err)
	}

	if resp.statusCode != http.StatusOK {
		return Token{}, resp.failure(UpstreamError, fmt.Sprintf("POW service request failed: %d", resp.statusCode))
	}

	env, err := decodeEnvelope(resp.body)
	if err != nil {
		return Token{}, resp.failure(InvalidEnvelope, fmt.Sprintf("POW service returned invalid JSON: %s", err))
	}

	if !env.succeeded() {
		return Token{}, resp.failure(UpstreamRejected, "POW service returned success=false")
	}

	t = Token{
		Value:     env.token(),
		DeviceID:  env.deviceID(),
		UserAgent: env.userAgent(),
	}
	if t.Value == "" {
		return Token{}, resp.failure(EmptyToken, "POW service returned empty token")
	}

	// The token is opaque; failing to parse it only affects diagnostics.
	p, perr := parsePayload(t.Value)
	if t.DeviceID == "" && perr == nil {
		t.DeviceID = p.id()
	}

	f.logToken(t, env.cached(), p, perr == nil)

	return t, nil
}

type response struct {
	statusCode int
	body       []byte
}

func (r response) failure(kind FailureKind, message string) *failure {
	return &failure{
		kind:         kind,
		message:      message,
		statusCode:   r.statusCode,
		responseText: string(r.body),
	}
}

// dispatch runs the request on its own goroutine and waits for it or for
// ctx to finish.
func (f *TokenFetcher) dispatch(ctx context.Context, endpoint, apiKey string, proxy *url.URL) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return response{}, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Accept", "application/json")

	type result struct {
		resp response
		err  error
	}

	// Buffered so an abandoned request can always finish.
	results := make(chan result, 1)
	go func() {
		var r result
		defer func() {
			if p := recover(); p != nil {
				r = result{err: fmt.Errorf("request panicked: %v", p)}
			}
			results <- r
		}()

		r.resp, r.err = f.roundTrip(req, proxy)
	}()

	select {
	case r := <-results:
		return r.resp, r.err
	case <-ctx.Done():
		return response{}, ctx.Err()
	}
}

func (f *TokenFetcher) roundTrip(req *http.Request, proxy *url.URL) (response, error) {
	d := f.newDoer(proxy)
	defer release(d)

	resp, err := d.Do(req)
	if err != nil {
		return response{}, err
	}
	defer func() {
		io.Copy(ioutil.Discard, resp.Body)
		resp.Body.Close()
	}()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return response{}, err
	}

	return response{
		statusCode: resp.StatusCode,
		body:       body,
	}, nil
}

func (f *TokenFetcher) logToken(t Token, cached bool, p payload, isJSON bool) {
	status := "fresh"
	if cached {
		status = "cached"
	}

	f.log.LogInfo(separator)
	f.info("Token obtained successfully (%s)", status)
	f.info("Token length: %d", utf8.RuneCountInString(t.Value))
	f.info("Device ID: %s", orNone(t.DeviceID))
	f.info("User Agent: %s", orNone(t.UserAgent))

	switch {
	case !isJSON:
		f.info("Token is not valid JSON")
	case len(p) > 0:
		f.info("Token structure keys: %v", p.keys())
		for _, m := range p {
			f.info("Token[%s]: %s", m.key, render(m.value))
		}
	}

	f.log.LogInfo(separator)
}

func (f *TokenFetcher) info(format string, args ...interface{}) {
	f.log.LogInfo(logPrefix + fmt.Sprintf(format, args...))
}

func (f *TokenFetcher) fail(fl failure) {
	f.counters.failures[fl.kind]()
	f.log.LogError(fl.message, fl.statusCode, fl.responseText, logSource)
}

func requestException(err error) *failure {
	return &failure{
		kind:         RequestException,
		message:      fmt.Sprintf("POW service request exception: %s", err),
		responseText: err.Error(),
	}
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
