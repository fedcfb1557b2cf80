package gateway

import (
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	mediaTypeV3 = "application/vnd.github.v3+json"
	// tokenType makes oauth2 send "Authorization: token <value>".
	tokenType = "token"
)

// acceptTransport pins the Accept header of every request to the v3 media type.
type acceptTransport struct {
	base http.RoundTripper
}

func (t *acceptTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req2 := req.Clone(req.Context())
	req2.Header.Set("Accept", mediaTypeV3)
	return t.base.RoundTrip(req2)
}

// pacedTransport spaces requests out with a token bucket. It never retries.
type pacedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *pacedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

// newHTTPClient builds the client shared by the REST and GraphQL clients.
func newHTTPClient(opts Options) *http.Client {
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	if opts.RequestsPerMinute > 0 {
		base = &pacedTransport{
			base:    base,
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1),
		}
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: tokenType})
	return &http.Client{
		Timeout: opts.Timeout,
		Transport: &oauth2.Transport{
			Base:   &acceptTransport{base: base},
			Source: ts,
		},
	}
}
